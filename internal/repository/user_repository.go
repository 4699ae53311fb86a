package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
)

// UserRepository provides data access methods for the users table.
type UserRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewUserRepository creates a new UserRepository with the provided database connection.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a new UserRepository scoped to the provided transaction.
func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *UserRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetByEmail retrieves the user registered with the given (normalized) email.
// Returns ErrUserNotFound if no user has that email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `
		SELECT id, email, created_at
		FROM users
		WHERE email = ?
	`

	var u model.User
	err := r.getQuerier().QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}

	return u, nil
}

// Insert stores a new user. Returns ErrWalletExists if the email is already registered.
func (r *UserRepository) Insert(ctx context.Context, u model.User) error {
	query := `
		INSERT INTO users (id, email, created_at)
		VALUES (?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query, u.ID, u.Email, u.CreatedAt)
	if isUniqueViolation(err) {
		return apperrors.ErrWalletExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}
