package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
)

// WalletRepository provides data access methods for the wallet table.
type WalletRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewWalletRepository creates a new WalletRepository with the provided database connection.
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// WithTx returns a new WalletRepository scoped to the provided transaction.
func (r *WalletRepository) WithTx(tx *sql.Tx) *WalletRepository {
	return &WalletRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *WalletRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetByUserID retrieves the wallet owned by the given user.
// Returns ErrWalletNotFound if the user has no wallet.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (model.Wallet, error) {
	query := `
		SELECT id, user_id, created_at
		FROM wallet
		WHERE user_id = ?
	`

	var w model.Wallet
	err := r.getQuerier().QueryRowContext(ctx, query, userID).Scan(&w.ID, &w.UserID, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Wallet{}, apperrors.ErrWalletNotFound
	}
	if err != nil {
		return model.Wallet{}, fmt.Errorf("failed to query wallet: %w", err)
	}

	return w, nil
}

// Insert stores a new wallet. Returns ErrWalletExists if the user already owns one.
func (r *WalletRepository) Insert(ctx context.Context, w model.Wallet) error {
	query := `
		INSERT INTO wallet (id, user_id, created_at)
		VALUES (?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query, w.ID, w.UserID, w.CreatedAt)
	if isUniqueViolation(err) {
		return apperrors.ErrWalletExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert wallet: %w", err)
	}

	return nil
}
