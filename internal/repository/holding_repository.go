package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
)

// HoldingRepository provides data access methods for the wallet_asset table,
// which stores one aggregate holding per (wallet, asset).
type HoldingRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// WithTx returns a new HoldingRepository scoped to the provided transaction.
func (r *HoldingRepository) WithTx(tx *sql.Tx) *HoldingRepository {
	return &HoldingRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *HoldingRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetByWalletAndAsset retrieves the wallet's holding of the given asset.
// Returns ErrHoldingNotFound if the wallet does not hold the asset.
func (r *HoldingRepository) GetByWalletAndAsset(ctx context.Context, walletID, assetID string) (model.Holding, error) {
	query := `
		SELECT id, wallet_id, asset_id, quantity, purchase_price, created_at, updated_at
		FROM wallet_asset
		WHERE wallet_id = ? AND asset_id = ?
	`

	var h model.Holding
	err := r.getQuerier().QueryRowContext(ctx, query, walletID, assetID).Scan(
		&h.ID,
		&h.WalletID,
		&h.AssetID,
		&h.Quantity,
		&h.PurchasePrice,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Holding{}, apperrors.ErrHoldingNotFound
	}
	if err != nil {
		return model.Holding{}, fmt.Errorf("failed to query holding: %w", err)
	}

	return h, nil
}

// Insert stores a new holding.
func (r *HoldingRepository) Insert(ctx context.Context, h model.Holding) error {
	query := `
		INSERT INTO wallet_asset (id, wallet_id, asset_id, quantity, purchase_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		h.ID,
		h.WalletID,
		h.AssetID,
		h.Quantity,
		h.PurchasePrice,
		h.CreatedAt,
		h.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperrors.New(apperrors.ErrConflict, "holding already exists for this asset")
	}
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}

	return nil
}

// Update overwrites the quantity and average purchase price of an existing holding.
// Returns ErrHoldingNotFound if no holding has the given ID.
func (r *HoldingRepository) Update(ctx context.Context, h model.Holding) error {
	query := `
		UPDATE wallet_asset
		SET quantity = ?, purchase_price = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query, h.Quantity, h.PurchasePrice, h.UpdatedAt, h.ID)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.ErrHoldingNotFound
	}

	return nil
}

// ListDetailsByWallet returns every holding of the wallet joined with its asset,
// in the order the holdings were created.
// Returns an empty slice if the wallet holds nothing.
func (r *HoldingRepository) ListDetailsByWallet(ctx context.Context, walletID string) ([]model.HoldingDetail, error) {
	query := `
		SELECT
		wa.id, wa.wallet_id, wa.asset_id, wa.quantity, wa.purchase_price, wa.created_at, wa.updated_at,
		a.id, a.symbol, a.name, a.last_price, a.price_updated_at
		FROM wallet_asset wa
		JOIN asset a ON a.id = wa.asset_id
		WHERE wa.wallet_id = ?
		ORDER BY wa.created_at, wa.rowid
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet_asset or asset table: %w", err)
	}
	defer rows.Close()

	details := []model.HoldingDetail{}
	for rows.Next() {
		var d model.HoldingDetail
		err := rows.Scan(
			&d.ID,
			&d.WalletID,
			&d.AssetID,
			&d.Quantity,
			&d.PurchasePrice,
			&d.CreatedAt,
			&d.UpdatedAt,
			&d.Asset.ID,
			&d.Asset.Symbol,
			&d.Asset.Name,
			&d.Asset.LastPrice,
			&d.Asset.PriceUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet_asset results: %w", err)
		}
		details = append(details, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet_asset results: %w", err)
	}

	return details, nil
}
