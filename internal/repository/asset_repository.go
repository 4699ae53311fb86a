package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
)

// AssetRepository provides data access methods for the asset table.
// Assets are never deleted; prices are written by the refresh scheduler and
// by the first add of a holding.
type AssetRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewAssetRepository creates a new AssetRepository with the provided database connection.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// WithTx returns a new AssetRepository scoped to the provided transaction.
func (r *AssetRepository) WithTx(tx *sql.Tx) *AssetRepository {
	return &AssetRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *AssetRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetBySymbol retrieves the asset with the given (upper-cased) symbol.
// Returns ErrAssetNotFound if the symbol is not tracked.
func (r *AssetRepository) GetBySymbol(ctx context.Context, symbol string) (model.Asset, error) {
	query := `
		SELECT id, symbol, name, last_price, price_updated_at
		FROM asset
		WHERE symbol = ?
	`

	var a model.Asset
	err := r.getQuerier().QueryRowContext(ctx, query, symbol).Scan(
		&a.ID,
		&a.Symbol,
		&a.Name,
		&a.LastPrice,
		&a.PriceUpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Asset{}, apperrors.ErrAssetNotFound
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to query asset: %w", err)
	}

	return a, nil
}

// GetOrCreate inserts the asset unless one with the same symbol exists, and
// returns the stored row. An existing asset is returned unchanged.
func (r *AssetRepository) GetOrCreate(ctx context.Context, a model.Asset) (model.Asset, error) {
	query := `
		INSERT INTO asset (id, symbol, name, last_price, price_updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO NOTHING
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		a.ID,
		a.Symbol,
		a.Name,
		a.LastPrice,
		a.PriceUpdatedAt,
	)
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to insert asset: %w", err)
	}

	return r.GetBySymbol(ctx, a.Symbol)
}

// ListAssets returns every tracked asset ordered by symbol.
// Returns an empty slice if nothing is tracked.
func (r *AssetRepository) ListAssets(ctx context.Context) ([]model.Asset, error) {
	query := `
		SELECT id, symbol, name, last_price, price_updated_at
		FROM asset
		ORDER BY symbol
	`

	rows, err := r.getQuerier().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset table: %w", err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Name, &a.LastPrice, &a.PriceUpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset table results: %w", err)
		}
		assets = append(assets, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset table: %w", err)
	}

	return assets, nil
}

// ListSymbols returns the symbols of every tracked asset ordered alphabetically.
func (r *AssetRepository) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `SELECT symbol FROM asset ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset symbols: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan asset symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset symbols: %w", err)
	}

	return symbols, nil
}

// UpdateLastPrice overwrites the cached price of the asset with the given symbol.
// Returns ErrAssetNotFound if the symbol is not tracked.
func (r *AssetRepository) UpdateLastPrice(ctx context.Context, symbol string, price decimal.Decimal, at time.Time) error {
	query := `
		UPDATE asset
		SET last_price = ?, price_updated_at = ?
		WHERE symbol = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query, price, at.UTC(), symbol)
	if err != nil {
		return fmt.Errorf("failed to update asset price: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.ErrAssetNotFound
	}

	return nil
}

// SetPriceIfMissing stores price on the asset only if it has never been priced.
// It reports whether the price was written.
func (r *AssetRepository) SetPriceIfMissing(ctx context.Context, assetID string, price decimal.Decimal, at time.Time) (bool, error) {
	query := `
		UPDATE asset
		SET last_price = ?, price_updated_at = ?
		WHERE id = ? AND last_price IS NULL
	`

	result, err := r.getQuerier().ExecContext(ctx, query, price, at.UTC(), assetID)
	if err != nil {
		return false, fmt.Errorf("failed to set asset price: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}
