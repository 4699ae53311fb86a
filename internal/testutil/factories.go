package testutil

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
)

// WalletOwnerBuilder provides a fluent interface for creating a test user
// together with the wallet it owns.
//
// Example usage:
//
//	// Simple creation with defaults
//	owner := testutil.NewWalletOwner().Build(t, db)
//
//	// Customized owner
//	owner := testutil.NewWalletOwner().
//	    WithEmail("alice@example.com").
//	    Build(t, db)
type WalletOwnerBuilder struct {
	UserID    string
	WalletID  string
	Email     string
	CreatedAt time.Time
}

// NewWalletOwner creates a WalletOwnerBuilder with sensible defaults.
func NewWalletOwner() *WalletOwnerBuilder {
	return &WalletOwnerBuilder{
		UserID:    MakeID(),
		WalletID:  MakeID(),
		Email:     MakeEmail("user"),
		CreatedAt: time.Now().UTC(),
	}
}

// WithEmail sets a custom email. The email is stored lower-cased.
func (b *WalletOwnerBuilder) WithEmail(email string) *WalletOwnerBuilder {
	b.Email = strings.ToLower(strings.TrimSpace(email))
	return b
}

// Build creates the user and wallet in the database and returns them.
func (b *WalletOwnerBuilder) Build(t *testing.T, db *sql.DB) model.WalletOwner {
	t.Helper()

	_, err := db.Exec(`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)`,
		b.UserID, b.Email, b.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	_, err = db.Exec(`INSERT INTO wallet (id, user_id, created_at) VALUES (?, ?, ?)`,
		b.WalletID, b.UserID, b.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test wallet: %v", err)
	}

	return model.WalletOwner{
		ID:        b.UserID,
		Email:     b.Email,
		WalletID:  b.WalletID,
		CreatedAt: b.CreatedAt,
	}
}

// CreateWalletOwner creates a user with a wallet for the given email.
//
// Example usage:
//
//	owner := testutil.CreateWalletOwner(t, db, "bob@example.com")
func CreateWalletOwner(t *testing.T, db *sql.DB, email string) model.WalletOwner {
	t.Helper()
	return NewWalletOwner().WithEmail(email).Build(t, db)
}

// AssetBuilder provides a fluent interface for creating test assets.
//
// Example usage:
//
//	asset := testutil.NewAsset().
//	    WithSymbol("SOL").
//	    WithName("solana").
//	    WithPrice("150.25").
//	    Build(t, db)
type AssetBuilder struct {
	ID        string
	Symbol    string
	Name      string
	LastPrice decimal.NullDecimal
}

// NewAsset creates an AssetBuilder with a random symbol and no price.
func NewAsset() *AssetBuilder {
	symbol := MakeSymbol("TST")
	return &AssetBuilder{
		ID:     MakeID(),
		Symbol: symbol,
		Name:   strings.ToLower(symbol),
	}
}

// WithSymbol sets a custom symbol.
func (b *AssetBuilder) WithSymbol(symbol string) *AssetBuilder {
	b.Symbol = strings.ToUpper(symbol)
	return b
}

// WithName sets a custom canonical name.
func (b *AssetBuilder) WithName(name string) *AssetBuilder {
	b.Name = name
	return b
}

// WithPrice sets the cached price. Panics on an invalid decimal string.
func (b *AssetBuilder) WithPrice(price string) *AssetBuilder {
	b.LastPrice = decimal.NewNullDecimal(decimal.RequireFromString(price))
	return b
}

// Build creates the asset in the database and returns it.
func (b *AssetBuilder) Build(t *testing.T, db *sql.DB) model.Asset {
	t.Helper()

	var updatedAt sql.NullTime
	if b.LastPrice.Valid {
		updatedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	query := `
		INSERT INTO asset (id, symbol, name, last_price, price_updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Symbol, b.Name, b.LastPrice, updatedAt)
	if err != nil {
		t.Fatalf("Failed to create test asset: %v", err)
	}

	return model.Asset{
		ID:             b.ID,
		Symbol:         b.Symbol,
		Name:           b.Name,
		LastPrice:      b.LastPrice,
		PriceUpdatedAt: updatedAt,
	}
}

// SeededAsset loads the stored asset with the given symbol, such as one of
// those created by the seed migration (BTC, ETH, DOGE).
func SeededAsset(t *testing.T, db *sql.DB, symbol string) model.Asset {
	t.Helper()

	var a model.Asset
	err := db.QueryRow(`SELECT id, symbol, name, last_price, price_updated_at FROM asset WHERE symbol = ?`, symbol).
		Scan(&a.ID, &a.Symbol, &a.Name, &a.LastPrice, &a.PriceUpdatedAt)
	if err != nil {
		t.Fatalf("Failed to load seeded asset %s: %v", symbol, err)
	}
	return a
}

// SetAssetPrice overwrites the cached price of a seeded or built asset.
func SetAssetPrice(t *testing.T, db *sql.DB, symbol, price string) {
	t.Helper()

	_, err := db.Exec(`UPDATE asset SET last_price = ?, price_updated_at = ? WHERE symbol = ?`,
		decimal.RequireFromString(price), time.Now().UTC(), symbol)
	if err != nil {
		t.Fatalf("Failed to set price for %s: %v", symbol, err)
	}
}

// HoldingBuilder provides a fluent interface for creating test holdings.
//
// Example usage:
//
//	holding := testutil.NewHolding(owner.WalletID, btc.ID).
//	    WithQuantity("2").
//	    WithPurchasePrice("10000").
//	    Build(t, db)
type HoldingBuilder struct {
	ID            string
	WalletID      string
	AssetID       string
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
	CreatedAt     time.Time
}

// NewHolding creates a HoldingBuilder for one unit bought at 100.
func NewHolding(walletID, assetID string) *HoldingBuilder {
	return &HoldingBuilder{
		ID:            MakeID(),
		WalletID:      walletID,
		AssetID:       assetID,
		Quantity:      decimal.NewFromInt(1),
		PurchasePrice: decimal.NewFromInt(100),
		CreatedAt:     time.Now().UTC(),
	}
}

// WithQuantity sets the quantity. Panics on an invalid decimal string.
func (b *HoldingBuilder) WithQuantity(quantity string) *HoldingBuilder {
	b.Quantity = decimal.RequireFromString(quantity)
	return b
}

// WithPurchasePrice sets the average purchase price. Panics on an invalid decimal string.
func (b *HoldingBuilder) WithPurchasePrice(price string) *HoldingBuilder {
	b.PurchasePrice = decimal.RequireFromString(price)
	return b
}

// WithCreatedAt sets the creation time, which determines listing order.
func (b *HoldingBuilder) WithCreatedAt(createdAt time.Time) *HoldingBuilder {
	b.CreatedAt = createdAt.UTC()
	return b
}

// Build creates the holding in the database and returns it.
func (b *HoldingBuilder) Build(t *testing.T, db *sql.DB) model.Holding {
	t.Helper()

	query := `
		INSERT INTO wallet_asset (id, wallet_id, asset_id, quantity, purchase_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.WalletID, b.AssetID, b.Quantity, b.PurchasePrice, b.CreatedAt, b.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test holding: %v", err)
	}

	return model.Holding{
		ID:            b.ID,
		WalletID:      b.WalletID,
		AssetID:       b.AssetID,
		Quantity:      b.Quantity,
		PurchasePrice: b.PurchasePrice,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.CreatedAt,
	}
}
