package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a wallet's aggregate position in one asset.
// PurchasePrice is the quantity-weighted average of every purchase merged into it.
type Holding struct {
	ID            string          `json:"id"`
	WalletID      string          `json:"walletId"`
	AssetID       string          `json:"assetId"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// HoldingDetail is a holding joined with the asset it references.
type HoldingDetail struct {
	Holding
	Asset Asset
}
