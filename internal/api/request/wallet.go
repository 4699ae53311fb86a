package request

import "github.com/shopspring/decimal"

// CreateWalletRequest represents the request body for creating a wallet
type CreateWalletRequest struct {
	Email string `json:"email"`
}

// AddAssetRequest represents the request body for adding an asset to a wallet.
// Quantity and PurchasePrice accept JSON numbers or decimal strings.
type AddAssetRequest struct {
	Email         string           `json:"email"`
	Symbol        string           `json:"symbol"`
	Quantity      *decimal.Decimal `json:"quantity"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice"`
}
