package model

import "github.com/shopspring/decimal"

// WalletAssetInfo is the valuation of a single holding.
// Price is null when the asset has not been priced yet; Value is then zero.
type WalletAssetInfo struct {
	Symbol        string              `json:"symbol"`
	Price         decimal.NullDecimal `json:"price"`
	Quantity      decimal.Decimal     `json:"quantity"`
	Value         decimal.Decimal     `json:"value"`
	PurchasePrice decimal.Decimal     `json:"purchasePrice"`
}

// WalletInfo is the valuation snapshot of a wallet: the sum of all holding values
// and the per-asset breakdown in holding order.
type WalletInfo struct {
	Total  decimal.Decimal   `json:"total"`
	Assets []WalletAssetInfo `json:"assets"`
}
