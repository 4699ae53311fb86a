package model

import "github.com/shopspring/decimal"

// WalletAssetEvaluation is the evaluation of one holding at a given date.
type WalletAssetEvaluation struct {
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	Price         decimal.Decimal `json:"price"`
	Value         decimal.Decimal `json:"value"`
	Performance   decimal.Decimal `json:"performance"`
}

// WalletEvaluation summarizes wallet performance at a given date.
// Best and worst fields are null when no holding could be priced.
type WalletEvaluation struct {
	Total            decimal.Decimal         `json:"total"`
	BestAsset        *string                 `json:"bestAsset"`
	BestPerformance  decimal.NullDecimal     `json:"bestPerformance"`
	WorstAsset       *string                 `json:"worstAsset"`
	WorstPerformance decimal.NullDecimal     `json:"worstPerformance"`
	Assets           []WalletAssetEvaluation `json:"assets"`
}
