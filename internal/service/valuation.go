package service

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
)

// PriceLookup returns the price to value a holding at, or an invalid
// NullDecimal if none is known.
type PriceLookup func(h model.HoldingDetail) decimal.NullDecimal

// CachedPrice values holdings at their asset's last fetched price.
func CachedPrice(h model.HoldingDetail) decimal.NullDecimal {
	return h.Asset.LastPrice
}

// ValuePortfolio computes the value of every holding and their sum.
//
// A holding without a known price is still listed, with a null price and a
// value of zero. Assets are returned in holding order. Values are kept at
// full precision; rounding for display is left to the caller.
func ValuePortfolio(holdings []model.HoldingDetail, price PriceLookup) model.WalletInfo {
	info := model.WalletInfo{
		Total:  decimal.Zero,
		Assets: make([]model.WalletAssetInfo, 0, len(holdings)),
	}

	for _, h := range holdings {
		p := price(h)

		value := decimal.Zero
		if p.Valid {
			value = p.Decimal.Mul(h.Quantity)
		}

		info.Total = info.Total.Add(value)
		info.Assets = append(info.Assets, model.WalletAssetInfo{
			Symbol:        h.Asset.Symbol,
			Price:         p,
			Quantity:      h.Quantity,
			Value:         value,
			PurchasePrice: h.PurchasePrice,
		})
	}

	return info
}
