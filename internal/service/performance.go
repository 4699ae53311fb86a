package service

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
)

// CalculatePerformance returns the percentage change from purchase to current:
// ((current - purchase) / purchase) * 100, with the division done at
// model.Scale fractional digits. A purchase price of zero or less yields 0.
func CalculatePerformance(current, purchase decimal.Decimal) decimal.Decimal {
	if purchase.Sign() <= 0 {
		return decimal.Zero
	}
	return current.Sub(purchase).DivRound(purchase, model.Scale).Mul(model.Hundred())
}

// Evaluate compares each holding's purchase price with prices[i] and picks the
// best and worst performers.
//
// prices must be parallel to holdings. A holding whose price is not valid is
// skipped: it adds nothing to the total and cannot be best or worst. The first
// priced holding sets both extremes and later ones replace them only when
// strictly better or worse, so ties go to the earlier holding. When nothing is
// priced the total is zero and best and worst are null.
func Evaluate(holdings []model.HoldingDetail, prices []decimal.NullDecimal) model.WalletEvaluation {
	eval := model.WalletEvaluation{
		Total:  decimal.Zero,
		Assets: []model.WalletAssetEvaluation{},
	}

	var bestAsset, worstAsset string
	var bestPerf, worstPerf decimal.Decimal
	priced := false

	for i, h := range holdings {
		if i >= len(prices) || !prices[i].Valid {
			continue
		}
		price := prices[i].Decimal

		value := price.Mul(h.Quantity)
		perf := CalculatePerformance(price, h.PurchasePrice)
		eval.Total = eval.Total.Add(value)

		eval.Assets = append(eval.Assets, model.WalletAssetEvaluation{
			Symbol:        h.Asset.Symbol,
			Quantity:      h.Quantity,
			PurchasePrice: h.PurchasePrice,
			Price:         price,
			Value:         value,
			Performance:   perf,
		})

		if !priced {
			bestAsset, bestPerf = h.Asset.Symbol, perf
			worstAsset, worstPerf = h.Asset.Symbol, perf
			priced = true
			continue
		}
		if perf.GreaterThan(bestPerf) {
			bestAsset, bestPerf = h.Asset.Symbol, perf
		}
		if perf.LessThan(worstPerf) {
			worstAsset, worstPerf = h.Asset.Symbol, perf
		}
	}

	if priced {
		eval.BestAsset = &bestAsset
		eval.BestPerformance = decimal.NewNullDecimal(bestPerf)
		eval.WorstAsset = &worstAsset
		eval.WorstPerformance = decimal.NewNullDecimal(worstPerf)
	}

	return eval
}
