package service

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
)

// MergeHolding folds a purchase of quantity units at price into a holding of
// heldQty units at an average purchase price of heldAvg.
//
// The new average is the quantity-weighted mean of both,
//
//	(heldAvg*heldQty + price*quantity) / (heldQty + quantity)
//
// divided at model.Scale fractional digits, rounding half-up. When the merged
// quantity is zero there is nothing to average and the purchase price is used.
func MergeHolding(heldQty, heldAvg, quantity, price decimal.Decimal) (newQty, newAvg decimal.Decimal) {
	newQty = heldQty.Add(quantity)
	if newQty.IsZero() {
		return newQty, price
	}

	totalCost := heldAvg.Mul(heldQty).Add(price.Mul(quantity))
	return newQty, totalCost.DivRound(newQty, model.Scale)
}

// normalizePurchase checks the inputs of a purchase and rounds them to model.Scale.
func normalizePurchase(quantity, price decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if quantity.IsNegative() {
		return decimal.Zero, decimal.Zero, apperrors.ErrNegativeQuantity
	}
	if price.IsNegative() {
		return decimal.Zero, decimal.Zero, apperrors.ErrNegativePurchasePrice
	}
	if !model.FitsPrecision(quantity) || !model.FitsPrecision(price) {
		return decimal.Zero, decimal.Zero, apperrors.ErrPrecisionExceeded
	}
	return model.Normalize(quantity), model.Normalize(price), nil
}
