package model

import "github.com/shopspring/decimal"

const (
	// Precision is the total number of significant digits a stored amount may carry.
	Precision = 20

	// Scale is the number of fractional digits kept for stored amounts and
	// intermediate divisions.
	Scale = 8

	// DisplayScale is the number of fractional digits for monetary and
	// percentage values in API responses.
	DisplayScale = 2
)

// maxIntegerDigits is the largest integer part that fits Precision at Scale.
const maxIntegerDigits = Precision - Scale

// hundred is used for percentage conversion.
var hundred = decimal.NewFromInt(100)

// Hundred returns the decimal value 100.
func Hundred() decimal.Decimal { return hundred }

// Normalize rounds d to Scale fractional digits, half-up.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Display rounds d to DisplayScale fractional digits, half-up.
// Used only when building responses; stored and intermediate values keep full precision.
func Display(d decimal.Decimal) decimal.Decimal {
	return d.Round(DisplayScale)
}

// DisplayNull rounds a nullable value for display, preserving absence.
func DisplayNull(d decimal.NullDecimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NewNullDecimal(Display(d.Decimal))
}

// FitsPrecision reports whether d, once normalized to Scale, fits in Precision digits.
func FitsPrecision(d decimal.Decimal) bool {
	intPart := Normalize(d).Abs().Truncate(0)
	if intPart.IsZero() {
		return true
	}
	return len(intPart.String()) <= maxIntegerDigits
}
