package validation

import (
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/api/request"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
)

const maxSymbolLength = 20

// dateLayouts are the accepted formats of the evaluation date.
var dateLayouts = []string{"2006-01-02", "02-01-2006"}

// ValidateEmail checks that email is a bare address such as alice@example.com.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return apperrors.ErrInvalidEmail
	}
	return nil
}

func ValidateCreateWallet(req request.CreateWalletRequest) error {
	if err := ValidateEmail(req.Email); err != nil {
		return &Error{Fields: map[string]string{"email": err.Error()}}
	}
	return nil
}

func ValidateAddAsset(req request.AddAssetRequest) error {
	errors := make(map[string]string)

	if err := ValidateEmail(req.Email); err != nil {
		errors["email"] = err.Error()
	}

	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		errors["symbol"] = "symbol is required"
	} else if len(symbol) > maxSymbolLength {
		errors["symbol"] = "symbol must be 20 characters or less"
	}

	if msg := checkAmount(req.Quantity, "quantity"); msg != "" {
		errors["quantity"] = msg
	}
	if msg := checkAmount(req.PurchasePrice, "purchasePrice"); msg != "" {
		errors["purchasePrice"] = msg
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

func checkAmount(v *decimal.Decimal, field string) string {
	switch {
	case v == nil:
		return field + " is required"
	case v.IsNegative():
		return field + " must not be negative"
	case !model.FitsPrecision(*v):
		return field + " exceeds supported precision"
	}
	return ""
}

// ParseDate parses an evaluation date in YYYY-MM-DD or DD-MM-YYYY format as
// midnight UTC. An empty value means today in UTC.
func ParseDate(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.ErrInvalidDate
}
