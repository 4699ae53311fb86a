package validation

import (
	"fmt"
	"strings"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
)

// Error collects per-field validation messages.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets callers match a validation failure as an invalid-input error.
func (e *Error) Unwrap() error {
	return apperrors.ErrInvalidInput
}
