package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/api/response"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/validation"
)

// maxBodyBytes caps the size of JSON request bodies.
const maxBodyBytes = 1 << 20

// parseJSON decodes the request body into T, rejecting unknown fields.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON: %w", err)
	}
	return req, nil
}

// statusFor maps an error to its HTTP status by kind.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrPriceUnavailable):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrUpstreamTransient):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with the status of its kind. Errors of a known
// kind use their own message; anything else is reported with fallback as the
// message and err as details.
func respondServiceError(w http.ResponseWriter, err error, fallback error) {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		response.RespondError(w, http.StatusBadRequest, "validation failed", vErr.Fields)
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		response.RespondError(w, status, fallback.Error(), err.Error())
		return
	}
	response.RespondError(w, status, rootMessage(err), nil)
}

// rootMessage returns the message of the innermost error that still carries
// more than its kind, so wrapping context does not leak into API responses.
func rootMessage(err error) string {
	msg := err.Error()
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch e {
		case apperrors.ErrNotFound, apperrors.ErrConflict, apperrors.ErrInvalidInput,
			apperrors.ErrPriceUnavailable, apperrors.ErrUpstreamTransient:
			return msg
		}
		msg = e.Error()
	}
	return msg
}

// fixed renders d rounded for display, e.g. 40000.00.
func fixed(d decimal.Decimal) json.Number {
	return json.Number(model.Display(d).StringFixed(model.DisplayScale))
}

// exact renders d without trailing zeros.
func exact(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func nullFixed(d decimal.NullDecimal) *json.Number {
	shown := model.DisplayNull(d)
	if !shown.Valid {
		return nil
	}
	n := json.Number(shown.Decimal.StringFixed(model.DisplayScale))
	return &n
}

func nullExact(d decimal.NullDecimal) *json.Number {
	if !d.Valid {
		return nil
	}
	n := exact(d.Decimal)
	return &n
}
