// Package apperrors defines the error values shared by the service, repository
// and API layers. Every concrete error belongs to exactly one kind, so callers
// can branch on the kind with errors.Is without knowing every concrete value.
package apperrors

import "errors"

// Error kinds. Handlers map these to HTTP status codes.
var (
	// ErrNotFound indicates that a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates that an entity with the same identifying key already exists.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates that caller-supplied values violate a precondition.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPriceUnavailable indicates that the price source returned no data at a point
	// where a price is required to complete the operation.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrUpstreamTransient indicates a failed call to the external price source
	// (network error, unexpected status or malformed response).
	ErrUpstreamTransient = errors.New("upstream price source failure")
)

// kindError is a concrete error with its own message that unwraps to its kind.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New returns an error with the given message that satisfies errors.Is(err, kind).
func New(kind error, msg string) error {
	return &kindError{msg: msg, kind: kind}
}

// Domain entity errors represent missing entities in the system.
var (
	// ErrUserNotFound indicates that no user is registered with the given email.
	ErrUserNotFound = New(ErrNotFound, "user not found")

	// ErrWalletNotFound indicates that the user exists but has no wallet.
	ErrWalletNotFound = New(ErrNotFound, "wallet not found for user")

	// ErrAssetNotFound indicates that no asset is tracked for the given symbol.
	ErrAssetNotFound = New(ErrNotFound, "asset not found")

	// ErrHoldingNotFound indicates that the wallet does not hold the given asset.
	ErrHoldingNotFound = New(ErrNotFound, "holding not found")
)

// Business rule errors.
var (
	ErrWalletExists = New(ErrConflict, "wallet already exists for this email")

	ErrNegativeQuantity      = New(ErrInvalidInput, "quantity must not be negative")
	ErrNegativePurchasePrice = New(ErrInvalidInput, "purchase price must not be negative")
	ErrPrecisionExceeded     = New(ErrInvalidInput, "value exceeds supported precision")
	ErrInvalidEmail          = New(ErrInvalidInput, "a valid email is required")
	ErrInvalidSymbol         = New(ErrInvalidInput, "symbol is required")
	ErrInvalidDate           = New(ErrInvalidInput, "date must be YYYY-MM-DD or DD-MM-YYYY")

	// ErrAssetPriceNotFound is returned when a holding cannot be added because the
	// price source has no price for the symbol. The asset is not added.
	ErrAssetPriceNotFound = New(ErrPriceUnavailable, "asset price not found in pricing API, asset not added")
)

// Operation failure errors used as user-facing messages by the handlers.
var (
	ErrFailedToCreateWallet   = errors.New("failed to create wallet")
	ErrFailedToRetrieveWallet = errors.New("failed to retrieve wallet")
	ErrFailedToAddAsset       = errors.New("failed to add asset")
	ErrFailedToEvaluate       = errors.New("failed to evaluate wallet")
	ErrFailedToRefreshPrices  = errors.New("failed to refresh prices")
	ErrFailedToRetrieveAssets = errors.New("failed to retrieve assets")
	ErrFailedToGetVersionInfo = errors.New("failed to get version information")
)
