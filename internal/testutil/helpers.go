package testutil

import (
	"database/sql"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/coincap"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/repository"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/service"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/workerpool"
)

// NewTestWalletService creates a WalletService backed by db and the given price source.
func NewTestWalletService(t *testing.T, db *sql.DB, prices coincap.Client) *service.WalletService {
	t.Helper()

	return service.NewWalletService(
		db,
		repository.NewUserRepository(db),
		repository.NewWalletRepository(db),
		repository.NewAssetRepository(db),
		repository.NewHoldingRepository(db),
		prices,
		zerolog.Nop(),
	)
}

// NewTestEvaluationService creates an EvaluationService whose clock reports now.
func NewTestEvaluationService(t *testing.T, db *sql.DB, prices coincap.Client, now time.Time) *service.EvaluationService {
	t.Helper()

	return service.NewEvaluationService(
		NewTestWalletService(t, db, prices),
		prices,
		4,
		zerolog.Nop(),
		service.WithClock(func() time.Time { return now }),
	)
}

// NewTestPool creates and starts a worker pool that is stopped when the test ends.
func NewTestPool(t *testing.T, size int) *workerpool.Pool {
	t.Helper()

	pool := workerpool.New(size, zerolog.Nop())
	pool.Start()
	t.Cleanup(pool.Stop)
	return pool
}

// NewTestPriceRefreshService creates a PriceRefreshService running on a pool of the given size.
func NewTestPriceRefreshService(t *testing.T, db *sql.DB, prices coincap.Client, workers int) *service.PriceRefreshService {
	t.Helper()

	return service.NewPriceRefreshService(
		repository.NewAssetRepository(db),
		prices,
		NewTestPool(t, workers),
		zerolog.Nop(),
	)
}

// NewTestSystemService creates a SystemService backed by db.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db)
}

// Dec parses a decimal string, failing the test if it is invalid.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}

// MustParseDay parses a YYYY-MM-DD date as midnight UTC, failing the test if it is invalid.
func MustParseDay(t *testing.T, s string) time.Time {
	t.Helper()

	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t.Fatalf("invalid date %q: %v", s, err)
	}
	return d
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeEmail generates a unique email address for testing.
//
// Example usage:
//
//	email := testutil.MakeEmail("alice")
//	// Returns: "alice.k3j9x2@example.com"
func MakeEmail(base string) string {
	if base == "" {
		base = "user"
	}
	return base + "." + strings.ToLower(randomAlphanumeric(6)) + "@example.com"
}

// MakeSymbol generates a ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("SOL")
//	// Returns: "SOL1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
