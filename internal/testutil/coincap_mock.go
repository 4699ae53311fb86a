package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MockCoinCapClient is a thread-safe fake implementation of coincap.Client.
// Prices, names and errors are configured per symbol; anything not configured
// is reported as absent.
type MockCoinCapClient struct {
	mu         sync.Mutex
	prices     map[string]decimal.Decimal
	names      map[string]string
	history    map[string]decimal.Decimal
	errors     map[string]error
	histErrors map[string]error
	calls      map[string]int

	// BeforeCall, if set, runs at the start of every call. Tests use it to
	// block or observe concurrency.
	BeforeCall func(ctx context.Context, method, key string)
}

// NewMockCoinCapClient creates a mock with no configured data.
func NewMockCoinCapClient() *MockCoinCapClient {
	return &MockCoinCapClient{
		prices:     map[string]decimal.Decimal{},
		names:      map[string]string{},
		history:    map[string]decimal.Decimal{},
		errors:     map[string]error{},
		histErrors: map[string]error{},
		calls:      map[string]int{},
	}
}

// WithPrice configures the current price and canonical name for symbol.
// An empty name leaves the symbol unknown to CanonicalName.
func (m *MockCoinCapClient) WithPrice(symbol, name, price string) *MockCoinCapClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	symbol = strings.ToUpper(symbol)
	m.prices[symbol] = decimal.RequireFromString(price)
	if name != "" {
		m.names[symbol] = name
	}
	return m
}

// WithName configures only the canonical name for symbol.
func (m *MockCoinCapClient) WithName(symbol, name string) *MockCoinCapClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[strings.ToUpper(symbol)] = name
	return m
}

// WithError makes CurrentPrice and CanonicalName fail for symbol.
func (m *MockCoinCapClient) WithError(symbol string, err error) *MockCoinCapClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[strings.ToUpper(symbol)] = err
	return m
}

// WithHistoricalPrice configures the price of the asset called name on date.
func (m *MockCoinCapClient) WithHistoricalPrice(name string, date time.Time, price string) *MockCoinCapClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[historyKey(name, date)] = decimal.RequireFromString(price)
	return m
}

// WithHistoricalError makes HistoricalPrice fail for the asset called name.
func (m *MockCoinCapClient) WithHistoricalError(name string, err error) *MockCoinCapClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histErrors[strings.ToLower(name)] = err
	return m
}

// Calls returns how many times method was called for key (a symbol, or an
// asset name for HistoricalPrice).
func (m *MockCoinCapClient) Calls(method, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method+":"+key]
}

// CurrentPrice implements coincap.Client.
func (m *MockCoinCapClient) CurrentPrice(ctx context.Context, symbol string) (decimal.NullDecimal, error) {
	symbol = strings.ToUpper(symbol)
	m.record(ctx, "CurrentPrice", symbol)

	if err := ctx.Err(); err != nil {
		return decimal.NullDecimal{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errors[symbol]; err != nil {
		return decimal.NullDecimal{}, err
	}
	price, ok := m.prices[symbol]
	if !ok {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NewNullDecimal(price), nil
}

// CanonicalName implements coincap.Client.
func (m *MockCoinCapClient) CanonicalName(ctx context.Context, symbol string) (string, bool, error) {
	symbol = strings.ToUpper(symbol)
	m.record(ctx, "CanonicalName", symbol)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errors[symbol]; err != nil {
		return "", false, err
	}
	name, ok := m.names[symbol]
	return name, ok, nil
}

// HistoricalPrice implements coincap.Client.
func (m *MockCoinCapClient) HistoricalPrice(ctx context.Context, name string, date time.Time) (decimal.NullDecimal, error) {
	name = strings.ToLower(name)
	m.record(ctx, "HistoricalPrice", name)

	if err := ctx.Err(); err != nil {
		return decimal.NullDecimal{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.histErrors[name]; err != nil {
		return decimal.NullDecimal{}, err
	}
	price, ok := m.history[historyKey(name, date)]
	if !ok {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NewNullDecimal(price), nil
}

func (m *MockCoinCapClient) record(ctx context.Context, method, key string) {
	m.mu.Lock()
	m.calls[method+":"+key]++
	hook := m.BeforeCall
	m.mu.Unlock()

	if hook != nil {
		hook(ctx, method, key)
	}
}

func historyKey(name string, date time.Time) string {
	return strings.ToLower(name) + "|" + date.UTC().Format(time.DateOnly)
}
