package model

import "time"

// RefreshReport describes the outcome of one price refresh batch.
// Failures are reported here for observability only; a batch never fails
// because individual symbols could not be refreshed.
type RefreshReport struct {
	Requested int            `json:"requested"` // Distinct symbols submitted
	Updated   int            `json:"updated"`   // Symbols whose price was written
	Missing   int            `json:"missing"`   // Symbols the price source had no price for
	Failed    int            `json:"failed"`    // Symbols whose fetch or write failed
	Skipped   bool           `json:"skipped"`   // true if another batch was still running
	Errors    []RefreshError `json:"errors"`    // Per-symbol failure details
	StartedAt time.Time      `json:"startedAt"`
	Duration  time.Duration  `json:"duration"`
}

// RefreshError records why a single symbol could not be refreshed.
type RefreshError struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}
