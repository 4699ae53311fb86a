// Package coincap provides a client for the CoinCap v3 REST API.
//
// The client distinguishes "no data" from failures: an asset the API does not
// know, or a day without history, is reported as an absent value with a nil
// error. Errors are reserved for transport, status and decoding failures and
// always wrap apperrors.ErrUpstreamTransient.
package coincap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
)

const (
	DefaultBaseURL   = "https://rest.coincap.io/v3"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client is the price source the services depend on.
type Client interface {
	// CurrentPrice returns the latest USD price for symbol, or an invalid
	// NullDecimal if the source has no price for it.
	CurrentPrice(ctx context.Context, symbol string) (decimal.NullDecimal, error)

	// CanonicalName returns the source's identifier for symbol (e.g. "bitcoin"
	// for BTC). ok is false if the symbol is unknown.
	CanonicalName(ctx context.Context, symbol string) (name string, ok bool, err error)

	// HistoricalPrice returns the USD price of the asset identified by name on
	// the given UTC calendar day, or an invalid NullDecimal if there is none.
	HistoricalPrice(ctx context.Context, name string, date time.Time) (decimal.NullDecimal, error)
}

// PriceClient implements Client over HTTP.
type PriceClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
	search     singleflight.Group
}

// ClientOption configures the client
type ClientOption func(*PriceClient)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *PriceClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAPIKey sets the API key sent with every request
func WithAPIKey(apiKey string) ClientOption {
	return func(c *PriceClient) {
		c.apiKey = apiKey
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *PriceClient) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout on a copy of the current HTTP client, so a
// client passed to WithHTTPClient is never modified.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *PriceClient) {
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// WithHTTPClient replaces the HTTP client. Set it before WithTimeout.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *PriceClient) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *PriceClient) {
		c.logger = logger.With().Str("component", "coincap").Logger()
	}
}

// NewPriceClient creates a new CoinCap client
func NewPriceClient(opts ...ClientOption) *PriceClient {
	c := &PriceClient{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-2xx response from CoinCap.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("CoinCap API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap classifies every API error as an upstream failure.
func (e *APIError) Unwrap() error {
	return apperrors.ErrUpstreamTransient
}

// CurrentPrice implements Client.
func (c *PriceClient) CurrentPrice(ctx context.Context, symbol string) (decimal.NullDecimal, error) {
	res, err := c.searchAsset(ctx, symbol)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if !res.found {
		return decimal.NullDecimal{}, nil
	}
	return res.price, nil
}

// CanonicalName implements Client.
func (c *PriceClient) CanonicalName(ctx context.Context, symbol string) (string, bool, error) {
	res, err := c.searchAsset(ctx, symbol)
	if err != nil {
		return "", false, err
	}
	if !res.found || res.name == "" {
		return "", false, nil
	}
	return res.name, true, nil
}

// HistoricalPrice implements Client.
func (c *PriceClient) HistoricalPrice(ctx context.Context, name string, date time.Time) (decimal.NullDecimal, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return decimal.NullDecimal{}, nil
	}

	day := date.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	params := url.Values{}
	params.Set("interval", "d1")
	params.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
	params.Set("end", strconv.FormatInt(end.UnixMilli(), 10))

	var resp historyResponse
	err := c.get(ctx, "/assets/"+url.PathEscape(name)+"/history", params, &resp)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return decimal.NullDecimal{}, nil
	}
	if err != nil {
		return decimal.NullDecimal{}, err
	}

	if len(resp.Data) == 0 {
		return decimal.NullDecimal{}, nil
	}
	return resp.Data[0].PriceUsd, nil
}

// searchAsset looks up the best match for symbol. Concurrent lookups of the
// same symbol share one request. The shared request is detached from any one
// caller's cancellation and bounded by the client timeout; each caller stops
// waiting when its own ctx is done.
func (c *PriceClient) searchAsset(ctx context.Context, symbol string) (searchResult, error) {
	key := strings.ToLower(strings.TrimSpace(symbol))
	if key == "" {
		return searchResult{}, nil
	}

	ch := c.search.DoChan(key, func() (interface{}, error) {
		shared, cancel := c.detached(ctx)
		defer cancel()

		params := url.Values{}
		params.Set("search", key)
		params.Set("limit", "1")

		var resp assetsResponse
		if err := c.get(shared, "/assets", params, &resp); err != nil {
			return searchResult{}, err
		}
		if len(resp.Data) == 0 {
			return searchResult{}, nil
		}

		first := resp.Data[0]
		return searchResult{name: first.ID, price: first.PriceUsd, found: true}, nil
	})

	select {
	case <-ctx.Done():
		return searchResult{}, fmt.Errorf("%w: %w", apperrors.ErrUpstreamTransient, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return searchResult{}, res.Err
		}
		return res.Val.(searchResult), nil
	}
}

// detached returns a context that keeps ctx's values but not its cancellation,
// limited to the HTTP client timeout.
func (c *PriceClient) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if c.httpClient.Timeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, c.httpClient.Timeout)
}

// get performs a rate-limited GET request and decodes the JSON body into result.
func (c *PriceClient) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait: %w", apperrors.ErrUpstreamTransient, err)
	}

	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("apiKey", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", apperrors.ErrUpstreamTransient, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("CoinCap API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %w", apperrors.ErrUpstreamTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", apperrors.ErrUpstreamTransient, err)
	}

	return nil
}
