package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/coincap"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/repository"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/workerpool"
)

// PriceRefreshService refreshes the cached prices of tracked assets.
type PriceRefreshService struct {
	assetRepo *repository.AssetRepository
	prices    coincap.Client
	pool      *workerpool.Pool
	log       zerolog.Logger
	running   atomic.Bool
	now       func() time.Time
}

// NewPriceRefreshService creates a new PriceRefreshService. The pool is owned
// by the caller, which must start it before refreshing.
func NewPriceRefreshService(
	assetRepo *repository.AssetRepository,
	prices coincap.Client,
	pool *workerpool.Pool,
	log zerolog.Logger,
) *PriceRefreshService {
	return &PriceRefreshService{
		assetRepo: assetRepo,
		prices:    prices,
		pool:      pool,
		log:       log.With().Str("component", "price_refresh").Logger(),
		now:       time.Now,
	}
}

// Name implements scheduler.Job.
func (s *PriceRefreshService) Name() string {
	return "price_refresh"
}

// Run implements scheduler.Job by refreshing every tracked asset.
func (s *PriceRefreshService) Run(ctx context.Context) error {
	_, err := s.RefreshTracked(ctx)
	return err
}

// RefreshTracked refreshes the price of every tracked asset.
// It fails only if the tracked symbols cannot be listed.
func (s *PriceRefreshService) RefreshTracked(ctx context.Context) (model.RefreshReport, error) {
	symbols, err := s.assetRepo.ListSymbols(ctx)
	if err != nil {
		return model.RefreshReport{}, fmt.Errorf("failed to list tracked symbols: %w", err)
	}
	return s.RefreshAll(ctx, symbols), nil
}

// RefreshAll fetches the current price of each distinct symbol on the worker
// pool and stores it on the asset.
//
// A symbol that cannot be fetched or stored is logged and counted; it never
// affects the other symbols or the batch. RefreshAll returns once every fetch
// has finished, or as soon as ctx is done. If a batch is already running the
// call returns immediately with Skipped set.
func (s *PriceRefreshService) RefreshAll(ctx context.Context, symbols []string) model.RefreshReport {
	started := s.now().UTC()

	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Msg("Price refresh already running, skipping")
		return model.RefreshReport{Skipped: true, StartedAt: started, Errors: []model.RefreshError{}}
	}
	defer s.running.Store(false)

	symbols = dedupeSymbols(symbols)
	batch := &refreshBatch{
		report: model.RefreshReport{
			Requested: len(symbols),
			StartedAt: started,
			Errors:    []model.RefreshError{},
		},
	}

	tasks := make([]workerpool.Task, len(symbols))
	for i, symbol := range symbols {
		symbol := symbol
		tasks[i] = func(ctx context.Context) {
			s.refreshSymbol(ctx, symbol, batch)
		}
	}

	switch err := s.pool.Run(ctx, tasks); {
	case errors.Is(err, workerpool.ErrPoolStopped):
		s.log.Error().Err(err).Msg("Price refresh could not start")
		for _, symbol := range symbols {
			batch.fail(symbol, err)
		}
	case err != nil:
		s.log.Warn().Err(err).Msg("Price refresh batch interrupted")
	}

	report := batch.snapshot()
	report.Duration = time.Since(started)

	s.log.Info().
		Int("requested", report.Requested).
		Int("updated", report.Updated).
		Int("missing", report.Missing).
		Int("failed", report.Failed).
		Dur("duration", report.Duration).
		Msg("Price refresh completed")

	return report
}

// refreshSymbol fetches and stores the price of one symbol.
func (s *PriceRefreshService) refreshSymbol(ctx context.Context, symbol string, batch *refreshBatch) {
	price, err := s.prices.CurrentPrice(ctx, symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to fetch price")
		batch.fail(symbol, err)
		return
	}
	if !price.Valid {
		s.log.Warn().Str("symbol", symbol).Msg("No price available")
		batch.missing()
		return
	}

	// The batch was abandoned while the fetch was in flight.
	if ctx.Err() != nil {
		return
	}

	if err := s.assetRepo.UpdateLastPrice(ctx, symbol, model.Normalize(price.Decimal), s.now()); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to store price")
		batch.fail(symbol, err)
		return
	}

	s.log.Debug().Str("symbol", symbol).Str("price", price.Decimal.String()).Msg("Price updated")
	batch.updated()
}

// ListAssets returns every tracked asset with its cached price.
func (s *PriceRefreshService) ListAssets(ctx context.Context) ([]model.AssetPrice, error) {
	assets, err := s.assetRepo.ListAssets(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.AssetPrice, len(assets))
	for i, a := range assets {
		out[i] = model.AssetPrice{
			Symbol: a.Symbol,
			Name:   a.Name,
			Price:  a.LastPrice,
		}
		if a.PriceUpdatedAt.Valid {
			ts := a.PriceUpdatedAt.Time.UTC().Format(time.RFC3339)
			out[i].UpdatedAt = &ts
		}
	}
	return out, nil
}

// refreshBatch collects task outcomes from concurrent workers.
type refreshBatch struct {
	mu     sync.Mutex
	report model.RefreshReport
}

func (b *refreshBatch) updated() {
	b.mu.Lock()
	b.report.Updated++
	b.mu.Unlock()
}

func (b *refreshBatch) missing() {
	b.mu.Lock()
	b.report.Missing++
	b.mu.Unlock()
}

func (b *refreshBatch) fail(symbol string, err error) {
	b.mu.Lock()
	b.report.Failed++
	b.report.Errors = append(b.report.Errors, model.RefreshError{Symbol: symbol, Error: err.Error()})
	b.mu.Unlock()
}

// snapshot copies the report so late tasks of an abandoned batch cannot change it.
func (b *refreshBatch) snapshot() model.RefreshReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := b.report
	r.Errors = append([]model.RefreshError{}, b.report.Errors...)
	return r
}

// dedupeSymbols upper-cases symbols and drops blanks and duplicates, keeping first-seen order.
func dedupeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, raw := range symbols {
		symbol := NormalizeSymbol(raw)
		if symbol == "" {
			continue
		}
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		out = append(out, symbol)
	}
	return out
}
