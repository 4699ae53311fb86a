package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/coincap"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
)

// EvaluationService computes wallet performance at a given date.
type EvaluationService struct {
	wallets *WalletService
	prices  coincap.Client
	limit   int
	log     zerolog.Logger
	now     func() time.Time
}

// EvaluationOption configures an EvaluationService.
type EvaluationOption func(*EvaluationService)

// WithClock replaces the clock used to decide whether a date is today.
func WithClock(now func() time.Time) EvaluationOption {
	return func(s *EvaluationService) {
		s.now = now
	}
}

// NewEvaluationService creates a new EvaluationService. limit caps the number
// of concurrent historical price lookups.
func NewEvaluationService(
	wallets *WalletService,
	prices coincap.Client,
	limit int,
	log zerolog.Logger,
	opts ...EvaluationOption,
) *EvaluationService {
	if limit < 1 {
		limit = 1
	}
	s := &EvaluationService{
		wallets: wallets,
		prices:  prices,
		limit:   limit,
		log:     log.With().Str("component", "evaluation_service").Logger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate reports the user's wallet performance on date.
//
// For today (UTC) the cached asset prices are used; for any other day each
// asset's historical price is looked up. Holdings without a price for the
// date are skipped rather than failing the evaluation.
func (s *EvaluationService) Evaluate(ctx context.Context, email string, date time.Time) (model.WalletEvaluation, error) {
	holdings, err := s.wallets.GetHoldings(ctx, email)
	if err != nil {
		return model.WalletEvaluation{}, err
	}

	var prices []decimal.NullDecimal
	if sameDay(date, s.now()) {
		prices = make([]decimal.NullDecimal, len(holdings))
		for i, h := range holdings {
			prices[i] = CachedPrice(h)
		}
	} else {
		prices, err = s.historicalPrices(ctx, holdings, date)
		if err != nil {
			return model.WalletEvaluation{}, err
		}
	}

	for i, h := range holdings {
		if !prices[i].Valid {
			s.log.Warn().
				Str("symbol", h.Asset.Symbol).
				Str("date", date.UTC().Format(time.DateOnly)).
				Msg("No price for asset, skipping")
		}
	}

	return Evaluate(holdings, prices), nil
}

// historicalPrices looks up the price of every holding's asset on date,
// running at most s.limit lookups at once. Failed lookups leave an invalid
// price in their slot.
func (s *EvaluationService) historicalPrices(ctx context.Context, holdings []model.HoldingDetail, date time.Time) ([]decimal.NullDecimal, error) {
	prices := make([]decimal.NullDecimal, len(holdings))

	var g errgroup.Group
	g.SetLimit(s.limit)

	for i, h := range holdings {
		i, h := i, h
		g.Go(func() error {
			price, err := s.prices.HistoricalPrice(ctx, h.Asset.Name, date)
			if err != nil {
				s.log.Warn().Err(err).Str("symbol", h.Asset.Symbol).Msg("Historical price lookup failed")
				return nil
			}
			prices[i] = price
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return prices, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
