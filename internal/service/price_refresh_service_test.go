package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/testutil"
)

// TestPriceRefreshService_RefreshTracked tests the scheduled price refresh.
//
// WHY: Cached prices drive every wallet view. A failure for one asset must
// leave its previous price untouched and never prevent the other assets
// from being refreshed.
func TestPriceRefreshService_RefreshTracked(t *testing.T) {
	ctx := context.Background()

	t.Run("updates every tracked asset", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		prices := testutil.NewMockCoinCapClient().
			WithPrice("BTC", "bitcoin", "65000.12345678").
			WithPrice("ETH", "ethereum", "3200").
			WithPrice("DOGE", "dogecoin", "0.15")
		svc := testutil.NewTestPriceRefreshService(t, db, prices, 2)

		// Execute
		report, err := svc.RefreshTracked(ctx)

		// Assert
		if err != nil {
			t.Fatalf("RefreshTracked() returned unexpected error: %v", err)
		}
		if report.Requested != 3 || report.Updated != 3 || report.Failed != 0 {
			t.Errorf("Expected 3 requested and updated, got %+v", report)
		}

		btc := testutil.SeededAsset(t, db, "BTC")
		if !btc.LastPrice.Decimal.Equal(testutil.Dec(t, "65000.12345678")) {
			t.Errorf("Expected BTC price 65000.12345678, got %v", btc.LastPrice)
		}
		if !btc.PriceUpdatedAt.Valid {
			t.Error("Expected BTC price timestamp to be set")
		}
	})

	t.Run("failed symbol keeps its previous price", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		testutil.SetAssetPrice(t, db, "ETH", "2500")
		prices := testutil.NewMockCoinCapClient().
			WithPrice("BTC", "bitcoin", "65000").
			WithError("ETH", apperrors.ErrUpstreamTransient).
			WithPrice("DOGE", "dogecoin", "0.15")
		svc := testutil.NewTestPriceRefreshService(t, db, prices, 3)

		// Execute
		report, err := svc.RefreshTracked(ctx)

		// Assert
		if err != nil {
			t.Fatalf("RefreshTracked() returned unexpected error: %v", err)
		}
		if report.Updated != 2 || report.Failed != 1 {
			t.Errorf("Expected 2 updated and 1 failed, got %+v", report)
		}
		if len(report.Errors) != 1 || report.Errors[0].Symbol != "ETH" {
			t.Errorf("Expected one error for ETH, got %+v", report.Errors)
		}

		eth := testutil.SeededAsset(t, db, "ETH")
		if !eth.LastPrice.Decimal.Equal(testutil.Dec(t, "2500")) {
			t.Errorf("Expected ETH price to stay 2500, got %v", eth.LastPrice)
		}
		doge := testutil.SeededAsset(t, db, "DOGE")
		if !doge.LastPrice.Decimal.Equal(testutil.Dec(t, "0.15")) {
			t.Errorf("Expected DOGE price 0.15, got %v", doge.LastPrice)
		}
	})

	t.Run("missing price is counted and not stored", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		prices := testutil.NewMockCoinCapClient().WithPrice("BTC", "bitcoin", "65000")
		svc := testutil.NewTestPriceRefreshService(t, db, prices, 2)

		report, err := svc.RefreshTracked(ctx)

		if err != nil {
			t.Fatalf("RefreshTracked() returned unexpected error: %v", err)
		}
		if report.Updated != 1 || report.Missing != 2 {
			t.Errorf("Expected 1 updated and 2 missing, got %+v", report)
		}
		if testutil.SeededAsset(t, db, "DOGE").LastPrice.Valid {
			t.Error("Expected DOGE to remain unpriced")
		}
	})

	t.Run("refreshing twice is idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		prices := testutil.NewMockCoinCapClient().
			WithPrice("BTC", "bitcoin", "65000").
			WithPrice("ETH", "ethereum", "3200").
			WithPrice("DOGE", "dogecoin", "0.15")
		svc := testutil.NewTestPriceRefreshService(t, db, prices, 2)

		if _, err := svc.RefreshTracked(ctx); err != nil {
			t.Fatalf("first RefreshTracked() returned unexpected error: %v", err)
		}
		first, _ := svc.ListAssets(ctx)

		if _, err := svc.RefreshTracked(ctx); err != nil {
			t.Fatalf("second RefreshTracked() returned unexpected error: %v", err)
		}
		second, _ := svc.ListAssets(ctx)

		if len(first) != len(second) {
			t.Fatalf("Expected same asset count, got %d and %d", len(first), len(second))
		}
		for i := range first {
			if !first[i].Price.Decimal.Equal(second[i].Price.Decimal) {
				t.Errorf("%s: price changed from %s to %s", first[i].Symbol, first[i].Price.Decimal, second[i].Price.Decimal)
			}
		}
	})

	t.Run("handles closed database connection", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPriceRefreshService(t, db, testutil.NewMockCoinCapClient(), 1)
		db.Close()

		_, err := svc.RefreshTracked(ctx)

		if err == nil {
			t.Error("Expected error when database is closed, got nil")
		}
	})
}

// TestPriceRefreshService_RefreshAll tests refreshing an explicit symbol list.
//
// WHY: The batch runs on a bounded worker pool. It must dedupe its input,
// never exceed the pool size, and never let two batches overlap.
func TestPriceRefreshService_RefreshAll(t *testing.T) {
	ctx := context.Background()

	t.Run("dedupes symbols", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		prices := testutil.NewMockCoinCapClient().
			WithPrice("BTC", "bitcoin", "65000").
			WithPrice("ETH", "ethereum", "3000").
			WithPrice("DOGE", "dogecoin", "0.1")
		svc := testutil.NewTestPriceRefreshService(t, db, prices, 2)

		report := svc.RefreshAll(ctx, []string{"btc", "ETH", " BTC ", "", "doge", "eth"})

		if report.Requested != 3 {
			t.Errorf("Expected 3 requested symbols, got %d", report.Requested)
		}
		if report.Updated != 3 {
			t.Errorf("Expected 3 updated symbols, got %d", report.Updated)
		}
		for _, symbol := range []string{"BTC", "ETH", "DOGE"} {
			if n := prices.Calls("CurrentPrice", symbol); n != 1 {
				t.Errorf("Expected 1 price fetch for %s, got %d", symbol, n)
			}
		}
	})

	t.Run("untracked symbol fails without affecting others", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		prices := testutil.NewMockCoinCapClient().
			WithPrice("BTC", "bitcoin", "65000").
			WithPrice("SOL", "solana", "150")
		svc := testutil.NewTestPriceRefreshService(t, db, prices, 2)

		report := svc.RefreshAll(ctx, []string{"BTC", "SOL"})

		if report.Updated != 1 || report.Failed != 1 {
			t.Errorf("Expected 1 updated and 1 failed, got %+v", report)
		}
		if len(report.Errors) != 1 || report.Errors[0].Symbol != "SOL" {
			t.Errorf("Expected one error for SOL, got %+v", report.Errors)
		}
	})

	t.Run("never exceeds pool size", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		prices := testutil.NewMockCoinCapClient()
		symbols := make([]string, 12)
		for i := range symbols {
			symbols[i] = testutil.MakeSymbol("C")
			prices.WithPrice(symbols[i], "", "1")
		}

		var mu sync.Mutex
		inFlight, peak := 0, 0
		prices.BeforeCall = func(ctx context.Context, method, key string) {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
		}
		svc := testutil.NewTestPriceRefreshService(t, db, prices, 3)

		report := svc.RefreshAll(ctx, symbols)

		if report.Requested != 12 {
			t.Errorf("Expected 12 requested, got %d", report.Requested)
		}
		if peak > 3 {
			t.Errorf("Expected at most 3 concurrent fetches, got %d", peak)
		}
	})

	t.Run("overlapping batch is skipped", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		prices := testutil.NewMockCoinCapClient().WithPrice("BTC", "bitcoin", "65000")
		svc := testutil.NewTestPriceRefreshService(t, db, prices, 1)

		entered := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		prices.BeforeCall = func(ctx context.Context, method, key string) {
			once.Do(func() { close(entered) })
			<-release
		}

		first := make(chan struct{})
		go func() {
			defer close(first)
			svc.RefreshAll(ctx, []string{"BTC"})
		}()
		<-entered

		// Execute
		report := svc.RefreshAll(ctx, []string{"BTC"})
		close(release)
		<-first

		// Assert
		if !report.Skipped {
			t.Errorf("Expected overlapping batch to be skipped, got %+v", report)
		}
		if n := prices.Calls("CurrentPrice", "BTC"); n != 1 {
			t.Errorf("Expected 1 price fetch, got %d", n)
		}
	})

	t.Run("cancelled batch returns promptly", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		prices := testutil.NewMockCoinCapClient().WithPrice("BTC", "bitcoin", "65000")
		prices.BeforeCall = func(ctx context.Context, method, key string) {
			<-ctx.Done()
		}
		svc := testutil.NewTestPriceRefreshService(t, db, prices, 1)

		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		report := svc.RefreshAll(cctx, []string{"BTC", "ETH", "DOGE"})

		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("Expected prompt return, took %s", elapsed)
		}
		if report.Updated != 0 {
			t.Errorf("Expected nothing updated, got %+v", report)
		}
		if testutil.SeededAsset(t, db, "BTC").LastPrice.Valid {
			t.Error("Expected BTC price to stay unset after cancellation")
		}
	})
}

// TestPriceRefreshService_ListAssets tests the tracked asset listing.
func TestPriceRefreshService_ListAssets(t *testing.T) {
	ctx := context.Background()

	db := testutil.SetupTestDB(t)
	testutil.SetAssetPrice(t, db, "BTC", "65000")
	svc := testutil.NewTestPriceRefreshService(t, db, testutil.NewMockCoinCapClient(), 1)

	assets, err := svc.ListAssets(ctx)
	if err != nil {
		t.Fatalf("ListAssets() returned unexpected error: %v", err)
	}
	if len(assets) != 3 {
		t.Fatalf("Expected 3 seeded assets, got %d", len(assets))
	}

	// Ordered by symbol.
	if assets[0].Symbol != "BTC" || assets[1].Symbol != "DOGE" || assets[2].Symbol != "ETH" {
		t.Errorf("Expected BTC, DOGE, ETH, got %s, %s, %s", assets[0].Symbol, assets[1].Symbol, assets[2].Symbol)
	}
	if assets[0].UpdatedAt == nil {
		t.Error("Expected BTC to carry an update timestamp")
	} else if _, err := time.Parse(time.RFC3339, *assets[0].UpdatedAt); err != nil {
		t.Errorf("Expected RFC3339 timestamp, got %q", *assets[0].UpdatedAt)
	}
	if assets[1].Price.Valid || assets[1].UpdatedAt != nil {
		t.Errorf("Expected DOGE without price, got %+v", assets[1])
	}
}

// TestPriceRefreshService_Run tests the scheduler entry point.
func TestPriceRefreshService_Run(t *testing.T) {
	db := testutil.SetupTestDB(t)
	prices := testutil.NewMockCoinCapClient().WithPrice("ETH", "ethereum", "3200")
	svc := testutil.NewTestPriceRefreshService(t, db, prices, 2)

	if svc.Name() != "price_refresh" {
		t.Errorf("Expected job name price_refresh, got %q", svc.Name())
	}

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}
	if !testutil.SeededAsset(t, db, "ETH").LastPrice.Valid {
		t.Error("Expected ETH price to be stored")
	}

	db.Close()
	if err := svc.Run(context.Background()); err == nil {
		t.Errorf("Expected listing error after close, got %v", err)
	}
}
