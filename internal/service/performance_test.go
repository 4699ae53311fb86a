package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/model"
)

func holding(symbol, qty, avg string) model.HoldingDetail {
	return model.HoldingDetail{
		Holding: model.Holding{Quantity: d(qty), PurchasePrice: d(avg)},
		Asset:   model.Asset{Symbol: symbol, Name: symbol},
	}
}

func price(s string) decimal.NullDecimal { return decimal.NewNullDecimal(d(s)) }

func TestCalculatePerformance(t *testing.T) {
	tests := []struct {
		name              string
		current, purchase string
		want              string
	}{
		{"doubled", "20000", "10000", "100"},
		{"lost a quarter", "3000", "4000", "-25"},
		{"unchanged", "5", "5", "0"},
		{"zero purchase price", "123", "0", "0"},
		{"negative purchase price", "123", "-1", "0"},
		{"division at 8 digits", "2", "3", "-33.333333"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePerformance(d(tt.current), d(tt.purchase))
			assert.True(t, d(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestEvaluate(t *testing.T) {
	t.Run("single holding", func(t *testing.T) {
		eval := Evaluate(
			[]model.HoldingDetail{holding("BTC", "2", "10000")},
			[]decimal.NullDecimal{price("20000")},
		)

		assert.Equal(t, "40000.00", eval.Total.StringFixed(2))
		require.Len(t, eval.Assets, 1)
		assert.Equal(t, "100.00", eval.Assets[0].Performance.StringFixed(2))
		assert.Equal(t, "40000.00", eval.Assets[0].Value.StringFixed(2))
		assert.Equal(t, "BTC", *eval.BestAsset)
		assert.Equal(t, "BTC", *eval.WorstAsset)
	})

	t.Run("best and worst", func(t *testing.T) {
		eval := Evaluate(
			[]model.HoldingDetail{
				holding("BTC", "2", "10000"),
				holding("ETH", "5", "4000"),
			},
			[]decimal.NullDecimal{price("20000"), price("3000")},
		)

		assert.Equal(t, "55000.00", eval.Total.StringFixed(2))
		assert.Equal(t, "BTC", *eval.BestAsset)
		assert.Equal(t, "100.00", eval.BestPerformance.Decimal.StringFixed(2))
		assert.Equal(t, "ETH", *eval.WorstAsset)
		assert.Equal(t, "-25.00", eval.WorstPerformance.Decimal.StringFixed(2))
	})

	t.Run("skips unpriced holdings", func(t *testing.T) {
		eval := Evaluate(
			[]model.HoldingDetail{
				holding("BTC", "2", "10000"),
				holding("ETH", "5", "4000"),
			},
			[]decimal.NullDecimal{price("20000"), {}},
		)

		assert.Equal(t, "40000.00", eval.Total.StringFixed(2))
		require.Len(t, eval.Assets, 1)
		assert.Equal(t, "BTC", *eval.WorstAsset)
	})

	t.Run("nothing priced", func(t *testing.T) {
		eval := Evaluate(
			[]model.HoldingDetail{holding("BTC", "2", "10000")},
			[]decimal.NullDecimal{{}},
		)

		assert.True(t, eval.Total.IsZero())
		assert.Nil(t, eval.BestAsset)
		assert.Nil(t, eval.WorstAsset)
		assert.False(t, eval.BestPerformance.Valid)
		assert.False(t, eval.WorstPerformance.Valid)
		assert.Empty(t, eval.Assets)
	})

	t.Run("empty portfolio", func(t *testing.T) {
		eval := Evaluate(nil, nil)

		assert.True(t, eval.Total.IsZero())
		assert.Nil(t, eval.BestAsset)
		assert.NotNil(t, eval.Assets)
	})

	t.Run("ties keep the first holding", func(t *testing.T) {
		eval := Evaluate(
			[]model.HoldingDetail{
				holding("AAA", "1", "10"),
				holding("BBB", "1", "10"),
				holding("CCC", "1", "10"),
			},
			[]decimal.NullDecimal{price("15"), price("15"), price("15")},
		)

		assert.Equal(t, "AAA", *eval.BestAsset)
		assert.Equal(t, "AAA", *eval.WorstAsset)
	})

	t.Run("zero purchase price performs at zero", func(t *testing.T) {
		eval := Evaluate(
			[]model.HoldingDetail{holding("AIR", "10", "0")},
			[]decimal.NullDecimal{price("3")},
		)

		assert.True(t, eval.BestPerformance.Decimal.IsZero())
		assert.Equal(t, "30.00", eval.Total.StringFixed(2))
	})
}

func TestValuePortfolio(t *testing.T) {
	btc := holding("BTC", "2", "10000")
	btc.Asset.LastPrice = price("20000")
	eth := holding("ETH", "1.5", "2000")

	info := ValuePortfolio([]model.HoldingDetail{btc, eth}, CachedPrice)

	assert.Equal(t, "40000.00", info.Total.StringFixed(2))
	require.Len(t, info.Assets, 2)

	assert.Equal(t, "BTC", info.Assets[0].Symbol)
	assert.True(t, info.Assets[0].Price.Valid)
	assert.Equal(t, "40000", info.Assets[0].Value.String())

	// Unpriced holdings are listed with a null price and zero value.
	assert.Equal(t, "ETH", info.Assets[1].Symbol)
	assert.False(t, info.Assets[1].Price.Valid)
	assert.True(t, info.Assets[1].Value.IsZero())
	assert.Equal(t, "2000", info.Assets[1].PurchasePrice.String())
}
