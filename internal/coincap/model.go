package coincap

import "github.com/shopspring/decimal"

// assetsResponse is the envelope returned by the CoinCap /assets search endpoint.
//
//	{"data": [{"id": "bitcoin", "symbol": "BTC", "priceUsd": "65000.12"}]}
type assetsResponse struct {
	Data []assetData `json:"data"`
}

type assetData struct {
	ID       string              `json:"id"`
	Symbol   string              `json:"symbol"`
	PriceUsd decimal.NullDecimal `json:"priceUsd"`
}

// historyResponse is the envelope returned by /assets/{id}/history.
//
//	{"data": [{"priceUsd": "64210.55", "time": 1714521600000, "date": "2024-05-01T00:00:00.000Z"}]}
type historyResponse struct {
	Data []historyPoint `json:"data"`
}

type historyPoint struct {
	PriceUsd decimal.NullDecimal `json:"priceUsd"`
	Time     int64               `json:"time"`
}

// searchResult is the best match for a symbol search.
type searchResult struct {
	name  string
	price decimal.NullDecimal
	found bool
}
