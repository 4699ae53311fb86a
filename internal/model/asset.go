package model

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Asset represents a tracked cryptocurrency.
//
// Name is the price source's identifier for the asset (e.g. "bitcoin" for BTC)
// and is used for historical price lookups. LastPrice is NULL until the first
// successful price fetch.
type Asset struct {
	ID             string              `json:"id"`
	Symbol         string              `json:"symbol"`
	Name           string              `json:"name"`
	LastPrice      decimal.NullDecimal `json:"price"`
	PriceUpdatedAt sql.NullTime        `json:"-"`
}

// AssetPrice is the API representation of a tracked asset and its cached price.
type AssetPrice struct {
	Symbol    string              `json:"symbol"`
	Name      string              `json:"name"`
	Price     decimal.NullDecimal `json:"price"`
	UpdatedAt *string             `json:"updatedAt"`
}
