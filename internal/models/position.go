package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionView is a holding as presented to consumers, optionally enriched
// with the latest resolvable close.
type PositionView struct {
	Symbol      string           `json:"symbol"`
	Shares      decimal.Decimal  `json:"shares"`
	LastPrice   *decimal.Decimal `json:"last_price,omitempty"`
	MarketValue *decimal.Decimal `json:"market_value,omitempty"`
	PriceAsOf   string           `json:"price_as_of,omitempty"` // DateLayout
}

// AllocationItem is one slice of the allocation breakdown.
type AllocationItem struct {
	Symbol      string          `json:"symbol"`
	MarketValue decimal.Decimal `json:"market_value"`
	Percentage  decimal.Decimal `json:"percentage"`
}

// AllocationView is the portfolio allocation breakdown, sorted by market value
// descending.
type AllocationView struct {
	Items      []AllocationItem `json:"items"`
	TotalValue decimal.Decimal  `json:"total_value"`
	AsOf       time.Time        `json:"as_of"`
}

// PositionCache is a persisted per-account holding, derived from the ledger by
// a rebuild. Never edited directly; always re-derived from the source of truth.
type PositionCache struct {
	Account   string          `json:"account" badgerholdIndex:"Account"`
	Symbol    string          `json:"symbol"`
	Shares    decimal.Decimal `json:"shares"`
	RebuiltAt time.Time       `json:"rebuilt_at"`
}

// CacheKey returns the storage key for the (account, symbol) pair.
func (p *PositionCache) CacheKey() string {
	return p.Account + "|" + p.Symbol
}

// CashCache is the persisted per-account cash balance, derived by a rebuild.
type CashCache struct {
	Account   string          `json:"account" badgerhold:"key"`
	Balance   decimal.Decimal `json:"balance"`
	RebuiltAt time.Time       `json:"rebuilt_at"`
}
