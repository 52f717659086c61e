package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceTypeClose is the only price type this system stores. Market value uses
// the unadjusted close so shares * price stays consistent with unadjusted
// historical share counts.
const PriceTypeClose = "close"

// DateLayout is the calendar-date form used for price keys and curve output.
const DateLayout = "2006-01-02"

// PricePoint is one cached daily close, keyed by (symbol, date).
// Rows are inserted or overwritten by a refresh and are never invalidated by
// ledger changes.
type PricePoint struct {
	Symbol    string          `json:"symbol" badgerholdIndex:"Symbol"`
	Date      string          `json:"date"` // DateLayout
	Close     decimal.Decimal `json:"close_price"`
	AdjClose  decimal.Decimal `json:"adj_close_price,omitempty"`
	PriceType string          `json:"price_type"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Key returns the storage key for the (symbol, date) pair.
func (p *PricePoint) Key() string {
	return p.Symbol + "|" + p.Date
}

// ClosePrice is one daily close as returned by a price source, before caching.
type ClosePrice struct {
	Date     string          `json:"date"` // DateLayout
	Close    decimal.Decimal `json:"close"`
	AdjClose decimal.Decimal `json:"adjusted_close,omitempty"`
}
