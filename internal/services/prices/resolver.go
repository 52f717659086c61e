// Package prices wraps the price cache with gap-fill, overwrite and
// forward-fill policies.
package prices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliokit/netcurve/internal/models"
)

// maxLookbackDays bounds the backward scan when a date has no stored close.
// Two weeks covers any weekend/holiday cluster a listed symbol produces.
const maxLookbackDays = 14

// Resolver answers price-on-date queries over an in-memory snapshot of cached
// closes, forward-filling non-trading days from the most recent prior close.
// One resolver serves one curve computation; it is never shared.
type Resolver struct {
	closes map[string]map[string]decimal.Decimal // symbol → date → close
}

// NewResolver builds a resolver over a closes snapshot as returned by
// Service.GetRange.
func NewResolver(closes map[string]map[string]decimal.Decimal) *Resolver {
	if closes == nil {
		closes = map[string]map[string]decimal.Decimal{}
	}
	return &Resolver{closes: closes}
}

// PriceOn returns the close for symbol on day, or the nearest prior close
// within the lookback bound, together with the date that close was actually
// observed on. ok is false when nothing resolves; the caller must treat that
// as a missing valuation, never as a zero price.
func (r *Resolver) PriceOn(symbol string, day time.Time) (decimal.Decimal, time.Time, bool) {
	byDate := r.closes[models.NormalizeSymbol(symbol)]
	if byDate == nil {
		return decimal.Zero, time.Time{}, false
	}
	for back := 0; back <= maxLookbackDays; back++ {
		d := day.AddDate(0, 0, -back)
		if close, ok := byDate[d.Format(models.DateLayout)]; ok {
			return close, d, true
		}
	}
	return decimal.Zero, time.Time{}, false
}

// HasClose reports whether a close is directly stored for (symbol, day),
// with no forward fill. The curve uses this to mark trading days.
func (r *Resolver) HasClose(symbol string, day time.Time) bool {
	byDate := r.closes[models.NormalizeSymbol(symbol)]
	if byDate == nil {
		return false
	}
	_, ok := byDate[day.Format(models.DateLayout)]
	return ok
}
