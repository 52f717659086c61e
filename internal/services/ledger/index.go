// Package ledger manages the append-only transaction ledger and the calendar
// index the curve engine replays.
package ledger

import (
	"fmt"
	"sort"
	"time"
	_ "time/tzdata" // trade-date math must not depend on host zoneinfo

	"github.com/foliokit/netcurve/internal/models"
)

// Trade dates follow one rule, applied here and nowhere else: a transaction is
// attributed to the US/Eastern calendar date of its timestamp.
var eastern = mustLoadEastern()

func mustLoadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(fmt.Sprintf("load America/New_York: %v", err))
	}
	return loc
}

// TradeDate returns the trade date of a timestamp as a UTC-midnight day.
func TradeDate(t time.Time) time.Time {
	y, m, d := t.In(eastern).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Day returns a calendar day normalized to UTC midnight.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Index groups an account selection's transactions by trade date. Built once
// per curve computation and read-only afterwards.
type Index struct {
	byDay map[string][]*models.Transaction
	first time.Time
	last  time.Time
}

// NewIndex validates, filters and groups transactions. Every transaction of a
// selected account is kept; an unrecognized type or a per-type missing field
// is a fatal construction error, never a silent drop.
func NewIndex(txns []*models.Transaction, accounts []string) (*Index, error) {
	selected := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		selected[a] = struct{}{}
	}

	ix := &Index{byDay: make(map[string][]*models.Transaction)}
	for _, t := range txns {
		if len(selected) > 0 {
			if _, ok := selected[t.Account]; !ok {
				continue
			}
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("invalid transaction %s: %w", t.ID, err)
		}
		day := TradeDate(t.Time)
		key := day.Format(models.DateLayout)
		ix.byDay[key] = append(ix.byDay[key], t)
		if ix.first.IsZero() || day.Before(ix.first) {
			ix.first = day
		}
		if day.After(ix.last) {
			ix.last = day
		}
	}

	// Chronological within each day; ID breaks timestamp ties.
	for _, day := range ix.byDay {
		sort.SliceStable(day, func(i, j int) bool {
			if day[i].Time.Equal(day[j].Time) {
				return day[i].ID < day[j].ID
			}
			return day[i].Time.Before(day[j].Time)
		})
	}
	return ix, nil
}

// Empty reports whether the index holds no transactions.
func (ix *Index) Empty() bool {
	return len(ix.byDay) == 0
}

// First returns the earliest trade date in the index.
func (ix *Index) First() time.Time {
	return ix.first
}

// Last returns the latest trade date in the index.
func (ix *Index) Last() time.Time {
	return ix.last
}

// On returns the transactions effective on a calendar day, in order.
func (ix *Index) On(day time.Time) []*models.Transaction {
	return ix.byDay[day.Format(models.DateLayout)]
}

// SymbolsInRange returns every symbol appearing in a BUY or SELL within
// [start, end]. This is the minimum set the price resolver must serve: a
// symbol fully sold mid-window still needs prices for its holding days, so
// the set must never be reduced to currently-held symbols.
func (ix *Index) SymbolsInRange(start, end time.Time) []string {
	seen := make(map[string]struct{})
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for _, t := range ix.On(d) {
			if t.IsTrade() && t.Symbol != "" {
				seen[t.Symbol] = struct{}{}
			}
		}
	}
	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
