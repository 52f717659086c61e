// Package netvalue reconstructs holdings, cash and cost basis from the
// transaction ledger and renders the net value curve.
package netvalue

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/foliokit/netcurve/internal/models"
)

// position is one symbol's running accounting state.
type position struct {
	shares  decimal.Decimal
	avgCost decimal.Decimal
}

// Book is the per-computation accounting state: shares and weighted-average
// cost per symbol, plus the cash balance. It is created empty at the start of
// a curve computation, mutated strictly in transaction order, and discarded
// at the end; it is never persisted or shared.
type Book struct {
	positions map[string]*position
	cash      decimal.Decimal
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{positions: make(map[string]*position)}
}

// NewBookFromOpening creates a book seeded with pre-window holdings and cash.
func NewBookFromOpening(opening *models.OpeningSnapshot) *Book {
	b := NewBook()
	if opening == nil {
		return b
	}
	b.cash = opening.Cash
	for sym, p := range opening.Positions {
		sym = models.NormalizeSymbol(sym)
		if sym == "" || !p.Shares.IsPositive() {
			continue
		}
		b.positions[sym] = &position{shares: p.Shares, avgCost: p.AvgCost}
	}
	return b
}

// Apply folds one transaction into the book. Order matters: callers must
// apply transactions date-ascending, and in chronological order within a day.
//
// BUY blends into the running average: avg' = (shares*avg + qty*price + fees)
// / (shares + qty), and cash drops by qty*price + fees. SELL never changes
// the average cost; shares decrease (clamped at zero, which resets the
// average so the next BUY starts a fresh lot) and cash rises by
// qty*price - fees. Cash events move the balance by their amount.
func (b *Book) Apply(t *models.Transaction) error {
	switch t.Type {
	case models.TxnBuy:
		cost := t.Quantity.Mul(t.Price).Add(t.Fees)
		p := b.pos(t.Symbol)
		newShares := p.shares.Add(t.Quantity)
		p.avgCost = p.shares.Mul(p.avgCost).Add(cost).Div(newShares)
		p.shares = newShares
		b.cash = b.cash.Sub(cost)

	case models.TxnSell:
		proceeds := t.Quantity.Mul(t.Price).Sub(t.Fees)
		p := b.pos(t.Symbol)
		p.shares = p.shares.Sub(t.Quantity)
		if !p.shares.IsPositive() {
			p.shares = decimal.Zero
			p.avgCost = decimal.Zero
		}
		b.cash = b.cash.Add(proceeds)

	case models.TxnCashDeposit:
		b.cash = b.cash.Add(t.CashAmount)

	case models.TxnCashWithdraw:
		b.cash = b.cash.Sub(t.CashAmount)

	default:
		return fmt.Errorf("%w: %q", models.ErrUnknownTxnType, t.Type)
	}
	return nil
}

func (b *Book) pos(symbol string) *position {
	symbol = models.NormalizeSymbol(symbol)
	p, ok := b.positions[symbol]
	if !ok {
		p = &position{}
		b.positions[symbol] = p
	}
	return p
}

// Cash returns the current cash balance.
func (b *Book) Cash() decimal.Decimal {
	return b.cash
}

// Shares returns the current share count for a symbol.
func (b *Book) Shares(symbol string) decimal.Decimal {
	if p, ok := b.positions[models.NormalizeSymbol(symbol)]; ok {
		return p.shares
	}
	return decimal.Zero
}

// AvgCost returns the current weighted-average cost for a symbol.
func (b *Book) AvgCost(symbol string) decimal.Decimal {
	if p, ok := b.positions[models.NormalizeSymbol(symbol)]; ok {
		return p.avgCost
	}
	return decimal.Zero
}

// HoldingsCost returns the sum of avg_cost * shares over symbols with shares > 0.
func (b *Book) HoldingsCost() decimal.Decimal {
	total := decimal.Zero
	for _, p := range b.positions {
		if p.shares.IsPositive() {
			total = total.Add(p.shares.Mul(p.avgCost))
		}
	}
	return total
}

// ActiveSymbols returns the symbols with shares > 0, sorted.
func (b *Book) ActiveSymbols() []string {
	symbols := make([]string, 0, len(b.positions))
	for sym, p := range b.positions {
		if p.shares.IsPositive() {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)
	return symbols
}

// Snapshot returns an immutable shares-by-symbol view for valuation.
func (b *Book) Snapshot() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(b.positions))
	for sym, p := range b.positions {
		if p.shares.IsPositive() {
			out[sym] = p.shares
		}
	}
	return out
}
