package netvalue

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliokit/netcurve/internal/common"
	"github.com/foliokit/netcurve/internal/interfaces"
	"github.com/foliokit/netcurve/internal/models"
	"github.com/foliokit/netcurve/internal/services/ledger"
	"github.com/foliokit/netcurve/internal/services/prices"
)

// ErrInvalidRange rejects a computation whose start date is after its end date.
var ErrInvalidRange = errors.New("start_date is after end_date")

var oneHundred = decimal.NewFromInt(100)

// Service computes net value curves. One invocation is synchronous and owns
// all of its mutable state; only the price cache underneath is shared.
type Service struct {
	prices *prices.Service
	logger *common.Logger
}

var _ interfaces.NetValueService = (*Service)(nil)

// NewService creates a net value service.
func NewService(priceService *prices.Service, logger *common.Logger) *Service {
	return &Service{prices: priceService, logger: logger}
}

// ComputeCurve replays the transaction snapshot day by day over the calendar
// window and emits the columnar curve.
//
// Transactions dated d are applied before d's valuation, so a trade today
// shows in today's closing snapshot. A symbol with no resolvable price on a
// day contributes zero to that day's market value and the day is still
// emitted; only malformed input aborts the computation.
func (s *Service) ComputeCurve(ctx context.Context, txns []*models.Transaction, opts models.CurveOptions) (*models.CurveSeries, error) {
	funcStart := time.Now()
	series := models.NewCurveSeries(opts.IncludeCash)

	// An explicitly inverted window is fatal even when there is nothing to
	// replay.
	if !opts.Start.IsZero() && !opts.End.IsZero() &&
		truncateDay(opts.Start).After(truncateDay(opts.End)) {
		return nil, ErrInvalidRange
	}

	idx, err := ledger.NewIndex(txns, opts.Accounts)
	if err != nil {
		return nil, err
	}
	if idx.Empty() && opts.Opening == nil {
		return series, nil
	}

	start, end, err := resolveWindow(idx, opts)
	if err != nil {
		return nil, err
	}

	symbols := idx.SymbolsInRange(start, end)
	symbols = unionOpeningSymbols(symbols, opts.Opening)

	if opts.Refresh && len(symbols) > 0 {
		if err := s.prices.Refresh(ctx, symbols, start, end); err != nil {
			return nil, err
		}
	}
	resolver, err := s.prices.ResolverFor(ctx, symbols, start, end)
	if err != nil {
		return nil, err
	}

	book := NewBookFromOpening(opts.Opening)

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for _, t := range idx.On(d) {
			if err := book.Apply(t); err != nil {
				return nil, err
			}
		}
		s.emitDay(series, book, resolver, d, opts.IncludeCash)
		days++
	}

	s.logger.Info().
		Str("start", start.Format(models.DateLayout)).
		Str("end", end.Format(models.DateLayout)).
		Int("days", days).
		Int("symbols", len(symbols)).
		Dur("elapsed", time.Since(funcStart)).
		Msg("Net value curve computed")
	return series, nil
}

// emitDay appends one day's point to the series from the book's post-apply
// state.
func (s *Service) emitDay(series *models.CurveSeries, book *Book, resolver *prices.Resolver, d time.Time, includeCash bool) {
	stockCost := book.HoldingsCost()
	stockMV := decimal.Zero
	anyTrading := false
	var lastTrading time.Time

	active := book.ActiveSymbols()
	for _, sym := range active {
		if resolver.HasClose(sym, d) {
			anyTrading = true
		}
		price, actual, ok := resolver.PriceOn(sym, d)
		if !ok {
			continue // missing valuation: the symbol sits out this day
		}
		stockMV = stockMV.Add(book.Shares(sym).Mul(price))
		if actual.After(lastTrading) {
			lastTrading = actual
		}
	}
	if len(active) == 0 {
		// Cash-only day: no prices to consult, weekday is the best proxy.
		anyTrading = d.Weekday() != time.Saturday && d.Weekday() != time.Sunday
	}
	if lastTrading.IsZero() {
		lastTrading = d
	}

	baseline := stockCost
	marketValue := stockMV
	if includeCash {
		baseline = baseline.Add(book.Cash())
		marketValue = marketValue.Add(book.Cash())
	}

	// Round first, then difference the rounded values: the emitted
	// profit_loss must equal market_value - baseline exactly.
	baseline = baseline.Round(2)
	marketValue = marketValue.Round(2)
	profitLoss := marketValue.Sub(baseline)

	var pct *decimal.Decimal
	if baseline.IsPositive() {
		v := profitLoss.Div(baseline).Mul(oneHundred).Round(2)
		pct = &v
	}

	series.Dates = append(series.Dates, d.Format(models.DateLayout))
	series.Baseline = append(series.Baseline, baseline)
	series.MarketValue = append(series.MarketValue, marketValue)
	series.ProfitLoss = append(series.ProfitLoss, profitLoss)
	series.ProfitLossPct = append(series.ProfitLossPct, pct)
	series.IsTradingDay = append(series.IsTradingDay, anyTrading)
	series.LastTradingDate = append(series.LastTradingDate, lastTrading.Format(models.DateLayout))
}

// resolveWindow applies the window defaults: start falls back to the first
// trade date, end to max(last trade date, today).
func resolveWindow(idx *ledger.Index, opts models.CurveOptions) (time.Time, time.Time, error) {
	start := opts.Start
	if start.IsZero() {
		start = idx.First()
	}
	end := opts.End
	if end.IsZero() {
		end = ledger.TradeDate(time.Now())
		if !idx.Empty() && idx.Last().After(end) {
			end = idx.Last()
		}
	}
	if start.IsZero() {
		// Opening snapshot with an empty ledger: value today only.
		start = end
	}
	start = truncateDay(start)
	end = truncateDay(end)
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return start, end, nil
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func unionOpeningSymbols(symbols []string, opening *models.OpeningSnapshot) []string {
	if opening == nil {
		return symbols
	}
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		seen[s] = struct{}{}
	}
	for sym, p := range opening.Positions {
		sym = models.NormalizeSymbol(sym)
		if sym == "" || !p.Shares.IsPositive() {
			continue
		}
		if _, ok := seen[sym]; !ok {
			seen[sym] = struct{}{}
			symbols = append(symbols, sym)
		}
	}
	return symbols
}
