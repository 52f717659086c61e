package prices

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliokit/netcurve/internal/common"
	"github.com/foliokit/netcurve/internal/interfaces"
	"github.com/foliokit/netcurve/internal/models"
)

// fetchAttempts bounds the per-symbol retry when filling cache gaps.
const fetchAttempts = 2

// Service implements interfaces.PriceService: the cache is the source of
// truth for the engine, and this service is the only writer to it.
type Service struct {
	storage interfaces.StorageManager
	source  interfaces.PriceSource
	logger  *common.Logger
	ttl     time.Duration
}

var _ interfaces.PriceService = (*Service)(nil)

// NewService creates a price service. ttl controls how long the most recent
// cached close is considered fresh before a gap-fill refetches it.
func NewService(storage interfaces.StorageManager, source interfaces.PriceSource, logger *common.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{storage: storage, source: source, logger: logger, ttl: ttl}
}

// GetRange returns cached closes only: symbol → date → close. Dates with no
// stored row are simply absent; nothing is synthesized here.
func (s *Service) GetRange(ctx context.Context, symbols []string, start, end time.Time) (map[string]map[string]decimal.Decimal, error) {
	rows, err := s.storage.PriceStorage().GetRange(ctx, symbols,
		start.Format(models.DateLayout), end.Format(models.DateLayout))
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]decimal.Decimal, len(rows))
	for sym, byDate := range rows {
		closes := make(map[string]decimal.Decimal, len(byDate))
		for date, p := range byDate {
			closes[date] = p.Close
		}
		out[sym] = closes
	}
	return out, nil
}

// EnsureRange fills cache gaps for [start, end] from the source. Symbols are
// fetched independently: one symbol's failure leaves its rows untouched and
// never aborts the others.
func (s *Service) EnsureRange(ctx context.Context, symbols []string, start, end time.Time) error {
	if len(symbols) == 0 {
		return nil
	}
	stored, err := s.storage.PriceStorage().GetRange(ctx, symbols,
		start.Format(models.DateLayout), end.Format(models.DateLayout))
	if err != nil {
		return err
	}

	for _, sym := range symbols {
		sym = models.NormalizeSymbol(sym)
		ranges := missingRanges(stored[sym], start, end, s.ttl)
		if len(ranges) == 0 {
			continue
		}
		for _, r := range ranges {
			if err := s.fetchAndStore(ctx, sym, r.start, r.end, false); err != nil {
				// Per-symbol isolation: log and carry on.
				s.logger.Warn().Err(err).
					Str("symbol", sym).
					Str("start", r.start.Format(models.DateLayout)).
					Str("end", r.end.Format(models.DateLayout)).
					Msg("Price fetch failed; cached rows left untouched")
				break
			}
		}
	}
	return nil
}

// Refresh re-fetches and unconditionally replaces every stored row for the
// symbols in [start, end]; rows for dates the source no longer reports are
// removed. A symbol whose fetch fails keeps its old rows; the rest of the
// batch is not rolled back.
func (s *Service) Refresh(ctx context.Context, symbols []string, start, end time.Time) error {
	for _, sym := range symbols {
		sym = models.NormalizeSymbol(sym)
		if sym == "" {
			continue
		}
		if err := s.fetchAndStore(ctx, sym, start, end, true); err != nil {
			s.logger.Warn().Err(err).Str("symbol", sym).Msg("Price refresh failed for symbol")
		}
	}
	return nil
}

// ResolverFor prepares a forward-fill resolver covering [start, end]. The
// loaded window is padded backwards by the lookback bound so the first days
// of the curve can fill from pre-window closes.
func (s *Service) ResolverFor(ctx context.Context, symbols []string, start, end time.Time) (*Resolver, error) {
	padded := start.AddDate(0, 0, -maxLookbackDays)
	if err := s.EnsureRange(ctx, symbols, padded, end); err != nil {
		return nil, err
	}
	closes, err := s.GetRange(ctx, symbols, padded, end)
	if err != nil {
		return nil, err
	}
	return NewResolver(closes), nil
}

// fetchAndStore fetches one symbol's closes with bounded retry and upserts
// them. With overwrite set, stored rows in the range are deleted first so a
// date the source has retracted does not linger in the cache. A failed fetch
// writes and deletes nothing.
func (s *Service) fetchAndStore(ctx context.Context, symbol string, start, end time.Time, overwrite bool) error {
	var closes []models.ClosePrice
	var err error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		closes, err = s.source.DailyCloses(ctx, symbol, start, end)
		if err == nil {
			break
		}
		if attempt < fetchAttempts {
			s.logger.Debug().Err(err).Str("symbol", symbol).Int("attempt", attempt).Msg("Retrying price fetch")
		}
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	points := make([]*models.PricePoint, 0, len(closes))
	for _, c := range closes {
		points = append(points, &models.PricePoint{
			Symbol:    symbol,
			Date:      c.Date,
			Close:     c.Close,
			AdjClose:  c.AdjClose,
			PriceType: models.PriceTypeClose,
			UpdatedAt: now,
		})
	}
	if overwrite {
		if _, err := s.storage.PriceStorage().DeleteRange(ctx, symbol,
			start.Format(models.DateLayout), end.Format(models.DateLayout)); err != nil {
			return err
		}
	}
	if err := s.storage.PriceStorage().Put(ctx, points); err != nil {
		return err
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Int("rows", len(points)).
		Bool("overwrite", overwrite).
		Msg("Prices cached")
	return nil
}

type dateRange struct {
	start, end time.Time
}

// missingRanges returns the calendar sub-ranges of [start, end] that need a
// fetch: days with no stored row, coalesced so weekend-sized gaps ride along
// with their neighbors, minus ranges that contain no weekday at all. The most
// recent stored row also counts as missing once older than ttl, so an intraday
// close gets re-read without invalidating history.
func missingRanges(stored map[string]*models.PricePoint, start, end time.Time, ttl time.Duration) []dateRange {
	var latestStored string
	for date := range stored {
		if date > latestStored {
			latestStored = date
		}
	}

	var ranges []dateRange
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(models.DateLayout)
		row, ok := stored[key]
		if ok && !(key == latestStored && !common.IsFresh(row.UpdatedAt, ttl)) {
			continue
		}
		if n := len(ranges); n > 0 && !d.After(ranges[n-1].end.AddDate(0, 0, 2)) {
			ranges[n-1].end = d
		} else {
			ranges = append(ranges, dateRange{start: d, end: d})
		}
	}

	// Drop ranges that are pure weekend; the source has nothing for them.
	out := ranges[:0]
	for _, r := range ranges {
		if hasWeekday(r.start, r.end) {
			out = append(out, r)
		}
	}
	return out
}

func hasWeekday(start, end time.Time) bool {
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			return true
		}
	}
	return false
}
