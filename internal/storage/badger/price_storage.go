package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/foliokit/netcurve/internal/common"
	"github.com/foliokit/netcurve/internal/models"
)

// priceStorage implements interfaces.PriceStorage on BadgerHold.
// One row per (symbol, date); upserts are single-key and therefore atomic, so
// concurrent curve reads during a refresh never see a torn row.
type priceStorage struct {
	store  *Store
	logger *common.Logger
}

// NewPriceStorage creates a PriceStorage backed by BadgerHold.
func NewPriceStorage(store *Store, logger *common.Logger) *priceStorage {
	return &priceStorage{store: store, logger: logger}
}

func (s *priceStorage) GetRange(_ context.Context, symbols []string, start, end string) (map[string]map[string]*models.PricePoint, error) {
	out := make(map[string]map[string]*models.PricePoint, len(symbols))
	for _, sym := range symbols {
		sym = models.NormalizeSymbol(sym)
		if sym == "" {
			continue
		}
		var rows []models.PricePoint
		q := badgerhold.Where("Symbol").Eq(sym).Index("Symbol").
			And("Date").Ge(start).And("Date").Le(end)
		if err := s.store.db.Find(&rows, q); err != nil {
			return nil, fmt.Errorf("failed to load prices for %s: %w", sym, err)
		}
		byDate := make(map[string]*models.PricePoint, len(rows))
		for i := range rows {
			byDate[rows[i].Date] = &rows[i]
		}
		out[sym] = byDate
	}
	return out, nil
}

func (s *priceStorage) Put(_ context.Context, points []*models.PricePoint) error {
	for _, p := range points {
		if err := s.store.db.Upsert(p.Key(), p); err != nil {
			return fmt.Errorf("failed to upsert price %s: %w", p.Key(), err)
		}
	}
	return nil
}

func (s *priceStorage) DeleteRange(_ context.Context, symbol string, start, end string) (int, error) {
	symbol = models.NormalizeSymbol(symbol)
	var rows []models.PricePoint
	q := badgerhold.Where("Symbol").Eq(symbol).Index("Symbol").
		And("Date").Ge(start).And("Date").Le(end)
	if err := s.store.db.Find(&rows, q); err != nil {
		return 0, fmt.Errorf("failed to list prices for %s: %w", symbol, err)
	}
	deleted := 0
	for i := range rows {
		if err := s.store.db.Delete(rows[i].Key(), models.PricePoint{}); err != nil {
			return deleted, fmt.Errorf("failed to delete price %s: %w", rows[i].Key(), err)
		}
		deleted++
	}
	return deleted, nil
}

func (s *priceStorage) Latest(_ context.Context, symbol string) (*models.PricePoint, error) {
	symbol = models.NormalizeSymbol(symbol)
	var rows []models.PricePoint
	q := badgerhold.Where("Symbol").Eq(symbol).Index("Symbol").
		SortBy("Date").Reverse().Limit(1)
	if err := s.store.db.Find(&rows, q); err != nil {
		return nil, fmt.Errorf("failed to load latest price for %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no prices stored for %s", symbol)
	}
	return &rows[0], nil
}
