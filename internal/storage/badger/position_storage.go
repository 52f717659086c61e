package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/foliokit/netcurve/internal/common"
	"github.com/foliokit/netcurve/internal/models"
)

// positionStorage implements interfaces.PositionStorage on BadgerHold.
type positionStorage struct {
	store  *Store
	logger *common.Logger
}

// NewPositionStorage creates a PositionStorage backed by BadgerHold.
func NewPositionStorage(store *Store, logger *common.Logger) *positionStorage {
	return &positionStorage{store: store, logger: logger}
}

// ReplacePositions swaps an account's cached positions for a freshly rebuilt
// set. Existing rows are cleared first so fully-sold symbols disappear.
func (s *positionStorage) ReplacePositions(_ context.Context, account string, positions []*models.PositionCache, rebuiltAt time.Time) error {
	if err := s.store.db.DeleteMatching(models.PositionCache{}, badgerhold.Where("Account").Eq(account).Index("Account")); err != nil {
		return fmt.Errorf("failed to clear positions for %s: %w", account, err)
	}
	for _, p := range positions {
		p.Account = account
		p.RebuiltAt = rebuiltAt
		if err := s.store.db.Upsert(p.CacheKey(), p); err != nil {
			return fmt.Errorf("failed to save position %s: %w", p.CacheKey(), err)
		}
	}
	return nil
}

func (s *positionStorage) GetPositions(_ context.Context, account string) ([]*models.PositionCache, error) {
	var rows []models.PositionCache
	if err := s.store.db.Find(&rows, badgerhold.Where("Account").Eq(account).Index("Account")); err != nil {
		return nil, fmt.Errorf("failed to load positions for %s: %w", account, err)
	}
	out := make([]*models.PositionCache, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

func (s *positionStorage) SaveCash(_ context.Context, cash *models.CashCache) error {
	if err := s.store.db.Upsert(cash.Account, cash); err != nil {
		return fmt.Errorf("failed to save cash for %s: %w", cash.Account, err)
	}
	return nil
}

func (s *positionStorage) GetCash(_ context.Context, account string) (*models.CashCache, error) {
	var cash models.CashCache
	if err := s.store.db.Get(account, &cash); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("no cash cache for '%s'", account)
		}
		return nil, fmt.Errorf("failed to load cash for %s: %w", account, err)
	}
	return &cash, nil
}
