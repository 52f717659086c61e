package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/timshannon/badgerhold/v4"

	"github.com/foliokit/netcurve/internal/common"
	"github.com/foliokit/netcurve/internal/models"
)

// ledgerStorage implements interfaces.LedgerStorage on BadgerHold.
type ledgerStorage struct {
	store  *Store
	logger *common.Logger
}

// NewLedgerStorage creates a LedgerStorage backed by BadgerHold.
func NewLedgerStorage(store *Store, logger *common.Logger) *ledgerStorage {
	return &ledgerStorage{store: store, logger: logger}
}

func (s *ledgerStorage) SaveTransaction(_ context.Context, txn *models.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}
	if err := s.store.db.Upsert(txn.ID, txn); err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
	}
	return nil
}

func (s *ledgerStorage) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.store.db.Get(id, &txn); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("transaction '%s' not found", id)
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return &txn, nil
}

func (s *ledgerStorage) DeleteTransaction(_ context.Context, id string) error {
	err := s.store.db.Delete(id, models.Transaction{})
	if err == badgerhold.ErrNotFound {
		return fmt.Errorf("transaction '%s' not found", id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	return nil
}

func (s *ledgerStorage) ListTransactions(_ context.Context, accounts []string) ([]*models.Transaction, error) {
	var rows []models.Transaction
	var q *badgerhold.Query
	if len(accounts) > 0 {
		vals := make([]interface{}, len(accounts))
		for i, a := range accounts {
			vals[i] = a
		}
		q = badgerhold.Where("Account").In(vals...).Index("Account")
	} else {
		q = nil
	}
	if err := s.store.db.Find(&rows, q); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	out := make([]*models.Transaction, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	// Timestamp ascending; ID breaks ties so ordering is deterministic.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time.Equal(out[j].Time) {
			return out[i].ID < out[j].ID
		}
		return out[i].Time.Before(out[j].Time)
	})
	return out, nil
}

func (s *ledgerStorage) ListAccounts(_ context.Context) ([]string, error) {
	var rows []models.Transaction
	if err := s.store.db.Find(&rows, nil); err != nil {
		return nil, fmt.Errorf("failed to scan ledger: %w", err)
	}
	seen := make(map[string]struct{})
	var accounts []string
	for i := range rows {
		if _, ok := seen[rows[i].Account]; !ok {
			seen[rows[i].Account] = struct{}{}
			accounts = append(accounts, rows[i].Account)
		}
	}
	sort.Strings(accounts)
	return accounts, nil
}
