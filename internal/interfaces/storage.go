// Package interfaces defines service contracts for netcurve
package interfaces

import (
	"context"
	"time"

	"github.com/foliokit/netcurve/internal/models"
)

// StorageManager coordinates the storage backends.
type StorageManager interface {
	PriceStorage() PriceStorage
	LedgerStorage() LedgerStorage
	PositionStorage() PositionStorage

	// DataPath returns the base data directory path.
	DataPath() string

	// Lifecycle
	Close() error
}

// PriceStorage persists daily closes keyed by (symbol, date).
// Upserts are row-atomic: a concurrent reader sees either the old row or the
// new row, never a partially written one.
type PriceStorage interface {
	// GetRange returns only the rows actually stored for the symbols within
	// [start, end] (dates in models.DateLayout). No synthesis, no fill.
	GetRange(ctx context.Context, symbols []string, start, end string) (map[string]map[string]*models.PricePoint, error)

	// Put upserts a batch of rows.
	Put(ctx context.Context, points []*models.PricePoint) error

	// DeleteRange removes stored rows for a symbol within [start, end].
	DeleteRange(ctx context.Context, symbol string, start, end string) (int, error)

	// Latest returns the most recent stored row for a symbol, if any.
	Latest(ctx context.Context, symbol string) (*models.PricePoint, error)
}

// LedgerStorage persists the append-only transaction ledger.
type LedgerStorage interface {
	SaveTransaction(ctx context.Context, txn *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	// ListTransactions returns transactions for the named accounts, ordered by
	// timestamp ascending. Empty accounts means all accounts.
	ListTransactions(ctx context.Context, accounts []string) ([]*models.Transaction, error)

	// ListAccounts returns the distinct account names present in the ledger.
	ListAccounts(ctx context.Context) ([]string, error)
}

// PositionStorage persists derived per-account position and cash caches.
// Rows are only ever written by a rebuild, never edited in place.
type PositionStorage interface {
	ReplacePositions(ctx context.Context, account string, positions []*models.PositionCache, rebuiltAt time.Time) error
	GetPositions(ctx context.Context, account string) ([]*models.PositionCache, error)
	SaveCash(ctx context.Context, cash *models.CashCache) error
	GetCash(ctx context.Context, account string) (*models.CashCache, error)
}
