package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliokit/netcurve/internal/models"
)

// LedgerService manages the transaction ledger and exposes the ordered,
// validated snapshots the engine consumes.
type LedgerService interface {
	Add(ctx context.Context, txn *models.Transaction) error
	Delete(ctx context.Context, id string) error

	// TransactionsFor returns the ordered (timestamp ascending) transactions
	// for the named accounts. Empty means all accounts.
	TransactionsFor(ctx context.Context, accounts []string) ([]*models.Transaction, error)

	Accounts(ctx context.Context) ([]string, error)
}

// PriceService wraps the price cache with gap-fill and overwrite policies.
type PriceService interface {
	// GetRange returns cached closes only: symbol → date → close.
	GetRange(ctx context.Context, symbols []string, start, end time.Time) (map[string]map[string]decimal.Decimal, error)

	// EnsureRange fills cache gaps from the source. One symbol's fetch failure
	// leaves its rows untouched and does not abort the others.
	EnsureRange(ctx context.Context, symbols []string, start, end time.Time) error

	// Refresh re-fetches and unconditionally replaces every stored row for
	// the symbols in range, removing rows for dates the source no longer
	// reports, with per-symbol isolation.
	Refresh(ctx context.Context, symbols []string, start, end time.Time) error
}

// NetValueService computes the net value curve from a transaction snapshot.
type NetValueService interface {
	ComputeCurve(ctx context.Context, txns []*models.Transaction, opts models.CurveOptions) (*models.CurveSeries, error)
}

// PortfolioService derives and serves current holdings and cash from the
// ledger via persistent caches.
type PortfolioService interface {
	Rebuild(ctx context.Context, account string) error
	Positions(ctx context.Context, accounts []string) ([]models.PositionView, error)
	CashBalance(ctx context.Context, accounts []string) (decimal.Decimal, error)
	Allocation(ctx context.Context, accounts []string) (*models.AllocationView, error)
	ValidateSell(ctx context.Context, account, symbol string, quantity decimal.Decimal) (bool, error)
	ValidateWithdrawal(ctx context.Context, account string, amount decimal.Decimal, enforce bool) (bool, error)
}
