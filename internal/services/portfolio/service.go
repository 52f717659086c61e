// Package portfolio derives current holdings, cash and allocation from the
// ledger via persistent per-account caches.
package portfolio

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliokit/netcurve/internal/common"
	"github.com/foliokit/netcurve/internal/interfaces"
	"github.com/foliokit/netcurve/internal/models"
	"github.com/foliokit/netcurve/internal/services/netvalue"
)

// Service implements interfaces.PortfolioService. The position and cash
// caches are derived data: the ledger stays the source of truth and a rebuild
// re-derives them in full, never patches them.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

var _ interfaces.PortfolioService = (*Service)(nil)

// NewService creates a portfolio service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{storage: storage, logger: logger}
}

// Rebuild replays the account's full ledger and replaces its cached positions
// and cash balance. Fully-sold symbols drop out of the cache.
func (s *Service) Rebuild(ctx context.Context, account string) error {
	start := time.Now()
	txns, err := s.storage.LedgerStorage().ListTransactions(ctx, []string{account})
	if err != nil {
		return err
	}

	book := netvalue.NewBook()
	for _, t := range txns {
		if err := book.Apply(t); err != nil {
			return err
		}
	}

	rebuiltAt := time.Now().UTC()
	var positions []*models.PositionCache
	for sym, shares := range book.Snapshot() {
		positions = append(positions, &models.PositionCache{
			Account: account,
			Symbol:  sym,
			Shares:  shares,
		})
	}
	if err := s.storage.PositionStorage().ReplacePositions(ctx, account, positions, rebuiltAt); err != nil {
		return err
	}
	if err := s.storage.PositionStorage().SaveCash(ctx, &models.CashCache{
		Account:   account,
		Balance:   book.Cash(),
		RebuiltAt: rebuiltAt,
	}); err != nil {
		return err
	}

	s.logger.Info().
		Str("account", account).
		Int("transactions", len(txns)).
		Int("positions", len(positions)).
		Dur("elapsed", time.Since(start)).
		Msg("Portfolio rebuilt")
	return nil
}

// Positions returns the aggregated holdings for the named accounts, enriched
// with the latest cached close where one exists. Empty accounts means all
// accounts in the ledger.
func (s *Service) Positions(ctx context.Context, accounts []string) ([]models.PositionView, error) {
	shares, err := s.aggregateShares(ctx, accounts)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(shares))
	for sym := range shares {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	views := make([]models.PositionView, 0, len(symbols))
	for _, sym := range symbols {
		view := models.PositionView{Symbol: sym, Shares: shares[sym]}
		if latest, err := s.storage.PriceStorage().Latest(ctx, sym); err == nil {
			price := latest.Close
			mv := shares[sym].Mul(price).Round(2)
			view.LastPrice = &price
			view.MarketValue = &mv
			view.PriceAsOf = latest.Date
		}
		views = append(views, view)
	}
	return views, nil
}

// CashBalance returns the summed cached cash balance for the named accounts.
func (s *Service) CashBalance(ctx context.Context, accounts []string) (decimal.Decimal, error) {
	accounts, err := s.resolveAccounts(ctx, accounts)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, account := range accounts {
		if err := s.ensureCache(ctx, account); err != nil {
			return decimal.Zero, err
		}
		cash, err := s.storage.PositionStorage().GetCash(ctx, account)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(cash.Balance)
	}
	return total, nil
}

// Allocation returns the portfolio breakdown by market value, descending.
// Only symbols with a resolvable latest close are included; percentages are
// relative to the priced total.
func (s *Service) Allocation(ctx context.Context, accounts []string) (*models.AllocationView, error) {
	positions, err := s.Positions(ctx, accounts)
	if err != nil {
		return nil, err
	}

	view := &models.AllocationView{Items: []models.AllocationItem{}, AsOf: time.Now().UTC()}
	for _, p := range positions {
		if p.MarketValue == nil {
			continue
		}
		view.Items = append(view.Items, models.AllocationItem{
			Symbol:      p.Symbol,
			MarketValue: *p.MarketValue,
		})
		view.TotalValue = view.TotalValue.Add(*p.MarketValue)
	}
	if view.TotalValue.IsPositive() {
		hundred := decimal.NewFromInt(100)
		for i := range view.Items {
			view.Items[i].Percentage = view.Items[i].MarketValue.Div(view.TotalValue).Mul(hundred).Round(2)
		}
	}
	sort.SliceStable(view.Items, func(i, j int) bool {
		return view.Items[i].MarketValue.GreaterThan(view.Items[j].MarketValue)
	})
	return view, nil
}

// ValidateSell reports whether the account holds at least quantity shares of
// the symbol. Oversells are allowed by the engine; this is advisory only.
func (s *Service) ValidateSell(ctx context.Context, account, symbol string, quantity decimal.Decimal) (bool, error) {
	if err := s.ensureCache(ctx, account); err != nil {
		return false, err
	}
	positions, err := s.storage.PositionStorage().GetPositions(ctx, account)
	if err != nil {
		return false, err
	}
	symbol = models.NormalizeSymbol(symbol)
	held := decimal.Zero
	for _, p := range positions {
		if p.Symbol == symbol {
			held = held.Add(p.Shares)
		}
	}
	return held.GreaterThanOrEqual(quantity), nil
}

// ValidateWithdrawal reports whether the account's cash covers the amount.
// With enforce false the check always passes; negative balances are a valid
// ledger state, not an error.
func (s *Service) ValidateWithdrawal(ctx context.Context, account string, amount decimal.Decimal, enforce bool) (bool, error) {
	if !enforce {
		return true, nil
	}
	if err := s.ensureCache(ctx, account); err != nil {
		return false, err
	}
	cash, err := s.storage.PositionStorage().GetCash(ctx, account)
	if err != nil {
		return false, err
	}
	return cash.Balance.GreaterThanOrEqual(amount), nil
}

// aggregateShares sums cached shares by symbol across the resolved accounts,
// rebuilding any account whose cache has never been built.
func (s *Service) aggregateShares(ctx context.Context, accounts []string) (map[string]decimal.Decimal, error) {
	accounts, err := s.resolveAccounts(ctx, accounts)
	if err != nil {
		return nil, err
	}
	shares := make(map[string]decimal.Decimal)
	for _, account := range accounts {
		if err := s.ensureCache(ctx, account); err != nil {
			return nil, err
		}
		positions, err := s.storage.PositionStorage().GetPositions(ctx, account)
		if err != nil {
			return nil, err
		}
		for _, p := range positions {
			shares[p.Symbol] = shares[p.Symbol].Add(p.Shares)
		}
	}
	for sym, n := range shares {
		if !n.IsPositive() {
			delete(shares, sym)
		}
	}
	return shares, nil
}

func (s *Service) resolveAccounts(ctx context.Context, accounts []string) ([]string, error) {
	if len(accounts) > 0 {
		return accounts, nil
	}
	return s.storage.LedgerStorage().ListAccounts(ctx)
}

// ensureCache lazily builds an account's caches on first read.
func (s *Service) ensureCache(ctx context.Context, account string) error {
	if _, err := s.storage.PositionStorage().GetCash(ctx, account); err == nil {
		return nil
	}
	return s.Rebuild(ctx, account)
}
