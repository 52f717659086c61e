package ledger

import (
	"context"
	"fmt"

	"github.com/foliokit/netcurve/internal/common"
	"github.com/foliokit/netcurve/internal/interfaces"
	"github.com/foliokit/netcurve/internal/models"
)

// Service implements interfaces.LedgerService over the ledger storage.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

var _ interfaces.LedgerService = (*Service)(nil)

// NewService creates a new ledger service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{storage: storage, logger: logger}
}

// Add validates and appends one transaction to the ledger.
func (s *Service) Add(ctx context.Context, txn *models.Transaction) error {
	if err := txn.Validate(); err != nil {
		return fmt.Errorf("rejecting transaction: %w", err)
	}
	if err := s.storage.LedgerStorage().SaveTransaction(ctx, txn); err != nil {
		return err
	}
	s.logger.Info().
		Str("id", txn.ID).
		Str("account", txn.Account).
		Str("type", string(txn.Type)).
		Str("symbol", txn.Symbol).
		Msg("Transaction added")
	return nil
}

// Delete removes a transaction. The price cache is deliberately untouched:
// ledger mutation and price staleness are independent failure domains.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.storage.LedgerStorage().DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("id", id).Msg("Transaction deleted")
	return nil
}

// TransactionsFor returns the ordered transactions for the named accounts.
func (s *Service) TransactionsFor(ctx context.Context, accounts []string) ([]*models.Transaction, error) {
	return s.storage.LedgerStorage().ListTransactions(ctx, accounts)
}

// Accounts returns the distinct account names present in the ledger.
func (s *Service) Accounts(ctx context.Context) ([]string, error) {
	return s.storage.LedgerStorage().ListAccounts(ctx)
}
