// Package storage provides the top-level StorageManager over the embedded
// BadgerHold store.
package storage

import (
	"fmt"

	"github.com/foliokit/netcurve/internal/common"
	"github.com/foliokit/netcurve/internal/interfaces"
	"github.com/foliokit/netcurve/internal/storage/badger"
)

// Manager implements interfaces.StorageManager.
type Manager struct {
	store     *badger.Store
	prices    interfaces.PriceStorage
	ledger    interfaces.LedgerStorage
	positions interfaces.PositionStorage
	dataPath  string
	logger    *common.Logger
}

// NewManager opens the embedded store and wires the typed storages over it.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	logger.Info().Str("path", config.Storage.Path).Msg("Storage manager initialized")

	return &Manager{
		store:     store,
		prices:    badger.NewPriceStorage(store, logger),
		ledger:    badger.NewLedgerStorage(store, logger),
		positions: badger.NewPositionStorage(store, logger),
		dataPath:  config.Storage.Path,
		logger:    logger,
	}, nil
}

func (m *Manager) PriceStorage() interfaces.PriceStorage {
	return m.prices
}

func (m *Manager) LedgerStorage() interfaces.LedgerStorage {
	return m.ledger
}

func (m *Manager) PositionStorage() interfaces.PositionStorage {
	return m.positions
}

func (m *Manager) DataPath() string {
	return m.dataPath
}

func (m *Manager) Close() error {
	return m.store.Close()
}
