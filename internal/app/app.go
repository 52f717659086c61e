// Package app wires configuration, storage, clients and services into one
// shared core used by cmd/netcurve-server.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/foliokit/netcurve/internal/clients/stub"
	"github.com/foliokit/netcurve/internal/clients/yahoo"
	"github.com/foliokit/netcurve/internal/common"
	"github.com/foliokit/netcurve/internal/interfaces"
	"github.com/foliokit/netcurve/internal/services/ledger"
	"github.com/foliokit/netcurve/internal/services/netvalue"
	"github.com/foliokit/netcurve/internal/services/portfolio"
	"github.com/foliokit/netcurve/internal/services/prices"
	"github.com/foliokit/netcurve/internal/storage"
)

// App holds all initialized services, clients and storage.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	PriceSource      interfaces.PriceSource
	LedgerService    interfaces.LedgerService
	PriceService     *prices.Service
	NetValueService  interfaces.NetValueService
	PortfolioService interfaces.PortfolioService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, the price source and all
// services. configPath may be empty, in which case the default resolution
// logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Config resolution: explicit path, NETCURVE_CONFIG, binary dir, then
	// the development fallback.
	if configPath == "" {
		configPath = os.Getenv("NETCURVE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "netcurve.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/netcurve.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	source := newPriceSource(config, logger)

	priceService := prices.NewService(storageManager, source, logger, config.Curve.GetPriceTTL())

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		PriceSource:      source,
		LedgerService:    ledger.NewService(storageManager, logger),
		PriceService:     priceService,
		NetValueService:  netvalue.NewService(priceService, logger),
		PortfolioService: portfolio.NewService(storageManager, logger),
		StartupTime:      time.Now(),
	}

	logger.Info().
		Str("provider", config.Source.Provider).
		Str("storage", config.Storage.Path).
		Dur("elapsed", time.Since(startupStart)).
		Msg("Application initialized")
	return a, nil
}

// newPriceSource builds the configured daily-close source. Unknown providers
// fall back to the deterministic stub so the engine stays usable offline.
func newPriceSource(config *common.Config, logger *common.Logger) interfaces.PriceSource {
	switch config.Source.Provider {
	case "yahoo":
		return yahoo.NewClient(
			yahoo.WithBaseURL(config.Source.BaseURL),
			yahoo.WithLogger(logger),
			yahoo.WithRateLimit(config.Source.RateLimit),
			yahoo.WithTimeout(config.Source.GetTimeout()),
		)
	case "stub", "":
		return stub.NewProvider()
	default:
		logger.Warn().Str("provider", config.Source.Provider).Msg("Unknown price provider, using stub")
		return stub.NewProvider()
	}
}

// Close releases storage resources.
func (a *App) Close() {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close storage")
		}
	}
}
