package interfaces

import (
	"context"
	"time"

	"github.com/foliokit/netcurve/internal/models"
)

// PriceSource fetches daily closes from an external market-data provider.
// The engine never talks to a source directly; the prices service does, with
// per-symbol failure isolation, and the cache is the only thing the engine
// reads.
type PriceSource interface {
	// DailyCloses returns the closes for one symbol over [start, end]
	// (inclusive, calendar dates). Only trading days appear in the result.
	DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]models.ClosePrice, error)
}
