// Package stub provides a deterministic offline price source for development
// and tests.
package stub

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliokit/netcurve/internal/models"
)

// Base prices for common symbols; unknown symbols get a price derived from a
// hash of the ticker so results are stable across runs.
var basePrices = map[string]float64{
	"AAPL":  185.50,
	"GOOGL": 142.75,
	"MSFT":  378.25,
	"AMZN":  178.50,
	"TSLA":  248.75,
	"NVDA":  485.25,
	"META":  505.50,
	"SPY":   485.25,
	"QQQ":   418.75,
	"VTI":   252.30,
}

// Provider generates deterministic daily closes: a gentle drift around a
// per-symbol base price, weekdays only.
type Provider struct{}

// NewProvider creates a stub provider.
func NewProvider() *Provider {
	return &Provider{}
}

// DailyCloses returns synthetic closes for weekdays in [start, end].
func (p *Provider) DailyCloses(_ context.Context, symbol string, start, end time.Time) ([]models.ClosePrice, error) {
	symbol = models.NormalizeSymbol(symbol)
	base, ok := basePrices[symbol]
	if !ok {
		base = 50 + float64(hashSymbol(symbol)%20000)/100 // 50.00 to 249.99
	}

	var out []models.ClosePrice
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		// ±1% deterministic wobble keyed on symbol+date.
		seed := hashSymbol(symbol + d.Format(models.DateLayout))
		wobble := (float64(seed%200) - 100) / 10000
		close := decimal.NewFromFloat(base * (1 + wobble)).Round(2)
		out = append(out, models.ClosePrice{
			Date:     d.Format(models.DateLayout),
			Close:    close,
			AdjClose: close,
		})
	}
	return out, nil
}

func hashSymbol(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
