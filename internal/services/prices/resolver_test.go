package prices

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolverDirectHit(t *testing.T) {
	r := NewResolver(map[string]map[string]decimal.Decimal{
		"AAPL": {"2024-01-05": dec("120")},
	})

	price, asOf, ok := r.PriceOn("AAPL", day(2024, 1, 5))
	if !ok {
		t.Fatal("expected a price")
	}
	if !price.Equal(dec("120")) {
		t.Errorf("price = %s, want 120", price)
	}
	if !asOf.Equal(day(2024, 1, 5)) {
		t.Errorf("as-of = %v, want 2024-01-05", asOf)
	}
}

func TestResolverForwardFillsWeekend(t *testing.T) {
	r := NewResolver(map[string]map[string]decimal.Decimal{
		"AAPL": {"2024-01-05": dec("120")},
	})

	// Sunday resolves to Friday's close.
	price, asOf, ok := r.PriceOn("AAPL", day(2024, 1, 7))
	if !ok {
		t.Fatal("expected a price")
	}
	if !price.Equal(dec("120")) {
		t.Errorf("price = %s, want 120", price)
	}
	if !asOf.Equal(day(2024, 1, 5)) {
		t.Errorf("as-of = %v, want the Friday it was observed", asOf)
	}
}

func TestResolverPrefersNearestPrior(t *testing.T) {
	r := NewResolver(map[string]map[string]decimal.Decimal{
		"AAPL": {
			"2024-01-03": dec("100"),
			"2024-01-04": dec("105"),
		},
	})

	price, _, ok := r.PriceOn("AAPL", day(2024, 1, 6))
	if !ok {
		t.Fatal("expected a price")
	}
	if !price.Equal(dec("105")) {
		t.Errorf("price = %s, want 105 (most recent prior)", price)
	}
}

func TestResolverLookbackBound(t *testing.T) {
	r := NewResolver(map[string]map[string]decimal.Decimal{
		"AAPL": {"2024-01-01": dec("100")},
	})

	// 14 days back is still in bound.
	if _, _, ok := r.PriceOn("AAPL", day(2024, 1, 15)); !ok {
		t.Error("expected a price 14 days after the last close")
	}
	// 15 days back is out of bound.
	if _, _, ok := r.PriceOn("AAPL", day(2024, 1, 16)); ok {
		t.Error("expected no price 15 days after the last close")
	}
}

func TestResolverUnknownSymbol(t *testing.T) {
	r := NewResolver(nil)
	if _, _, ok := r.PriceOn("AAPL", day(2024, 1, 5)); ok {
		t.Error("expected no price for unknown symbol")
	}
}

func TestResolverNeverFillsForward(t *testing.T) {
	r := NewResolver(map[string]map[string]decimal.Decimal{
		"AAPL": {"2024-01-08": dec("130")},
	})

	// A close dated after the query day never resolves.
	if _, _, ok := r.PriceOn("AAPL", day(2024, 1, 5)); ok {
		t.Error("a future close must not resolve backwards")
	}
}

func TestHasClose(t *testing.T) {
	r := NewResolver(map[string]map[string]decimal.Decimal{
		"AAPL": {"2024-01-05": dec("120")},
	})

	if !r.HasClose("AAPL", day(2024, 1, 5)) {
		t.Error("expected direct close on 2024-01-05")
	}
	if r.HasClose("AAPL", day(2024, 1, 6)) {
		t.Error("forward fill must not count as a direct close")
	}
}
