package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliokit/netcurve/internal/models"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func mustBuy(t *testing.T, account string, at time.Time, symbol string) *models.Transaction {
	t.Helper()
	txn, err := models.NewBuy(account, at, symbol, dec("1"), dec("100"), dec("0"))
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	return txn
}

func TestTradeDateUsesEasternCalendar(t *testing.T) {
	// 2024-01-03 01:30 UTC is still 2024-01-02 evening in New York.
	late := time.Date(2024, 1, 3, 1, 30, 0, 0, time.UTC)
	if got := TradeDate(late); !got.Equal(Day(2024, 1, 2)) {
		t.Errorf("trade date = %v, want 2024-01-02", got)
	}

	// 2024-01-03 15:00 UTC is the same calendar day in New York.
	mid := time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)
	if got := TradeDate(mid); !got.Equal(Day(2024, 1, 3)) {
		t.Errorf("trade date = %v, want 2024-01-03", got)
	}
}

func TestIndexGroupsByTradeDate(t *testing.T) {
	// Both timestamps fall on the same Eastern date despite different UTC dates.
	t1 := mustBuy(t, "main", time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), "AAPL")
	t2 := mustBuy(t, "main", time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC), "MSFT")

	ix, err := NewIndex([]*models.Transaction{t1, t2}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	day := Day(2024, 1, 2)
	if got := ix.On(day); len(got) != 2 {
		t.Fatalf("got %d transactions on %v, want 2", len(got), day)
	}
	if !ix.First().Equal(day) || !ix.Last().Equal(day) {
		t.Errorf("first/last = %v/%v, want both 2024-01-02", ix.First(), ix.Last())
	}
}

func TestIndexOrdersWithinDay(t *testing.T) {
	later := mustBuy(t, "main", time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC), "AAPL")
	earlier := mustBuy(t, "main", time.Date(2024, 1, 2, 14, 0, 0, 0, time.UTC), "AAPL")

	ix, err := NewIndex([]*models.Transaction{later, earlier}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := ix.On(Day(2024, 1, 2))
	if len(got) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got))
	}
	if !got[0].Time.Before(got[1].Time) {
		t.Error("transactions not in chronological order within the day")
	}
}

func TestIndexAccountFilter(t *testing.T) {
	a := mustBuy(t, "alpha", time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), "AAPL")
	b := mustBuy(t, "beta", time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), "MSFT")

	ix, err := NewIndex([]*models.Transaction{a, b}, []string{"alpha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := ix.On(Day(2024, 1, 2))
	if len(got) != 1 || got[0].Account != "alpha" {
		t.Errorf("got %d transactions, want only alpha's", len(got))
	}
}

func TestIndexRejectsUnknownType(t *testing.T) {
	bad := &models.Transaction{
		ID:      "x",
		Account: "main",
		Time:    time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC),
		Type:    models.TransactionType("SPLIT"),
	}
	_, err := NewIndex([]*models.Transaction{bad}, nil)
	if !errors.Is(err, models.ErrUnknownTxnType) {
		t.Fatalf("got %v, want ErrUnknownTxnType", err)
	}
}

func TestSymbolsInRangeKeepsSoldSymbols(t *testing.T) {
	buy := mustBuy(t, "main", time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), "AAPL")
	sellAll, err := models.NewSell("main", time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC), "AAPL", dec("1"), dec("110"), dec("0"))
	if err != nil {
		t.Fatal(err)
	}
	otherBuy := mustBuy(t, "main", time.Date(2024, 1, 4, 15, 0, 0, 0, time.UTC), "MSFT")

	ix, err := NewIndex([]*models.Transaction{buy, sellAll, otherBuy}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// AAPL is fully sold mid-window but still needs prices for its holding days.
	symbols := ix.SymbolsInRange(Day(2024, 1, 2), Day(2024, 1, 4))
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "MSFT" {
		t.Errorf("symbols = %v, want [AAPL MSFT]", symbols)
	}
}

func TestSymbolsInRangeExcludesOutsideWindow(t *testing.T) {
	early := mustBuy(t, "main", time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), "AAPL")
	late := mustBuy(t, "main", time.Date(2024, 2, 2, 15, 0, 0, 0, time.UTC), "MSFT")

	ix, err := NewIndex([]*models.Transaction{early, late}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	symbols := ix.SymbolsInRange(Day(2024, 1, 1), Day(2024, 1, 31))
	if len(symbols) != 1 || symbols[0] != "AAPL" {
		t.Errorf("symbols = %v, want [AAPL]", symbols)
	}
}

func TestIndexEmpty(t *testing.T) {
	ix, err := NewIndex(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ix.Empty() {
		t.Error("expected empty index")
	}
	if got := ix.On(Day(2024, 1, 2)); len(got) != 0 {
		t.Errorf("got %d transactions, want 0", len(got))
	}
}
