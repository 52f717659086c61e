package badger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliokit/netcurve/internal/common"
	"github.com/foliokit/netcurve/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func point(symbol, date, close string) *models.PricePoint {
	return &models.PricePoint{
		Symbol:    symbol,
		Date:      date,
		Close:     dec(close),
		AdjClose:  dec(close),
		PriceType: models.PriceTypeClose,
		UpdatedAt: time.Now().UTC(),
	}
}

func TestPriceStorageRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ps := NewPriceStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	err := ps.Put(ctx, []*models.PricePoint{
		point("AAPL", "2024-01-02", "100"),
		point("AAPL", "2024-01-03", "101"),
		point("MSFT", "2024-01-02", "400"),
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	rows, err := ps.GetRange(ctx, []string{"AAPL", "MSFT"}, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("get range: %v", err)
	}
	if len(rows["AAPL"]) != 2 {
		t.Errorf("got %d AAPL rows, want 2", len(rows["AAPL"]))
	}
	if len(rows["MSFT"]) != 1 {
		t.Errorf("got %d MSFT rows, want 1", len(rows["MSFT"]))
	}
	if !rows["AAPL"]["2024-01-03"].Close.Equal(dec("101")) {
		t.Errorf("close = %s, want 101", rows["AAPL"]["2024-01-03"].Close)
	}
}

func TestPriceStorageRangeBounds(t *testing.T) {
	store := newTestStore(t)
	ps := NewPriceStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	err := ps.Put(ctx, []*models.PricePoint{
		point("AAPL", "2024-01-02", "100"),
		point("AAPL", "2024-01-15", "105"),
		point("AAPL", "2024-02-01", "110"),
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	rows, err := ps.GetRange(ctx, []string{"AAPL"}, "2024-01-03", "2024-01-31")
	if err != nil {
		t.Fatalf("get range: %v", err)
	}
	if len(rows["AAPL"]) != 1 {
		t.Fatalf("got %d rows, want only the mid-January one", len(rows["AAPL"]))
	}
	if _, ok := rows["AAPL"]["2024-01-15"]; !ok {
		t.Error("expected the 2024-01-15 row")
	}
}

func TestPriceStorageUpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	ps := NewPriceStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	if err := ps.Put(ctx, []*models.PricePoint{point("AAPL", "2024-01-02", "100")}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := ps.Put(ctx, []*models.PricePoint{point("AAPL", "2024-01-02", "99.5")}); err != nil {
		t.Fatalf("put: %v", err)
	}

	rows, err := ps.GetRange(ctx, []string{"AAPL"}, "2024-01-02", "2024-01-02")
	if err != nil {
		t.Fatalf("get range: %v", err)
	}
	if len(rows["AAPL"]) != 1 {
		t.Fatalf("got %d rows, want 1 after upsert", len(rows["AAPL"]))
	}
	if !rows["AAPL"]["2024-01-02"].Close.Equal(dec("99.5")) {
		t.Errorf("close = %s, want the replaced 99.5", rows["AAPL"]["2024-01-02"].Close)
	}
}

func TestPriceStorageLatest(t *testing.T) {
	store := newTestStore(t)
	ps := NewPriceStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	err := ps.Put(ctx, []*models.PricePoint{
		point("AAPL", "2024-01-02", "100"),
		point("AAPL", "2024-01-09", "107"),
		point("AAPL", "2024-01-05", "103"),
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	latest, err := ps.Latest(ctx, "AAPL")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Date != "2024-01-09" {
		t.Errorf("latest date = %s, want 2024-01-09", latest.Date)
	}

	if _, err := ps.Latest(ctx, "MSFT"); err == nil {
		t.Error("expected error for symbol with no rows")
	}
}

func TestPriceStorageDeleteRange(t *testing.T) {
	store := newTestStore(t)
	ps := NewPriceStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	err := ps.Put(ctx, []*models.PricePoint{
		point("AAPL", "2024-01-02", "100"),
		point("AAPL", "2024-01-03", "101"),
		point("AAPL", "2024-02-01", "110"),
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	deleted, err := ps.DeleteRange(ctx, "AAPL", "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("delete range: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	rows, err := ps.GetRange(ctx, []string{"AAPL"}, "2024-01-01", "2024-02-28")
	if err != nil {
		t.Fatalf("get range: %v", err)
	}
	if len(rows["AAPL"]) != 1 {
		t.Errorf("got %d rows, want the February one only", len(rows["AAPL"]))
	}
}

func TestLedgerStorageRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ls := NewLedgerStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	txn, err := models.NewBuy("main", time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), "AAPL", dec("10"), dec("100"), dec("0"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ls.SaveTransaction(ctx, txn); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := ls.GetTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Symbol != "AAPL" || !got.Quantity.Equal(dec("10")) {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if err := ls.DeleteTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := ls.GetTransaction(ctx, txn.ID); err == nil {
		t.Error("expected not-found after delete")
	}
}

func TestLedgerStorageRejectsInvalid(t *testing.T) {
	store := newTestStore(t)
	ls := NewLedgerStorage(store, common.NewSilentLogger())

	bad := &models.Transaction{ID: "x", Account: "main", Time: time.Now(), Type: models.TransactionType("SPLIT")}
	if err := ls.SaveTransaction(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLedgerStorageListOrdering(t *testing.T) {
	store := newTestStore(t)
	ls := NewLedgerStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	later, _ := models.NewBuy("main", time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC), "MSFT", dec("1"), dec("400"), dec("0"))
	earlier, _ := models.NewCashDeposit("main", time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), dec("1000"))

	for _, txn := range []*models.Transaction{later, earlier} {
		if err := ls.SaveTransaction(ctx, txn); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	txns, err := ls.ListTransactions(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txns))
	}
	if !txns[0].Time.Before(txns[1].Time) {
		t.Error("transactions not ordered by timestamp ascending")
	}
}

func TestLedgerStorageAccountFilterAndList(t *testing.T) {
	store := newTestStore(t)
	ls := NewLedgerStorage(store, common.NewSilentLogger())
	ctx := context.Background()

	a, _ := models.NewCashDeposit("alpha", time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), dec("1000"))
	b, _ := models.NewCashDeposit("beta", time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), dec("2000"))

	for _, txn := range []*models.Transaction{a, b} {
		if err := ls.SaveTransaction(ctx, txn); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	txns, err := ls.ListTransactions(ctx, []string{"alpha"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 1 || txns[0].Account != "alpha" {
		t.Errorf("got %d transactions, want only alpha's", len(txns))
	}

	accounts, err := ls.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 2 || accounts[0] != "alpha" || accounts[1] != "beta" {
		t.Errorf("accounts = %v, want [alpha beta]", accounts)
	}
}

func TestPositionStorageReplaceAndCash(t *testing.T) {
	store := newTestStore(t)
	ps := NewPositionStorage(store, common.NewSilentLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	err := ps.ReplacePositions(ctx, "main", []*models.PositionCache{
		{Symbol: "AAPL", Shares: dec("10")},
		{Symbol: "MSFT", Shares: dec("2")},
	}, now)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	// A rebuild with fewer symbols drops the stale rows.
	err = ps.ReplacePositions(ctx, "main", []*models.PositionCache{
		{Symbol: "AAPL", Shares: dec("6")},
	}, now)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	positions, err := ps.GetPositions(ctx, "main")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("got %d positions, want 1 after second rebuild", len(positions))
	}
	if positions[0].Symbol != "AAPL" || !positions[0].Shares.Equal(dec("6")) {
		t.Errorf("position = %+v, want AAPL 6", positions[0])
	}

	if err := ps.SaveCash(ctx, &models.CashCache{Account: "main", Balance: dec("1234.56"), RebuiltAt: now}); err != nil {
		t.Fatalf("save cash: %v", err)
	}
	cash, err := ps.GetCash(ctx, "main")
	if err != nil {
		t.Fatalf("get cash: %v", err)
	}
	if !cash.Balance.Equal(dec("1234.56")) {
		t.Errorf("cash = %s, want 1234.56", cash.Balance)
	}

	if _, err := ps.GetCash(ctx, "missing"); err == nil {
		t.Error("expected error for account with no cash cache")
	}
}
