package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testTime = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func TestNewBuy(t *testing.T) {
	txn, err := NewBuy("main", testTime, "aapl", decimal.NewFromInt(10), decimal.NewFromFloat(185.50), decimal.NewFromFloat(9.95))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.ID == "" {
		t.Error("expected generated ID")
	}
	if txn.Type != TxnBuy {
		t.Errorf("type = %q, want %q", txn.Type, TxnBuy)
	}
	if txn.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want AAPL (normalized)", txn.Symbol)
	}
}

func TestNewBuyRejectsZeroQuantity(t *testing.T) {
	_, err := NewBuy("main", testTime, "AAPL", decimal.Zero, decimal.NewFromInt(100), decimal.Zero)
	if err == nil {
		t.Fatal("expected error for zero quantity")
	}
}

func TestNewSellRejectsNegativePrice(t *testing.T) {
	_, err := NewSell("main", testTime, "AAPL", decimal.NewFromInt(5), decimal.NewFromInt(-1), decimal.Zero)
	if err == nil {
		t.Fatal("expected error for negative price")
	}
}

func TestNewCashDepositRejectsZeroAmount(t *testing.T) {
	_, err := NewCashDeposit("main", testTime, decimal.Zero)
	if err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestValidateUnknownType(t *testing.T) {
	txn := &Transaction{
		ID:      "x",
		Account: "main",
		Time:    testTime,
		Type:    TransactionType("DIVIDEND"),
	}
	err := txn.Validate()
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	if !errors.Is(err, ErrUnknownTxnType) {
		t.Errorf("error %v does not wrap ErrUnknownTxnType", err)
	}
}

func TestValidateRequiresAccount(t *testing.T) {
	txn, err := NewCashDeposit("main", testTime, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	txn.Account = ""
	if err := txn.Validate(); err == nil {
		t.Fatal("expected error for missing account")
	}
}

func TestIsTrade(t *testing.T) {
	buy, _ := NewBuy("main", testTime, "AAPL", decimal.NewFromInt(1), decimal.NewFromInt(100), decimal.Zero)
	dep, _ := NewCashDeposit("main", testTime, decimal.NewFromInt(100))
	if !buy.IsTrade() {
		t.Error("BUY should be a trade")
	}
	if dep.IsTrade() {
		t.Error("CASH_DEPOSIT should not be a trade")
	}
}

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		" aapl ": "AAPL",
		"msft":   "MSFT",
		"BRK.B":  "BRK.B",
		"  ":     "",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}
