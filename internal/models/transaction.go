// Package models defines the domain types shared across services and storage.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType enumerates the four ledger event kinds.
type TransactionType string

const (
	TxnBuy          TransactionType = "BUY"
	TxnSell         TransactionType = "SELL"
	TxnCashDeposit  TransactionType = "CASH_DEPOSIT"
	TxnCashWithdraw TransactionType = "CASH_WITHDRAW"
)

// ErrUnknownTxnType is returned when a transaction carries a type outside the
// four supported kinds. It is a fatal input error, never silently skipped.
var ErrUnknownTxnType = fmt.Errorf("unknown transaction type")

// Transaction is one append-only ledger entry. BUY/SELL carry Symbol, Quantity
// and Price; CASH_DEPOSIT/CASH_WITHDRAW carry CashAmount. Fees apply to trades
// only and are always >= 0. Fractional shares are supported via decimal.
type Transaction struct {
	ID         string          `json:"id" badgerhold:"key"`
	Account    string          `json:"account" badgerholdIndex:"Account"`
	Time       time.Time       `json:"time"`
	Type       TransactionType `json:"type"`
	Symbol     string          `json:"symbol,omitempty"`
	Quantity   decimal.Decimal `json:"quantity,omitempty"`
	Price      decimal.Decimal `json:"price,omitempty"`
	CashAmount decimal.Decimal `json:"cash_amount,omitempty"`
	Fees       decimal.Decimal `json:"fees"`
	Note       string          `json:"note,omitempty"`
}

// NewBuy constructs a validated BUY transaction.
func NewBuy(account string, at time.Time, symbol string, quantity, price, fees decimal.Decimal) (*Transaction, error) {
	t := &Transaction{
		ID:       uuid.NewString(),
		Account:  account,
		Time:     at,
		Type:     TxnBuy,
		Symbol:   NormalizeSymbol(symbol),
		Quantity: quantity,
		Price:    price,
		Fees:     fees,
	}
	return t, t.Validate()
}

// NewSell constructs a validated SELL transaction.
func NewSell(account string, at time.Time, symbol string, quantity, price, fees decimal.Decimal) (*Transaction, error) {
	t := &Transaction{
		ID:       uuid.NewString(),
		Account:  account,
		Time:     at,
		Type:     TxnSell,
		Symbol:   NormalizeSymbol(symbol),
		Quantity: quantity,
		Price:    price,
		Fees:     fees,
	}
	return t, t.Validate()
}

// NewCashDeposit constructs a validated CASH_DEPOSIT transaction.
func NewCashDeposit(account string, at time.Time, amount decimal.Decimal) (*Transaction, error) {
	t := &Transaction{
		ID:         uuid.NewString(),
		Account:    account,
		Time:       at,
		Type:       TxnCashDeposit,
		CashAmount: amount,
	}
	return t, t.Validate()
}

// NewCashWithdraw constructs a validated CASH_WITHDRAW transaction.
func NewCashWithdraw(account string, at time.Time, amount decimal.Decimal) (*Transaction, error) {
	t := &Transaction{
		ID:         uuid.NewString(),
		Account:    account,
		Time:       at,
		Type:       TxnCashWithdraw,
		CashAmount: amount,
	}
	return t, t.Validate()
}

// Validate checks the per-type field requirements. A transaction that fails
// validation is a caller bug and must be rejected before it reaches the engine.
func (t *Transaction) Validate() error {
	if t.Account == "" {
		return fmt.Errorf("transaction account is required")
	}
	if t.Time.IsZero() {
		return fmt.Errorf("transaction time is required")
	}
	if t.Fees.IsNegative() {
		return fmt.Errorf("fees must be >= 0, got %s", t.Fees)
	}
	switch t.Type {
	case TxnBuy, TxnSell:
		if t.Symbol == "" {
			return fmt.Errorf("%s requires a symbol", t.Type)
		}
		if !t.Quantity.IsPositive() {
			return fmt.Errorf("%s requires quantity > 0, got %s", t.Type, t.Quantity)
		}
		if t.Price.IsNegative() {
			return fmt.Errorf("%s requires price >= 0, got %s", t.Type, t.Price)
		}
	case TxnCashDeposit, TxnCashWithdraw:
		if !t.CashAmount.IsPositive() {
			return fmt.Errorf("%s requires cash_amount > 0", t.Type)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTxnType, t.Type)
	}
	return nil
}

// IsTrade reports whether the transaction moves shares.
func (t *Transaction) IsTrade() bool {
	return t.Type == TxnBuy || t.Type == TxnSell
}

// NormalizeSymbol strips whitespace and uppercases a ticker symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
