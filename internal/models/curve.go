package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Baseline labels reported with the curve so chart consumers can caption the
// reference line without re-deriving what it contains.
const (
	BaselineLabelWithCash = "Book Value (cash + holdings cost)"
	BaselineLabelCostOnly = "Holdings Cost (avg)"
)

// CurveOptions are the inputs of one net value computation.
type CurveOptions struct {
	// Accounts filters the ledger; empty means all accounts.
	Accounts []string
	// Start and End bound the calendar window, inclusive. Zero values default
	// to the first trade date and max(last trade date, today) respectively.
	Start time.Time
	End   time.Time
	// IncludeCash folds the cash balance into both baseline and market value.
	IncludeCash bool
	// Refresh overwrites cached prices for the window before computing.
	Refresh bool
	// Opening optionally seeds holdings and cash that predate the window.
	// Nil means the window starts flat, matching an account whose full ledger
	// is inside the window.
	Opening *OpeningSnapshot
}

// OpeningSnapshot seeds pre-window state into a curve computation.
type OpeningSnapshot struct {
	Positions map[string]OpeningPosition
	Cash      decimal.Decimal
}

// OpeningPosition is a pre-window holding: shares and their average cost.
type OpeningPosition struct {
	Shares  decimal.Decimal
	AvgCost decimal.Decimal
}

// CurveSeries is the columnar net value curve: parallel arrays indexed by day.
// ProfitLossPct entries are nil where the baseline is zero.
type CurveSeries struct {
	BaselineLabel string `json:"baseline_label"`
	PriceType     string `json:"price_type"`
	IncludesCash  bool   `json:"includes_cash"`

	Dates           []string           `json:"dates"`
	Baseline        []decimal.Decimal  `json:"baseline"`
	MarketValue     []decimal.Decimal  `json:"market_value"`
	ProfitLoss      []decimal.Decimal  `json:"profit_loss"`
	ProfitLossPct   []*decimal.Decimal `json:"profit_loss_pct"`
	IsTradingDay    []bool             `json:"is_trading_day"`
	LastTradingDate []string           `json:"last_trading_date"`
}

// NewCurveSeries returns an empty series with its fixed header fields set.
func NewCurveSeries(includeCash bool) *CurveSeries {
	label := BaselineLabelCostOnly
	if includeCash {
		label = BaselineLabelWithCash
	}
	return &CurveSeries{
		BaselineLabel:   label,
		PriceType:       PriceTypeClose,
		IncludesCash:    includeCash,
		Dates:           []string{},
		Baseline:        []decimal.Decimal{},
		MarketValue:     []decimal.Decimal{},
		ProfitLoss:      []decimal.Decimal{},
		ProfitLossPct:   []*decimal.Decimal{},
		IsTradingDay:    []bool{},
		LastTradingDate: []string{},
	}
}

// Len returns the number of emitted days.
func (c *CurveSeries) Len() int {
	return len(c.Dates)
}
