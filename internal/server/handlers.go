package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliokit/netcurve/internal/common"
	"github.com/foliokit/netcurve/internal/models"
	"github.com/foliokit/netcurve/internal/services/netvalue"
)

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// --- Net value curve handlers ---

// curveOptionsFromQuery builds CurveOptions from accounts/start/end/
// include_cash/refresh query parameters.
func (s *Server) curveOptionsFromQuery(r *http.Request) (models.CurveOptions, error) {
	opts := models.CurveOptions{
		Accounts:    queryList(r, "accounts"),
		IncludeCash: queryBool(r, "include_cash", s.app.Config.Curve.IncludeCash),
		Refresh:     queryBool(r, "refresh", false),
	}
	if raw := r.URL.Query().Get("start"); raw != "" {
		d, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			return opts, fmt.Errorf("invalid start date %q, expected YYYY-MM-DD", raw)
		}
		opts.Start = d
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		d, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			return opts, fmt.Errorf("invalid end date %q, expected YYYY-MM-DD", raw)
		}
		opts.End = d
	}
	return opts, nil
}

func (s *Server) computeCurve(w http.ResponseWriter, r *http.Request) (*models.CurveSeries, bool) {
	opts, err := s.curveOptionsFromQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	txns, err := s.app.LedgerService.TransactionsFor(r.Context(), opts.Accounts)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error loading transactions: %v", err))
		return nil, false
	}

	series, err := s.app.NetValueService.ComputeCurve(r.Context(), txns, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, netvalue.ErrInvalidRange) || errors.Is(err, models.ErrUnknownTxnType) {
			status = http.StatusBadRequest
		}
		WriteError(w, status, fmt.Sprintf("Curve computation failed: %v", err))
		return nil, false
	}
	return series, true
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	series, ok := s.computeCurve(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, series)
}

func (s *Server) handleCurveChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	series, ok := s.computeCurve(w, r)
	if !ok {
		return
	}

	png, err := netvalue.RenderCurveChart(series)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Chart render failed: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// --- Ledger handlers ---

type transactionRequest struct {
	Account   string          `json:"account"`
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Fees      decimal.Decimal `json:"fees"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
}

// parseTimestamp accepts RFC3339 or a bare date, which is taken as midnight UTC.
func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(models.DateLayout, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q, expected RFC3339 or YYYY-MM-DD", raw)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleTransactionList(w, r)
	case http.MethodPost:
		s.handleTransactionCreate(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	txns, err := s.app.LedgerService.TransactionsFor(r.Context(), queryList(r, "accounts"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing transactions: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txns,
		"count":        len(txns),
	})
}

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	at, err := parseTimestamp(req.Timestamp)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var txn *models.Transaction
	switch models.TransactionType(strings.ToUpper(req.Type)) {
	case models.TxnBuy:
		txn, err = models.NewBuy(req.Account, at, req.Symbol, req.Quantity, req.Price, req.Fees)
	case models.TxnSell:
		txn, err = models.NewSell(req.Account, at, req.Symbol, req.Quantity, req.Price, req.Fees)
	case models.TxnCashDeposit:
		txn, err = models.NewCashDeposit(req.Account, at, req.Amount)
	case models.TxnCashWithdraw:
		txn, err = models.NewCashWithdraw(req.Account, at, req.Amount)
	default:
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unknown transaction type %q", req.Type))
		return
	}
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid transaction: %v", err))
		return
	}
	txn.Note = req.Note

	// Advisory balance checks, opt-in via ?enforce=true.
	if queryBool(r, "enforce", false) {
		if ok, err := s.enforceBalances(w, r, txn); err != nil || !ok {
			return
		}
	}

	if err := s.app.LedgerService.Add(r.Context(), txn); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Error adding transaction: %v", err))
		return
	}
	if err := s.app.PortfolioService.Rebuild(r.Context(), txn.Account); err != nil {
		s.logger.Warn().Err(err).Str("account", txn.Account).Msg("Cache rebuild after add failed")
	}
	WriteJSON(w, http.StatusCreated, txn)
}

// enforceBalances applies the opt-in oversell/overdraft checks. It writes the
// response itself when the check fails.
func (s *Server) enforceBalances(w http.ResponseWriter, r *http.Request, txn *models.Transaction) (bool, error) {
	switch txn.Type {
	case models.TxnSell:
		ok, err := s.app.PortfolioService.ValidateSell(r.Context(), txn.Account, txn.Symbol, txn.Quantity)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Sell validation failed: %v", err))
			return false, err
		}
		if !ok {
			WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Insufficient shares of %s in account %s", txn.Symbol, txn.Account))
			return false, nil
		}
	case models.TxnCashWithdraw:
		ok, err := s.app.PortfolioService.ValidateWithdrawal(r.Context(), txn.Account, txn.CashAmount, true)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Withdrawal validation failed: %v", err))
			return false, err
		}
		if !ok {
			WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Insufficient cash in account %s", txn.Account))
			return false, nil
		}
	}
	return true, nil
}

// handleTransactionByID dispatches /api/transactions/{id}.
func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "/api/transactions/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "transaction id is required in path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		txn, err := s.app.Storage.LedgerStorage().GetTransaction(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("Transaction not found: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, txn)
	case http.MethodDelete:
		txn, err := s.app.Storage.LedgerStorage().GetTransaction(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("Transaction not found: %v", err))
			return
		}
		if err := s.app.LedgerService.Delete(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error deleting transaction: %v", err))
			return
		}
		if err := s.app.PortfolioService.Rebuild(r.Context(), txn.Account); err != nil {
			s.logger.Warn().Err(err).Str("account", txn.Account).Msg("Cache rebuild after delete failed")
		}
		WriteJSON(w, http.StatusOK, map[string]string{"deleted": id})
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	accounts, err := s.app.LedgerService.Accounts(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing accounts: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}

// routeAccounts dispatches /api/accounts/{name}/* to the appropriate handler.
func (s *Server) routeAccounts(w http.ResponseWriter, r *http.Request) {
	name := PathParam(r, "/api/accounts/", "/rebuild")
	if name != "" && strings.HasSuffix(r.URL.Path, "/rebuild") {
		s.handleAccountRebuild(w, r, name)
		return
	}
	WriteError(w, http.StatusNotFound, "Unknown account endpoint")
}

func (s *Server) handleAccountRebuild(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.app.PortfolioService.Rebuild(r.Context(), name); err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Rebuild failed: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"rebuilt": name})
}

// --- Portfolio handlers ---

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	positions, err := s.app.PortfolioService.Positions(r.Context(), queryList(r, "accounts"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error loading positions: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"count":     len(positions),
	})
}

func (s *Server) handleAllocation(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	allocation, err := s.app.PortfolioService.Allocation(r.Context(), queryList(r, "accounts"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error computing allocation: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, allocation)
}

func (s *Server) handleCash(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	cash, err := s.app.PortfolioService.CashBalance(r.Context(), queryList(r, "accounts"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error loading cash balance: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"cash": cash})
}

// --- Price handlers ---

type refreshRequest struct {
	Symbols []string `json:"symbols"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
}

func (s *Server) handlePricesRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req refreshRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Symbols) == 0 {
		WriteError(w, http.StatusBadRequest, "symbols are required")
		return
	}
	start, err := time.Parse(models.DateLayout, req.Start)
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", req.Start))
		return
	}
	end, err := time.Parse(models.DateLayout, req.End)
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", req.End))
		return
	}
	if start.After(end) {
		WriteError(w, http.StatusBadRequest, "start date is after end date")
		return
	}

	if err := s.app.PriceService.Refresh(r.Context(), req.Symbols, start, end); err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Refresh failed: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"refreshed": req.Symbols,
		"start":     req.Start,
		"end":       req.End,
	})
}
