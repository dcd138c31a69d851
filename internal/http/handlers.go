package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hogar/internal/core"
	applog "hogar/internal/log"
)

// Uploaded label photos are small; anything past this is not a receipt.
const maxImageBytes = 10 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError translates a service error into a status code.
// Domain validation sentinels are the caller's fault; everything else is
// ours.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyHousehold),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrUnknownKind):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "not found")
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// parseOptionalAmount parses a user-typed price field. Empty means no
// price.
func parseOptionalAmount(s string) (*core.Amount, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	a, err := core.ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// parseDateOrToday parses a YYYY-MM-DD field, defaulting to today.
func parseDateOrToday(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{Time: time.Now().UTC()}.Truncated(), nil
	}
	return core.ParseISODate(s)
}

// windowFromQuery reads year and month, defaulting to the current month.
func windowFromQuery(r *http.Request) (core.MonthWindow, error) {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.MonthWindow{}, errors.New("invalid year")
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return core.MonthWindow{}, errors.New("invalid month")
		}
		month = m
	}
	return core.NewMonthWindow(year, time.Month(month)), nil
}

func householdFromQuery(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.URL.Query().Get("household"))
	return h, h != ""
}

type recordResponse struct {
	ID          int64  `json:"id"`
	Household   string `json:"household"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Member      string `json:"member,omitempty"`
}

func toRecordResponse(rec core.Record) recordResponse {
	return recordResponse{
		ID:          rec.ID,
		Household:   rec.Household,
		Kind:        string(rec.Kind),
		Description: rec.Description,
		AmountCents: int64(rec.Amount),
		Amount:      core.FormatAmount(rec.Amount),
		Date:        rec.Date.ISO(),
		Member:      rec.Member,
	}
}

type createRecordRequest struct {
	Household   string `json:"household"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Member      string `json:"member"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// The amount arrives exactly as the user typed it.
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	day, err := parseDateOrToday(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}

	rec, err := s.finance.CreateRecord(r.Context(), core.Record{
		Household:   strings.TrimSpace(req.Household),
		Kind:        core.RecordKind(req.Kind),
		Description: strings.TrimSpace(req.Description),
		Amount:      amount,
		Date:        day,
		Member:      strings.TrimSpace(req.Member),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateSummaries(rec.Household)
	writeJSON(w, http.StatusCreated, toRecordResponse(rec))
}

type budgetStateResponse struct {
	SpentCents     int64   `json:"spent_cents"`
	BudgetCents    int64   `json:"budget_cents"`
	RemainingCents int64   `json:"remaining_cents"`
	Ratio          float64 `json:"ratio"`
	DisplayRatio   float64 `json:"display_ratio"`
	Warning        bool    `json:"warning"`
	Over           bool    `json:"over"`
}

type memberBalanceResponse struct {
	Member       string `json:"member"`
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	BalanceCents int64  `json:"balance_cents"`
}

type summaryResponse struct {
	Window       string                  `json:"window"`
	IncomeCents  int64                   `json:"income_cents"`
	ExpenseCents int64                   `json:"expense_cents"`
	BalanceCents int64                   `json:"balance_cents"`
	ByMember     []memberBalanceResponse `json:"by_member"`
	Budget       budgetStateResponse     `json:"budget"`
}

func (s *Server) toSummaryResponse(summary core.MonthSummary) summaryResponse {
	resp := summaryResponse{
		Window:       summary.Window.String(),
		IncomeCents:  int64(summary.IncomeTotal),
		ExpenseCents: int64(summary.ExpenseTotal),
		BalanceCents: int64(summary.Balance),
		ByMember:     []memberBalanceResponse{},
		Budget: budgetStateResponse{
			SpentCents:     int64(summary.Budget.Spent),
			BudgetCents:    int64(summary.Budget.Budget),
			RemainingCents: int64(summary.Budget.Remaining),
			Ratio:          summary.Budget.Ratio,
			DisplayRatio:   summary.Budget.DisplayRatio(),
			Warning:        summary.Budget.Warning(s.thresholds),
			Over:           summary.Budget.Over(s.thresholds),
		},
	}
	for _, m := range summary.ByMember {
		resp.ByMember = append(resp.ByMember, memberBalanceResponse{
			Member:       m.Member,
			IncomeCents:  int64(m.Income),
			ExpenseCents: int64(m.Expense),
			BalanceCents: int64(m.Balance),
		})
	}
	return resp
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	household, ok := householdFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing household")
		return
	}
	window, err := windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.cachedSummary(r.Context(), household, window)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, s.toSummaryResponse(summary))
}

type historyResponse struct {
	MonthToDateCents  int64  `json:"month_to_date_cents"`
	TrailingWeekCents int64  `json:"trailing_week_cents"`
	MonthToDate       string `json:"month_to_date"`
	TrailingWeek      string `json:"trailing_week"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	household, ok := householdFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing household")
		return
	}
	anchor, err := parseDateOrToday(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	totals, err := s.finance.PurchaseHistory(r.Context(), household, anchor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		MonthToDateCents:  int64(totals.MonthToDate),
		TrailingWeekCents: int64(totals.TrailingWeek),
		MonthToDate:       core.FormatAmount(totals.MonthToDate),
		TrailingWeek:      core.FormatAmount(totals.TrailingWeek),
	})
}

type catalogEntryResponse struct {
	Name            string `json:"name"`
	Category        string `json:"category,omitempty"`
	UsageCount      int64  `json:"usage_count"`
	LastAmountCents *int64 `json:"last_amount_cents,omitempty"`
	LastAmount      string `json:"last_amount,omitempty"`
}

func toCatalogResponse(entries []core.FrequencyEntry) []catalogEntryResponse {
	resp := make([]catalogEntryResponse, 0, len(entries))
	for _, e := range entries {
		item := catalogEntryResponse{
			Name:       e.Name,
			Category:   e.Category,
			UsageCount: e.UsageCount,
		}
		if e.LastAmount != nil {
			cents := int64(*e.LastAmount)
			item.LastAmountCents = &cents
			item.LastAmount = core.FormatAmount(*e.LastAmount)
		}
		resp = append(resp, item)
	}
	return resp
}

func (s *Server) serveCatalog(w http.ResponseWriter, r *http.Request, defaultLimit int) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	household, ok := householdFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing household")
		return
	}

	limit := defaultLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.catalog.TopEntries(r.Context(), household, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCatalogResponse(entries))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.serveCatalog(w, r, 15)
}

// handleCatalogQuick is the short list behind the one-tap entry buttons.
func (s *Server) handleCatalogQuick(w http.ResponseWriter, r *http.Request) {
	s.serveCatalog(w, r, 5)
}

type usageRequest struct {
	Household string `json:"household"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Amount    string `json:"amount"`
}

func (s *Server) handleCatalogUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req usageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	amount, err := parseOptionalAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	entry, err := s.catalog.RecordUsage(r.Context(), req.Household, req.Name, req.Category, amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCatalogResponse([]core.FrequencyEntry{entry})[0])
}

type shoppingItemResponse struct {
	ID         int64  `json:"id"`
	Household  string `json:"household"`
	Name       string `json:"name"`
	PriceCents *int64 `json:"price_cents,omitempty"`
	Price      string `json:"price,omitempty"`
	Comprado   bool   `json:"comprado"`
}

func toShoppingResponse(item core.ShoppingItem) shoppingItemResponse {
	resp := shoppingItemResponse{
		ID:        item.ID,
		Household: item.Household,
		Name:      item.Name,
		Comprado:  item.Comprado,
	}
	if item.Price != nil {
		cents := int64(*item.Price)
		resp.PriceCents = &cents
		resp.Price = core.FormatAmount(*item.Price)
	}
	return resp
}

type addItemRequest struct {
	Household string `json:"household"`
	Name      string `json:"name"`
	Price     string `json:"price"`
}

func (s *Server) handleShopping(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		household, ok := householdFromQuery(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "missing household")
			return
		}
		items, err := s.shopping.ListItems(r.Context(), household)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		resp := make([]shoppingItemResponse, 0, len(items))
		for _, item := range items {
			resp = append(resp, toShoppingResponse(item))
		}
		writeJSON(w, http.StatusOK, resp)

	case http.MethodPost:
		var req addItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		price, err := parseOptionalAmount(req.Price)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid price")
			return
		}
		item, err := s.shopping.AddItem(r.Context(), core.ShoppingItem{
			Household: strings.TrimSpace(req.Household),
			Name:      strings.TrimSpace(req.Name),
			Price:     price,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toShoppingResponse(item))

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

type compradoRequest struct {
	ID    int64  `json:"id"`
	Price string `json:"price"`
	Date  string `json:"date"`
}

func (s *Server) handleShoppingComprado(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req compradoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	price, err := parseOptionalAmount(req.Price)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid price")
		return
	}
	day, err := parseDateOrToday(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}

	item, err := s.shopping.MarkComprado(r.Context(), req.ID, price, day)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Buying with a price appended a purchase record.
	s.invalidateSummaries(item.Household)
	writeJSON(w, http.StatusOK, toShoppingResponse(item))
}

type setBudgetRequest struct {
	Household string `json:"household"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Amount    string `json:"amount"`
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		household, ok := householdFromQuery(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "missing household")
			return
		}
		window, err := windowFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		budget, err := s.finance.MonthlyBudget(r.Context(), household, window)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"window":       window.String(),
			"budget_cents": int64(budget),
			"budget":       core.FormatAmount(budget),
		})

	case http.MethodPut:
		var req setBudgetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Household) == "" {
			writeError(w, http.StatusBadRequest, "missing household")
			return
		}
		if req.Month < 1 || req.Month > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		amount, err := core.ParseAmount(req.Amount)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		window := core.NewMonthWindow(req.Year, time.Month(req.Month))
		if err := s.finance.SetMonthlyBudget(r.Context(), req.Household, window, amount); err != nil {
			writeServiceError(w, r, err)
			return
		}
		s.invalidateSummaries(req.Household)
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

type recognizeResponse struct {
	Found       bool   `json:"found"`
	AmountCents int64  `json:"amount_cents,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if s.extractor == nil {
		writeJSON(w, http.StatusOK, recognizeResponse{Found: false})
		return
	}

	image, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	amount, err := s.extractor.Extract(r.Context(), image)
	if err != nil {
		// Not found is the contractual answer for every failure mode.
		writeJSON(w, http.StatusOK, recognizeResponse{Found: false})
		return
	}

	writeJSON(w, http.StatusOK, recognizeResponse{
		Found:       true,
		AmountCents: int64(amount),
		Amount:      core.FormatAmount(amount),
	})
}
