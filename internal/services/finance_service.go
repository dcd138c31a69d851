// Package services orchestrates the domain operations across storage,
// messaging and the pure core. Services do no aggregation themselves;
// they fetch and delegate to internal/core.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"hogar/internal/core"
	"hogar/internal/store"
)

// RecordPublisher queues a record for asynchronous export. Implemented
// by the AMQP client; nil disables export.
type RecordPublisher interface {
	PublishRecordSync(ctx context.Context, id int64) error
}

// FinanceService handles monetary records and the derived monthly views.
type FinanceService struct {
	records   store.RecordStore
	budgets   store.BudgetStore
	publisher RecordPublisher
}

func NewFinanceService(records store.RecordStore, budgets store.BudgetStore, publisher RecordPublisher) *FinanceService {
	return &FinanceService{
		records:   records,
		budgets:   budgets,
		publisher: publisher,
	}
}

// CreateRecord validates and persists a record, then queues it for
// export best-effort: a failed publish is logged, never surfaced, since
// the record is already safely stored and the worker's pending scan
// picks it up later.
func (s *FinanceService) CreateRecord(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}

	id, err := s.records.Append(ctx, rec)
	if err != nil {
		return core.Record{}, fmt.Errorf("save record: %w", err)
	}
	rec.ID = id

	if s.publisher != nil {
		if err := s.publisher.PublishRecordSync(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish record sync message",
				"id", id, "error", err)
		}
	}

	return rec, nil
}

// MonthSummary builds the derived view of one month: totals, per-member
// split and balances, and budget consumption. Budget consumption counts
// expense records; purchases live in their own history.
func (s *FinanceService) MonthSummary(ctx context.Context, household string, w core.MonthWindow) (core.MonthSummary, error) {
	income, err := s.records.ListByWindow(ctx, household, core.KindIncome, w)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("list income: %w", err)
	}
	expense, err := s.records.ListByWindow(ctx, household, core.KindExpense, w)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("list expense: %w", err)
	}
	budget, err := s.budgets.MonthlyBudget(ctx, household, w)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("monthly budget: %w", err)
	}

	return core.BuildMonthSummary(income, expense, w, budget), nil
}

// SetMonthlyBudget stores the budget for one month, last write wins.
func (s *FinanceService) SetMonthlyBudget(ctx context.Context, household string, w core.MonthWindow, budget core.Amount) error {
	if budget < 0 {
		return core.ErrInvalidAmount
	}
	return s.budgets.SetMonthlyBudget(ctx, household, w, budget)
}

// MonthlyBudget reads the configured budget; an unconfigured month is
// zero.
func (s *FinanceService) MonthlyBudget(ctx context.Context, household string, w core.MonthWindow) (core.Amount, error) {
	return s.budgets.MonthlyBudget(ctx, household, w)
}

// HistoryTotals are the purchase-history rolling sums anchored on a
// caller-supplied day.
type HistoryTotals struct {
	MonthToDate  core.Amount
	TrailingWeek core.Amount
}

// PurchaseHistory computes the current-calendar-month-so-far and
// trailing-7-days purchase totals. The anchor day comes from the caller
// so the result is deterministic.
func (s *FinanceService) PurchaseHistory(ctx context.Context, household string, today core.Date) (HistoryTotals, error) {
	day := today.Truncated()
	monthStart := core.WindowOf(day.Time).FirstDay()
	weekStart := core.Date{Time: day.AddDate(0, 0, -6)} // 7 days, today inclusive

	from := monthStart
	if weekStart.Before(from.Time) {
		from = weekStart
	}

	purchases, err := s.records.ListByDateRange(ctx, household, core.KindPurchase, from, day)
	if err != nil {
		return HistoryTotals{}, fmt.Errorf("list purchases: %w", err)
	}

	return HistoryTotals{
		MonthToDate:  core.RollingWindowTotal(purchases, monthStart),
		TrailingWeek: core.RollingWindowTotal(purchases, weekStart),
	}, nil
}
