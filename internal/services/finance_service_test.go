package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"hogar/internal/core"
)

func validExpense() core.Record {
	return core.Record{
		Household:   "h1",
		Kind:        core.KindExpense,
		Description: "Supermercado",
		Amount:      50000,
		Date:        core.NewDate(2026, time.February, 10),
		Member:      "m1",
	}
}

func TestFinanceServiceCreateRecord(t *testing.T) {
	records := &stubRecordStore{}
	publisher := &stubPublisher{}
	svc := NewFinanceService(records, &stubBudgetStore{}, publisher)

	rec, err := svc.CreateRecord(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if rec.ID != 1 {
		t.Fatalf("record id = %d, want 1", rec.ID)
	}
	if len(publisher.published) != 1 || publisher.published[0] != 1 {
		t.Fatalf("published = %v, want [1]", publisher.published)
	}
}

func TestFinanceServiceCreateRecordInvalid(t *testing.T) {
	records := &stubRecordStore{}
	svc := NewFinanceService(records, &stubBudgetStore{}, nil)

	bad := validExpense()
	bad.Amount = 0
	if _, err := svc.CreateRecord(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("got %v, want ErrInvalidAmount", err)
	}
	if len(records.records) != 0 {
		t.Fatal("invalid record must not be stored")
	}
}

func TestFinanceServiceCreateRecordPublishFailureIsSoft(t *testing.T) {
	records := &stubRecordStore{}
	publisher := &stubPublisher{err: errors.New("broker down")}
	svc := NewFinanceService(records, &stubBudgetStore{}, publisher)

	if _, err := svc.CreateRecord(context.Background(), validExpense()); err != nil {
		t.Fatalf("publish failure must not fail the create: %v", err)
	}
	if len(records.records) != 1 {
		t.Fatal("record must be stored despite publish failure")
	}
}

func TestFinanceServiceMonthSummary(t *testing.T) {
	ctx := context.Background()
	w := core.NewMonthWindow(2026, time.February)

	records := &stubRecordStore{}
	budgets := &stubBudgetStore{}
	if err := budgets.SetMonthlyBudget(ctx, "h1", w, 60000); err != nil {
		t.Fatal(err)
	}
	svc := NewFinanceService(records, budgets, nil)

	seed := []core.Record{
		{Household: "h1", Kind: core.KindIncome, Description: "Nómina", Amount: 120000, Date: core.NewDate(2026, time.February, 3), Member: "m1"},
		{Household: "h1", Kind: core.KindIncome, Description: "Nómina", Amount: 80000, Date: core.NewDate(2026, time.February, 15), Member: "m2"},
		{Household: "h1", Kind: core.KindExpense, Description: "Alquiler", Amount: 50000, Date: core.NewDate(2026, time.February, 10), Member: "m1"},
		// Other household and other month must not leak in.
		{Household: "h2", Kind: core.KindExpense, Description: "Luz", Amount: 9999, Date: core.NewDate(2026, time.February, 10)},
		{Household: "h1", Kind: core.KindExpense, Description: "Luz", Amount: 7777, Date: core.NewDate(2026, time.January, 10)},
	}
	for _, r := range seed {
		if _, err := records.Append(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	s, err := svc.MonthSummary(ctx, "h1", w)
	if err != nil {
		t.Fatalf("MonthSummary: %v", err)
	}
	if s.IncomeTotal != 200000 || s.ExpenseTotal != 50000 || s.Balance != 150000 {
		t.Fatalf("totals = %+v", s)
	}
	if s.Budget.Remaining != 10000 {
		t.Fatalf("budget remaining = %d, want 10000", s.Budget.Remaining)
	}
	if len(s.ByMember) != 2 {
		t.Fatalf("by member = %+v", s.ByMember)
	}
}

func TestFinanceServiceMonthSummaryStoreError(t *testing.T) {
	records := &stubRecordStore{listErr: errors.New("db gone")}
	svc := NewFinanceService(records, &stubBudgetStore{}, nil)

	if _, err := svc.MonthSummary(context.Background(), "h1", core.NewMonthWindow(2026, time.February)); err == nil {
		t.Fatal("store error must propagate")
	}
}

func TestFinanceServicePurchaseHistory(t *testing.T) {
	ctx := context.Background()
	records := &stubRecordStore{}
	svc := NewFinanceService(records, &stubBudgetStore{}, nil)

	seed := []core.Record{
		{Household: "h1", Kind: core.KindPurchase, Description: "Leche", Amount: 100, Date: core.NewDate(2026, time.February, 2)},
		{Household: "h1", Kind: core.KindPurchase, Description: "Pan", Amount: 200, Date: core.NewDate(2026, time.February, 20)},
		{Household: "h1", Kind: core.KindPurchase, Description: "Huevos", Amount: 400, Date: core.NewDate(2026, time.February, 27)},
		{Household: "h1", Kind: core.KindPurchase, Description: "Vino", Amount: 800, Date: core.NewDate(2026, time.January, 31)},
	}
	for _, r := range seed {
		if _, err := records.Append(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	totals, err := svc.PurchaseHistory(ctx, "h1", core.NewDate(2026, time.February, 27))
	if err != nil {
		t.Fatalf("PurchaseHistory: %v", err)
	}
	// Month to date: Feb 2, 20 and 27.
	if totals.MonthToDate != 700 {
		t.Fatalf("month to date = %d, want 700", totals.MonthToDate)
	}
	// Trailing week covers Feb 21-27.
	if totals.TrailingWeek != 400 {
		t.Fatalf("trailing week = %d, want 400", totals.TrailingWeek)
	}
}

func TestFinanceServiceSetMonthlyBudget(t *testing.T) {
	ctx := context.Background()
	budgets := &stubBudgetStore{}
	svc := NewFinanceService(&stubRecordStore{}, budgets, nil)
	w := core.NewMonthWindow(2026, time.March)

	if err := svc.SetMonthlyBudget(ctx, "h1", w, -5); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("negative budget accepted: %v", err)
	}
	if err := svc.SetMonthlyBudget(ctx, "h1", w, 90000); err != nil {
		t.Fatal(err)
	}
	got, err := svc.MonthlyBudget(ctx, "h1", w)
	if err != nil || got != 90000 {
		t.Fatalf("budget = %d (err=%v), want 90000", got, err)
	}
}
