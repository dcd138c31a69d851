package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"hogar/internal/core"
)

func newShoppingFixture() (*ShoppingService, *stubRecordStore, *stubFrequencyStore, *stubShoppingStore) {
	records := &stubRecordStore{}
	frequencies := &stubFrequencyStore{}
	shopping := &stubShoppingStore{}
	finance := NewFinanceService(records, &stubBudgetStore{}, nil)
	catalog := NewCatalogService(frequencies)
	return NewShoppingService(shopping, finance, catalog), records, frequencies, shopping
}

func TestShoppingServiceAddItem(t *testing.T) {
	svc, _, _, _ := newShoppingFixture()

	item, err := svc.AddItem(context.Background(), core.ShoppingItem{Household: "h1", Name: "Leche"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("item did not get an id")
	}

	if _, err := svc.AddItem(context.Background(), core.ShoppingItem{Household: "h1"}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("nameless item accepted: %v", err)
	}
}

func TestShoppingServiceMarkCompradoWithPrice(t *testing.T) {
	ctx := context.Background()
	svc, records, frequencies, _ := newShoppingFixture()

	item, err := svc.AddItem(ctx, core.ShoppingItem{Household: "h1", Name: "Leche"})
	if err != nil {
		t.Fatal(err)
	}

	price := core.Amount(129)
	day := core.NewDate(2026, time.February, 10)
	bought, err := svc.MarkComprado(ctx, item.ID, &price, day)
	if err != nil {
		t.Fatalf("MarkComprado: %v", err)
	}
	if !bought.Comprado {
		t.Fatal("item not flagged comprado")
	}

	// A purchase record landed in the history.
	if len(records.records) != 1 {
		t.Fatalf("purchase records = %d, want 1", len(records.records))
	}
	rec := records.records[0]
	if rec.Kind != core.KindPurchase || rec.Amount != 129 || rec.Description != "Leche" {
		t.Fatalf("purchase record = %+v", rec)
	}
	if rec.Date.ISO() != "2026-02-10" {
		t.Fatalf("purchase date = %s", rec.Date.ISO())
	}

	// The catalog counter went up with the price remembered.
	entry := frequencies.entries["h1|Leche"]
	if entry == nil || entry.UsageCount != 1 {
		t.Fatalf("frequency entry = %+v", entry)
	}
	if entry.LastAmount == nil || *entry.LastAmount != 129 {
		t.Fatalf("last amount = %v, want 129", entry.LastAmount)
	}
}

func TestShoppingServiceMarkCompradoWithoutPrice(t *testing.T) {
	ctx := context.Background()
	svc, records, frequencies, _ := newShoppingFixture()

	item, err := svc.AddItem(ctx, core.ShoppingItem{Household: "h1", Name: "Pan"})
	if err != nil {
		t.Fatal(err)
	}

	bought, err := svc.MarkComprado(ctx, item.ID, nil, core.NewDate(2026, time.February, 10))
	if err != nil {
		t.Fatalf("MarkComprado: %v", err)
	}
	if !bought.Comprado {
		t.Fatal("item not flagged comprado")
	}
	if len(records.records) != 0 {
		t.Fatal("priceless purchase must not land in the history")
	}
	if len(frequencies.entries) != 0 {
		t.Fatal("priceless purchase must not touch the catalog")
	}
}

func TestShoppingServiceMarkCompradoStoredPrice(t *testing.T) {
	ctx := context.Background()
	svc, records, _, _ := newShoppingFixture()

	stored := core.Amount(250)
	item, err := svc.AddItem(ctx, core.ShoppingItem{Household: "h1", Name: "Huevos", Price: &stored})
	if err != nil {
		t.Fatal(err)
	}

	// No price supplied at buy time: the stored one applies.
	if _, err := svc.MarkComprado(ctx, item.ID, nil, core.NewDate(2026, time.February, 11)); err != nil {
		t.Fatal(err)
	}
	if len(records.records) != 1 || records.records[0].Amount != 250 {
		t.Fatalf("purchase records = %+v", records.records)
	}

	zero := core.Amount(0)
	if _, err := svc.MarkComprado(ctx, item.ID, &zero, core.NewDate(2026, time.February, 11)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("zero price accepted: %v", err)
	}
}
