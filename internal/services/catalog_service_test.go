package services

import (
	"context"
	"errors"
	"testing"

	"hogar/internal/core"
)

func TestCatalogServiceRecordUsageCounts(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(&stubFrequencyStore{})

	var entry core.FrequencyEntry
	var err error
	for i := 0; i < 3; i++ {
		entry, err = svc.RecordUsage(ctx, "h1", "Leche", "", nil)
		if err != nil {
			t.Fatalf("RecordUsage: %v", err)
		}
	}
	if entry.UsageCount != 3 {
		t.Fatalf("usage count = %d, want 3", entry.UsageCount)
	}

	top, err := svc.TopEntries(ctx, "h1", 15)
	if err != nil {
		t.Fatalf("TopEntries: %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("catalog rows = %d, want exactly 1", len(top))
	}
	if top[0].Name != "Leche" {
		t.Fatalf("top entry = %+v", top[0])
	}
}

func TestCatalogServiceRecordUsagePrice(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(&stubFrequencyStore{})

	if _, err := svc.RecordUsage(ctx, "h1", "Leche", "Lácteos", nil); err != nil {
		t.Fatal(err)
	}
	price := core.Amount(129)
	entry, err := svc.RecordUsage(ctx, "h1", "Leche", "", &price)
	if err != nil {
		t.Fatal(err)
	}
	if entry.LastAmount == nil || *entry.LastAmount != 129 {
		t.Fatalf("last amount = %v, want 129", entry.LastAmount)
	}
	if entry.Category != "Lácteos" {
		t.Fatalf("category lost on increment: %q", entry.Category)
	}

	zero := core.Amount(0)
	if _, err := svc.RecordUsage(ctx, "h1", "Leche", "", &zero); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("zero price accepted: %v", err)
	}
}

func TestCatalogServiceRecordUsageValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(&stubFrequencyStore{})

	if _, err := svc.RecordUsage(ctx, "", "Leche", "", nil); !errors.Is(err, core.ErrEmptyHousehold) {
		t.Fatalf("empty household accepted: %v", err)
	}
	if _, err := svc.RecordUsage(ctx, "h1", "   ", "", nil); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("blank name accepted: %v", err)
	}
}

func TestCatalogServiceTopEntriesOrdering(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(&stubFrequencyStore{})

	use := func(name string, times int) {
		t.Helper()
		for i := 0; i < times; i++ {
			if _, err := svc.RecordUsage(ctx, "h1", name, "", nil); err != nil {
				t.Fatal(err)
			}
		}
	}
	use("Leche", 3)
	use("Pan", 5)
	use("Huevos", 3) // same count as Leche, used later

	top, err := svc.TopEntries(ctx, "h1", 2)
	if err != nil {
		t.Fatalf("TopEntries: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len = %d, want truncation to 2", len(top))
	}
	if top[0].Name != "Pan" {
		t.Fatalf("top[0] = %q, want Pan", top[0].Name)
	}
	// Tie broken by most recent update.
	if top[1].Name != "Huevos" {
		t.Fatalf("top[1] = %q, want Huevos", top[1].Name)
	}

	if _, err := svc.TopEntries(ctx, "h1", 0); err == nil {
		t.Fatal("limit 0 must be rejected")
	}
}
