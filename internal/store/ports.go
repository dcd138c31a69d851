// Package store declares the outbound ports the services speak through.
// The SQLite implementation lives in internal/storage; tests use in-memory
// stubs.
package store

import (
	"context"

	"hogar/internal/core"
)

type (
	// RecordStore persists monetary records and serves range queries.
	// Listing order is not guaranteed; the aggregation engine filters and
	// sorts on its own.
	RecordStore interface {
		Append(ctx context.Context, r core.Record) (int64, error)
		ListByWindow(ctx context.Context, household string, kind core.RecordKind, w core.MonthWindow) ([]core.Record, error)
		// ListByDateRange returns records dated inside [from, to], bounds
		// inclusive.
		ListByDateRange(ctx context.Context, household string, kind core.RecordKind, from, to core.Date) ([]core.Record, error)
	}

	// FrequencyStore maintains the usage-ranked item catalog. UpsertUsage
	// must be atomic per (household, name): concurrent calls may not lose
	// an increment, so implementations use the storage layer's conditional
	// write primitive, never a read-then-write.
	FrequencyStore interface {
		UpsertUsage(ctx context.Context, household, name, category string, lastAmount *core.Amount) (core.FrequencyEntry, error)
		TopEntries(ctx context.Context, household string, limit int) ([]core.FrequencyEntry, error)
	}

	// BudgetStore holds the configured monthly budgets. A month with no
	// configured budget reads as zero.
	BudgetStore interface {
		MonthlyBudget(ctx context.Context, household string, w core.MonthWindow) (core.Amount, error)
		SetMonthlyBudget(ctx context.Context, household string, w core.MonthWindow, budget core.Amount) error
	}

	// ShoppingStore holds the shopping list. Items are mutable in place:
	// the comprado flag and the price may change after creation.
	ShoppingStore interface {
		AddItem(ctx context.Context, item core.ShoppingItem) (int64, error)
		ListItems(ctx context.Context, household string) ([]core.ShoppingItem, error)
		GetItem(ctx context.Context, id int64) (core.ShoppingItem, error)
		MarkComprado(ctx context.Context, id int64, price *core.Amount) error
	}

	// RecordExporter is the outbound port of the export worker.
	RecordExporter interface {
		Export(ctx context.Context, r core.Record) error
	}
)
