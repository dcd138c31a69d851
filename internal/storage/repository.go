package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"hogar/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements the store ports on a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements store.RecordStore.
func (r *SQLiteRepository) Append(ctx context.Context, rec core.Record) (int64, error) {
	member := sql.NullString{String: rec.Member, Valid: rec.Member != ""}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO records (household_id, kind, description, amount_cents, record_date, member_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Household, string(rec.Kind), rec.Description, rec.Amount.Cents(), rec.Date.ISO(), member)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record id: %w", err)
	}

	slog.InfoContext(ctx, "Record saved",
		"id", id,
		"household", rec.Household,
		"kind", rec.Kind,
		"amount_cents", rec.Amount.Cents(),
		"date", rec.Date.ISO())

	return id, nil
}

// ListByWindow implements store.RecordStore.
func (r *SQLiteRepository) ListByWindow(ctx context.Context, household string, kind core.RecordKind, w core.MonthWindow) ([]core.Record, error) {
	return r.ListByDateRange(ctx, household, kind, w.FirstDay(), w.LastDay())
}

// ListByDateRange implements store.RecordStore; bounds are inclusive.
func (r *SQLiteRepository) ListByDateRange(ctx context.Context, household string, kind core.RecordKind, from, to core.Date) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, household_id, kind, description, amount_cents, record_date, member_id
		FROM records
		WHERE household_id = ? AND kind = ? AND record_date >= ? AND record_date <= ?
		ORDER BY record_date`,
		household, string(kind), from.ISO(), to.ISO())
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// GetRecord retrieves a single record by ID, for the export worker.
func (r *SQLiteRepository) GetRecord(ctx context.Context, id int64) (core.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, household_id, kind, description, amount_cents, record_date, member_id
		FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return core.Record{}, fmt.Errorf("get record %d: %w", id, err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.Record, error) {
	var (
		rec    core.Record
		kind   string
		cents  int64
		date   string
		member sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Household, &kind, &rec.Description, &cents, &date, &member); err != nil {
		return core.Record{}, fmt.Errorf("scan record: %w", err)
	}
	rec.Kind = core.RecordKind(kind)
	rec.Amount = core.Amount(cents)
	d, err := core.ParseISODate(date)
	if err != nil {
		return core.Record{}, fmt.Errorf("record date %q: %w", date, err)
	}
	rec.Date = d
	if member.Valid {
		rec.Member = member.String
	}
	return rec, nil
}

// UpsertUsage implements store.FrequencyStore as a single conditional
// write. The ON CONFLICT clause is the serialization point for
// concurrent increments of the same (household, name) pair; there is no
// read-modify-write anywhere.
func (r *SQLiteRepository) UpsertUsage(ctx context.Context, household, name, category string, lastAmount *core.Amount) (core.FrequencyEntry, error) {
	var amountCents sql.NullInt64
	if lastAmount != nil {
		amountCents = sql.NullInt64{Int64: lastAmount.Cents(), Valid: true}
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO frequency_entries (household_id, name, category, usage_count, last_amount_cents, updated_at)
		VALUES (?, ?, ?, 1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (household_id, name) DO UPDATE SET
			usage_count = usage_count + 1,
			category = CASE WHEN excluded.category != '' THEN excluded.category ELSE category END,
			last_amount_cents = COALESCE(excluded.last_amount_cents, last_amount_cents),
			updated_at = CURRENT_TIMESTAMP
		RETURNING name, category, usage_count, last_amount_cents, updated_at`,
		household, name, category, amountCents)

	entry, err := scanFrequencyEntry(row)
	if err != nil {
		return core.FrequencyEntry{}, fmt.Errorf("upsert usage %q: %w", name, err)
	}

	slog.DebugContext(ctx, "Catalog usage recorded",
		"household", household,
		"name", entry.Name,
		"usage_count", entry.UsageCount)

	return entry, nil
}

// TopEntries implements store.FrequencyStore: usage count descending,
// most recently updated first on ties.
func (r *SQLiteRepository) TopEntries(ctx context.Context, household string, limit int) ([]core.FrequencyEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, category, usage_count, last_amount_cents, updated_at
		FROM frequency_entries
		WHERE household_id = ?
		ORDER BY usage_count DESC, updated_at DESC
		LIMIT ?`,
		household, limit)
	if err != nil {
		return nil, fmt.Errorf("top entries: %w", err)
	}
	defer rows.Close()

	var entries []core.FrequencyEntry
	for rows.Next() {
		entry, err := scanFrequencyEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

func scanFrequencyEntry(row rowScanner) (core.FrequencyEntry, error) {
	var (
		entry core.FrequencyEntry
		cents sql.NullInt64
	)
	if err := row.Scan(&entry.Name, &entry.Category, &entry.UsageCount, &cents, &entry.UpdatedAt); err != nil {
		return core.FrequencyEntry{}, fmt.Errorf("scan frequency entry: %w", err)
	}
	if cents.Valid {
		a := core.Amount(cents.Int64)
		entry.LastAmount = &a
	}
	return entry, nil
}

// MonthlyBudget implements store.BudgetStore; an unconfigured month
// reads as zero.
func (r *SQLiteRepository) MonthlyBudget(ctx context.Context, household string, w core.MonthWindow) (core.Amount, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT budget_cents FROM budgets
		WHERE household_id = ? AND year = ? AND month = ?`,
		household, w.Year, int(w.Month)).Scan(&cents)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("monthly budget: %w", err)
	}
	return core.Amount(cents), nil
}

// SetMonthlyBudget implements store.BudgetStore, last write wins.
func (r *SQLiteRepository) SetMonthlyBudget(ctx context.Context, household string, w core.MonthWindow, budget core.Amount) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (household_id, year, month, budget_cents)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (household_id, year, month) DO UPDATE SET
			budget_cents = excluded.budget_cents`,
		household, w.Year, int(w.Month), budget.Cents())
	if err != nil {
		return fmt.Errorf("set monthly budget: %w", err)
	}

	slog.InfoContext(ctx, "Monthly budget set",
		"household", household,
		"window", w.String(),
		"budget_cents", budget.Cents())

	return nil
}

// AddItem implements store.ShoppingStore.
func (r *SQLiteRepository) AddItem(ctx context.Context, item core.ShoppingItem) (int64, error) {
	var cents sql.NullInt64
	if item.Price != nil {
		cents = sql.NullInt64{Int64: item.Price.Cents(), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO shopping_items (household_id, name, amount_cents)
		VALUES (?, ?, ?)`,
		item.Household, item.Name, cents)
	if err != nil {
		return 0, fmt.Errorf("insert shopping item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("shopping item id: %w", err)
	}
	return id, nil
}

// ListItems implements store.ShoppingStore.
func (r *SQLiteRepository) ListItems(ctx context.Context, household string) ([]core.ShoppingItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, household_id, name, amount_cents, comprado, created_at
		FROM shopping_items
		WHERE household_id = ?
		ORDER BY comprado, created_at DESC`,
		household)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var items []core.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shopping items: %w", err)
	}
	return items, nil
}

// GetItem implements store.ShoppingStore.
func (r *SQLiteRepository) GetItem(ctx context.Context, id int64) (core.ShoppingItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, household_id, name, amount_cents, comprado, created_at
		FROM shopping_items WHERE id = ?`, id)
	item, err := scanShoppingItem(row)
	if err != nil {
		return core.ShoppingItem{}, fmt.Errorf("get shopping item %d: %w", id, err)
	}
	return item, nil
}

// MarkComprado implements store.ShoppingStore. A supplied price
// overwrites the stored one; nil keeps it.
func (r *SQLiteRepository) MarkComprado(ctx context.Context, id int64, price *core.Amount) error {
	var cents sql.NullInt64
	if price != nil {
		cents = sql.NullInt64{Int64: price.Cents(), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE shopping_items
		SET comprado = 1, amount_cents = COALESCE(?, amount_cents)
		WHERE id = ?`,
		cents, id)
	if err != nil {
		return fmt.Errorf("mark comprado: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark comprado rows: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanShoppingItem(row rowScanner) (core.ShoppingItem, error) {
	var (
		item     core.ShoppingItem
		cents    sql.NullInt64
		comprado int64
		created  time.Time
	)
	if err := row.Scan(&item.ID, &item.Household, &item.Name, &cents, &comprado, &created); err != nil {
		return core.ShoppingItem{}, fmt.Errorf("scan shopping item: %w", err)
	}
	if cents.Valid {
		a := core.Amount(cents.Int64)
		item.Price = &a
	}
	item.Comprado = comprado != 0
	item.CreatedAt = created
	return item, nil
}

// PendingSyncRecord is the minimal shape queued for export.
type PendingSyncRecord struct {
	ID        int64
	CreatedAt time.Time
}

// PendingSyncRecords returns records not yet exported, oldest first.
// Backup path for lost AMQP messages.
func (r *SQLiteRepository) PendingSyncRecords(ctx context.Context, limit int) ([]PendingSyncRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM records
		WHERE synced = 0 AND sync_error = 0
		ORDER BY created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending sync records: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncRecord
	for rows.Next() {
		var p PendingSyncRecord
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending record: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending records: %w", err)
	}
	return pending, nil
}

// MarkSynced marks a record as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE records SET synced = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark record synced: %w", err)
	}
	slog.InfoContext(ctx, "Record marked as synced", "id", id)
	return nil
}

// MarkSyncError flags a record whose export keeps failing.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE records SET sync_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark record sync error: %w", err)
	}
	slog.WarnContext(ctx, "Record marked with sync error", "id", id)
	return nil
}
