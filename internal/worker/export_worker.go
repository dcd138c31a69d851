// Package worker drains the record sync queue into the spreadsheet
// exporter, with a periodic pending scan as the backup path.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"hogar/internal/amqp"
	"hogar/internal/core"
	"hogar/internal/storage"
	"hogar/internal/store"
)

// RecordSource is the slice of the storage layer the worker needs.
// *storage.SQLiteRepository satisfies it.
type RecordSource interface {
	GetRecord(ctx context.Context, id int64) (core.Record, error)
	PendingSyncRecords(ctx context.Context, limit int) ([]storage.PendingSyncRecord, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

type ExportWorker struct {
	source    RecordSource
	exporter  store.RecordExporter
	batchSize int
}

func NewExportWorker(source RecordSource, exporter store.RecordExporter, batchSize int) *ExportWorker {
	return &ExportWorker{
		source:    source,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage exports the record named by one queue message.
// Returning an error makes the consumer nack and requeue.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	record, err := w.source.GetRecord(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get record from storage: %w", err)
	}

	if err := w.exportRecord(ctx, record); err != nil {
		return fmt.Errorf("export record: %w", err)
	}

	return nil
}

// ProcessPendingRecords exports records the queue missed. Failures are
// logged per record so one bad row cannot stall the batch.
func (w *ExportWorker) ProcessPendingRecords(ctx context.Context) error {
	pending, err := w.source.PendingSyncRecords(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending records: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending records", "count", len(pending))

	for _, p := range pending {
		record, err := w.source.GetRecord(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get record", "id", p.ID, "error", err)
			if err := w.source.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}

		if err := w.exportRecord(ctx, record); err != nil {
			slog.ErrorContext(ctx, "Failed to export record", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains a larger backlog once at worker startup to
// recover from downtime.
func (w *ExportWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.source.PendingSyncRecords(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending records for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending records found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending records on startup, processing...", "count", len(pending))

	synced := 0
	failed := 0
	for _, p := range pending {
		record, err := w.source.GetRecord(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get record for startup sync", "id", p.ID, "error", err)
			if err := w.source.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			failed++
			continue
		}

		if err := w.exportRecord(ctx, record); err != nil {
			slog.ErrorContext(ctx, "Failed to export record during startup", "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}

func (w *ExportWorker) exportRecord(ctx context.Context, record core.Record) error {
	if err := w.exporter.Export(ctx, record); err != nil {
		if markErr := w.source.MarkSyncError(ctx, record.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", record.ID, "error", markErr)
		}
		return err
	}

	if err := w.source.MarkSynced(ctx, record.ID); err != nil {
		// The export itself worked, keep going.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", record.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported record",
		"id", record.ID,
		"description", record.Description,
		"amount_cents", int64(record.Amount))

	return nil
}
