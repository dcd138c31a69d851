// Package memory is an in-process exporter used in tests and when no
// spreadsheet is configured. Records are validated and kept in memory so
// the sync pipeline stays exercisable without Google credentials.
package memory

import (
	"context"
	"sync"

	"hogar/internal/core"
	"hogar/internal/store"
)

type Exporter struct {
	mu      sync.Mutex
	records []core.Record
}

var _ store.RecordExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(_ context.Context, r core.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = append(e.records, r)
	return nil
}

// Exported returns a copy of everything exported so far.
func (e *Exporter) Exported() []core.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Record(nil), e.records...)
}
