package services

import (
	"context"
	"fmt"
	"strings"

	"hogar/internal/core"
	"hogar/internal/store"
)

// CatalogService maintains the most-used-item catalog. Counting relies
// entirely on the store's atomic upsert; the service never reads the
// current count before writing, so two quick uses of the same name both
// land.
type CatalogService struct {
	catalog store.FrequencyStore
}

func NewCatalogService(catalog store.FrequencyStore) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// RecordUsage creates the entry on first use (count 1) or increments it,
// overwriting the remembered price when one is supplied.
func (s *CatalogService) RecordUsage(ctx context.Context, household, name, category string, lastAmount *core.Amount) (core.FrequencyEntry, error) {
	if strings.TrimSpace(household) == "" {
		return core.FrequencyEntry{}, core.ErrEmptyHousehold
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return core.FrequencyEntry{}, core.ErrEmptyName
	}
	if lastAmount != nil && *lastAmount <= 0 {
		return core.FrequencyEntry{}, core.ErrInvalidAmount
	}

	entry, err := s.catalog.UpsertUsage(ctx, household, name, strings.TrimSpace(category), lastAmount)
	if err != nil {
		return core.FrequencyEntry{}, fmt.Errorf("record usage: %w", err)
	}
	return entry, nil
}

// TopEntries returns at most limit entries, usage count descending with
// most-recently-used breaking ties. The limit is always caller-supplied;
// the product defaults (15 for the catalog page, 5 for quick pick) live
// at the HTTP layer.
func (s *CatalogService) TopEntries(ctx context.Context, household string, limit int) ([]core.FrequencyEntry, error) {
	if strings.TrimSpace(household) == "" {
		return nil, core.ErrEmptyHousehold
	}
	if limit < 1 {
		return nil, fmt.Errorf("invalid limit %d: must be at least 1", limit)
	}
	entries, err := s.catalog.TopEntries(ctx, household, limit)
	if err != nil {
		return nil, fmt.Errorf("top entries: %w", err)
	}
	return entries, nil
}
