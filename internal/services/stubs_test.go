package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hogar/internal/core"
)

// In-memory implementations of the store ports for service tests.

type stubRecordStore struct {
	records   []core.Record
	nextID    int64
	appendErr error
	listErr   error
}

func (s *stubRecordStore) Append(_ context.Context, r core.Record) (int64, error) {
	if s.appendErr != nil {
		return 0, s.appendErr
	}
	s.nextID++
	r.ID = s.nextID
	s.records = append(s.records, r)
	return r.ID, nil
}

func (s *stubRecordStore) ListByWindow(ctx context.Context, household string, kind core.RecordKind, w core.MonthWindow) ([]core.Record, error) {
	return s.ListByDateRange(ctx, household, kind, w.FirstDay(), w.LastDay())
}

func (s *stubRecordStore) ListByDateRange(_ context.Context, household string, kind core.RecordKind, from, to core.Date) ([]core.Record, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []core.Record
	for _, r := range s.records {
		if r.Household != household || r.Kind != kind {
			continue
		}
		d := r.Date.Truncated()
		if d.Before(from.Truncated().Time) || d.After(to.Truncated().Time) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type stubBudgetStore struct {
	budgets map[string]core.Amount
}

func budgetKey(household string, w core.MonthWindow) string {
	return fmt.Sprintf("%s|%s", household, w)
}

func (s *stubBudgetStore) MonthlyBudget(_ context.Context, household string, w core.MonthWindow) (core.Amount, error) {
	return s.budgets[budgetKey(household, w)], nil
}

func (s *stubBudgetStore) SetMonthlyBudget(_ context.Context, household string, w core.MonthWindow, budget core.Amount) error {
	if s.budgets == nil {
		s.budgets = make(map[string]core.Amount)
	}
	s.budgets[budgetKey(household, w)] = budget
	return nil
}

type stubFrequencyStore struct {
	entries map[string]*core.FrequencyEntry
	seq     int // monotonic clock for updated-at tie breaks
}

func (s *stubFrequencyStore) UpsertUsage(_ context.Context, household, name, category string, lastAmount *core.Amount) (core.FrequencyEntry, error) {
	if s.entries == nil {
		s.entries = make(map[string]*core.FrequencyEntry)
	}
	s.seq++
	key := household + "|" + name
	e, ok := s.entries[key]
	if !ok {
		e = &core.FrequencyEntry{Name: name, Category: category}
		s.entries[key] = e
	} else if category != "" {
		e.Category = category
	}
	e.UsageCount++
	if lastAmount != nil {
		a := *lastAmount
		e.LastAmount = &a
	}
	e.UpdatedAt = time.Unix(int64(s.seq), 0)
	return *e, nil
}

func (s *stubFrequencyStore) TopEntries(_ context.Context, household string, limit int) ([]core.FrequencyEntry, error) {
	var out []core.FrequencyEntry
	for key, e := range s.entries {
		if len(key) > len(household) && key[:len(household)+1] == household+"|" {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubShoppingStore struct {
	items  map[int64]*core.ShoppingItem
	nextID int64
}

func (s *stubShoppingStore) AddItem(_ context.Context, item core.ShoppingItem) (int64, error) {
	if s.items == nil {
		s.items = make(map[int64]*core.ShoppingItem)
	}
	s.nextID++
	item.ID = s.nextID
	s.items[item.ID] = &item
	return item.ID, nil
}

func (s *stubShoppingStore) ListItems(_ context.Context, household string) ([]core.ShoppingItem, error) {
	var out []core.ShoppingItem
	for _, item := range s.items {
		if item.Household == household {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubShoppingStore) GetItem(_ context.Context, id int64) (core.ShoppingItem, error) {
	item, ok := s.items[id]
	if !ok {
		return core.ShoppingItem{}, fmt.Errorf("no item %d", id)
	}
	return *item, nil
}

func (s *stubShoppingStore) MarkComprado(_ context.Context, id int64, price *core.Amount) error {
	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("no item %d", id)
	}
	item.Comprado = true
	if price != nil {
		a := *price
		item.Price = &a
	}
	return nil
}

type stubPublisher struct {
	published []int64
	err       error
}

func (s *stubPublisher) PublishRecordSync(_ context.Context, id int64) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, id)
	return nil
}
