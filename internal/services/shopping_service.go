package services

import (
	"context"
	"fmt"
	"log/slog"

	"hogar/internal/core"
	"hogar/internal/store"
)

// ShoppingService manages the shopping list. Buying an item is the one
// flow that touches three collections: the item flips to comprado, a
// purchase record lands in the history and the catalog counter for the
// item name goes up.
type ShoppingService struct {
	shopping store.ShoppingStore
	finance  *FinanceService
	catalog  *CatalogService
}

func NewShoppingService(shopping store.ShoppingStore, finance *FinanceService, catalog *CatalogService) *ShoppingService {
	return &ShoppingService{
		shopping: shopping,
		finance:  finance,
		catalog:  catalog,
	}
}

// AddItem validates and stores a new shopping list item.
func (s *ShoppingService) AddItem(ctx context.Context, item core.ShoppingItem) (core.ShoppingItem, error) {
	if err := item.Validate(); err != nil {
		return core.ShoppingItem{}, err
	}
	id, err := s.shopping.AddItem(ctx, item)
	if err != nil {
		return core.ShoppingItem{}, fmt.Errorf("add shopping item: %w", err)
	}
	item.ID = id
	return item, nil
}

// ListItems returns the household's shopping list, pending items first.
func (s *ShoppingService) ListItems(ctx context.Context, household string) ([]core.ShoppingItem, error) {
	items, err := s.shopping.ListItems(ctx, household)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	return items, nil
}

// MarkComprado flips the item to bought on the given day. A supplied
// price overrides the stored one; with an effective price the purchase
// lands in the history and the catalog counter increments. Without any
// price the item is simply checked off.
func (s *ShoppingService) MarkComprado(ctx context.Context, id int64, price *core.Amount, day core.Date) (core.ShoppingItem, error) {
	if price != nil && *price <= 0 {
		return core.ShoppingItem{}, core.ErrInvalidAmount
	}

	item, err := s.shopping.GetItem(ctx, id)
	if err != nil {
		return core.ShoppingItem{}, fmt.Errorf("get shopping item: %w", err)
	}

	if err := s.shopping.MarkComprado(ctx, id, price); err != nil {
		return core.ShoppingItem{}, fmt.Errorf("mark comprado: %w", err)
	}
	item.Comprado = true
	if price != nil {
		item.Price = price
	}

	effective := item.Price
	if effective == nil {
		slog.InfoContext(ctx, "Item bought without price, no purchase recorded",
			"id", id, "name", item.Name)
		return item, nil
	}

	if _, err := s.finance.CreateRecord(ctx, core.Record{
		Household:   item.Household,
		Kind:        core.KindPurchase,
		Description: item.Name,
		Amount:      *effective,
		Date:        day,
	}); err != nil {
		// The item is already checked off; surface the history failure.
		return item, fmt.Errorf("record purchase: %w", err)
	}

	if _, err := s.catalog.RecordUsage(ctx, item.Household, item.Name, "", effective); err != nil {
		slog.ErrorContext(ctx, "Failed to record catalog usage",
			"id", id, "name", item.Name, "error", err)
	}

	return item, nil
}
