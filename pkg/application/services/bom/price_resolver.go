package bom

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
)

// PriceResolver picks the effective unit price of an item for a month
type PriceResolver struct {
	itemRepo  repositories.ItemRepository
	priceRepo repositories.PriceRepository
}

// NewPriceResolver creates a resolver over item master data and price history
func NewPriceResolver(itemRepo repositories.ItemRepository, priceRepo repositories.PriceRepository) *PriceResolver {
	return &PriceResolver{itemRepo: itemRepo, priceRepo: priceRepo}
}

// Resolve returns the newest history price recorded for month, falling back
// to the item's base price and then to zero.
func (r *PriceResolver) Resolve(ctx context.Context, id entities.ItemID, month entities.PriceMonth) (decimal.Decimal, error) {
	found, err := r.itemRepo.GetItems(ctx, []entities.ItemID{id})
	if err != nil {
		return decimal.Zero, bomerr.Backend("get item", err)
	}
	item, ok := found[id]
	if !ok {
		return decimal.Zero, bomerr.Wrap(bomerr.ErrItemNotFound, "", fmt.Errorf("item %d", id))
	}

	prices, err := r.ResolveMany(ctx, map[entities.ItemID]*entities.Item{id: item}, month)
	if err != nil {
		return decimal.Zero, err
	}
	return prices[id], nil
}

// ResolveMany prices every item in one history lookup. The result holds an
// entry for each key of items.
func (r *PriceResolver) ResolveMany(ctx context.Context, items map[entities.ItemID]*entities.Item, month entities.PriceMonth) (map[entities.ItemID]decimal.Decimal, error) {
	ids := make([]entities.ItemID, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}

	history, err := r.priceRepo.LatestForMonth(ctx, ids, month)
	if err != nil {
		return nil, bomerr.Backend(fmt.Sprintf("price history for %s", month), err)
	}

	prices := make(map[entities.ItemID]decimal.Decimal, len(items))
	for id, item := range items {
		switch {
		case history[id] != nil:
			prices[id] = history[id].UnitPrice
		case item != nil:
			prices[id] = item.BasePriceOrZero()
		default:
			prices[id] = decimal.Zero
		}
	}
	return prices, nil
}
