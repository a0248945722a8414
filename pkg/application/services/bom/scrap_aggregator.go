package bom

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
)

// ScrapInput is one occurrence of an item in an expansion
type ScrapInput struct {
	ItemID   entities.ItemID
	Quantity decimal.Decimal
}

// ScrapCredit holds the byproduct credit per item. Absent items earn nothing.
type ScrapCredit struct {
	PerUnit map[entities.ItemID]decimal.Decimal
	Totals  map[entities.ItemID]decimal.Decimal
}

// For returns the total credit for id, zero when absent
func (c *ScrapCredit) For(id entities.ItemID) decimal.Decimal {
	return c.Totals[id]
}

// UnitCredit returns the credit for one unit of id, zero when absent
func (c *ScrapCredit) UnitCredit(id entities.ItemID) decimal.Decimal {
	return c.PerUnit[id]
}

// ScrapAggregator computes byproduct credit for many occurrences at once
type ScrapAggregator struct {
	itemRepo repositories.ItemRepository
}

// NewScrapAggregator creates an aggregator over item master data
func NewScrapAggregator(itemRepo repositories.ItemRepository) *ScrapAggregator {
	return &ScrapAggregator{itemRepo: itemRepo}
}

// Aggregate sums credit over all occurrences. preloaded may already hold some
// or all of the items; the rest are fetched in a single lookup. Items without
// a configuration are left out of the result.
func (a *ScrapAggregator) Aggregate(ctx context.Context, inputs []ScrapInput, preloaded map[entities.ItemID]*entities.Item) (*ScrapCredit, error) {
	items := make(map[entities.ItemID]*entities.Item, len(preloaded))
	missing := make([]entities.ItemID, 0)
	for _, in := range inputs {
		if _, ok := items[in.ItemID]; ok {
			continue
		}
		if item, ok := preloaded[in.ItemID]; ok {
			items[in.ItemID] = item
			continue
		}
		items[in.ItemID] = nil
		missing = append(missing, in.ItemID)
	}

	if len(missing) > 0 {
		found, err := a.itemRepo.GetItems(ctx, missing)
		if err != nil {
			return nil, bomerr.Backend("scrap configuration", err)
		}
		for _, id := range missing {
			items[id] = found[id]
		}
	}

	credit := &ScrapCredit{
		PerUnit: make(map[entities.ItemID]decimal.Decimal),
		Totals:  make(map[entities.ItemID]decimal.Decimal),
	}
	for id, item := range items {
		if item == nil {
			continue
		}
		if perUnit := item.ScrapCreditPerUnit(); perUnit.IsPositive() {
			credit.PerUnit[id] = perUnit
		}
	}
	for _, in := range inputs {
		perUnit, ok := credit.PerUnit[in.ItemID]
		if !ok {
			continue
		}
		credit.Totals[in.ItemID] = credit.Totals[in.ItemID].Add(perUnit.Mul(in.Quantity))
	}
	return credit, nil
}
