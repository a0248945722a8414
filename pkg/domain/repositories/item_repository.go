package repositories

import (
	"context"

	"github.com/vsinha/bomcost/pkg/domain/entities"
)

// ItemRepository provides access to item master data
type ItemRepository interface {
	GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error)

	// GetItems returns the items found among ids, keyed by id.
	// Missing ids are absent from the map rather than an error.
	GetItems(ctx context.Context, ids []entities.ItemID) (map[entities.ItemID]*entities.Item, error)
	GetItemByCode(ctx context.Context, code string) (*entities.Item, error)
	GetAllItems(ctx context.Context) ([]*entities.Item, error)
	SaveItem(ctx context.Context, item *entities.Item) error
}

// PriceRepository provides access to the monthly price history
type PriceRepository interface {
	// LatestForMonth returns, per item, the newest history entry recorded for month.
	// Items with no entry for the month are absent from the map.
	LatestForMonth(ctx context.Context, ids []entities.ItemID, month entities.PriceMonth) (map[entities.ItemID]*entities.PriceHistoryEntry, error)
	SavePrice(ctx context.Context, entry *entities.PriceHistoryEntry) error
}
