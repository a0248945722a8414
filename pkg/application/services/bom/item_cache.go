package bom

import (
	"context"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
)

// itemCache memoizes item lookups for the lifetime of one request.
// A nil entry records an id known to be missing.
type itemCache struct {
	repo  repositories.ItemRepository
	items map[entities.ItemID]*entities.Item
}

func newItemCache(repo repositories.ItemRepository) *itemCache {
	return &itemCache{repo: repo, items: make(map[entities.ItemID]*entities.Item)}
}

// load fetches every id not yet cached in one batched call
func (c *itemCache) load(ctx context.Context, ids []entities.ItemID) error {
	missing := make([]entities.ItemID, 0, len(ids))
	for _, id := range ids {
		if _, ok := c.items[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	found, err := c.repo.GetItems(ctx, missing)
	if err != nil {
		return bomerr.Backend("get items", err)
	}
	for _, id := range missing {
		c.items[id] = found[id]
	}
	return nil
}

// get returns the cached item, or nil when it does not exist
func (c *itemCache) get(ctx context.Context, id entities.ItemID) (*entities.Item, error) {
	if err := c.load(ctx, []entities.ItemID{id}); err != nil {
		return nil, err
	}
	return c.items[id], nil
}
