package memory

import (
	"context"
	"fmt"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
)

// SaveItem inserts or replaces an item. A zero ID is assigned the next id.
func (s *Store) SaveItem(_ context.Context, item *entities.Item) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	if item.Code == "" {
		return bomerr.Wrap(bomerr.ErrInvalidIdentifier, "품목 코드는 필수입니다.", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.codes[item.Code]; ok && owner != item.ID {
		return fmt.Errorf("item code %s already used by item %d", item.Code, owner)
	}
	if item.ID == 0 {
		s.nextItemID++
		item.ID = s.nextItemID
	} else if item.ID > s.nextItemID {
		s.nextItemID = item.ID
	}
	if old, ok := s.items[item.ID]; ok && old.Code != item.Code {
		delete(s.codes, old.Code)
	}

	clone := *item
	s.items[item.ID] = &clone
	s.codes[item.Code] = item.ID
	return nil
}

func (s *Store) GetItem(_ context.Context, id entities.ItemID) (*entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, bomerr.Wrap(bomerr.ErrItemNotFound, "", fmt.Errorf("item %d", id))
	}
	clone := *item
	return &clone, nil
}

func (s *Store) GetItems(_ context.Context, ids []entities.ItemID) (map[entities.ItemID]*entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[entities.ItemID]*entities.Item, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			clone := *item
			out[id] = &clone
		}
	}
	return out, nil
}

func (s *Store) GetItemByCode(_ context.Context, code string) (*entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.codes[code]
	if !ok {
		return nil, bomerr.Wrap(bomerr.ErrItemNotFound, "", fmt.Errorf("item code %s", code))
	}
	clone := *s.items[id]
	return &clone, nil
}

// GetAllItems returns every item ordered by id
func (s *Store) GetAllItems(_ context.Context) ([]*entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*entities.Item, 0, len(s.items))
	for id := entities.ItemID(1); id <= s.nextItemID; id++ {
		if item, ok := s.items[id]; ok {
			clone := *item
			items = append(items, &clone)
		}
	}
	return items, nil
}
