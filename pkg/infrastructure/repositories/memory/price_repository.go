package memory

import (
	"context"
	"fmt"

	"github.com/vsinha/bomcost/pkg/domain/entities"
)

// SavePrice appends a history entry; CreatedAt defaults to the store clock
func (s *Store) SavePrice(_ context.Context, entry *entities.PriceHistoryEntry) error {
	if entry == nil {
		return fmt.Errorf("price entry cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPriceID++
	entry.ID = s.nextPriceID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	clone := *entry
	s.prices[entry.ItemID] = append(s.prices[entry.ItemID], &clone)
	return nil
}

func (s *Store) LatestForMonth(_ context.Context, ids []entities.ItemID, month entities.PriceMonth) (map[entities.ItemID]*entities.PriceHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[entities.ItemID]*entities.PriceHistoryEntry)
	for _, id := range ids {
		var latest *entities.PriceHistoryEntry
		for _, entry := range s.prices[id] {
			if entry.Month == month && entry.NewerThan(latest) {
				latest = entry
			}
		}
		if latest != nil {
			clone := *latest
			out[id] = &clone
		}
	}
	return out, nil
}
