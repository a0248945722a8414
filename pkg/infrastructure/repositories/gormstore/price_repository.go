package gormstore

import (
	"context"
	"fmt"

	"github.com/vsinha/bomcost/pkg/domain/entities"
)

// SavePrice appends a history entry; CreatedAt defaults to now
func (s *Store) SavePrice(ctx context.Context, entry *entities.PriceHistoryEntry) error {
	if entry == nil {
		return fmt.Errorf("price entry cannot be nil")
	}
	row := priceRow{
		ItemID:    int64(entry.ItemID),
		Month:     entry.Month.String(),
		UnitPrice: entry.UnitPrice,
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt,
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save price for item %d: %w", entry.ItemID, err)
	}
	entry.ID = row.ID
	entry.CreatedAt = row.CreatedAt
	return nil
}

func (s *Store) LatestForMonth(ctx context.Context, ids []entities.ItemID, month entities.PriceMonth) (map[entities.ItemID]*entities.PriceHistoryEntry, error) {
	out := make(map[entities.ItemID]*entities.PriceHistoryEntry)
	if len(ids) == 0 {
		return out, nil
	}

	var rows []priceRow
	err := s.conn(ctx).
		Where("item_id IN ? AND price_month = ?", toInt64s(ids), month.String()).
		Order("created_at DESC, price_history_id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read price history for %s: %w", month, err)
	}

	for i := range rows {
		id := entities.ItemID(rows[i].ItemID)
		if _, seen := out[id]; seen {
			continue
		}
		entry, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		out[id] = entry
	}
	return out, nil
}
