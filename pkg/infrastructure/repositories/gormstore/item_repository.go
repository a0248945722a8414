package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
)

// SaveItem inserts an item with a zero ID, otherwise replaces it
func (s *Store) SaveItem(ctx context.Context, item *entities.Item) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	if item.Code == "" {
		return bomerr.Wrap(bomerr.ErrInvalidIdentifier, "품목 코드는 필수입니다.", nil)
	}

	row := itemRowFrom(item)
	var err error
	if row.ID == 0 {
		err = s.conn(ctx).Create(&row).Error
	} else {
		err = s.conn(ctx).Save(&row).Error
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("item code %s already exists: %w", item.Code, err)
		}
		return fmt.Errorf("failed to save item %s: %w", item.Code, err)
	}
	item.ID = entities.ItemID(row.ID)
	return nil
}

func (s *Store) GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error) {
	var row itemRow
	if err := s.conn(ctx).First(&row, "item_id = ?", int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bomerr.Wrap(bomerr.ErrItemNotFound, "", fmt.Errorf("item %d", id))
		}
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return row.toEntity(), nil
}

func (s *Store) GetItems(ctx context.Context, ids []entities.ItemID) (map[entities.ItemID]*entities.Item, error) {
	out := make(map[entities.ItemID]*entities.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []itemRow
	if err := s.conn(ctx).Where("item_id IN ?", toInt64s(ids)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get %d items: %w", len(ids), err)
	}
	for i := range rows {
		item := rows[i].toEntity()
		out[item.ID] = item
	}
	return out, nil
}

func (s *Store) GetItemByCode(ctx context.Context, code string) (*entities.Item, error) {
	var row itemRow
	if err := s.conn(ctx).First(&row, "item_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bomerr.Wrap(bomerr.ErrItemNotFound, "", fmt.Errorf("item code %s", code))
		}
		return nil, fmt.Errorf("failed to get item %s: %w", code, err)
	}
	return row.toEntity(), nil
}

// GetAllItems returns every item ordered by id
func (s *Store) GetAllItems(ctx context.Context) ([]*entities.Item, error) {
	var rows []itemRow
	if err := s.conn(ctx).Order("item_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	out := make([]*entities.Item, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out, nil
}

func toInt64s[T ~int64](ids []T) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
