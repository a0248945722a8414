package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
)

func activeOnlyScope(activeOnly bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if activeOnly {
			return db.Where("bom.is_active = ?", true)
		}
		return db
	}
}

// filterScope applies an EdgeFilter; CoilOnly joins the child item
func filterScope(f repositories.EdgeFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(activeOnlyScope(!f.IncludeInactive))
		if f.ParentID != nil {
			db = db.Where("bom.parent_item_id = ?", int64(*f.ParentID))
		}
		if f.ChildID != nil {
			db = db.Where("bom.child_item_id = ?", int64(*f.ChildID))
		}
		if f.LevelNo != nil {
			db = db.Where("bom.level_no = ?", *f.LevelNo)
		}
		if f.CoilOnly {
			db = db.Joins("JOIN items ON items.item_id = bom.child_item_id").
				Where("items.inventory_type = ?", entities.InventoryTypeCoil)
		}
		return db
	}
}

func (s *Store) EdgesOf(ctx context.Context, parentID entities.ItemID, activeOnly bool) ([]*entities.BOMEdge, error) {
	var rows []bomRow
	err := s.conn(ctx).Scopes(activeOnlyScope(activeOnly)).
		Where("bom.parent_item_id = ?", int64(parentID)).
		Order("bom.bom_id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read edges of item %d: %w", parentID, err)
	}
	return bomEntities(rows), nil
}

func (s *Store) EdgesInto(ctx context.Context, childID entities.ItemID, activeOnly bool) ([]*entities.BOMEdge, error) {
	var rows []bomRow
	err := s.conn(ctx).Scopes(activeOnlyScope(activeOnly)).
		Where("bom.child_item_id = ?", int64(childID)).
		Order("bom.bom_id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read edges into item %d: %w", childID, err)
	}
	return bomEntities(rows), nil
}

func (s *Store) FindEdge(ctx context.Context, parentID, childID entities.ItemID) (*entities.BOMEdge, error) {
	var rows []bomRow
	err := s.conn(ctx).
		Where("parent_item_id = ? AND child_item_id = ?", int64(parentID), int64(childID)).
		Order("is_active DESC, bom_id DESC").
		Limit(1).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find edge %d -> %d: %w", parentID, childID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toEntity(), nil
}

func (s *Store) GetEdge(ctx context.Context, id entities.BOMID) (*entities.BOMEdge, error) {
	var row bomRow
	if err := s.conn(ctx).First(&row, "bom_id = ?", int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bomerr.Wrap(bomerr.ErrEdgeNotFound, "", fmt.Errorf("bom %d", id))
		}
		return nil, fmt.Errorf("failed to get edge %d: %w", id, err)
	}
	return row.toEntity(), nil
}

func (s *Store) ListEdges(ctx context.Context, filter repositories.EdgeFilter, page repositories.Page) ([]*entities.BOMEdge, int64, error) {
	page = page.Normalize()

	var total int64
	if err := s.conn(ctx).Model(&bomRow{}).Scopes(filterScope(filter)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count edges: %w", err)
	}

	var rows []bomRow
	err := s.conn(ctx).Select("bom.*").Scopes(filterScope(filter)).
		Order("bom.bom_id").
		Limit(page.Limit).Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list edges: %w", err)
	}
	return bomEntities(rows), total, nil
}

func (s *Store) GetAllEdges(ctx context.Context) ([]*entities.BOMEdge, error) {
	var rows []bomRow
	if err := s.conn(ctx).Order("bom_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read all edges: %w", err)
	}
	return bomEntities(rows), nil
}

func (s *Store) RootItems(ctx context.Context) ([]entities.ItemID, error) {
	var ids []int64
	err := s.conn(ctx).Raw(`
		SELECT DISTINCT b.parent_item_id
		FROM bom b
		WHERE b.is_active = ?
		  AND NOT EXISTS (
		    SELECT 1 FROM bom c
		    WHERE c.child_item_id = b.parent_item_id AND c.is_active = ?
		  )
		ORDER BY b.parent_item_id`, true, true).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find root items: %w", err)
	}

	out := make([]entities.ItemID, len(ids))
	for i, id := range ids {
		out[i] = entities.ItemID(id)
	}
	return out, nil
}

func (s *Store) InsertEdge(ctx context.Context, edge *entities.BOMEdge) error {
	row := bomRowFrom(edge)
	row.ID = 0
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return edgeWriteError(fmt.Sprintf("insert edge %d -> %d", edge.ParentID, edge.ChildID), err)
	}
	edge.ID = entities.BOMID(row.ID)
	edge.CreatedAt = row.CreatedAt
	edge.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *Store) UpdateEdge(ctx context.Context, edge *entities.BOMEdge) error {
	res := s.conn(ctx).Model(&bomRow{}).Where("bom_id = ?", int64(edge.ID)).Updates(map[string]any{
		"quantity_required": edge.QuantityRequired,
		"level_no":          edge.LevelNo,
		"labor_cost":        edge.LaborCost,
		"notes":             edge.Notes,
		"is_active":         edge.IsActive,
	})
	if res.Error != nil {
		return edgeWriteError(fmt.Sprintf("update edge %d", edge.ID), res.Error)
	}
	if res.RowsAffected == 0 {
		return bomerr.Wrap(bomerr.ErrEdgeNotFound, "", fmt.Errorf("bom %d", edge.ID))
	}
	return nil
}

func (s *Store) Deactivate(ctx context.Context, id entities.BOMID) error {
	res := s.conn(ctx).Model(&bomRow{}).Where("bom_id = ?", int64(id)).Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate edge %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return bomerr.Wrap(bomerr.ErrEdgeNotFound, "", fmt.Errorf("bom %d", id))
	}
	return nil
}

func (s *Store) PurgeInactive(ctx context.Context, parentID, childID entities.ItemID) (int64, error) {
	res := s.conn(ctx).
		Where("parent_item_id = ? AND child_item_id = ? AND is_active = ?", int64(parentID), int64(childID), false).
		Delete(&bomRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge inactive edges %d -> %d: %w", parentID, childID, res.Error)
	}
	return res.RowsAffected, nil
}
