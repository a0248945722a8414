package gormstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/domain/entities"
)

type itemRow struct {
	ID             int64               `gorm:"column:item_id;primaryKey;autoIncrement"`
	Code           string              `gorm:"column:item_code;type:varchar(50);not null;uniqueIndex"`
	Name           string              `gorm:"column:item_name;type:varchar(200);not null"`
	Spec           string              `gorm:"column:spec;type:varchar(200)"`
	Unit           string              `gorm:"column:unit;type:varchar(20)"`
	Category       string              `gorm:"column:category;type:varchar(20)"`
	InventoryType  string              `gorm:"column:inventory_type;type:varchar(20)"`
	Price          decimal.NullDecimal `gorm:"column:price;type:numeric(18,2)"`
	IsActive       bool                `gorm:"column:is_active;not null"`
	ScrapRate      decimal.Decimal     `gorm:"column:scrap_rate;type:numeric(7,4);not null"`
	ScrapUnitPrice decimal.Decimal     `gorm:"column:scrap_unit_price;type:numeric(18,2);not null"`
	MMWeight       decimal.Decimal     `gorm:"column:mm_weight;type:numeric(18,4);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (itemRow) TableName() string { return "items" }

func itemRowFrom(item *entities.Item) itemRow {
	return itemRow{
		ID:             int64(item.ID),
		Code:           item.Code,
		Name:           item.Name,
		Spec:           item.Spec,
		Unit:           item.Unit,
		Category:       string(item.Category),
		InventoryType:  item.InventoryType,
		Price:          item.BasePrice,
		IsActive:       item.IsActive,
		ScrapRate:      item.ScrapRate,
		ScrapUnitPrice: item.ScrapUnitPrice,
		MMWeight:       item.MMWeight,
	}
}

func (r *itemRow) toEntity() *entities.Item {
	return &entities.Item{
		ID:             entities.ItemID(r.ID),
		Code:           r.Code,
		Name:           r.Name,
		Spec:           r.Spec,
		Unit:           r.Unit,
		Category:       entities.ItemCategory(r.Category),
		InventoryType:  r.InventoryType,
		BasePrice:      r.Price,
		IsActive:       r.IsActive,
		ScrapRate:      r.ScrapRate,
		ScrapUnitPrice: r.ScrapUnitPrice,
		MMWeight:       r.MMWeight,
	}
}

// bomRow is one edge. At most one active row may exist per
// (parent_item_id, child_item_id); see activePairIndex.
type bomRow struct {
	ID               int64           `gorm:"column:bom_id;primaryKey;autoIncrement"`
	ParentItemID     int64           `gorm:"column:parent_item_id;not null;index"`
	ChildItemID      int64           `gorm:"column:child_item_id;not null;index"`
	QuantityRequired decimal.Decimal `gorm:"column:quantity_required;type:numeric(18,4);not null"`
	LevelNo          int             `gorm:"column:level_no;not null"`
	LaborCost        decimal.Decimal `gorm:"column:labor_cost;type:numeric(18,2);not null"`
	Notes            string          `gorm:"column:notes;type:text"`
	IsActive         bool            `gorm:"column:is_active;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (bomRow) TableName() string { return "bom" }

func bomRowFrom(edge *entities.BOMEdge) bomRow {
	return bomRow{
		ID:               int64(edge.ID),
		ParentItemID:     int64(edge.ParentID),
		ChildItemID:      int64(edge.ChildID),
		QuantityRequired: edge.QuantityRequired,
		LevelNo:          edge.LevelNo,
		LaborCost:        edge.LaborCost,
		Notes:            edge.Notes,
		IsActive:         edge.IsActive,
		CreatedAt:        edge.CreatedAt,
		UpdatedAt:        edge.UpdatedAt,
	}
}

func (r *bomRow) toEntity() *entities.BOMEdge {
	return &entities.BOMEdge{
		ID:               entities.BOMID(r.ID),
		ParentID:         entities.ItemID(r.ParentItemID),
		ChildID:          entities.ItemID(r.ChildItemID),
		QuantityRequired: r.QuantityRequired,
		LevelNo:          r.LevelNo,
		LaborCost:        r.LaborCost,
		Notes:            r.Notes,
		IsActive:         r.IsActive,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func bomEntities(rows []bomRow) []*entities.BOMEdge {
	out := make([]*entities.BOMEdge, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out
}

// priceRow stores price_month as its YYYY-MM-01 key
type priceRow struct {
	ID        int64           `gorm:"column:price_history_id;primaryKey;autoIncrement"`
	ItemID    int64           `gorm:"column:item_id;not null;index:ix_price_item_month,priority:1"`
	Month     string          `gorm:"column:price_month;type:varchar(10);not null;index:ix_price_item_month,priority:2"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(18,2);not null"`
	Note      string          `gorm:"column:note;type:text"`
	CreatedAt time.Time       `gorm:"column:created_at;not null"`
}

func (priceRow) TableName() string { return "item_price_history" }

func (r *priceRow) toEntity() (*entities.PriceHistoryEntry, error) {
	month, err := entities.ParsePriceMonth(r.Month)
	if err != nil {
		return nil, err
	}
	return &entities.PriceHistoryEntry{
		ID:        r.ID,
		ItemID:    entities.ItemID(r.ItemID),
		Month:     month,
		UnitPrice: r.UnitPrice,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}, nil
}
