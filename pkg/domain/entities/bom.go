package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
)

// BOMID represents the surrogate identifier of a BOM edge
type BOMID int64

// DefaultLevelNo is the level stored on an edge when the caller gives none
const DefaultLevelNo = 1

// BOMEdge represents a parent -> child line in the Bill of Materials
type BOMEdge struct {
	ID               BOMID           `json:"bom_id"`
	ParentID         ItemID          `json:"parent_item_id"`
	ChildID          ItemID          `json:"child_item_id"`
	QuantityRequired decimal.Decimal `json:"quantity_required"`
	LevelNo          int             `json:"level_no"`
	LaborCost        decimal.Decimal `json:"labor_cost"`
	Notes            string          `json:"notes,omitempty"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewBOMEdge creates a validated, active BOMEdge
func NewBOMEdge(parentID, childID ItemID, qty decimal.Decimal, levelNo int, notes string) (*BOMEdge, error) {
	if parentID <= 0 || childID <= 0 {
		return nil, bomerr.ErrInvalidIdentifier
	}
	if parentID == childID {
		return nil, bomerr.ErrSelfReference
	}
	if !qty.IsPositive() {
		return nil, bomerr.ErrNonPositiveQuantity
	}
	if levelNo <= 0 {
		levelNo = DefaultLevelNo
	}

	return &BOMEdge{
		ParentID:         parentID,
		ChildID:          childID,
		QuantityRequired: qty,
		LevelNo:          levelNo,
		Notes:            notes,
		IsActive:         true,
	}, nil
}

// EdgeUpdate carries the fields of a partial edge update. Nil means unchanged.
type EdgeUpdate struct {
	QuantityRequired *decimal.Decimal
	LevelNo          *int
	LaborCost        *decimal.Decimal
	Notes            *string
	IsActive         *bool
}

// IsEmpty reports whether the update changes nothing
func (u EdgeUpdate) IsEmpty() bool {
	return u.QuantityRequired == nil && u.LevelNo == nil && u.LaborCost == nil &&
		u.Notes == nil && u.IsActive == nil
}

// Validate checks the shape of the update
func (u EdgeUpdate) Validate() error {
	if u.QuantityRequired != nil && !u.QuantityRequired.IsPositive() {
		return bomerr.ErrNonPositiveQuantity
	}
	if u.LevelNo != nil && *u.LevelNo <= 0 {
		return bomerr.Wrap(bomerr.ErrInvalidIdentifier, "BOM 레벨은 1 이상이어야 합니다.", nil)
	}
	if u.LaborCost != nil && u.LaborCost.IsNegative() {
		return bomerr.Wrap(bomerr.ErrNonPositiveQuantity, "가공비는 음수일 수 없습니다.", nil)
	}
	return nil
}

// ApplyTo copies the set fields onto edge
func (u EdgeUpdate) ApplyTo(edge *BOMEdge) {
	if u.QuantityRequired != nil {
		edge.QuantityRequired = *u.QuantityRequired
	}
	if u.LevelNo != nil {
		edge.LevelNo = *u.LevelNo
	}
	if u.LaborCost != nil {
		edge.LaborCost = *u.LaborCost
	}
	if u.Notes != nil {
		edge.Notes = *u.Notes
	}
	if u.IsActive != nil {
		edge.IsActive = *u.IsActive
	}
}
