package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/domain/entities"
)

// TreeRequest asks for an expansion. A nil RootID expands every root.
type TreeRequest struct {
	RootID   *entities.ItemID
	MaxDepth int

	// PriceMonth selects unit prices; zero means the current month
	PriceMonth entities.PriceMonth
}

// CreateEdgeRequest carries the fields of a new BOM edge
type CreateEdgeRequest struct {
	ParentID         entities.ItemID `json:"parent_item_id"`
	ChildID          entities.ItemID `json:"child_item_id"`
	QuantityRequired decimal.Decimal `json:"quantity_required"`
	LevelNo          int             `json:"level_no"`
	LaborCost        decimal.Decimal `json:"labor_cost"`
	Notes            string          `json:"notes"`
}

// EdgeView is a BOM edge joined with its parent and child summaries
type EdgeView struct {
	*entities.BOMEdge
	Parent entities.ItemSummary `json:"parent_item"`
	Child  entities.ItemSummary `json:"child_item"`
}

// Pagination describes the window returned by a listing
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// EdgePage is one page of a BOM edge listing
type EdgePage struct {
	Entries    []EdgeView `json:"bom_entries"`
	Pagination Pagination `json:"pagination"`
}

// CostSummaryResult is an expansion with cost fields plus its totals
type CostSummaryResult struct {
	RootID     entities.ItemID      `json:"root_item_id"`
	PriceMonth entities.PriceMonth  `json:"price_month"`
	Entries    []*entities.TreeNode `json:"bom_entries"`
	Summary    entities.CostSummary `json:"cost_summary"`
}

// WhereUsedSummary counts the ancestors found by a reverse expansion
type WhereUsedSummary struct {
	DirectParents  int `json:"direct_parents"`
	TotalAncestors int `json:"total_ancestors"`
	MaxLevel       int `json:"max_level"`
}

// WhereUsedResult lists every assembly that consumes an item
type WhereUsedResult struct {
	ChildItem entities.ItemSummary       `json:"child_item"`
	Entries   []*entities.WhereUsedEntry `json:"where_used"`
	Summary   WhereUsedSummary           `json:"summary"`
}
