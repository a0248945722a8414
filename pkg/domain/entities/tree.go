package entities

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// OverheadRate is the fixed surcharge applied to material plus labor cost
var OverheadRate = decimal.NewFromFloat(0.10)

// TreeNode is one occurrence of a BOM edge inside an expansion
type TreeNode struct {
	BOMID              BOMID           `json:"bom_id"`
	ParentID           ItemID          `json:"parent_item_id"`
	ParentCode         string          `json:"parent_item_code"`
	ParentName         string          `json:"parent_item_name"`
	ChildID            ItemID          `json:"child_item_id"`
	ChildCode          string          `json:"child_item_code"`
	ChildName          string          `json:"child_item_name"`
	ChildSpec          string          `json:"child_spec,omitempty"`
	ChildUnit          string          `json:"child_unit,omitempty"`
	ChildCategory      ItemCategory    `json:"child_category,omitempty"`
	QuantityRequired   decimal.Decimal `json:"quantity_required"`
	CumulativeQuantity decimal.Decimal `json:"cumulative_quantity"`
	LevelNo            int             `json:"level_no"`
	Level              int             `json:"level"`
	Depth              int             `json:"depth"`
	Path               []ItemID        `json:"path"`
	NamePath           []string        `json:"name_path"`
	Notes              string          `json:"notes,omitempty"`

	UnitPrice    decimal.Decimal `json:"unit_price"`
	MaterialCost decimal.Decimal `json:"material_cost"`
	LaborCost    decimal.Decimal `json:"labor_cost"`
	ScrapRevenue decimal.Decimal `json:"scrap_revenue"`
	NetCost      decimal.Decimal `json:"net_cost"`

	// Per-unit labor carried from the edge; priced into LaborCost.
	laborPerUnit decimal.Decimal
}

// SetLaborPerUnit records the edge's per-unit labor cost
func (n *TreeNode) SetLaborPerUnit(v decimal.Decimal) {
	n.laborPerUnit = v
}

// ApplyPrice sets the unit price and derives material and labor cost
func (n *TreeNode) ApplyPrice(unitPrice decimal.Decimal) {
	n.UnitPrice = unitPrice
	n.MaterialCost = n.QuantityRequired.Mul(unitPrice)
	n.LaborCost = n.QuantityRequired.Mul(n.laborPerUnit)
	n.NetCost = n.MaterialCost.Sub(n.ScrapRevenue)
}

// ApplyScrap sets the node's scrap credit and recomputes net cost
func (n *TreeNode) ApplyScrap(revenue decimal.Decimal) {
	n.ScrapRevenue = revenue
	n.NetCost = n.MaterialCost.Sub(revenue)
}

// PathKey renders the path for tie-breaking and display
func (n *TreeNode) PathKey() string {
	return strings.Join(n.NamePath, " > ")
}

// CompareNodes orders nodes by level, parent code, child code.
// Path and BOM id break remaining ties so output is reproducible.
func CompareNodes(a, b *TreeNode) int {
	return cmp.Or(
		cmp.Compare(a.Level, b.Level),
		strings.Compare(a.ParentCode, b.ParentCode),
		strings.Compare(a.ChildCode, b.ChildCode),
		slices.Compare(a.Path, b.Path),
		cmp.Compare(a.BOMID, b.BOMID),
	)
}

// SortNodes sorts an expansion in display order
func SortNodes(nodes []*TreeNode) {
	slices.SortStableFunc(nodes, CompareNodes)
}

// CostSummary aggregates the costs of one expansion
type CostSummary struct {
	TotalMaterialCost decimal.Decimal `json:"total_material_cost"`
	TotalLaborCost    decimal.Decimal `json:"total_labor_cost"`
	TotalOverheadCost decimal.Decimal `json:"total_overhead_cost"`
	TotalScrapRevenue decimal.Decimal `json:"total_scrap_revenue"`
	TotalNetCost      decimal.Decimal `json:"total_net_cost"`
	PurchasedCount    int             `json:"purchased_count"`
	ProducedCount     int             `json:"produced_count"`
	NodeCount         int             `json:"node_count"`
	MaxLevel          int             `json:"max_level"`
}

// WhereUsedEntry is one ancestor found by a reverse expansion
type WhereUsedEntry struct {
	BOMID              BOMID           `json:"bom_id"`
	ParentID           ItemID          `json:"parent_item_id"`
	ParentCode         string          `json:"parent_item_code"`
	ParentName         string          `json:"parent_item_name"`
	ParentCategory     ItemCategory    `json:"parent_category,omitempty"`
	QuantityRequired   decimal.Decimal `json:"quantity_required"`
	CumulativeQuantity decimal.Decimal `json:"cumulative_quantity"`
	Unit               string          `json:"unit,omitempty"`
	Level              int             `json:"level_no"`
	UsagePath          string          `json:"usage_path"`
}
