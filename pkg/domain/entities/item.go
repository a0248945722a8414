package entities

import "github.com/shopspring/decimal"

// ItemID represents the surrogate identifier of an item
type ItemID int64

// ItemCategory tags how an item is sourced
type ItemCategory string

const (
	CategoryRawMaterial  ItemCategory = "원자재"
	CategorySubMaterial  ItemCategory = "부자재"
	CategorySemiFinished ItemCategory = "반제품"
	CategoryFinished     ItemCategory = "제품"
	CategoryMerchandise  ItemCategory = "상품"
)

// InventoryTypeCoil marks coil stock for the coil_only listing filter
const InventoryTypeCoil = "coil"

// IsPurchased reports whether items of this category are bought in rather than produced
func (c ItemCategory) IsPurchased() bool {
	switch c {
	case CategoryRawMaterial, CategorySubMaterial, CategoryMerchandise:
		return true
	default:
		return false
	}
}

// Item represents a produced or purchased good
type Item struct {
	ID            ItemID              `json:"item_id"`
	Code          string              `json:"item_code"`
	Name          string              `json:"item_name"`
	Spec          string              `json:"spec,omitempty"`
	Unit          string              `json:"unit"`
	Category      ItemCategory        `json:"category"`
	InventoryType string              `json:"inventory_type,omitempty"`
	BasePrice     decimal.NullDecimal `json:"price"`
	IsActive      bool                `json:"is_active"`

	// Byproduct configuration. Rate is a percentage.
	ScrapRate      decimal.Decimal `json:"scrap_rate"`
	ScrapUnitPrice decimal.Decimal `json:"scrap_unit_price"`
	MMWeight       decimal.Decimal `json:"mm_weight"`
}

var hundred = decimal.NewFromInt(100)

// ScrapCreditPerUnit returns the byproduct credit for one unit of the item.
// It is zero unless rate, scrap price and weight are all positive.
func (i *Item) ScrapCreditPerUnit() decimal.Decimal {
	if !i.ScrapRate.IsPositive() || !i.ScrapUnitPrice.IsPositive() || !i.MMWeight.IsPositive() {
		return decimal.Zero
	}
	return i.ScrapRate.Div(hundred).Mul(i.ScrapUnitPrice).Mul(i.MMWeight)
}

// BasePriceOrZero returns the master price, or zero when none is recorded
func (i *Item) BasePriceOrZero() decimal.Decimal {
	if !i.BasePrice.Valid {
		return decimal.Zero
	}
	return i.BasePrice.Decimal
}

// IsCoil reports whether the item is tracked as coil inventory
func (i *Item) IsCoil() bool {
	return i.InventoryType == InventoryTypeCoil
}

// ItemSummary is the joined view of an item shown next to BOM edges
type ItemSummary struct {
	ID   ItemID `json:"item_id"`
	Code string `json:"item_code"`
	Name string `json:"item_name"`
	Spec string `json:"spec,omitempty"`
	Unit string `json:"unit"`
}

// Summary returns the joined view of the item
func (i *Item) Summary() ItemSummary {
	return ItemSummary{ID: i.ID, Code: i.Code, Name: i.Name, Spec: i.Spec, Unit: i.Unit}
}
