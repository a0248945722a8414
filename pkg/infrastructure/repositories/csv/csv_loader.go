package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/domain/entities"
)

const (
	ItemsFile  = "items.csv"
	BOMFile    = "bom.csv"
	PricesFile = "prices.csv"
)

var (
	itemsHeader  = []string{"item_code", "item_name", "spec", "unit", "category", "inventory_type", "price", "is_active", "scrap_rate", "scrap_unit_price", "mm_weight"}
	bomHeader    = []string{"parent_item_code", "child_item_code", "quantity_required", "level_no", "labor_cost", "notes", "is_active"}
	pricesHeader = []string{"item_code", "price_month", "unit_price", "note"}
)

// BOMRow is one bom.csv record, still keyed by item code
type BOMRow struct {
	ParentCode string
	ChildCode  string
	Edge       entities.BOMEdge
}

// PriceRow is one prices.csv record, still keyed by item code
type PriceRow struct {
	ItemCode string
	Entry    entities.PriceHistoryEntry
}

// Sink receives a loaded scenario
type Sink interface {
	SaveItem(ctx context.Context, item *entities.Item) error
	GetItemByCode(ctx context.Context, code string) (*entities.Item, error)
	InsertEdge(ctx context.Context, edge *entities.BOMEdge) error
	SavePrice(ctx context.Context, entry *entities.PriceHistoryEntry) error
}

// Loader handles loading BOM scenarios from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario loads items.csv, bom.csv and the optional prices.csv from dir into sink
func (l *Loader) LoadScenario(ctx context.Context, dir string, sink Sink) error {
	items, err := l.LoadItems(filepath.Join(dir, ItemsFile))
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := sink.SaveItem(ctx, item); err != nil {
			return fmt.Errorf("failed to save item %s: %w", item.Code, err)
		}
	}

	rows, err := l.LoadBOM(filepath.Join(dir, BOMFile))
	if err != nil {
		return err
	}
	for i, row := range rows {
		parent, err := sink.GetItemByCode(ctx, row.ParentCode)
		if err != nil {
			return fmt.Errorf("BOM row %d: parent %s: %w", i+2, row.ParentCode, err)
		}
		child, err := sink.GetItemByCode(ctx, row.ChildCode)
		if err != nil {
			return fmt.Errorf("BOM row %d: child %s: %w", i+2, row.ChildCode, err)
		}
		edge := row.Edge
		edge.ParentID, edge.ChildID = parent.ID, child.ID
		if err := sink.InsertEdge(ctx, &edge); err != nil {
			return fmt.Errorf("BOM row %d: %w", i+2, err)
		}
	}

	prices, err := l.LoadPrices(filepath.Join(dir, PricesFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for i, row := range prices {
		item, err := sink.GetItemByCode(ctx, row.ItemCode)
		if err != nil {
			return fmt.Errorf("prices row %d: item %s: %w", i+2, row.ItemCode, err)
		}
		entry := row.Entry
		entry.ItemID = item.ID
		if err := sink.SavePrice(ctx, &entry); err != nil {
			return fmt.Errorf("prices row %d: %w", i+2, err)
		}
	}
	return nil
}

// LoadItems loads items from a CSV file
func (l *Loader) LoadItems(filename string) ([]*entities.Item, error) {
	records, err := readRecords(filename, "items", itemsHeader)
	if err != nil {
		return nil, err
	}

	items := make([]*entities.Item, 0, len(records))
	for i, record := range records {
		item, err := parseItem(record)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// LoadBOM loads BOM rows from a CSV file
func (l *Loader) LoadBOM(filename string) ([]BOMRow, error) {
	records, err := readRecords(filename, "BOM", bomHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]BOMRow, 0, len(records))
	for i, record := range records {
		row, err := parseBOMRow(record)
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadPrices loads monthly price history rows from a CSV file
func (l *Loader) LoadPrices(filename string) ([]PriceRow, error) {
	records, err := readRecords(filename, "prices", pricesHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]PriceRow, 0, len(records))
	for i, record := range records {
		month, err := entities.ParsePriceMonth(record[1])
		if err != nil {
			return nil, fmt.Errorf("prices CSV row %d: %w", i+2, err)
		}
		price, err := parseDecimal(record[2], "unit_price")
		if err != nil {
			return nil, fmt.Errorf("prices CSV row %d: %w", i+2, err)
		}
		rows = append(rows, PriceRow{
			ItemCode: strings.TrimSpace(record[0]),
			Entry:    entities.PriceHistoryEntry{Month: month, UnitPrice: price, Note: strings.TrimSpace(record[3])},
		})
	}
	return rows, nil
}

// readRecords opens filename and returns its data rows after checking the header
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	return parseRecords(file, kind, expectedHeader)
}

func parseRecords(r io.Reader, kind string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", kind)
	}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, records[0])
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		// Excel exports prefix the first cell with a BOM.
		if strings.ToLower(strings.TrimSpace(strings.TrimPrefix(actual[i], "\ufeff"))) != col {
			return false
		}
	}

	return true
}

func parseItem(record []string) (*entities.Item, error) {
	item := &entities.Item{
		Code:          strings.TrimSpace(record[0]),
		Name:          strings.TrimSpace(record[1]),
		Spec:          strings.TrimSpace(record[2]),
		Unit:          strings.TrimSpace(record[3]),
		Category:      entities.ItemCategory(strings.TrimSpace(record[4])),
		InventoryType: strings.TrimSpace(record[5]),
	}
	if item.Code == "" {
		return nil, fmt.Errorf("item_code is required")
	}

	if raw := strings.TrimSpace(record[6]); raw != "" {
		price, err := parseDecimal(raw, "price")
		if err != nil {
			return nil, err
		}
		item.BasePrice = decimal.NewNullDecimal(price)
	}

	active, err := parseBool(record[7], true)
	if err != nil {
		return nil, err
	}
	item.IsActive = active

	if item.ScrapRate, err = parseDecimalOrZero(record[8], "scrap_rate"); err != nil {
		return nil, err
	}
	if item.ScrapUnitPrice, err = parseDecimalOrZero(record[9], "scrap_unit_price"); err != nil {
		return nil, err
	}
	if item.MMWeight, err = parseDecimalOrZero(record[10], "mm_weight"); err != nil {
		return nil, err
	}
	return item, nil
}

func parseBOMRow(record []string) (BOMRow, error) {
	qty, err := parseDecimal(record[2], "quantity_required")
	if err != nil {
		return BOMRow{}, err
	}
	if !qty.IsPositive() {
		return BOMRow{}, fmt.Errorf("quantity_required must be positive, got %s", qty)
	}

	levelNo := entities.DefaultLevelNo
	if raw := strings.TrimSpace(record[3]); raw != "" {
		levelNo, err = strconv.Atoi(raw)
		if err != nil {
			return BOMRow{}, fmt.Errorf("invalid level_no %q: %w", raw, err)
		}
	}

	labor, err := parseDecimalOrZero(record[4], "labor_cost")
	if err != nil {
		return BOMRow{}, err
	}
	active, err := parseBool(record[6], true)
	if err != nil {
		return BOMRow{}, err
	}

	return BOMRow{
		ParentCode: strings.TrimSpace(record[0]),
		ChildCode:  strings.TrimSpace(record[1]),
		Edge: entities.BOMEdge{
			QuantityRequired: qty,
			LevelNo:          levelNo,
			LaborCost:        labor,
			Notes:            strings.TrimSpace(record[5]),
			IsActive:         active,
		},
	}, nil
}

func parseDecimal(raw, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return d, nil
}

func parseDecimalOrZero(raw, field string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	return parseDecimal(raw, field)
}

func parseBool(raw string, def bool) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q: %w", raw, err)
	}
	return b, nil
}
