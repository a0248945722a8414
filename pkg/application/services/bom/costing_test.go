package bom

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
	fixtures "github.com/vsinha/bomcost/pkg/infrastructure/testing"
)

// countingItemRepository counts batched item lookups
type countingItemRepository struct {
	repositories.ItemRepository
	batches atomic.Int64
}

func (r *countingItemRepository) GetItems(ctx context.Context, ids []entities.ItemID) (map[entities.ItemID]*entities.Item, error) {
	r.batches.Add(1)
	return r.ItemRepository.GetItems(ctx, ids)
}

type failingPriceRepository struct {
	repositories.PriceRepository
}

func (failingPriceRepository) LatestForMonth(context.Context, []entities.ItemID, entities.PriceMonth) (map[entities.ItemID]*entities.PriceHistoryEntry, error) {
	return nil, fixtures.ErrInjected
}

func TestPriceResolver_Fallback(t *testing.T) {
	s := fixtures.NewScenario().
		Item("HIST", "이력 단가", entities.CategoryRawMaterial, 7000).
		Item("BASE", "기준 단가", entities.CategoryRawMaterial, 7000).
		Item("NONE", "단가 없음", entities.CategoryRawMaterial, -1)
	s.Price("HIST", may2024, 6500)
	s.Price("BASE", entities.PriceMonth{Year: 2024, Month: time.April}, 6800)

	resolver := NewPriceResolver(s.Store, s.Store)

	tests := []struct {
		code     string
		expected int64
	}{
		{"HIST", 6500},
		{"BASE", 7000},
		{"NONE", 0},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			price, err := resolver.Resolve(context.Background(), s.ID(tt.code), may2024)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if !price.Equal(decimal.NewFromInt(tt.expected)) {
				t.Errorf("Expected %d, got %s", tt.expected, price)
			}
		})
	}

	if _, err := resolver.Resolve(context.Background(), 9999, may2024); !errors.Is(err, bomerr.ErrItemNotFound) {
		t.Errorf("Expected item not found, got %v", err)
	}
}

func TestPriceResolver_NewestEntryWins(t *testing.T) {
	s := fixtures.NewScenario().Item("P", "부품", entities.CategoryRawMaterial, 1000)
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	clock := base
	s.Store.SetClock(func() time.Time { return clock })
	s.Price("P", may2024, 1100)
	clock = base.Add(time.Hour)
	s.Price("P", may2024, 1200)
	clock = base.Add(time.Hour)
	s.Price("P", may2024, 1300)

	price, err := NewPriceResolver(s.Store, s.Store).Resolve(context.Background(), s.ID("P"), may2024)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("Expected the latest entry 1300, got %s", price)
	}
}

func TestPriceResolver_BackendError(t *testing.T) {
	s := fixtures.NewScenario().Item("P", "부품", entities.CategoryRawMaterial, 1000)
	resolver := NewPriceResolver(s.Store, failingPriceRepository{})

	_, err := resolver.Resolve(context.Background(), s.ID("P"), may2024)
	if !errors.Is(err, bomerr.ErrLookupFailed) || !errors.Is(err, fixtures.ErrInjected) {
		t.Errorf("Expected lookup failure, got %v", err)
	}
}

func TestScrapAggregator_SingleBatch(t *testing.T) {
	s := fixtures.NewScenario().
		SaveItem(&entities.Item{
			Code: "COIL", Name: "코일", Unit: "KG", Category: entities.CategoryRawMaterial, IsActive: true,
			ScrapRate: decimal.NewFromInt(5), ScrapUnitPrice: decimal.NewFromInt(400), MMWeight: decimal.NewFromInt(3),
		}).
		Item("BOLT", "볼트", entities.CategorySubMaterial, 300)

	repo := &countingItemRepository{ItemRepository: s.Store}
	aggregator := NewScrapAggregator(repo)

	credit, err := aggregator.Aggregate(context.Background(), []ScrapInput{
		{ItemID: s.ID("COIL"), Quantity: decimal.NewFromInt(2)},
		{ItemID: s.ID("BOLT"), Quantity: decimal.NewFromInt(10)},
		{ItemID: s.ID("COIL"), Quantity: decimal.NewFromInt(3)},
		{ItemID: 9999, Quantity: decimal.NewFromInt(1)},
	}, nil)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if got := repo.batches.Load(); got != 1 {
		t.Errorf("Expected exactly one item lookup, got %d", got)
	}
	// 5% * 400 * 3 = 60 per unit
	if !credit.UnitCredit(s.ID("COIL")).Equal(decimal.NewFromInt(60)) {
		t.Errorf("Expected unit credit 60, got %s", credit.UnitCredit(s.ID("COIL")))
	}
	if !credit.For(s.ID("COIL")).Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected total credit 300, got %s", credit.For(s.ID("COIL")))
	}
	if !credit.For(s.ID("BOLT")).IsZero() || !credit.For(9999).IsZero() {
		t.Error("Expected no credit for items without scrap configuration")
	}

	empty, err := aggregator.Aggregate(context.Background(), nil, nil)
	if err != nil || len(empty.Totals) != 0 {
		t.Errorf("Expected empty credit for no inputs, got %v / %v", empty, err)
	}
	if got := repo.batches.Load(); got != 1 {
		t.Errorf("Expected no lookup for empty input, got %d total", got)
	}
}

func TestRollUp_Arithmetic(t *testing.T) {
	nodes := []*entities.TreeNode{
		{Level: 1, ChildCategory: entities.CategoryRawMaterial, MaterialCost: decimal.NewFromInt(1000), LaborCost: decimal.NewFromInt(500), ScrapRevenue: decimal.NewFromInt(300)},
		{Level: 2, ChildCategory: entities.CategorySemiFinished, MaterialCost: decimal.NewFromInt(2000), LaborCost: decimal.Zero, ScrapRevenue: decimal.Zero},
	}

	summary := RollUp(nodes)

	tests := []struct {
		name     string
		got      decimal.Decimal
		expected int64
	}{
		{"material", summary.TotalMaterialCost, 3000},
		{"labor", summary.TotalLaborCost, 500},
		{"overhead", summary.TotalOverheadCost, 350},
		{"scrap", summary.TotalScrapRevenue, 300},
		{"net", summary.TotalNetCost, 3550},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Equal(decimal.NewFromInt(tt.expected)) {
				t.Errorf("Expected %s %d, got %s", tt.name, tt.expected, tt.got)
			}
		})
	}

	if summary.PurchasedCount != 1 || summary.ProducedCount != 1 || summary.NodeCount != 2 || summary.MaxLevel != 2 {
		t.Errorf("Unexpected counts: %+v", summary)
	}

	empty := RollUp(nil)
	if !empty.TotalNetCost.IsZero() || empty.NodeCount != 0 {
		t.Errorf("Expected zero summary, got %+v", empty)
	}
}

func TestApplyCosts_MissingPriceCountsAsZero(t *testing.T) {
	node := &entities.TreeNode{ChildID: 7, QuantityRequired: decimal.NewFromInt(3)}
	ApplyCosts([]*entities.TreeNode{node}, map[entities.ItemID]decimal.Decimal{}, nil)

	if !node.UnitPrice.IsZero() || !node.MaterialCost.IsZero() || !node.NetCost.IsZero() {
		t.Errorf("Expected zero costs, got %+v", node)
	}
}

func TestGetCostSummary_BatchesLookups(t *testing.T) {
	s := fixtures.BuildAssemblyTestData()
	repo := &countingItemRepository{ItemRepository: s.Store}
	svc := NewService(s.Store, repo, s.Store, s.Store, Options{Now: fixedClock})

	if _, err := svc.GetCostSummary(context.Background(), s.ID("PROD-001"), may2024); err != nil {
		t.Fatalf("GetCostSummary failed: %v", err)
	}

	// root, PROD-001 children, SUB-001 children; pricing reuses what the expansion loaded
	if got := repo.batches.Load(); got != 3 {
		t.Errorf("Expected 3 batched item lookups, got %d", got)
	}
}

func TestScrapAggregator_UsesPreloadedItems(t *testing.T) {
	s := fixtures.NewScenario().
		SaveItem(&entities.Item{
			Code: "COIL", Name: "코일", Unit: "KG", Category: entities.CategoryRawMaterial, IsActive: true,
			ScrapRate: decimal.NewFromInt(10), ScrapUnitPrice: decimal.NewFromInt(500), MMWeight: decimal.NewFromInt(2),
		}).
		Item("BOLT", "볼트", entities.CategorySubMaterial, 300)

	coil, err := s.Store.GetItem(context.Background(), s.ID("COIL"))
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}

	tests := []struct {
		name        string
		preloaded   map[entities.ItemID]*entities.Item
		wantLookups int64
	}{
		{"all preloaded", map[entities.ItemID]*entities.Item{coil.ID: coil}, 0},
		{"partially preloaded", map[entities.ItemID]*entities.Item{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &countingItemRepository{ItemRepository: s.Store}
			inputs := []ScrapInput{{ItemID: s.ID("COIL"), Quantity: decimal.NewFromInt(3)}}
			if tt.wantLookups > 0 {
				inputs = append(inputs, ScrapInput{ItemID: s.ID("BOLT"), Quantity: decimal.NewFromInt(1)})
			}

			credit, err := NewScrapAggregator(repo).Aggregate(context.Background(), inputs, tt.preloaded)
			if err != nil {
				t.Fatalf("Aggregate failed: %v", err)
			}
			if got := repo.batches.Load(); got != tt.wantLookups {
				t.Errorf("Expected %d item lookups, got %d", tt.wantLookups, got)
			}
			// 10% * 500 * 2 = 100 per unit
			if !credit.For(s.ID("COIL")).Equal(decimal.NewFromInt(300)) {
				t.Errorf("Expected total credit 300, got %s", credit.For(s.ID("COIL")))
			}
		})
	}
}
