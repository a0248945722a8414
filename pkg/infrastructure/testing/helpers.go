package testing

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
	"github.com/vsinha/bomcost/pkg/infrastructure/repositories/memory"
)

// ErrInjected is returned by FaultyBOMRepository once its fault fires
var ErrInjected = errors.New("injected storage failure")

// Scenario builds a populated memory store item by item.
// Builder methods panic on invalid data since they only run in tests.
type Scenario struct {
	Store *memory.Store
	IDs   map[string]entities.ItemID
	Edges map[string]*entities.BOMEdge
}

// NewScenario starts an empty scenario
func NewScenario() *Scenario {
	return &Scenario{
		Store: memory.NewStore(16),
		IDs:   make(map[string]entities.ItemID),
		Edges: make(map[string]*entities.BOMEdge),
	}
}

// Item adds an active item. A negative price leaves the base price unset.
func (s *Scenario) Item(code, name string, category entities.ItemCategory, price int64) *Scenario {
	item := &entities.Item{
		Code:     code,
		Name:     name,
		Unit:     "EA",
		Category: category,
		IsActive: true,
	}
	if price >= 0 {
		item.BasePrice = decimal.NewNullDecimal(decimal.NewFromInt(price))
	}
	return s.SaveItem(item)
}

// SaveItem adds a fully specified item
func (s *Scenario) SaveItem(item *entities.Item) *Scenario {
	if err := s.Store.SaveItem(context.Background(), item); err != nil {
		panic(err)
	}
	s.IDs[item.Code] = item.ID
	return s
}

// Edge adds an active edge between two known item codes, bypassing the mutation guard
func (s *Scenario) Edge(parentCode, childCode string, qty string) *Scenario {
	edge, err := entities.NewBOMEdge(s.ID(parentCode), s.ID(childCode), decimal.RequireFromString(qty), 1, "")
	if err != nil {
		panic(err)
	}
	if err := s.Store.InsertEdge(context.Background(), edge); err != nil {
		panic(err)
	}
	s.Edges[parentCode+">"+childCode] = edge
	return s
}

// Price records a history entry for an item code
func (s *Scenario) Price(code string, month entities.PriceMonth, price int64) *Scenario {
	entry := &entities.PriceHistoryEntry{ItemID: s.ID(code), Month: month, UnitPrice: decimal.NewFromInt(price)}
	if err := s.Store.SavePrice(context.Background(), entry); err != nil {
		panic(err)
	}
	return s
}

// ID returns the id of a known item code
func (s *Scenario) ID(code string) entities.ItemID {
	id, ok := s.IDs[code]
	if !ok {
		panic(fmt.Sprintf("unknown item code %s", code))
	}
	return id
}

// BuildAssemblyTestData builds a small two-level product structure:
//
//	PROD-001 완제품 A
//	├── SUB-001 서브 어셈블리 ×1
//	│   ├── PART-001 브라켓 ×2 (10,000)
//	│   └── PART-002 볼트 ×4 (300)
//	└── PART-003 도장 재료 ×1 (no base price)
func BuildAssemblyTestData() *Scenario {
	return NewScenario().
		Item("PROD-001", "완제품 A", entities.CategoryFinished, -1).
		Item("SUB-001", "서브 어셈블리", entities.CategorySemiFinished, 5000).
		Item("PART-001", "브라켓", entities.CategoryRawMaterial, 10000).
		Item("PART-002", "볼트", entities.CategorySubMaterial, 300).
		Item("PART-003", "도장 재료", entities.CategoryRawMaterial, -1).
		Edge("PROD-001", "SUB-001", "1").
		Edge("SUB-001", "PART-001", "2").
		Edge("SUB-001", "PART-002", "4").
		Edge("PROD-001", "PART-003", "1")
}

// BuildChain builds the linear structure codes[0] -> codes[1] -> ... with quantity 1
func BuildChain(codes ...string) *Scenario {
	s := NewScenario()
	for _, code := range codes {
		s.Item(code, code, entities.CategorySemiFinished, 100)
	}
	for i := 1; i < len(codes); i++ {
		s.Edge(codes[i-1], codes[i], "1")
	}
	return s
}

// FaultyBOMRepository fails EdgesOf after a number of successful calls
type FaultyBOMRepository struct {
	repositories.BOMRepository

	// FailAfter is how many EdgesOf calls succeed before the fault fires
	FailAfter int64
	calls     atomic.Int64
}

// NewFaultyBOMRepository wraps repo so that EdgesOf fails after failAfter calls
func NewFaultyBOMRepository(repo repositories.BOMRepository, failAfter int64) *FaultyBOMRepository {
	return &FaultyBOMRepository{BOMRepository: repo, FailAfter: failAfter}
}

func (r *FaultyBOMRepository) EdgesOf(ctx context.Context, parentID entities.ItemID, activeOnly bool) ([]*entities.BOMEdge, error) {
	if r.calls.Add(1) > r.FailAfter {
		return nil, ErrInjected
	}
	return r.BOMRepository.EdgesOf(ctx, parentID, activeOnly)
}
