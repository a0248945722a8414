package bom_validator

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
)

func edge(id entities.BOMID, parent, child entities.ItemID) *entities.BOMEdge {
	return &entities.BOMEdge{
		ID:               id,
		ParentID:         parent,
		ChildID:          child,
		QuantityRequired: decimal.NewFromInt(1),
		LevelNo:          1,
		IsActive:         true,
	}
}

func childrenOf(edges []*entities.BOMEdge) ChildrenFunc {
	return func(_ context.Context, id entities.ItemID) ([]entities.ItemID, error) {
		var out []entities.ItemID
		for _, e := range edges {
			if e.IsActive && e.ParentID == id {
				out = append(out, e.ChildID)
			}
		}
		return out, nil
	}
}

func TestBOMValidator_DetectSimpleCycle(t *testing.T) {
	// A -> B -> A
	result := ValidateBOM([]*entities.BOMEdge{edge(1, 1, 2), edge(2, 2, 1)})

	if !result.HasCycles {
		t.Error("Expected cycle to be detected")
	}
	if len(result.CyclePaths) == 0 {
		t.Error("Expected at least one cycle path")
	}
	if len(result.Errors) == 0 {
		t.Error("Expected validation errors for cycles")
	}
}

func TestBOMValidator_DetectLongerCycle(t *testing.T) {
	// A -> B -> C -> A
	result := ValidateBOM([]*entities.BOMEdge{edge(1, 1, 2), edge(2, 2, 3), edge(3, 3, 1)})

	if !result.HasCycles {
		t.Fatal("Expected cycle to be detected")
	}
	cycle := result.CyclePaths[0]
	if len(cycle) != 4 || cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("Expected closed cycle of 3 items, got %v", cycle)
	}
}

func TestBOMValidator_NoCycles(t *testing.T) {
	// A -> B, A -> C, B -> D, C -> D
	result := ValidateBOM([]*entities.BOMEdge{edge(1, 1, 2), edge(2, 1, 3), edge(3, 2, 4), edge(4, 3, 4)})

	if result.HasCycles {
		t.Errorf("Expected no cycles, got %v", result.CyclePaths)
	}
	if !result.Valid() {
		t.Errorf("Expected no validation errors, got %v", result.Errors)
	}
}

func TestBOMValidator_InactiveEdgesIgnored(t *testing.T) {
	back := edge(2, 2, 1)
	back.IsActive = false
	dup := edge(3, 1, 2)
	dup.IsActive = false

	result := ValidateBOM([]*entities.BOMEdge{edge(1, 1, 2), back, dup})

	if !result.Valid() {
		t.Errorf("Expected inactive edges to be ignored, got %v", result.Errors)
	}
}

func TestBOMValidator_DetectDuplicateEdges(t *testing.T) {
	second := edge(2, 1, 2)
	second.QuantityRequired = decimal.NewFromInt(2)

	result := ValidateBOM([]*entities.BOMEdge{edge(1, 1, 2), second})

	if len(result.DuplicateEdges) != 2 {
		t.Errorf("Expected 2 duplicate edges, got %d", len(result.DuplicateEdges))
	}
	if len(result.Errors) == 0 {
		t.Error("Expected validation errors for duplicates")
	}
}

func TestBOMValidator_DetectSelfLoop(t *testing.T) {
	result := ValidateBOM([]*entities.BOMEdge{edge(1, 7, 7)})

	if len(result.SelfLoops) != 1 {
		t.Errorf("Expected 1 self loop, got %d", len(result.SelfLoops))
	}
	if result.Valid() {
		t.Error("Expected self loop to be reported")
	}
}

func TestBOMValidator_ItemCodeUniqueness(t *testing.T) {
	items := []*entities.Item{
		{ID: 1, Code: "PART-A", Name: "부품 A"},
		{ID: 2, Code: "PART-B", Name: "부품 B"},
		{ID: 3, Code: "PART-A", Name: "중복 부품 A"},
		{ID: 4, Code: "PART-A", Name: "중복 부품 A2"},
	}

	result := ValidateItemCodeUniqueness(items)
	if len(result.DuplicateItemCodes) != 1 || result.DuplicateItemCodes[0] != "PART-A" {
		t.Errorf("Expected PART-A reported once, got %v", result.DuplicateItemCodes)
	}
	if result.Valid() {
		t.Error("Expected validation errors for duplicate item codes")
	}
	if result := ValidateItemCodeUniqueness(items[:2]); !result.Valid() {
		t.Errorf("Expected no errors for unique codes, got %v", result.Errors)
	}
}

func TestValidate_CombinesEdgesAndItems(t *testing.T) {
	items := []*entities.Item{
		{ID: 1, Code: "PART-A"},
		{ID: 2, Code: "PART-A"},
	}
	result := Validate([]*entities.BOMEdge{edge(1, 1, 2), edge(2, 2, 1)}, items)

	if !result.HasCycles {
		t.Error("Expected the cycle to be reported")
	}
	if len(result.DuplicateItemCodes) != 1 {
		t.Errorf("Expected 1 duplicate code, got %v", result.DuplicateItemCodes)
	}
	if len(result.Errors) < 2 {
		t.Errorf("Expected cycle and code errors, got %v", result.Errors)
	}
}

func TestBOMValidator_EmptyBOM(t *testing.T) {
	result := ValidateBOM(nil)

	if result.HasCycles || len(result.DuplicateEdges) > 0 || !result.Valid() {
		t.Errorf("Empty BOM should be valid, got %+v", result)
	}
}

func TestWouldCreateCycle(t *testing.T) {
	// A(1) -> B(2) -> C(3)
	edges := []*entities.BOMEdge{edge(1, 1, 2), edge(2, 2, 3)}
	ctx := context.Background()

	tests := []struct {
		name     string
		parent   entities.ItemID
		child    entities.ItemID
		expected bool
	}{
		{"closing edge C -> A", 3, 1, true},
		{"closing edge B -> A", 2, 1, true},
		{"extending edge C -> D", 3, 4, false},
		{"shortcut A -> C", 1, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WouldCreateCycle(ctx, tt.parent, tt.child, childrenOf(edges), 0)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestReaches_VisitLimit(t *testing.T) {
	// 1 -> 2 -> ... -> 20
	var edges []*entities.BOMEdge
	for i := entities.ItemID(1); i < 20; i++ {
		edges = append(edges, edge(entities.BOMID(i), i, i+1))
	}

	_, err := Reaches(context.Background(), 1, 99, childrenOf(edges), 5)
	if !errors.Is(err, bomerr.ErrReachabilityLimit) {
		t.Errorf("Expected reachability limit error, got %v", err)
	}

	found, err := Reaches(context.Background(), 1, 20, childrenOf(edges), 0)
	if err != nil || !found {
		t.Errorf("Expected 20 reachable from 1, got %v (err %v)", found, err)
	}
}

func TestReaches_PropagatesLookupError(t *testing.T) {
	boom := errors.New("connection reset")
	failing := func(context.Context, entities.ItemID) ([]entities.ItemID, error) { return nil, boom }

	if _, err := Reaches(context.Background(), 1, 2, failing, 0); !errors.Is(err, boom) {
		t.Errorf("Expected lookup error, got %v", err)
	}
}
