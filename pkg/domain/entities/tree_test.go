package entities

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTreeNode_ApplyPriceAndScrap(t *testing.T) {
	node := &TreeNode{QuantityRequired: decimal.NewFromInt(2)}
	node.SetLaborPerUnit(decimal.NewFromInt(250))

	node.ApplyPrice(decimal.NewFromInt(10000))
	if !node.MaterialCost.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("Expected material cost 20000, got %s", node.MaterialCost)
	}
	if !node.LaborCost.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected labor cost 500, got %s", node.LaborCost)
	}
	if !node.NetCost.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("Expected net cost 20000, got %s", node.NetCost)
	}

	node.ApplyScrap(decimal.NewFromInt(300))
	if !node.NetCost.Equal(decimal.NewFromInt(19700)) {
		t.Errorf("Expected net cost 19700, got %s", node.NetCost)
	}
}

func TestSortNodes(t *testing.T) {
	nodes := []*TreeNode{
		{Level: 2, ParentCode: "SUB-001", ChildCode: "PART-002", Path: []ItemID{2, 4}},
		{Level: 1, ParentCode: "PROD-001", ChildCode: "SUB-001", Path: []ItemID{2}},
		{Level: 2, ParentCode: "SUB-001", ChildCode: "PART-001", Path: []ItemID{2, 3}},
		{Level: 1, ParentCode: "PROD-001", ChildCode: "PART-009", Path: []ItemID{9}},
	}

	SortNodes(nodes)

	expected := []string{"PART-009", "SUB-001", "PART-001", "PART-002"}
	for i, code := range expected {
		if nodes[i].ChildCode != code {
			t.Errorf("Position %d: expected %s, got %s", i, code, nodes[i].ChildCode)
		}
	}
}
