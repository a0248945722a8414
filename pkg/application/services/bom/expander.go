package bom

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
)

// Expander walks BOM edges downward from one or more roots
type Expander struct {
	bomRepo  repositories.BOMRepository
	itemRepo repositories.ItemRepository
}

// NewExpander creates a tree expander over the given repositories
func NewExpander(bomRepo repositories.BOMRepository, itemRepo repositories.ItemRepository) *Expander {
	return &Expander{bomRepo: bomRepo, itemRepo: itemRepo}
}

// expansion holds the state of one Expand call
type expansion struct {
	bomRepo  repositories.BOMRepository
	items    *itemCache
	maxDepth int
	nodes    []*entities.TreeNode
}

// Expand returns every active edge reachable from roots, level 1 being the
// roots' direct children. A node is emitted at level L only when L <= maxDepth,
// so a maxDepth of 0 or less yields nothing. An edge whose child already
// appears on its own branch is skipped. Nodes come back in display order.
func (e *Expander) Expand(ctx context.Context, roots []entities.ItemID, maxDepth int) ([]*entities.TreeNode, error) {
	nodes, _, err := e.expand(ctx, roots, maxDepth)
	return nodes, err
}

// expand is Expand that also hands back the items loaded on the way, keyed by
// id. Every child of a returned node is among them.
func (e *Expander) expand(ctx context.Context, roots []entities.ItemID, maxDepth int) ([]*entities.TreeNode, map[entities.ItemID]*entities.Item, error) {
	if maxDepth <= 0 || len(roots) == 0 {
		return []*entities.TreeNode{}, map[entities.ItemID]*entities.Item{}, nil
	}

	x := &expansion{
		bomRepo:  e.bomRepo,
		items:    newItemCache(e.itemRepo),
		maxDepth: maxDepth,
		nodes:    make([]*entities.TreeNode, 0),
	}
	if err := x.items.load(ctx, roots); err != nil {
		return nil, nil, err
	}

	for _, rootID := range roots {
		root, err := x.items.get(ctx, rootID)
		if err != nil {
			return nil, nil, err
		}
		if root == nil {
			return nil, nil, bomerr.Wrap(bomerr.ErrItemNotFound, "", fmt.Errorf("root item %d", rootID))
		}
		if err := x.walk(ctx, root, 1, nil, nil, decimal.NewFromInt(1)); err != nil {
			return nil, nil, err
		}
	}

	entities.SortNodes(x.nodes)
	return x.nodes, x.items.items, nil
}

func (x *expansion) walk(
	ctx context.Context,
	parent *entities.Item,
	level int,
	path []entities.ItemID,
	namePath []string,
	multiplier decimal.Decimal,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edges, err := x.bomRepo.EdgesOf(ctx, parent.ID, true)
	if err != nil {
		return bomerr.Backend(fmt.Sprintf("edges of item %d", parent.ID), err)
	}
	if len(edges) == 0 {
		return nil
	}

	childIDs := make([]entities.ItemID, 0, len(edges))
	for _, edge := range edges {
		childIDs = append(childIDs, edge.ChildID)
	}
	if err := x.items.load(ctx, childIDs); err != nil {
		return err
	}

	for _, edge := range edges {
		if slices.Contains(path, edge.ChildID) {
			continue
		}
		child := x.items.items[edge.ChildID]
		if child == nil || !child.IsActive {
			continue
		}

		childPath := append(slices.Clone(path), edge.ChildID)
		childNames := append(slices.Clone(namePath), child.Name)
		cumulative := multiplier.Mul(edge.QuantityRequired)

		node := &entities.TreeNode{
			BOMID:              edge.ID,
			ParentID:           parent.ID,
			ParentCode:         parent.Code,
			ParentName:         parent.Name,
			ChildID:            child.ID,
			ChildCode:          child.Code,
			ChildName:          child.Name,
			ChildSpec:          child.Spec,
			ChildUnit:          child.Unit,
			ChildCategory:      child.Category,
			QuantityRequired:   edge.QuantityRequired,
			CumulativeQuantity: cumulative,
			LevelNo:            edge.LevelNo,
			Level:              level,
			Depth:              len(childPath),
			Path:               childPath,
			NamePath:           childNames,
			Notes:              edge.Notes,
		}
		node.SetLaborPerUnit(edge.LaborCost)
		x.nodes = append(x.nodes, node)

		if level < x.maxDepth {
			if err := x.walk(ctx, child, level+1, childPath, childNames, cumulative); err != nil {
				return err
			}
		}
	}
	return nil
}
