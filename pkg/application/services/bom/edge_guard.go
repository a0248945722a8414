package bom

import (
	"context"
	"fmt"

	"github.com/vsinha/bomcost/pkg/application/dto"
	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
	"github.com/vsinha/bomcost/pkg/domain/services/bom_validator"
)

// EdgeGuard validates and persists BOM edge mutations
type EdgeGuard struct {
	bomRepo    repositories.BOMRepository
	itemRepo   repositories.ItemRepository
	tx         repositories.Transactor
	visitLimit int
}

// NewEdgeGuard creates a guard. visitLimit bounds the reachability walk of
// the cycle check; zero selects bom_validator.DefaultVisitLimit.
func NewEdgeGuard(
	bomRepo repositories.BOMRepository,
	itemRepo repositories.ItemRepository,
	tx repositories.Transactor,
	visitLimit int,
) *EdgeGuard {
	return &EdgeGuard{bomRepo: bomRepo, itemRepo: itemRepo, tx: tx, visitLimit: visitLimit}
}

// CreateResult reports a created edge and how many dead rows were purged for it
type CreateResult struct {
	Edge   *entities.BOMEdge
	Purged int64
}

// Create runs the insert checks in order: shape, existing pair, cycle, item
// state. A dead row for the pair is purged in the same transaction as the
// insert, so a later rejection restores it.
func (g *EdgeGuard) Create(ctx context.Context, req dto.CreateEdgeRequest) (*CreateResult, error) {
	edge, err := entities.NewBOMEdge(req.ParentID, req.ChildID, req.QuantityRequired, req.LevelNo, req.Notes)
	if err != nil {
		return nil, err
	}
	if req.LaborCost.IsNegative() {
		return nil, bomerr.Wrap(bomerr.ErrNonPositiveQuantity, "가공비는 음수일 수 없습니다.", nil)
	}
	edge.LaborCost = req.LaborCost

	result := &CreateResult{Edge: edge}
	err = g.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := g.bomRepo.FindEdge(ctx, edge.ParentID, edge.ChildID)
		if err != nil {
			return bomerr.Backend("find edge", err)
		}
		if existing != nil && existing.IsActive {
			return bomerr.Wrap(bomerr.ErrDuplicateEdge, "",
				fmt.Errorf("bom %d already links %d -> %d", existing.ID, edge.ParentID, edge.ChildID))
		}
		if existing != nil {
			purged, err := g.bomRepo.PurgeInactive(ctx, edge.ParentID, edge.ChildID)
			if err != nil {
				return bomerr.Backend("purge inactive edges", err)
			}
			result.Purged = purged
		}

		if err := g.checkCycle(ctx, edge.ParentID, edge.ChildID); err != nil {
			return err
		}
		if err := g.checkItems(ctx, edge.ParentID, edge.ChildID); err != nil {
			return err
		}

		if err := g.bomRepo.InsertEdge(ctx, edge); err != nil {
			return bomerr.Backend("insert edge", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateResult carries the edge before and after an update
type UpdateResult struct {
	Before *entities.BOMEdge
	After  *entities.BOMEdge
}

// Update applies a partial update to an existing edge. Reactivating an edge
// re-runs the cycle check since the edge rejoins the active graph.
func (g *EdgeGuard) Update(ctx context.Context, id entities.BOMID, update entities.EdgeUpdate) (*UpdateResult, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	var result *UpdateResult
	err := g.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := g.bomRepo.GetEdge(ctx, id)
		if err != nil {
			return bomerr.Backend("get edge", err)
		}

		updated := *existing
		update.ApplyTo(&updated)

		if updated.IsActive && !existing.IsActive {
			if err := g.checkCycle(ctx, updated.ParentID, updated.ChildID); err != nil {
				return err
			}
		}

		if err := g.bomRepo.UpdateEdge(ctx, &updated); err != nil {
			return bomerr.Backend("update edge", err)
		}
		result = &UpdateResult{Before: existing, After: &updated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Deactivate soft-deletes an existing edge and returns it as it was
func (g *EdgeGuard) Deactivate(ctx context.Context, id entities.BOMID) (*entities.BOMEdge, error) {
	var deactivated *entities.BOMEdge
	err := g.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := g.bomRepo.GetEdge(ctx, id)
		if err != nil {
			return bomerr.Backend("get edge", err)
		}
		if err := g.bomRepo.Deactivate(ctx, id); err != nil {
			return bomerr.Backend("deactivate edge", err)
		}
		existing.IsActive = false
		deactivated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deactivated, nil
}

// checkCycle rejects parent -> child when parent is reachable from child over active edges
func (g *EdgeGuard) checkCycle(ctx context.Context, parentID, childID entities.ItemID) error {
	children := func(ctx context.Context, id entities.ItemID) ([]entities.ItemID, error) {
		edges, err := g.bomRepo.EdgesOf(ctx, id, true)
		if err != nil {
			return nil, bomerr.Backend(fmt.Sprintf("edges of item %d", id), err)
		}
		ids := make([]entities.ItemID, 0, len(edges))
		for _, e := range edges {
			ids = append(ids, e.ChildID)
		}
		return ids, nil
	}

	cycle, err := bom_validator.WouldCreateCycle(ctx, parentID, childID, children, g.visitLimit)
	if err != nil {
		return err
	}
	if cycle {
		return bomerr.Wrap(bomerr.ErrCycleDetected, "",
			fmt.Errorf("item %d is already reachable from item %d", parentID, childID))
	}
	return nil
}

// checkItems requires both items to exist and be active
func (g *EdgeGuard) checkItems(ctx context.Context, parentID, childID entities.ItemID) error {
	items, err := g.itemRepo.GetItems(ctx, []entities.ItemID{parentID, childID})
	if err != nil {
		return bomerr.Backend("get items", err)
	}

	for _, check := range []struct {
		id   entities.ItemID
		role string
	}{{parentID, "parent"}, {childID, "child"}} {
		item, ok := items[check.id]
		if !ok {
			return bomerr.Wrap(bomerr.ErrItemNotFound, "",
				fmt.Errorf("%s item %d", check.role, check.id))
		}
		if !item.IsActive {
			return bomerr.Wrap(bomerr.ErrItemInactive, "",
				fmt.Errorf("%s item %d (%s) is inactive", check.role, check.id, item.Code))
		}
	}
	return nil
}
