package bom

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/application/dto"
	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
)

const usagePathSeparator = " > "

// WhereUsedFinder walks BOM edges upward from a component
type WhereUsedFinder struct {
	bomRepo  repositories.BOMRepository
	itemRepo repositories.ItemRepository
}

// NewWhereUsedFinder creates a reverse expander over the given repositories
func NewWhereUsedFinder(bomRepo repositories.BOMRepository, itemRepo repositories.ItemRepository) *WhereUsedFinder {
	return &WhereUsedFinder{bomRepo: bomRepo, itemRepo: itemRepo}
}

type whereUsedWalk struct {
	bomRepo  repositories.BOMRepository
	items    *itemCache
	maxDepth int
	entries  []*entities.WhereUsedEntry
}

// Find lists every assembly that consumes childID, level 1 being its direct
// parents. It follows the same depth bound and per-branch repeat guard as
// the downward expansion.
func (f *WhereUsedFinder) Find(ctx context.Context, childID entities.ItemID, maxDepth int) (*dto.WhereUsedResult, error) {
	w := &whereUsedWalk{
		bomRepo:  f.bomRepo,
		items:    newItemCache(f.itemRepo),
		maxDepth: maxDepth,
		entries:  make([]*entities.WhereUsedEntry, 0),
	}

	child, err := w.items.get(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, bomerr.Wrap(bomerr.ErrItemNotFound, "", fmt.Errorf("item %d", childID))
	}
	if !child.IsActive {
		return nil, bomerr.Wrap(bomerr.ErrItemInactive, "",
			fmt.Errorf("item %d (%s) is inactive", child.ID, child.Code))
	}

	if maxDepth > 0 {
		if err := w.walk(ctx, child, 1, []entities.ItemID{child.ID}, []string{child.Name}, decimal.NewFromInt(1)); err != nil {
			return nil, err
		}
	}

	slices.SortStableFunc(w.entries, func(a, b *entities.WhereUsedEntry) int {
		return cmp.Or(
			cmp.Compare(a.Level, b.Level),
			strings.Compare(a.ParentName, b.ParentName),
			strings.Compare(a.ParentCode, b.ParentCode),
			cmp.Compare(a.BOMID, b.BOMID),
		)
	})

	return &dto.WhereUsedResult{
		ChildItem: child.Summary(),
		Entries:   w.entries,
		Summary:   summarizeWhereUsed(w.entries),
	}, nil
}

// walk records the parents of current. path runs from the original child up
// to current; names is in the same order.
func (w *whereUsedWalk) walk(
	ctx context.Context,
	current *entities.Item,
	level int,
	path []entities.ItemID,
	names []string,
	multiplier decimal.Decimal,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edges, err := w.bomRepo.EdgesInto(ctx, current.ID, true)
	if err != nil {
		return bomerr.Backend(fmt.Sprintf("edges into item %d", current.ID), err)
	}
	if len(edges) == 0 {
		return nil
	}

	parentIDs := make([]entities.ItemID, 0, len(edges))
	for _, edge := range edges {
		parentIDs = append(parentIDs, edge.ParentID)
	}
	if err := w.items.load(ctx, parentIDs); err != nil {
		return err
	}

	for _, edge := range edges {
		if slices.Contains(path, edge.ParentID) {
			continue
		}
		parent := w.items.items[edge.ParentID]
		if parent == nil || !parent.IsActive {
			continue
		}

		parentPath := append(slices.Clone(path), parent.ID)
		parentNames := append(slices.Clone(names), parent.Name)
		cumulative := multiplier.Mul(edge.QuantityRequired)

		w.entries = append(w.entries, &entities.WhereUsedEntry{
			BOMID:              edge.ID,
			ParentID:           parent.ID,
			ParentCode:         parent.Code,
			ParentName:         parent.Name,
			ParentCategory:     parent.Category,
			QuantityRequired:   edge.QuantityRequired,
			CumulativeQuantity: cumulative,
			Unit:               current.Unit,
			Level:              level,
			UsagePath:          usagePath(parentNames),
		})

		if level < w.maxDepth {
			if err := w.walk(ctx, parent, level+1, parentPath, parentNames, cumulative); err != nil {
				return err
			}
		}
	}
	return nil
}

// usagePath renders child-first names top-down, e.g. "완제품 > 반제품 > 부품"
func usagePath(childFirst []string) string {
	topDown := slices.Clone(childFirst)
	slices.Reverse(topDown)
	return strings.Join(topDown, usagePathSeparator)
}

func summarizeWhereUsed(entries []*entities.WhereUsedEntry) dto.WhereUsedSummary {
	direct := make(map[entities.ItemID]bool)
	all := make(map[entities.ItemID]bool)
	summary := dto.WhereUsedSummary{}

	for _, e := range entries {
		all[e.ParentID] = true
		if e.Level == 1 {
			direct[e.ParentID] = true
		}
		summary.MaxLevel = max(summary.MaxLevel, e.Level)
	}
	summary.DirectParents = len(direct)
	summary.TotalAncestors = len(all)
	return summary
}
