package bom_validator

import (
	"context"
	"fmt"
	"slices"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
)

// DefaultVisitLimit caps how many items a reachability walk may visit
const DefaultVisitLimit = 100000

// ValidationResult contains the results of BOM validation
type ValidationResult struct {
	HasCycles      bool                `json:"has_cycles"`
	CyclePaths     [][]entities.ItemID `json:"cycle_paths"`
	DuplicateEdges []*entities.BOMEdge `json:"duplicate_edges"`
	SelfLoops      []*entities.BOMEdge `json:"self_loops"`

	DuplicateItemCodes []string `json:"duplicate_item_codes"`
	Errors             []string `json:"errors"`
}

// Valid reports whether no problem was found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// ValidateBOM checks the active edges for cycles, self loops and duplicate pairs.
// Inactive edges are ignored.
func ValidateBOM(edges []*entities.BOMEdge) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:     make([][]entities.ItemID, 0),
		DuplicateEdges: make([]*entities.BOMEdge, 0),
		SelfLoops:      make([]*entities.BOMEdge, 0),

		DuplicateItemCodes: make([]string, 0),
		Errors:             make([]string, 0),
	}

	active := make([]*entities.BOMEdge, 0, len(edges))
	for _, e := range edges {
		if e.IsActive {
			active = append(active, e)
		}
	}

	for _, e := range active {
		if e.ParentID == e.ChildID {
			result.SelfLoops = append(result.SelfLoops, e)
			result.Errors = append(result.Errors, fmt.Sprintf("self-referencing edge %d on item %d", e.ID, e.ParentID))
		}
	}

	result.DuplicateEdges = detectDuplicateEdges(active)
	if len(result.DuplicateEdges) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("found %d duplicate active BOM edges", len(result.DuplicateEdges)))
	}

	result.CyclePaths = detectCycles(buildAdjacencyMap(active))
	result.HasCycles = len(result.CyclePaths) > 0
	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("BOM cycle detected: %v", cycle))
	}

	return result
}

// Validate audits the active edges and the item master together
func Validate(edges []*entities.BOMEdge, items []*entities.Item) *ValidationResult {
	result := ValidateBOM(edges)
	codes := ValidateItemCodeUniqueness(items)
	result.DuplicateItemCodes = codes.DuplicateItemCodes
	result.Errors = append(result.Errors, codes.Errors...)
	return result
}

// ValidateItemCodeUniqueness reports item codes used by more than one item.
// Each duplicated code is listed once.
func ValidateItemCodeUniqueness(items []*entities.Item) *ValidationResult {
	result := &ValidationResult{
		DuplicateItemCodes: make([]string, 0),
		Errors:             make([]string, 0),
	}

	count := make(map[string]int)
	for _, item := range items {
		count[item.Code]++
		if count[item.Code] == 2 {
			result.DuplicateItemCodes = append(result.DuplicateItemCodes, item.Code)
		}
	}

	if len(result.DuplicateItemCodes) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("duplicate item codes found: %v", result.DuplicateItemCodes))
	}
	return result
}

// buildAdjacencyMap creates a map of parent -> children with sorted, distinct children
func buildAdjacencyMap(edges []*entities.BOMEdge) map[entities.ItemID][]entities.ItemID {
	adjacency := make(map[entities.ItemID][]entities.ItemID)
	for _, e := range edges {
		if e.ParentID == e.ChildID {
			continue
		}
		children := adjacency[e.ParentID]
		if !slices.Contains(children, e.ChildID) {
			adjacency[e.ParentID] = append(children, e.ChildID)
		}
	}
	for parent := range adjacency {
		slices.Sort(adjacency[parent])
	}
	return adjacency
}

// detectCycles runs a DFS from every parent in ascending id order
func detectCycles(adjacency map[entities.ItemID][]entities.ItemID) [][]entities.ItemID {
	visited := make(map[entities.ItemID]bool)
	onStack := make(map[entities.ItemID]bool)
	cycles := make([][]entities.ItemID, 0)

	parents := make([]entities.ItemID, 0, len(adjacency))
	for parent := range adjacency {
		parents = append(parents, parent)
	}
	slices.Sort(parents)

	for _, parent := range parents {
		if !visited[parent] {
			dfsDetectCycle(parent, adjacency, visited, onStack, nil, &cycles)
		}
	}
	return cycles
}

func dfsDetectCycle(
	current entities.ItemID,
	adjacency map[entities.ItemID][]entities.ItemID,
	visited map[entities.ItemID]bool,
	onStack map[entities.ItemID]bool,
	path []entities.ItemID,
	cycles *[][]entities.ItemID,
) {
	visited[current] = true
	onStack[current] = true
	path = append(path, current)

	for _, child := range adjacency[current] {
		if !visited[child] {
			dfsDetectCycle(child, adjacency, visited, onStack, path, cycles)
			continue
		}
		if onStack[child] {
			start := slices.Index(path, child)
			if start >= 0 {
				cycle := slices.Clone(path[start:])
				*cycles = append(*cycles, append(cycle, child))
			}
		}
	}

	onStack[current] = false
}

// detectDuplicateEdges returns every active edge that shares its pair with another
func detectDuplicateEdges(edges []*entities.BOMEdge) []*entities.BOMEdge {
	type pair struct{ parent, child entities.ItemID }
	seen := make(map[pair]*entities.BOMEdge)
	reported := make(map[pair]bool)
	duplicates := make([]*entities.BOMEdge, 0)

	for _, e := range edges {
		key := pair{e.ParentID, e.ChildID}
		existing, ok := seen[key]
		if !ok {
			seen[key] = e
			continue
		}
		if !reported[key] {
			duplicates = append(duplicates, existing)
			reported[key] = true
		}
		duplicates = append(duplicates, e)
	}
	return duplicates
}

// ChildrenFunc lists the children of an item over active edges
type ChildrenFunc func(ctx context.Context, id entities.ItemID) ([]entities.ItemID, error)

// Reaches reports whether target is reachable from start by following children.
// The walk visits at most limit items; a limit <= 0 uses DefaultVisitLimit.
// Exceeding the limit returns bomerr.ErrReachabilityLimit.
func Reaches(ctx context.Context, start, target entities.ItemID, children ChildrenFunc, limit int) (bool, error) {
	if limit <= 0 {
		limit = DefaultVisitLimit
	}
	if start == target {
		return true, nil
	}

	visited := map[entities.ItemID]bool{start: true}
	stack := []entities.ItemID{start}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		next, err := children(ctx, current)
		if err != nil {
			return false, err
		}
		for _, child := range next {
			if child == target {
				return true, nil
			}
			if visited[child] {
				continue
			}
			if len(visited) >= limit {
				return false, bomerr.Wrap(bomerr.ErrReachabilityLimit, "",
					fmt.Errorf("visited %d items walking from %d", len(visited), start))
			}
			visited[child] = true
			stack = append(stack, child)
		}
	}
	return false, nil
}

// WouldCreateCycle reports whether adding parent -> child closes a cycle,
// which is the case when parent is already reachable from child.
func WouldCreateCycle(ctx context.Context, parentID, childID entities.ItemID, children ChildrenFunc, limit int) (bool, error) {
	return Reaches(ctx, childID, parentID, children, limit)
}
