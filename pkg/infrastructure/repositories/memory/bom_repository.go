package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
)

// edgesWhere returns clones of the matching edges ordered by id. Caller holds mu.
func (s *Store) edgesWhere(match func(*entities.BOMEdge) bool) []*entities.BOMEdge {
	out := make([]*entities.BOMEdge, 0)
	for _, e := range s.edges {
		if match(e) {
			clone := *e
			out = append(out, &clone)
		}
	}
	slices.SortFunc(out, func(a, b *entities.BOMEdge) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) EdgesOf(_ context.Context, parentID entities.ItemID, activeOnly bool) ([]*entities.BOMEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgesWhere(func(e *entities.BOMEdge) bool {
		return e.ParentID == parentID && (e.IsActive || !activeOnly)
	}), nil
}

func (s *Store) EdgesInto(_ context.Context, childID entities.ItemID, activeOnly bool) ([]*entities.BOMEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgesWhere(func(e *entities.BOMEdge) bool {
		return e.ChildID == childID && (e.IsActive || !activeOnly)
	}), nil
}

func (s *Store) FindEdge(_ context.Context, parentID, childID entities.ItemID) (*entities.BOMEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.edgesWhere(func(e *entities.BOMEdge) bool {
		return e.ParentID == parentID && e.ChildID == childID
	})
	if len(matches) == 0 {
		return nil, nil
	}
	for _, e := range matches {
		if e.IsActive {
			return e, nil
		}
	}
	return matches[len(matches)-1], nil
}

func (s *Store) GetEdge(_ context.Context, id entities.BOMID) (*entities.BOMEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.edges[id]
	if !ok {
		return nil, bomerr.Wrap(bomerr.ErrEdgeNotFound, "", fmt.Errorf("bom %d", id))
	}
	clone := *e
	return &clone, nil
}

func (s *Store) ListEdges(_ context.Context, filter repositories.EdgeFilter, page repositories.Page) ([]*entities.BOMEdge, int64, error) {
	page = page.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.edgesWhere(func(e *entities.BOMEdge) bool {
		if !filter.Matches(e) {
			return false
		}
		if filter.CoilOnly {
			child, ok := s.items[e.ChildID]
			return ok && child.IsCoil()
		}
		return true
	})

	total := int64(len(matched))
	if page.Offset >= len(matched) {
		return []*entities.BOMEdge{}, total, nil
	}
	end := min(page.Offset+page.Limit, len(matched))
	return matched[page.Offset:end], total, nil
}

func (s *Store) GetAllEdges(_ context.Context) ([]*entities.BOMEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgesWhere(func(*entities.BOMEdge) bool { return true }), nil
}

func (s *Store) RootItems(_ context.Context) ([]entities.ItemID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parents := make(map[entities.ItemID]bool)
	children := make(map[entities.ItemID]bool)
	for _, e := range s.edges {
		if e.IsActive {
			parents[e.ParentID] = true
			children[e.ChildID] = true
		}
	}

	roots := make([]entities.ItemID, 0, len(parents))
	for id := range parents {
		if !children[id] {
			roots = append(roots, id)
		}
	}
	slices.Sort(roots)
	return roots, nil
}

// InsertEdge stores a new edge and assigns its id. A second active edge for
// the same pair is rejected the way the storage unique index would.
func (s *Store) InsertEdge(_ context.Context, edge *entities.BOMEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if edge.IsActive && s.hasActivePair(edge.ParentID, edge.ChildID, 0) {
		return bomerr.ErrDuplicateEdge
	}

	s.nextEdgeID++
	edge.ID = s.nextEdgeID
	now := s.now()
	edge.CreatedAt, edge.UpdatedAt = now, now

	clone := *edge
	s.edges[edge.ID] = &clone
	return nil
}

func (s *Store) UpdateEdge(_ context.Context, edge *entities.BOMEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.edges[edge.ID]
	if !ok {
		return bomerr.Wrap(bomerr.ErrEdgeNotFound, "", fmt.Errorf("bom %d", edge.ID))
	}
	if edge.IsActive && s.hasActivePair(edge.ParentID, edge.ChildID, edge.ID) {
		return bomerr.ErrDuplicateEdge
	}

	edge.CreatedAt = existing.CreatedAt
	edge.UpdatedAt = s.now()
	clone := *edge
	s.edges[edge.ID] = &clone
	return nil
}

func (s *Store) Deactivate(_ context.Context, id entities.BOMID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.edges[id]
	if !ok {
		return bomerr.Wrap(bomerr.ErrEdgeNotFound, "", fmt.Errorf("bom %d", id))
	}
	e.IsActive = false
	e.UpdatedAt = s.now()
	return nil
}

func (s *Store) PurgeInactive(_ context.Context, parentID, childID entities.ItemID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for id, e := range s.edges {
		if !e.IsActive && e.ParentID == parentID && e.ChildID == childID {
			delete(s.edges, id)
			purged++
		}
	}
	return purged, nil
}

// hasActivePair reports whether an active edge other than except links the pair
func (s *Store) hasActivePair(parentID, childID entities.ItemID, except entities.BOMID) bool {
	for id, e := range s.edges {
		if id != except && e.IsActive && e.ParentID == parentID && e.ChildID == childID {
			return true
		}
	}
	return false
}
