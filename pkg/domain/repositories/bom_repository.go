package repositories

import (
	"context"

	"github.com/vsinha/bomcost/pkg/domain/entities"
)

// DefaultPageLimit is used when a listing asks for no explicit limit
const DefaultPageLimit = 100

// EdgeFilter narrows an edge listing. Nil fields match everything.
type EdgeFilter struct {
	ParentID *entities.ItemID
	ChildID  *entities.ItemID
	LevelNo  *int

	// CoilOnly keeps edges whose child item is coil inventory
	CoilOnly bool

	// IncludeInactive also lists soft-deleted edges
	IncludeInactive bool
}

// Matches reports whether edge passes the edge-level part of the filter.
// CoilOnly needs the child item and is checked by the caller.
func (f EdgeFilter) Matches(edge *entities.BOMEdge) bool {
	if !f.IncludeInactive && !edge.IsActive {
		return false
	}
	if f.ParentID != nil && edge.ParentID != *f.ParentID {
		return false
	}
	if f.ChildID != nil && edge.ChildID != *f.ChildID {
		return false
	}
	if f.LevelNo != nil && edge.LevelNo != *f.LevelNo {
		return false
	}
	return true
}

// Page is an offset window over a listing
type Page struct {
	Limit  int
	Offset int
}

// Normalize fills in the default limit and clamps a negative offset
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// BOMRepository provides access to Bill of Materials edges
type BOMRepository interface {
	// EdgesOf returns the edges whose parent is parentID
	EdgesOf(ctx context.Context, parentID entities.ItemID, activeOnly bool) ([]*entities.BOMEdge, error)

	// EdgesInto returns the edges whose child is childID
	EdgesInto(ctx context.Context, childID entities.ItemID, activeOnly bool) ([]*entities.BOMEdge, error)

	// FindEdge returns the edge for the pair, preferring the active one.
	// It returns nil without error when no edge exists.
	FindEdge(ctx context.Context, parentID, childID entities.ItemID) (*entities.BOMEdge, error)
	GetEdge(ctx context.Context, id entities.BOMID) (*entities.BOMEdge, error)
	// ListEdges returns one page of matching edges ordered by id, and the total match count
	ListEdges(ctx context.Context, filter EdgeFilter, page Page) ([]*entities.BOMEdge, int64, error)
	GetAllEdges(ctx context.Context) ([]*entities.BOMEdge, error)

	// RootItems returns parents of active edges that are never a child of one
	RootItems(ctx context.Context) ([]entities.ItemID, error)

	InsertEdge(ctx context.Context, edge *entities.BOMEdge) error
	UpdateEdge(ctx context.Context, edge *entities.BOMEdge) error
	Deactivate(ctx context.Context, id entities.BOMID) error

	// PurgeInactive hard-deletes inactive edges for the pair and reports how many went
	PurgeInactive(ctx context.Context, parentID, childID entities.ItemID) (int64, error)
}

// Transactor runs fn inside a storage transaction. The transaction travels in
// the context handed to fn; returning an error rolls everything back.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
