package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
)

// Store keeps items, BOM edges and price history in process memory.
// It backs the CLI scenarios and the service tests.
type Store struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	items  map[entities.ItemID]*entities.Item
	codes  map[string]entities.ItemID
	edges  map[entities.BOMID]*entities.BOMEdge
	prices map[entities.ItemID][]*entities.PriceHistoryEntry

	nextItemID  entities.ItemID
	nextEdgeID  entities.BOMID
	nextPriceID int64

	now func() time.Time
}

// Verify interface compliance
var (
	_ repositories.ItemRepository  = (*Store)(nil)
	_ repositories.BOMRepository   = (*Store)(nil)
	_ repositories.PriceRepository = (*Store)(nil)
	_ repositories.Transactor      = (*Store)(nil)
)

// NewStore creates an empty store sized for the expected number of items
func NewStore(expectedItems int) *Store {
	return &Store{
		items:  make(map[entities.ItemID]*entities.Item, expectedItems),
		codes:  make(map[string]entities.ItemID, expectedItems),
		edges:  make(map[entities.BOMID]*entities.BOMEdge, expectedItems),
		prices: make(map[entities.ItemID][]*entities.PriceHistoryEntry),
		now:    time.Now,
	}
}

// SetClock replaces the timestamp source
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// InTx runs fn against a snapshot of the edges and items. When fn fails the
// snapshot is restored. Transactions are serialized; ids are not reused.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	edges := make(map[entities.BOMID]*entities.BOMEdge, len(s.edges))
	for id, e := range s.edges {
		clone := *e
		edges[id] = &clone
	}
	items := make(map[entities.ItemID]*entities.Item, len(s.items))
	for id, it := range s.items {
		clone := *it
		items[id] = &clone
	}
	codes := make(map[string]entities.ItemID, len(s.codes))
	for code, id := range s.codes {
		codes[code] = id
	}
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.edges, s.items, s.codes = edges, items, codes
		s.mu.Unlock()
		return err
	}
	return nil
}
