package bom

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/bomcost/pkg/application/dto"
	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
	"github.com/vsinha/bomcost/pkg/domain/services/bom_validator"
	"github.com/vsinha/bomcost/pkg/infrastructure/events"
)

const tracerName = "github.com/vsinha/bomcost/pkg/application/services/bom"

const (
	DefaultMaxDepth = 10
	MaxDepthLimit   = 20
)

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	DefaultMaxDepth   int
	MaxDepthLimit     int
	ReachabilityLimit int

	// Now supplies the current month when a request names none
	Now func() time.Time

	// Events receives edge mutation audit events after commit; nil disables auditing
	Events events.EventStore

	// OnPublishError is told about audit events that could not be stored.
	// The mutation itself has already committed.
	OnPublishError func(ctx context.Context, event events.Event, err error)
}

// Service exposes the BOM expansion, costing and edge mutation operations
type Service struct {
	bomRepo  repositories.BOMRepository
	itemRepo repositories.ItemRepository

	expander  *Expander
	prices    *PriceResolver
	scrap     *ScrapAggregator
	guard     *EdgeGuard
	whereUsed *WhereUsedFinder

	opts   Options
	tracer trace.Tracer
}

// NewService wires the BOM components over the given repositories
func NewService(
	bomRepo repositories.BOMRepository,
	itemRepo repositories.ItemRepository,
	priceRepo repositories.PriceRepository,
	tx repositories.Transactor,
	opts Options,
) *Service {
	if opts.DefaultMaxDepth <= 0 {
		opts.DefaultMaxDepth = DefaultMaxDepth
	}
	if opts.MaxDepthLimit <= 0 {
		opts.MaxDepthLimit = MaxDepthLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		bomRepo:   bomRepo,
		itemRepo:  itemRepo,
		expander:  NewExpander(bomRepo, itemRepo),
		prices:    NewPriceResolver(itemRepo, priceRepo),
		scrap:     NewScrapAggregator(itemRepo),
		guard:     NewEdgeGuard(bomRepo, itemRepo, tx, opts.ReachabilityLimit),
		whereUsed: NewWhereUsedFinder(bomRepo, itemRepo),
		opts:      opts,
		tracer:    otel.Tracer(tracerName),
	}
}

// DefaultMaxDepth is the depth used when a caller gives none
func (s *Service) DefaultMaxDepth() int {
	return s.opts.DefaultMaxDepth
}

// PriceResolver exposes the resolver used for costing
func (s *Service) PriceResolver() *PriceResolver {
	return s.prices
}

// CurrentMonth is the price month of the service clock
func (s *Service) CurrentMonth() entities.PriceMonth {
	return entities.MonthOf(s.opts.Now())
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "bom.Service."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, bomerr.CodeOf(err))
	}
	span.End()
}

// ListEdges returns one page of edges joined with their item summaries
func (s *Service) ListEdges(ctx context.Context, filter repositories.EdgeFilter, page repositories.Page) (result *dto.EdgePage, err error) {
	ctx, span := s.startSpan(ctx, "ListEdges")
	defer func() { endSpan(span, err) }()

	page = page.Normalize()
	edges, total, err := s.bomRepo.ListEdges(ctx, filter, page)
	if err != nil {
		return nil, bomerr.Backend("list edges", err)
	}

	ids := make([]entities.ItemID, 0, 2*len(edges))
	for _, e := range edges {
		ids = append(ids, e.ParentID, e.ChildID)
	}
	items := newItemCache(s.itemRepo)
	if err := items.load(ctx, ids); err != nil {
		return nil, err
	}

	entries := make([]dto.EdgeView, 0, len(edges))
	for _, e := range edges {
		view := dto.EdgeView{BOMEdge: e}
		if parent := items.items[e.ParentID]; parent != nil {
			view.Parent = parent.Summary()
		}
		if child := items.items[e.ChildID]; child != nil {
			view.Child = child.Summary()
		}
		entries = append(entries, view)
	}

	return &dto.EdgePage{
		Entries: entries,
		Pagination: dto.Pagination{
			Total:   total,
			Limit:   page.Limit,
			Offset:  page.Offset,
			HasMore: int64(page.Offset+page.Limit) < total,
		},
	}, nil
}

// GetFullTree expands one root, or every root when req.RootID is nil, and
// prices the nodes for req.PriceMonth.
func (s *Service) GetFullTree(ctx context.Context, req dto.TreeRequest) (nodes []*entities.TreeNode, err error) {
	ctx, span := s.startSpan(ctx, "GetFullTree", attribute.Int("max_depth", req.MaxDepth))
	defer func() { endSpan(span, err) }()

	if req.MaxDepth > s.opts.MaxDepthLimit {
		return nil, bomerr.Wrap(bomerr.ErrDepthOutOfRange,
			fmt.Sprintf("최대 깊이는 %d 이하여야 합니다.", s.opts.MaxDepthLimit), nil)
	}

	var roots []entities.ItemID
	if req.RootID != nil {
		roots = []entities.ItemID{*req.RootID}
	} else {
		roots, err = s.bomRepo.RootItems(ctx)
		if err != nil {
			return nil, bomerr.Backend("root items", err)
		}
	}

	nodes, items, err := s.expander.expand(ctx, roots, req.MaxDepth)
	if err != nil {
		return nil, err
	}
	if _, err := s.priceNodes(ctx, nodes, items, s.monthOrCurrent(req.PriceMonth)); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("nodes", len(nodes)))
	return nodes, nil
}

// GetCostSummary expands rootID to the default depth, prices it for month
// and rolls the costs up.
func (s *Service) GetCostSummary(ctx context.Context, rootID entities.ItemID, month entities.PriceMonth) (result *dto.CostSummaryResult, err error) {
	ctx, span := s.startSpan(ctx, "GetCostSummary", attribute.Int64("root_item_id", int64(rootID)))
	defer func() { endSpan(span, err) }()

	month = s.monthOrCurrent(month)
	nodes, items, err := s.expander.expand(ctx, []entities.ItemID{rootID}, s.opts.DefaultMaxDepth)
	if err != nil {
		return nil, err
	}
	if _, err := s.priceNodes(ctx, nodes, items, month); err != nil {
		return nil, err
	}

	return &dto.CostSummaryResult{
		RootID:     rootID,
		PriceMonth: month,
		Entries:    nodes,
		Summary:    RollUp(nodes),
	}, nil
}

// priceNodes resolves prices and scrap credit for the distinct children of
// nodes concurrently, then books both onto every node. items must hold every
// child; it is the item set the expansion already loaded.
func (s *Service) priceNodes(ctx context.Context, nodes []*entities.TreeNode, items map[entities.ItemID]*entities.Item, month entities.PriceMonth) (*ScrapCredit, error) {
	if len(nodes) == 0 {
		return &ScrapCredit{}, nil
	}

	children := make(map[entities.ItemID]*entities.Item)
	inputs := make([]ScrapInput, 0, len(nodes))
	for _, node := range nodes {
		children[node.ChildID] = items[node.ChildID]
		inputs = append(inputs, ScrapInput{ItemID: node.ChildID, Quantity: node.QuantityRequired})
	}

	var (
		prices map[entities.ItemID]decimal.Decimal
		credit *ScrapCredit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prices, err = s.prices.ResolveMany(gctx, children, month)
		return err
	})
	g.Go(func() error {
		var err error
		credit, err = s.scrap.Aggregate(gctx, inputs, children)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ApplyCosts(nodes, prices, credit)
	return credit, nil
}

func (s *Service) monthOrCurrent(month entities.PriceMonth) entities.PriceMonth {
	if month.IsZero() {
		return s.CurrentMonth()
	}
	return month
}

// CreateEdge validates and inserts a new active edge
func (s *Service) CreateEdge(ctx context.Context, req dto.CreateEdgeRequest) (edge *entities.BOMEdge, err error) {
	ctx, span := s.startSpan(ctx, "CreateEdge",
		attribute.Int64("parent_item_id", int64(req.ParentID)),
		attribute.Int64("child_item_id", int64(req.ChildID)))
	defer func() { endSpan(span, err) }()

	result, err := s.guard.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	stream := events.EdgeStream(result.Edge.ID)
	if result.Purged > 0 {
		s.publish(ctx, events.NewEvent(events.EdgePurgedEvent, stream, events.EdgePurged{
			ParentID:   result.Edge.ParentID,
			ChildID:    result.Edge.ChildID,
			Count:      result.Purged,
			ReplacedBy: result.Edge.ID,
		}))
	}
	s.publish(ctx, events.NewEvent(events.EdgeCreatedEvent, stream, events.EdgeCreated{Edge: *result.Edge}))
	return result.Edge, nil
}

// UpdateEdge applies a partial update to an existing edge
func (s *Service) UpdateEdge(ctx context.Context, id entities.BOMID, update entities.EdgeUpdate) (edge *entities.BOMEdge, err error) {
	ctx, span := s.startSpan(ctx, "UpdateEdge", attribute.Int64("bom_id", int64(id)))
	defer func() { endSpan(span, err) }()

	result, err := s.guard.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.EdgeUpdatedEvent, events.EdgeStream(id),
		events.EdgeUpdated{Before: *result.Before, After: *result.After}))
	return result.After, nil
}

// DeactivateEdge soft-deletes an edge
func (s *Service) DeactivateEdge(ctx context.Context, id entities.BOMID) (err error) {
	ctx, span := s.startSpan(ctx, "DeactivateEdge", attribute.Int64("bom_id", int64(id)))
	defer func() { endSpan(span, err) }()

	edge, err := s.guard.Deactivate(ctx, id)
	if err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(events.EdgeDeactivatedEvent, events.EdgeStream(id), events.EdgeDeactivated{Edge: *edge}))
	return nil
}

// WhereUsed lists the assemblies consuming childID up to maxDepth levels
func (s *Service) WhereUsed(ctx context.Context, childID entities.ItemID, maxDepth int) (result *dto.WhereUsedResult, err error) {
	ctx, span := s.startSpan(ctx, "WhereUsed", attribute.Int64("child_item_id", int64(childID)))
	defer func() { endSpan(span, err) }()

	if maxDepth > s.opts.MaxDepthLimit {
		return nil, bomerr.Wrap(bomerr.ErrDepthOutOfRange,
			fmt.Sprintf("최대 깊이는 %d 이하여야 합니다.", s.opts.MaxDepthLimit), nil)
	}
	return s.whereUsed.Find(ctx, childID, maxDepth)
}

// ValidateGraph audits every stored edge and the item codes
func (s *Service) ValidateGraph(ctx context.Context) (result *bom_validator.ValidationResult, err error) {
	ctx, span := s.startSpan(ctx, "ValidateGraph")
	defer func() { endSpan(span, err) }()

	edges, err := s.bomRepo.GetAllEdges(ctx)
	if err != nil {
		return nil, bomerr.Backend("all edges", err)
	}
	items, err := s.itemRepo.GetAllItems(ctx)
	if err != nil {
		return nil, bomerr.Backend("all items", err)
	}
	return bom_validator.Validate(edges, items), nil
}

// EdgeHistory returns the audit events recorded for an edge, oldest first
func (s *Service) EdgeHistory(ctx context.Context, id entities.BOMID) ([]events.Event, error) {
	if s.opts.Events == nil {
		return []events.Event{}, nil
	}
	history, err := s.opts.Events.ReadEvents(ctx, events.EdgeStream(id), 1)
	if err != nil {
		return nil, bomerr.Backend("edge history", err)
	}
	return history, nil
}

// AuditFeed returns every recorded edge event from position from onward, in
// the order they were appended
func (s *Service) AuditFeed(ctx context.Context, from int) ([]events.Event, error) {
	if s.opts.Events == nil {
		return []events.Event{}, nil
	}
	feed, err := s.opts.Events.ReadAllEvents(ctx, from)
	if err != nil {
		return nil, bomerr.Backend("audit feed", err)
	}
	return feed, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.opts.Events == nil {
		return
	}
	if err := s.opts.Events.AppendEvent(ctx, event.StreamID(), event); err != nil && s.opts.OnPublishError != nil {
		s.opts.OnPublishError(ctx, event, err)
	}
}
