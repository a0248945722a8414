package handlers

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/application/dto"
	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
	"github.com/vsinha/bomcost/pkg/domain/services/bom_validator"
	"github.com/vsinha/bomcost/pkg/infrastructure/events"
	"github.com/vsinha/bomcost/pkg/infrastructure/logger"
	"github.com/vsinha/bomcost/pkg/interfaces/http/response"
)

// BOMService is the façade the BOM routes call
type BOMService interface {
	ListEdges(ctx context.Context, filter repositories.EdgeFilter, page repositories.Page) (*dto.EdgePage, error)
	GetFullTree(ctx context.Context, req dto.TreeRequest) ([]*entities.TreeNode, error)
	GetCostSummary(ctx context.Context, rootID entities.ItemID, month entities.PriceMonth) (*dto.CostSummaryResult, error)
	CreateEdge(ctx context.Context, req dto.CreateEdgeRequest) (*entities.BOMEdge, error)
	UpdateEdge(ctx context.Context, id entities.BOMID, update entities.EdgeUpdate) (*entities.BOMEdge, error)
	DeactivateEdge(ctx context.Context, id entities.BOMID) error
	WhereUsed(ctx context.Context, childID entities.ItemID, maxDepth int) (*dto.WhereUsedResult, error)
	ValidateGraph(ctx context.Context) (*bom_validator.ValidationResult, error)
	EdgeHistory(ctx context.Context, id entities.BOMID) ([]events.Event, error)
	AuditFeed(ctx context.Context, from int) ([]events.Event, error)
	DefaultMaxDepth() int
	CurrentMonth() entities.PriceMonth
}

type BOMHandler struct {
	svc BOMService
	log *logger.Logger
}

func NewBOMHandler(svc BOMService, log *logger.Logger) *BOMHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &BOMHandler{svc: svc, log: log}
}

type fullTreeData struct {
	RootID     *entities.ItemID     `json:"root_item_id,omitempty"`
	MaxDepth   int                  `json:"max_depth"`
	PriceMonth entities.PriceMonth  `json:"price_month"`
	Entries    []*entities.TreeNode `json:"bom_entries"`
	TotalNodes int                  `json:"total_nodes"`
}

type updateEdgeBody struct {
	QuantityRequired *decimal.Decimal `json:"quantity_required"`
	LevelNo          *int             `json:"level_no"`
	LaborCost        *decimal.Decimal `json:"labor_cost"`
	Notes            *string          `json:"notes"`
	IsActive         *bool            `json:"is_active"`
}

// ListEdges handles GET /api/bom
func (h *BOMHandler) ListEdges(c *gin.Context) {
	var (
		filter repositories.EdgeFilter
		page   repositories.Page
		err    error
	)
	if filter.ParentID, err = queryItemID(c, "parent_item_id"); err != nil {
		response.Error(c, h.log, "list_edges", err)
		return
	}
	if filter.ChildID, err = queryItemID(c, "child_item_id"); err != nil {
		response.Error(c, h.log, "list_edges", err)
		return
	}
	if c.Query("level_no") != "" {
		level, err := queryInt(c, "level_no", 0)
		if err != nil {
			response.Error(c, h.log, "list_edges", err)
			return
		}
		filter.LevelNo = &level
	}
	if filter.CoilOnly, err = queryBool(c, "coil_only"); err != nil {
		response.Error(c, h.log, "list_edges", err)
		return
	}
	if filter.IncludeInactive, err = queryBool(c, "include_inactive"); err != nil {
		response.Error(c, h.log, "list_edges", err)
		return
	}
	if page.Limit, err = queryInt(c, "limit", repositories.DefaultPageLimit); err != nil {
		response.Error(c, h.log, "list_edges", err)
		return
	}
	if page.Offset, err = queryInt(c, "offset", 0); err != nil {
		response.Error(c, h.log, "list_edges", err)
		return
	}

	result, err := h.svc.ListEdges(c.Request.Context(), filter, page)
	if err != nil {
		response.Error(c, h.log, "list_edges", err)
		return
	}
	response.RespondOK(c, result)
}

// GetFullTree handles GET /api/bom/full-tree
func (h *BOMHandler) GetFullTree(c *gin.Context) {
	rootID, err := queryItemID(c, "root_item_id")
	if err != nil {
		response.Error(c, h.log, "full_tree", err)
		return
	}
	maxDepth, err := queryInt(c, "max_depth", h.svc.DefaultMaxDepth())
	if err != nil {
		response.Error(c, h.log, "full_tree", err)
		return
	}
	month, err := queryMonth(c)
	if err != nil {
		response.Error(c, h.log, "full_tree", err)
		return
	}
	if month.IsZero() {
		month = h.svc.CurrentMonth()
	}

	nodes, err := h.svc.GetFullTree(c.Request.Context(), dto.TreeRequest{RootID: rootID, MaxDepth: maxDepth, PriceMonth: month})
	if err != nil {
		response.Error(c, h.log, "full_tree", err)
		return
	}
	response.RespondOK(c, fullTreeData{
		RootID:     rootID,
		MaxDepth:   maxDepth,
		PriceMonth: month,
		Entries:    nodes,
		TotalNodes: len(nodes),
	})
}

// GetCostSummary handles GET /api/bom/cost-summary/:item_id
func (h *BOMHandler) GetCostSummary(c *gin.Context) {
	id, err := pathID(c, "item_id")
	if err != nil {
		response.Error(c, h.log, "cost_summary", err)
		return
	}
	month, err := queryMonth(c)
	if err != nil {
		response.Error(c, h.log, "cost_summary", err)
		return
	}

	result, err := h.svc.GetCostSummary(c.Request.Context(), entities.ItemID(id), month)
	if err != nil {
		response.Error(c, h.log, "cost_summary", err)
		return
	}
	response.RespondOK(c, result)
}

// WhereUsed handles GET /api/bom/where-used/:child_item_id
func (h *BOMHandler) WhereUsed(c *gin.Context) {
	id, err := pathID(c, "child_item_id")
	if err != nil {
		response.Error(c, h.log, "where_used", err)
		return
	}
	maxDepth, err := queryInt(c, "max_depth", h.svc.DefaultMaxDepth())
	if err != nil {
		response.Error(c, h.log, "where_used", err)
		return
	}

	result, err := h.svc.WhereUsed(c.Request.Context(), entities.ItemID(id), maxDepth)
	if err != nil {
		response.Error(c, h.log, "where_used", err)
		return
	}
	response.RespondOK(c, result)
}

// Validate handles GET /api/bom/validate
func (h *BOMHandler) Validate(c *gin.Context) {
	result, err := h.svc.ValidateGraph(c.Request.Context())
	if err != nil {
		response.Error(c, h.log, "validate", err)
		return
	}
	response.RespondOK(c, result)
}

// CreateEdge handles POST /api/bom
func (h *BOMHandler) CreateEdge(c *gin.Context) {
	var req dto.CreateEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.log, "create_edge", invalidParam("body", "", err))
		return
	}

	edge, err := h.svc.CreateEdge(c.Request.Context(), req)
	if err != nil {
		response.Error(c, h.log, "create_edge", err)
		return
	}
	h.log.Info("bom edge created", "bom_id", edge.ID, "parent_item_id", edge.ParentID, "child_item_id", edge.ChildID)
	response.RespondCreated(c, "BOM 항목이 성공적으로 등록되었습니다.", edge)
}

// UpdateEdge handles PUT /api/bom/:id
func (h *BOMHandler) UpdateEdge(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, h.log, "update_edge", err)
		return
	}

	var body updateEdgeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, h.log, "update_edge", invalidParam("body", "", err))
		return
	}
	update := entities.EdgeUpdate{
		QuantityRequired: body.QuantityRequired,
		LevelNo:          body.LevelNo,
		LaborCost:        body.LaborCost,
		Notes:            body.Notes,
		IsActive:         body.IsActive,
	}
	if update.IsEmpty() {
		response.Error(c, h.log, "update_edge",
			bomerr.Wrap(bomerr.ErrInvalidParameter, "수정할 항목이 없습니다.", nil))
		return
	}

	edge, err := h.svc.UpdateEdge(c.Request.Context(), entities.BOMID(id), update)
	if err != nil {
		response.Error(c, h.log, "update_edge", err)
		return
	}
	response.RespondMessage(c, "BOM 항목이 성공적으로 수정되었습니다.", edge)
}

// DeactivateEdge handles DELETE /api/bom/:id
func (h *BOMHandler) DeactivateEdge(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, h.log, "deactivate_edge", err)
		return
	}

	if err := h.svc.DeactivateEdge(c.Request.Context(), entities.BOMID(id)); err != nil {
		response.Error(c, h.log, "deactivate_edge", err)
		return
	}
	response.RespondMessage(c, "BOM 항목이 성공적으로 삭제되었습니다.", gin.H{"deleted_id": id})
}

// History handles GET /api/bom/:id/history
func (h *BOMHandler) History(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, h.log, "edge_history", err)
		return
	}

	history, err := h.svc.EdgeHistory(c.Request.Context(), entities.BOMID(id))
	if err != nil {
		response.Error(c, h.log, "edge_history", err)
		return
	}
	response.RespondOK(c, gin.H{"bom_id": id, "events": history, "count": len(history)})
}

// AuditFeed handles GET /api/bom/history
func (h *BOMHandler) AuditFeed(c *gin.Context) {
	from, err := queryInt(c, "from", 0)
	if err != nil {
		response.Error(c, h.log, "audit_feed", err)
		return
	}
	if from < 0 {
		response.Error(c, h.log, "audit_feed", invalidParam("from", c.Query("from"), fmt.Errorf("must not be negative")))
		return
	}

	feed, err := h.svc.AuditFeed(c.Request.Context(), from)
	if err != nil {
		response.Error(c, h.log, "audit_feed", err)
		return
	}
	response.RespondOK(c, gin.H{"from": from, "next": from + len(feed), "events": feed, "count": len(feed)})
}
