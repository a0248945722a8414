package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/bomcost/pkg/application/services/bom"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/infrastructure/events"
	"github.com/vsinha/bomcost/pkg/infrastructure/logger"
	fixtures "github.com/vsinha/bomcost/pkg/infrastructure/testing"
	httpH "github.com/vsinha/bomcost/pkg/interfaces/http/handlers"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func setupRouter(t *testing.T) (*gin.Engine, *fixtures.Scenario) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := fixtures.BuildAssemblyTestData()
	svc := bom.NewService(s.Store, s.Store, s.Store, s.Store, bom.Options{
		Now:    func() time.Time { return time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC) },
		Events: events.NewInMemoryEventStore(nil),
	})
	r := NewRouter(RouterConfig{
		BOMHandler:    httpH.NewBOMHandler(svc, logger.Nop()),
		HealthHandler: httpH.NewHealthHandler(),
		Logger:        logger.Nop(),
	})
	return r, s
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func TestHealthcheck(t *testing.T) {
	r, _ := setupRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/healthcheck", nil))
	if w.Code != stdhttp.StatusOK || w.Body.String() != "ok" {
		t.Errorf("Expected 200 ok, got %d %q", w.Code, w.Body.String())
	}
}

func TestListEdges(t *testing.T) {
	r, s := setupRouter(t)

	w, env := doRequest(t, r, stdhttp.MethodGet, fmt.Sprintf("/api/bom?parent_item_id=%d&limit=1", s.ID("SUB-001")), nil)
	if w.Code != stdhttp.StatusOK || !env.Success {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var page struct {
		Entries []struct {
			ID    int64 `json:"bom_id"`
			Child struct {
				Code string `json:"item_code"`
				Name string `json:"item_name"`
			} `json:"child_item"`
		} `json:"bom_entries"`
		Pagination struct {
			Total   int64 `json:"total"`
			HasMore bool  `json:"has_more"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}
	if len(page.Entries) != 1 || page.Pagination.Total != 2 || !page.Pagination.HasMore {
		t.Errorf("Unexpected page: %+v", page)
	}
	if page.Entries[0].Child.Name != "브라켓" {
		t.Errorf("Expected Korean item name to round-trip, got %q", page.Entries[0].Child.Name)
	}

	w, env = doRequest(t, r, stdhttp.MethodGet, "/api/bom?limit=abc", nil)
	if w.Code != stdhttp.StatusBadRequest || env.Error == nil || env.Error.Code != "invalid_parameter" {
		t.Errorf("Expected 400 invalid_parameter, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFullTreeAndCostSummary(t *testing.T) {
	r, s := setupRouter(t)

	w, env := doRequest(t, r, stdhttp.MethodGet, fmt.Sprintf("/api/bom/full-tree?root_item_id=%d&max_depth=1", s.ID("PROD-001")), nil)
	if w.Code != stdhttp.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var tree struct {
		TotalNodes int    `json:"total_nodes"`
		PriceMonth string `json:"price_month"`
	}
	if err := json.Unmarshal(env.Data, &tree); err != nil {
		t.Fatalf("Failed to decode tree: %v", err)
	}
	if tree.TotalNodes != 2 || tree.PriceMonth != "2024-05-01" {
		t.Errorf("Unexpected tree response: %+v", tree)
	}

	w, env = doRequest(t, r, stdhttp.MethodGet, "/api/bom/full-tree?max_depth=21", nil)
	if w.Code != stdhttp.StatusBadRequest || env.Error.Code != "depth_out_of_range" {
		t.Errorf("Expected 400 depth_out_of_range, got %d: %s", w.Code, w.Body.String())
	}

	w, env = doRequest(t, r, stdhttp.MethodGet, fmt.Sprintf("/api/bom/cost-summary/%d?price_month=2024-05", s.ID("PROD-001")), nil)
	if w.Code != stdhttp.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var cost struct {
		Summary struct {
			TotalNetCost string `json:"total_net_cost"`
			NodeCount    int    `json:"node_count"`
		} `json:"cost_summary"`
	}
	if err := json.Unmarshal(env.Data, &cost); err != nil {
		t.Fatalf("Failed to decode cost summary: %v", err)
	}
	// (5000 + 20000 + 1200) * 1.1
	if cost.Summary.TotalNetCost != "28820" || cost.Summary.NodeCount != 4 {
		t.Errorf("Unexpected cost summary: %+v", cost.Summary)
	}

	w, env = doRequest(t, r, stdhttp.MethodGet, "/api/bom/cost-summary/9999", nil)
	if w.Code != stdhttp.StatusNotFound || env.Error.Code != "item_not_found" {
		t.Errorf("Expected 404 item_not_found, got %d: %s", w.Code, w.Body.String())
	}

	w, _ = doRequest(t, r, stdhttp.MethodGet, "/api/bom/cost-summary/1?price_month=May", nil)
	if w.Code != stdhttp.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed month, got %d", w.Code)
	}
}

func TestEdgeLifecycle(t *testing.T) {
	r, s := setupRouter(t)

	create := map[string]any{
		"parent_item_id":    s.ID("PROD-001"),
		"child_item_id":     s.ID("PART-002"),
		"quantity_required": 8,
		"notes":             "추가 체결용",
	}
	w, env := doRequest(t, r, stdhttp.MethodPost, "/api/bom", create)
	if w.Code != stdhttp.StatusCreated || !env.Success {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var edge entities.BOMEdge
	if err := json.Unmarshal(env.Data, &edge); err != nil {
		t.Fatalf("Failed to decode edge: %v", err)
	}
	if edge.ID == 0 || edge.Notes != "추가 체결용" {
		t.Errorf("Unexpected created edge: %+v", edge)
	}

	w, env = doRequest(t, r, stdhttp.MethodPost, "/api/bom", create)
	if w.Code != stdhttp.StatusConflict || env.Error.Code != "duplicate_edge" {
		t.Errorf("Expected 409 duplicate_edge, got %d: %s", w.Code, w.Body.String())
	}

	cycle := map[string]any{
		"parent_item_id":    s.ID("PART-001"),
		"child_item_id":     s.ID("PROD-001"),
		"quantity_required": 1,
	}
	w, env = doRequest(t, r, stdhttp.MethodPost, "/api/bom", cycle)
	if w.Code != stdhttp.StatusConflict || env.Error.Code != "cycle_detected" {
		t.Errorf("Expected 409 cycle_detected, got %d: %s", w.Code, w.Body.String())
	}

	self := map[string]any{
		"parent_item_id":    s.ID("PART-001"),
		"child_item_id":     s.ID("PART-001"),
		"quantity_required": 1,
	}
	w, env = doRequest(t, r, stdhttp.MethodPost, "/api/bom", self)
	if w.Code != stdhttp.StatusBadRequest || env.Error.Message != "부모 품목과 자식 품목이 같을 수 없습니다." {
		t.Errorf("Expected 400 with the self reference message, got %d: %s", w.Code, w.Body.String())
	}

	path := fmt.Sprintf("/api/bom/%d", edge.ID)
	w, _ = doRequest(t, r, stdhttp.MethodPut, path, map[string]any{"quantity_required": "2.5"})
	if w.Code != stdhttp.StatusOK {
		t.Errorf("Expected 200 on update, got %d: %s", w.Code, w.Body.String())
	}

	w, env = doRequest(t, r, stdhttp.MethodPut, path, map[string]any{})
	if w.Code != stdhttp.StatusBadRequest || env.Error.Code != "invalid_parameter" {
		t.Errorf("Expected 400 for an empty update, got %d: %s", w.Code, w.Body.String())
	}

	w, _ = doRequest(t, r, stdhttp.MethodDelete, path, nil)
	if w.Code != stdhttp.StatusOK {
		t.Errorf("Expected 200 on delete, got %d: %s", w.Code, w.Body.String())
	}

	w, env = doRequest(t, r, stdhttp.MethodDelete, "/api/bom/9999", nil)
	if w.Code != stdhttp.StatusNotFound || env.Error.Code != "edge_not_found" {
		t.Errorf("Expected 404 edge_not_found, got %d: %s", w.Code, w.Body.String())
	}

	w, env = doRequest(t, r, stdhttp.MethodGet, path+"/history", nil)
	if w.Code != stdhttp.StatusOK {
		t.Fatalf("Expected 200 on history, got %d", w.Code)
	}
	var history struct {
		Count  int `json:"count"`
		Events []struct {
			Type string `json:"event_type"`
		} `json:"events"`
	}
	if err := json.Unmarshal(env.Data, &history); err != nil {
		t.Fatalf("Failed to decode history: %v", err)
	}
	expected := []string{events.EdgeCreatedEvent, events.EdgeUpdatedEvent, events.EdgeDeactivatedEvent}
	if history.Count != len(expected) {
		t.Fatalf("Expected %d events, got %d", len(expected), history.Count)
	}
	for i, typ := range expected {
		if history.Events[i].Type != typ {
			t.Errorf("Event %d: expected %s, got %s", i, typ, history.Events[i].Type)
		}
	}
}

func TestWhereUsedAndValidate(t *testing.T) {
	r, s := setupRouter(t)

	w, env := doRequest(t, r, stdhttp.MethodGet, fmt.Sprintf("/api/bom/where-used/%d", s.ID("PART-001")), nil)
	if w.Code != stdhttp.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var used struct {
		Entries []struct {
			UsagePath string `json:"usage_path"`
		} `json:"where_used"`
		Summary struct {
			TotalAncestors int `json:"total_ancestors"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(env.Data, &used); err != nil {
		t.Fatalf("Failed to decode where-used: %v", err)
	}
	if used.Summary.TotalAncestors != 2 || used.Entries[1].UsagePath != "완제품 A > 서브 어셈블리 > 브라켓" {
		t.Errorf("Unexpected where-used response: %+v", used)
	}

	w, _ = doRequest(t, r, stdhttp.MethodGet, "/api/bom/where-used/abc", nil)
	if w.Code != stdhttp.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed id, got %d", w.Code)
	}

	w, env = doRequest(t, r, stdhttp.MethodGet, "/api/bom/validate", nil)
	if w.Code != stdhttp.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var audit struct {
		HasCycles bool `json:"has_cycles"`
	}
	if err := json.Unmarshal(env.Data, &audit); err != nil {
		t.Fatalf("Failed to decode audit: %v", err)
	}
	if audit.HasCycles {
		t.Error("Expected a clean graph")
	}
}

func TestAuditFeed(t *testing.T) {
	r, s := setupRouter(t)

	for _, child := range []string{"PART-001", "PART-002"} {
		create := map[string]any{
			"parent_item_id":    s.ID("PROD-001"),
			"child_item_id":     s.ID(child),
			"quantity_required": 1,
		}
		if w, _ := doRequest(t, r, stdhttp.MethodPost, "/api/bom", create); w.Code != stdhttp.StatusCreated {
			t.Fatalf("Expected 201 for %s, got %d: %s", child, w.Code, w.Body.String())
		}
	}

	type feed struct {
		Next   int `json:"next"`
		Count  int `json:"count"`
		Events []struct {
			Type   string `json:"event_type"`
			Stream string `json:"stream_id"`
		} `json:"events"`
	}

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantNext  int
	}{
		{"from start", "", 2, 2},
		{"from position 1", "?from=1", 1, 2},
		{"past the end", "?from=5", 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := doRequest(t, r, stdhttp.MethodGet, "/api/bom/history"+tt.query, nil)
			if w.Code != stdhttp.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
			}
			var got feed
			if err := json.Unmarshal(env.Data, &got); err != nil {
				t.Fatalf("Failed to decode feed: %v", err)
			}
			if got.Count != tt.wantCount || got.Next != tt.wantNext {
				t.Errorf("Expected count %d next %d, got %d/%d", tt.wantCount, tt.wantNext, got.Count, got.Next)
			}
			for _, e := range got.Events {
				if e.Type != events.EdgeCreatedEvent {
					t.Errorf("Expected created events only, got %s on %s", e.Type, e.Stream)
				}
			}
		})
	}

	for _, bad := range []string{"?from=-1", "?from=abc"} {
		w, env := doRequest(t, r, stdhttp.MethodGet, "/api/bom/history"+bad, nil)
		if w.Code != stdhttp.StatusBadRequest || env.Error.Code != "invalid_parameter" {
			t.Errorf("Expected 400 invalid_parameter for %s, got %d: %s", bad, w.Code, w.Body.String())
		}
	}
}
