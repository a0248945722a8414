package output

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/vsinha/bomcost/pkg/application/services/bom"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/services/bom_validator"
	fixtures "github.com/vsinha/bomcost/pkg/infrastructure/testing"
)

func newService(s *fixtures.Scenario) *bom.Service {
	return bom.NewService(s.Store, s.Store, s.Store, s.Store, bom.Options{
		Now: func() time.Time { return time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC) },
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		raw     string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" json ", FormatJSON, false},
		{"csv", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseFormat(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCostSummary_Text(t *testing.T) {
	s := fixtures.BuildAssemblyTestData()
	result, err := newService(s).GetCostSummary(context.Background(), s.ID("PROD-001"), entities.PriceMonth{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := CostSummary(&buf, result, FormatText); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"price month 2024-05-01",
		"  PART-001",
		"서브 어셈블리",
		"서브 어셈블리 > 브라켓",
		"Net cost:",
		"28820",
		"3 purchased, 1 produced, max level 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestCostSummary_JSON(t *testing.T) {
	s := fixtures.BuildAssemblyTestData()
	result, err := newService(s).GetCostSummary(context.Background(), s.ID("PROD-001"), entities.PriceMonth{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := CostSummary(&buf, result, FormatJSON); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded struct {
		RootID  int64             `json:"root_item_id"`
		Entries []json.RawMessage `json:"bom_entries"`
		Summary struct {
			Net string `json:"total_net_cost"`
		} `json:"cost_summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if decoded.RootID != int64(s.ID("PROD-001")) {
		t.Errorf("Expected root %d, got %d", s.ID("PROD-001"), decoded.RootID)
	}
	if len(decoded.Entries) != 4 {
		t.Errorf("Expected 4 entries, got %d", len(decoded.Entries))
	}
	if decoded.Summary.Net != "28820" {
		t.Errorf("Expected net 28820, got %s", decoded.Summary.Net)
	}
}

func TestTree_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Tree(&buf, nil, FormatText); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No BOM entries.") {
		t.Errorf("Expected empty notice, got %q", buf.String())
	}
}

func TestWhereUsed_Text(t *testing.T) {
	s := fixtures.BuildAssemblyTestData()
	result, err := newService(s).WhereUsed(context.Background(), s.ID("PART-001"), 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := WhereUsed(&buf, result, FormatText); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"PART-001 브라켓", "SUB-001", "  PROD-001", "Direct parents: 1, total ancestors: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestValidation_Text(t *testing.T) {
	tests := []struct {
		name     string
		scenario *fixtures.Scenario
		want     string
	}{
		{"valid", fixtures.BuildChain("A", "B", "C"), "✅ BOM graph is valid"},
		{"cycle", fixtures.BuildChain("A", "B", "C").Edge("C", "A", "1"), "❌ BOM graph has"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges, err := tt.scenario.Store.GetAllEdges(context.Background())
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			var buf bytes.Buffer
			if err := Validation(&buf, bom_validator.ValidateBOM(edges), FormatText); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}
