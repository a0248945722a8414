package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/vsinha/bomcost/pkg/application/dto"
	"github.com/vsinha/bomcost/pkg/application/services/bom"
	"github.com/vsinha/bomcost/pkg/domain/entities"
	"github.com/vsinha/bomcost/pkg/domain/services/bom_validator"
)

// Format selects how a result is rendered
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" or "json"
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", raw)
	}
}

// JSON writes v as indented JSON
func JSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// Tree renders a priced expansion
func Tree(w io.Writer, nodes []*entities.TreeNode, format Format) error {
	if format == FormatJSON {
		return JSON(w, nodes)
	}

	fmt.Fprintf(w, "📊 BOM Tree (%d nodes)\n\n", len(nodes))
	if len(nodes) == 0 {
		fmt.Fprintln(w, "No BOM entries.")
		return nil
	}
	if err := nodeTable(w, nodes); err != nil {
		return err
	}
	return totals(w, bom.RollUp(nodes))
}

// CostSummary renders the expansion of one root with its totals
func CostSummary(w io.Writer, result *dto.CostSummaryResult, format Format) error {
	if format == FormatJSON {
		return JSON(w, result)
	}

	fmt.Fprintf(w, "💰 Cost Summary: item %d, price month %s\n\n", result.RootID, result.PriceMonth)
	if len(result.Entries) > 0 {
		if err := nodeTable(w, result.Entries); err != nil {
			return err
		}
	}
	return totals(w, result.Summary)
}

func nodeTable(w io.Writer, nodes []*entities.TreeNode) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tITEM\tNAME\tQTY\tCUM QTY\tUNIT PRICE\tMATERIAL\tLABOR\tSCRAP\tNET\tPATH\t")
	for _, n := range nodes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			n.Level,
			indent(n.Level)+n.ChildCode,
			n.ChildName,
			n.QuantityRequired,
			n.CumulativeQuantity,
			n.UnitPrice,
			n.MaterialCost,
			n.LaborCost,
			n.ScrapRevenue,
			n.NetCost,
			n.PathKey())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

func totals(w io.Writer, s entities.CostSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Material:\t%s\n", s.TotalMaterialCost)
	fmt.Fprintf(tw, "Labor:\t%s\n", s.TotalLaborCost)
	fmt.Fprintf(tw, "Overhead:\t%s\n", s.TotalOverheadCost)
	fmt.Fprintf(tw, "Scrap revenue:\t%s\n", s.TotalScrapRevenue)
	fmt.Fprintf(tw, "Net cost:\t%s\n", s.TotalNetCost)
	fmt.Fprintf(tw, "Items:\t%d purchased, %d produced, max level %d\n", s.PurchasedCount, s.ProducedCount, s.MaxLevel)
	return tw.Flush()
}

// WhereUsed renders the assemblies that consume an item
func WhereUsed(w io.Writer, result *dto.WhereUsedResult, format Format) error {
	if format == FormatJSON {
		return JSON(w, result)
	}

	fmt.Fprintf(w, "🔎 Where used: %s %s\n\n", result.ChildItem.Code, result.ChildItem.Name)
	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "Not used in any active BOM.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tPARENT\tNAME\tQTY\tCUM QTY\tPATH")
	for _, e := range result.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.Level,
			indent(e.Level)+e.ParentCode,
			e.ParentName,
			e.QuantityRequired,
			e.CumulativeQuantity,
			e.UsagePath)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nDirect parents: %d, total ancestors: %d, max level: %d\n",
		result.Summary.DirectParents, result.Summary.TotalAncestors, result.Summary.MaxLevel)
	return nil
}

// Validation renders a graph audit
func Validation(w io.Writer, result *bom_validator.ValidationResult, format Format) error {
	if format == FormatJSON {
		return JSON(w, result)
	}

	if result.Valid() {
		fmt.Fprintln(w, "✅ BOM graph is valid")
		return nil
	}
	fmt.Fprintf(w, "❌ BOM graph has %d problem(s):\n", len(result.Errors))
	for _, msg := range result.Errors {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
	return nil
}

func indent(level int) string {
	if level <= 1 {
		return ""
	}
	return strings.Repeat("  ", level-1)
}
