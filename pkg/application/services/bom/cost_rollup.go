package bom

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/bomcost/pkg/domain/entities"
)

// ApplyCosts prices every node and books its scrap credit.
// Missing prices and credits count as zero.
func ApplyCosts(nodes []*entities.TreeNode, prices map[entities.ItemID]decimal.Decimal, scrap *ScrapCredit) {
	for _, node := range nodes {
		node.ApplyPrice(prices[node.ChildID])
		if scrap != nil {
			node.ApplyScrap(scrap.UnitCredit(node.ChildID).Mul(node.QuantityRequired))
		}
	}
}

// RollUp totals the costs of an expansion whose nodes are already priced
func RollUp(nodes []*entities.TreeNode) entities.CostSummary {
	summary := entities.CostSummary{
		TotalMaterialCost: decimal.Zero,
		TotalLaborCost:    decimal.Zero,
		TotalScrapRevenue: decimal.Zero,
		NodeCount:         len(nodes),
	}

	for _, node := range nodes {
		summary.TotalMaterialCost = summary.TotalMaterialCost.Add(node.MaterialCost)
		summary.TotalLaborCost = summary.TotalLaborCost.Add(node.LaborCost)
		summary.TotalScrapRevenue = summary.TotalScrapRevenue.Add(node.ScrapRevenue)
		if node.ChildCategory.IsPurchased() {
			summary.PurchasedCount++
		} else {
			summary.ProducedCount++
		}
		summary.MaxLevel = max(summary.MaxLevel, node.Level)
	}

	base := summary.TotalMaterialCost.Add(summary.TotalLaborCost)
	summary.TotalOverheadCost = base.Mul(entities.OverheadRate)
	summary.TotalNetCost = base.Add(summary.TotalOverheadCost).Sub(summary.TotalScrapRevenue)
	return summary
}
