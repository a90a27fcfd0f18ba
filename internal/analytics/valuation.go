package analytics

import (
	"github.com/shopspring/decimal"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

// TotalValue soma quantidade * preço unitário de todo o catálogo
func TotalValue(products []domain.ProductSnapshot) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.StockValue())
	}
	return total
}

// LowStockProducts aplica o predicado de estoque baixo, ignorando produtos pai que têm
// ao menos uma variante: o estoque da família é dado pelas variantes.
func LowStockProducts(products []domain.ProductSnapshot) []domain.LowStockEntry {
	parents := make(map[string]bool)
	for _, p := range products {
		if p.ParentProductID != nil && *p.ParentProductID != "" {
			parents[*p.ParentProductID] = true
		}
	}

	entries := make([]domain.LowStockEntry, 0)
	for _, p := range products {
		if parents[p.ID] || !p.IsLowStock() {
			continue
		}

		entries = append(entries, domain.LowStockEntry{
			ProductID:         p.ID,
			ProductName:       p.Name,
			QuantityInStock:   p.QuantityInStock,
			MinimumStockLevel: p.MinimumStockLevel,
			UnitPrice:         p.UnitPrice,
		})
	}

	return entries
}

// CategoryDistribution agrupa o catálogo por categoria na ordem em que cada uma aparece
func CategoryDistribution(products []domain.ProductSnapshot) []domain.CategoryRollup {
	index := make(map[string]int)
	rollups := make([]domain.CategoryRollup, 0)

	for _, p := range products {
		label := p.CategoryLabel()

		i, exists := index[label]
		if !exists {
			i = len(rollups)
			index[label] = i
			rollups = append(rollups, domain.CategoryRollup{Category: label, Value: decimal.Zero})
		}

		rollups[i].Count++
		rollups[i].Value = rollups[i].Value.Add(p.StockValue())
	}

	return rollups
}
