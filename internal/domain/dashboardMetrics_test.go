package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDashboardMetrics_Clone(t *testing.T) {
	original := DashboardMetrics{
		TotalProducts:        2,
		LowStockProducts:     []LowStockEntry{{ProductID: "p1", QuantityInStock: 1}},
		StockValueTrend:      []ValueTrendPoint{{Date: "2024-01-10", TotalValue: decimal.NewFromInt(10)}},
		CategoryDistribution: []CategoryRollup{},
	}

	clone := original.Clone()
	clone.LowStockProducts[0].QuantityInStock = 50
	clone.StockValueTrend[0].Estimated = true

	assert.Equal(t, 1, original.LowStockProducts[0].QuantityInStock)
	assert.False(t, original.StockValueTrend[0].Estimated)
	assert.Equal(t, 2, clone.TotalProducts)
	assert.NotNil(t, clone.CategoryDistribution, "fatia vazia continua serializando como []")
	assert.Nil(t, clone.TurnoverRates)
}
