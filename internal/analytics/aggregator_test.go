package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

func TestAggregator_Aggregate_EmptyInput(t *testing.T) {
	metrics := newTestAggregator().Aggregate(Input{})

	assert.True(t, metrics.TotalValue.IsZero())
	assert.Equal(t, 0, metrics.TotalProducts)
	assert.Equal(t, 0, metrics.LowStockCount)
	assert.True(t, metrics.IncomingToday.IsZero())
	assert.True(t, metrics.OutgoingToday.IsZero())
	assert.Equal(t, 0, metrics.TotalTransactions)
	assert.Len(t, metrics.DailyActivity, DefaultWindowDays)
	assert.Empty(t, metrics.CategoryDistribution)
	assert.Empty(t, metrics.TopMovingProducts)
	assert.Empty(t, metrics.LowStockProducts)
	assert.Empty(t, metrics.TurnoverRates)
	require.Len(t, metrics.StockValueTrend, 1)
	assert.Equal(t, "2024-01-10", metrics.StockValueTrend[0].Date)
	assert.Equal(t, domain.DateWindow{From: "2023-12-12", To: "2024-01-10"}, metrics.Window)
	assert.Equal(t, referenceNow, metrics.GeneratedAt)
}

func TestAggregator_Aggregate_SingleLowStockProduct(t *testing.T) {
	metrics := newTestAggregator().Aggregate(Input{
		Products: []domain.ProductSnapshot{product("p1", 5, 10, 10)},
	})

	assert.Equal(t, 1, metrics.LowStockCount)
	assert.True(t, metrics.TotalValue.Equal(dec(50)), "total value = %s", metrics.TotalValue)
	require.Len(t, metrics.LowStockProducts, 1)
	assert.Equal(t, "p1", metrics.LowStockProducts[0].ProductID)
}

func TestAggregator_DailyActivity_SynonymsFoldIntoSameDay(t *testing.T) {
	agg := newTestAggregator()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	ledger := []domain.TransactionRecord{
		tx("t1", "p1", "incoming", 3, 1, "2024-01-01"),
		tx("t2", "p1", "out", 1, 1, "2024-01-01"),
	}

	points := agg.DailyActivity(ledger, from, to)

	require.Len(t, points, 3)
	assert.Equal(t, "2024-01-01", points[0].Date)
	assert.True(t, points[0].Incoming.Equal(dec(3)))
	assert.True(t, points[0].Outgoing.Equal(dec(1)))

	// Dias sem movimento continuam na série, zerados
	for _, p := range points[1:] {
		assert.True(t, p.Incoming.IsZero())
		assert.True(t, p.Outgoing.IsZero())
	}
}

func TestAggregator_DailyActivity_ConservesQuantities(t *testing.T) {
	agg := newTestAggregator()
	from := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	ledger := []domain.TransactionRecord{
		tx("t1", "p1", "in", 4, 1, "2024-01-10T09:00:00Z"),
		tx("t2", "p2", "sales_order", 2, 1, "2024-01-09T18:30:00Z"),
		tx("t3", "p1", "outgoing", 1.5, 1, "2024-01-07T00:00:00Z"),
		tx("t4", "p3", "purchase_order", 10, 1, "2024-01-05T23:59:59Z"),
		tx("t5", "p3", "adjustment", 99, 1, "2024-01-06T10:00:00Z"),
		tx("t6", "p3", "in", 50, 1, "2024-01-01T10:00:00Z"),
	}

	points := agg.DailyActivity(ledger, from, to)

	sum := dec(0)
	for _, p := range points {
		sum = sum.Add(p.Incoming).Add(p.Outgoing)
	}

	// 4 + 2 + 1.5 + 10: o ajuste e o movimento fora da janela não entram
	assert.True(t, sum.Equal(dec(17.5)), "soma = %s", sum)
}

func TestAggregator_DailyActivity_RespectsCalendarTimezone(t *testing.T) {
	saoPaulo, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	agg := NewAggregator(Options{Location: saoPaulo, Now: func() time.Time { return referenceNow }})
	day := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)

	// 01:00 UTC do dia 10 ainda é dia 9 em São Paulo (UTC-3)
	ledger := []domain.TransactionRecord{tx("t1", "p1", "in", 7, 1, "2024-01-10T01:00:00Z")}

	points := agg.DailyActivity(ledger, day, day)

	require.Len(t, points, 1)
	assert.Equal(t, "2024-01-09", points[0].Date)
	assert.True(t, points[0].Incoming.Equal(dec(7)))
}

func TestAggregator_Aggregate_TodayTotals(t *testing.T) {
	ledger := []domain.TransactionRecord{
		tx("t1", "p1", "in", 4, 1, "2024-01-10T09:00:00Z"),
		tx("t2", "p1", "out", 3, 1, "2024-01-10T08:00:00Z"),
		tx("t3", "p1", "in", 100, 1, "2024-01-09T08:00:00Z"),
	}

	metrics := newTestAggregator().Aggregate(Input{Ledger: ledger})

	assert.True(t, metrics.IncomingToday.Equal(dec(4)))
	assert.True(t, metrics.OutgoingToday.Equal(dec(3)))
	assert.Equal(t, 3, metrics.TotalTransactions)
}

func TestCategoryDistribution(t *testing.T) {
	tests := []struct {
		name     string
		products []domain.ProductSnapshot
		expected []domain.CategoryRollup
	}{
		{
			name: "Dois produtos na mesma categoria somam contagem e valor",
			products: []domain.ProductSnapshot{
				{ID: "a", QuantityInStock: 1, UnitPrice: dec(10), Category: stringPtr("A")},
				{ID: "b", QuantityInStock: 2, UnitPrice: dec(10), Category: stringPtr("A")},
			},
			expected: []domain.CategoryRollup{{Category: "A", Count: 2, Value: dec(30)}},
		},
		{
			name: "Categoria nula ou vazia vira Uncategorized",
			products: []domain.ProductSnapshot{
				{ID: "a", QuantityInStock: 1, UnitPrice: dec(5)},
				{ID: "b", QuantityInStock: 1, UnitPrice: dec(7), Category: stringPtr("")},
				{ID: "c", QuantityInStock: 1, UnitPrice: dec(1), Category: stringPtr("B")},
			},
			expected: []domain.CategoryRollup{
				{Category: domain.UncategorizedLabel, Count: 2, Value: dec(12)},
				{Category: "B", Count: 1, Value: dec(1)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategoryDistribution(tt.products)

			require.Len(t, result, len(tt.expected))
			for i := range tt.expected {
				assert.Equal(t, tt.expected[i].Category, result[i].Category)
				assert.Equal(t, tt.expected[i].Count, result[i].Count)
				assert.True(t, tt.expected[i].Value.Equal(result[i].Value), "valor %s != %s", result[i].Value, tt.expected[i].Value)
			}
		})
	}
}

func TestAggregator_Aggregate_CategoryTotalsMatchCatalog(t *testing.T) {
	products := []domain.ProductSnapshot{
		{ID: "a", QuantityInStock: 3, UnitPrice: dec(1.1), Category: stringPtr("Bebidas")},
		{ID: "b", QuantityInStock: 7, UnitPrice: dec(2.35)},
		{ID: "c", QuantityInStock: 11, UnitPrice: dec(0.07), Category: stringPtr("Bebidas")},
		{ID: "d", QuantityInStock: 0, UnitPrice: dec(99.99), Category: stringPtr("Limpeza")},
	}

	metrics := newTestAggregator().Aggregate(Input{Products: products})

	count := 0
	value := dec(0)
	for _, rollup := range metrics.CategoryDistribution {
		count += rollup.Count
		value = value.Add(rollup.Value)
	}

	assert.Equal(t, metrics.TotalProducts, count)
	assert.True(t, metrics.TotalValue.Equal(value))
}

func TestLowStockProducts_ParentWithVariantsIsSuppressed(t *testing.T) {
	parent := product("parent", 0, 10, 5)
	variantLow := product("v1", 1, 10, 5)
	variantLow.IsVariant = true
	variantLow.ParentProductID = stringPtr("parent")
	variantOk := product("v2", 50, 10, 5)
	variantOk.IsVariant = true
	variantOk.ParentProductID = stringPtr("parent")

	standalone := product("solo", 2, 3, 2)
	noMinimum := product("free", 0, 3, 0)

	entries := LowStockProducts([]domain.ProductSnapshot{parent, variantLow, variantOk, standalone, noMinimum})

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}

	assert.Equal(t, []string{"v1", "solo"}, ids)
	assert.NotContains(t, ids, "parent")
}

func TestTopMovingProducts_LimitAndStableTies(t *testing.T) {
	ledger := make([]domain.TransactionRecord, 0)
	// 12 produtos (a..l) com movimento 1, exceto f e h com 5
	for i := 0; i < 12; i++ {
		id := string(rune('a' + i))
		qty := 1.0
		if i == 5 || i == 7 {
			qty = 5
		}
		ledger = append(ledger, tx("t"+id, id, "in", qty, 1, "2024-01-09"))
	}

	result := TopMovingProducts(ledger, DefaultTopMovers)

	require.Len(t, result, DefaultTopMovers)
	assert.Equal(t, "Produto f", result[0].ProductName)
	assert.Equal(t, "Produto h", result[1].ProductName)

	// Empatados mantêm a ordem de entrada
	assert.Equal(t, "Produto a", result[2].ProductName)
	assert.Equal(t, "Produto b", result[3].ProductName)

	for i := 1; i < len(result); i++ {
		assert.False(t, result[i].TotalMovement.GreaterThan(result[i-1].TotalMovement))
	}
}

func TestTopMovingProducts_SumsBothDirections(t *testing.T) {
	ledger := []domain.TransactionRecord{
		tx("t1", "p1", "in", 10, 1, "2024-01-09"),
		tx("t2", "p1", "out", 4, 1, "2024-01-09"),
		tx("t3", "p2", "out", 12, 1, "2024-01-09"),
		tx("t4", "p3", "transfer", 50, 1, "2024-01-09"),
	}

	result := TopMovingProducts(ledger, 10)

	require.Len(t, result, 2)
	assert.Equal(t, "Produto p1", result[0].ProductName)
	assert.True(t, result[0].Incoming.Equal(dec(10)))
	assert.True(t, result[0].Outgoing.Equal(dec(4)))
	assert.True(t, result[0].TotalMovement.Equal(dec(14)))
	assert.Equal(t, "Produto p2", result[1].ProductName)
}

func TestAggregator_TurnoverRates(t *testing.T) {
	agg := newTestAggregator()

	ledger := []domain.TransactionRecord{
		tx("t1", "today", "in", 8, 1, "2024-01-10T08:00:00Z"),
		tx("t2", "old", "out", 6, 1, "2024-01-07T08:00:00Z"),
		tx("t3", "old", "in", 4, 1, "2024-01-05T08:00:00Z"),
		tx("t4", "older", "in", 40, 1, "2024-01-01T08:00:00Z"),
	}

	stats := agg.TurnoverRates(ledger, referenceNow)

	require.Len(t, stats, 3)

	// older: 40 / 9 dias
	assert.Equal(t, "older", stats[0].ProductID)
	assert.Equal(t, 9, stats[0].DaysSinceLastMovement)
	assert.True(t, stats[0].TurnoverRate.Equal(dec(4.4444)), "taxa = %s", stats[0].TurnoverRate)

	// old: 10 / 3 dias
	assert.Equal(t, "old", stats[1].ProductID)
	assert.Equal(t, 3, stats[1].DaysSinceLastMovement)
	assert.True(t, stats[1].TotalMovement.Equal(dec(10)))
	assert.True(t, stats[1].TurnoverRate.Equal(dec(3.3333)))

	// Movimento hoje: zero dias, taxa 0 em vez de divisão por zero
	assert.Equal(t, "today", stats[2].ProductID)
	assert.Equal(t, 0, stats[2].DaysSinceLastMovement)
	assert.True(t, stats[2].TurnoverRate.IsZero())
}

func TestAggregator_Aggregate_ReportsExcludedTypes(t *testing.T) {
	ledger := []domain.TransactionRecord{
		tx("t1", "p1", "in", 1, 1, "2024-01-09"),
		tx("t2", "p1", "transfer", 1, 1, "2024-01-09"),
		tx("t3", "p1", "adjustment", 1, 1, "2024-01-09"),
		tx("t4", "p1", "adjustment", 1, 1, "2024-01-08"),
	}

	metrics := newTestAggregator().Aggregate(Input{Ledger: ledger, LedgerCapReached: true})

	assert.Equal(t, 3, metrics.ExcludedTransactions)
	assert.Equal(t, []string{"adjustment", "transfer"}, metrics.UnrecognizedTypes)
	assert.True(t, metrics.LedgerCapReached)
}

func TestAggregator_Aggregate_PastDateToKeepsLaterMovementsInTrend(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	// O ledger chega sem corte em date_to; o movimento de 08/01 fica fora do período
	ledger := []domain.TransactionRecord{
		tx("t2", "p1", "in", 5, 10, "2024-01-08T10:00:00Z"),
		tx("t1", "p1", "in", 5, 10, "2024-01-03T10:00:00Z"),
	}
	products := []domain.ProductSnapshot{product("p1", 1, 10, 0)}

	metrics := newTestAggregator().Aggregate(Input{
		Products: products,
		Ledger:   ledger,
		Filters:  domain.DashboardFilters{DateFrom: &from, DateTo: &to},
	})

	byDate := make(map[string]domain.ValueTrendPoint)
	for _, p := range metrics.StockValueTrend {
		byDate[p.Date] = p
	}
	assert.True(t, byDate["2024-01-08"].TotalValue.Equal(dec(10)), "08/01 = %s", byDate["2024-01-08"].TotalValue)
	assert.True(t, byDate["2024-01-03"].TotalValue.Equal(dec(-40)), "03/01 = %s", byDate["2024-01-03"].TotalValue)
	assert.True(t, byDate["2024-01-02"].TotalValue.Equal(dec(-90)), "02/01 = %s", byDate["2024-01-02"].TotalValue)
	assert.Equal(t, 0, metrics.EstimatedTrendPoints)

	// Contagem, ranking e giro ficam restritos ao período
	assert.Equal(t, 1, metrics.TotalTransactions)
	require.Len(t, metrics.TopMovingProducts, 1)
	assert.True(t, metrics.TopMovingProducts[0].TotalMovement.Equal(dec(5)))
	require.Len(t, metrics.TurnoverRates, 1)
	assert.Equal(t, 7, metrics.TurnoverRates[0].DaysSinceLastMovement)

	require.Len(t, metrics.DailyActivity, 5)
	assert.True(t, metrics.DailyActivity[2].Incoming.Equal(dec(5)))
	assert.Equal(t, domain.DateWindow{From: "2024-01-01", To: "2024-01-05"}, metrics.Window)
}

func TestAggregator_WindowExceeds(t *testing.T) {
	agg := newTestAggregator()
	ancient := time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	from := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)

	// Janela padrão: 30 dias até hoje
	assert.False(t, agg.WindowExceeds(domain.DashboardFilters{}, 30))
	assert.True(t, agg.WindowExceeds(domain.DashboardFilters{}, 29))

	// 10/01/2023 a 09/01/2024 são 365 dias
	assert.False(t, agg.WindowExceeds(domain.DashboardFilters{DateFrom: &from, DateTo: &to}, 365))
	assert.True(t, agg.WindowExceeds(domain.DashboardFilters{DateFrom: &from, DateTo: &to}, 364))

	assert.True(t, agg.WindowExceeds(domain.DashboardFilters{DateFrom: &ancient}, 366))
	assert.False(t, agg.WindowExceeds(domain.DashboardFilters{DateFrom: &ancient}, 0))
}
