package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// DashboardFilters delimita a janela de datas solicitada (ambas opcionais)
type DashboardFilters struct {
	DateFrom *time.Time
	DateTo   *time.Time
}

// DateWindow é a janela efetivamente usada no cálculo, em dias de calendário (YYYY-MM-DD)
type DateWindow struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type DailyActivityPoint struct {
	Date     string          `json:"date"`
	Incoming decimal.Decimal `json:"incoming"`
	Outgoing decimal.Decimal `json:"outgoing"`
}

type CategoryRollup struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Value    decimal.Decimal `json:"value"`
}

type ProductMovement struct {
	ProductName   string          `json:"product_name"`
	Incoming      decimal.Decimal `json:"incoming"`
	Outgoing      decimal.Decimal `json:"outgoing"`
	TotalMovement decimal.Decimal `json:"total_movement"`
}

// ValueTrendPoint é o valor de fechamento do estoque em um dia, reconstruído a partir do ledger.
// Estimated indica que algum movimento desfeito até este ponto não tinha preço histórico.
type ValueTrendPoint struct {
	Date       string          `json:"date"`
	TotalValue decimal.Decimal `json:"total_value"`
	Estimated  bool            `json:"estimated,omitempty"`
}

type LowStockEntry struct {
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	QuantityInStock   int             `json:"quantity_in_stock"`
	MinimumStockLevel int             `json:"minimum_stock_level"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
}

type TurnoverStat struct {
	ProductID             string          `json:"product_id"`
	ProductName           string          `json:"product_name"`
	TotalMovement         decimal.Decimal `json:"total_movement"`
	TurnoverRate          decimal.Decimal `json:"turnover_rate"`
	DaysSinceLastMovement int             `json:"days_since_last_movement"`
}

// DashboardMetrics é o objeto de valor entregue à camada de apresentação
type DashboardMetrics struct {
	TotalValue           decimal.Decimal      `json:"total_value"`
	TotalProducts        int                  `json:"total_products"`
	LowStockCount        int                  `json:"low_stock_count"`
	IncomingToday        decimal.Decimal      `json:"incoming_today"`
	OutgoingToday        decimal.Decimal      `json:"outgoing_today"`
	TotalTransactions    int                  `json:"total_transactions"`
	DailyActivity        []DailyActivityPoint `json:"daily_activity"`
	CategoryDistribution []CategoryRollup     `json:"category_distribution"`
	TopMovingProducts    []ProductMovement    `json:"top_moving_products"`
	StockValueTrend      []ValueTrendPoint    `json:"stock_value_trend"`
	LowStockProducts     []LowStockEntry      `json:"low_stock_products"`
	TurnoverRates        []TurnoverStat       `json:"turnover_rates"`

	// O ledger é limitado (padrão 1000 linhas). Quando o limite é atingido as séries
	// podem subcontar movimentos e a tendência de valor perde precisão antes do limite.
	LedgerCapReached     bool       `json:"ledger_cap_reached"`
	ExcludedTransactions int        `json:"excluded_transactions"`
	UnrecognizedTypes    []string   `json:"unrecognized_types,omitempty"`
	EstimatedTrendPoints int        `json:"estimated_trend_points"`
	Window               DateWindow `json:"window"`
	GeneratedAt          time.Time  `json:"generated_at"`
	Stale                bool       `json:"stale"`
}

// Clone devolve uma cópia sem fatias compartilhadas com o original
func (m DashboardMetrics) Clone() DashboardMetrics {
	m.DailyActivity = slices.Clone(m.DailyActivity)
	m.CategoryDistribution = slices.Clone(m.CategoryDistribution)
	m.TopMovingProducts = slices.Clone(m.TopMovingProducts)
	m.StockValueTrend = slices.Clone(m.StockValueTrend)
	m.LowStockProducts = slices.Clone(m.LowStockProducts)
	m.TurnoverRates = slices.Clone(m.TurnoverRates)
	m.UnrecognizedTypes = slices.Clone(m.UnrecognizedTypes)
	return m
}
