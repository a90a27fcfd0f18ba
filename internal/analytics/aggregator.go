// Package analytics calcula as métricas do dashboard de estoque a partir do catálogo atual
// e de uma janela limitada do ledger de movimentos. Tudo aqui é puro e determinístico:
// nada de I/O, relógio injetado e entradas somente leitura.
package analytics

import (
	"sort"
	"time"

	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

const (
	DefaultWindowDays = 30
	DefaultTopMovers  = 10
)

type Options struct {
	DefaultWindowDays int
	TopMovers         int
	Location          *time.Location
	Now               func() time.Time
}

type Aggregator struct {
	calendar   Calendar
	windowDays int
	topMovers  int
	now        func() time.Time
}

func NewAggregator(opts Options) *Aggregator {
	if opts.DefaultWindowDays <= 0 {
		opts.DefaultWindowDays = DefaultWindowDays
	}
	if opts.TopMovers <= 0 {
		opts.TopMovers = DefaultTopMovers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Aggregator{
		calendar:   NewCalendar(opts.Location),
		windowDays: opts.DefaultWindowDays,
		topMovers:  opts.TopMovers,
		now:        opts.Now,
	}
}

func (a *Aggregator) Calendar() Calendar {
	return a.calendar
}

// Now é o relógio usado nos cálculos
func (a *Aggregator) Now() time.Time {
	return a.now()
}

// ResolveWindow devolve a janela efetiva para os filtros, no formato exposto em DashboardMetrics
func (a *Aggregator) ResolveWindow(filters domain.DashboardFilters) domain.DateWindow {
	from, to := a.calendar.Window(filters, a.windowDays, a.now())
	return dateWindow(from, to)
}

// WindowExceeds indica se a janela resolvida para os filtros tem mais de maxDays dias
func (a *Aggregator) WindowExceeds(filters domain.DashboardFilters, maxDays int) bool {
	if maxDays <= 0 {
		return false
	}
	from, to := a.calendar.Window(filters, a.windowDays, a.now())
	return !to.Before(from.AddDate(0, 0, maxDays))
}

func dateWindow(from, to time.Time) domain.DateWindow {
	return domain.DateWindow{
		From: from.Format(time.DateOnly),
		To:   to.Format(time.DateOnly),
	}
}

// Input agrupa as saídas dos dois loaders
type Input struct {
	Products         []domain.ProductSnapshot
	Ledger           []domain.TransactionRecord
	Filters          domain.DashboardFilters
	LedgerCapReached bool
}

// Aggregate gera o DashboardMetrics. Entradas vazias produzem um resultado zerado e bem formado.
//
// O ledger recebido pode ir além do período pedido: a tendência de valor e os totais de hoje
// usam o ledger inteiro. Com filtro de data, contagem, ranking e giro consideram apenas os
// movimentos do período.
func (a *Aggregator) Aggregate(in Input) domain.DashboardMetrics {
	now := a.now()
	from, to := a.calendar.Window(in.Filters, a.windowDays, now)

	period := in.Ledger
	if in.Filters.DateFrom != nil || in.Filters.DateTo != nil {
		period = a.withinWindow(in.Ledger, from, to)
	}

	totalValue := TotalValue(in.Products)
	lowStock := LowStockProducts(in.Products)
	incomingToday, outgoingToday := a.TodayActivity(in.Ledger, now)
	trend, estimated := a.StockValueTrend(totalValue, in.Products, in.Ledger, now)
	excluded, unrecognized := excludedTransactions(period)

	return domain.DashboardMetrics{
		TotalValue:           totalValue,
		TotalProducts:        len(in.Products),
		LowStockCount:        len(lowStock),
		IncomingToday:        incomingToday,
		OutgoingToday:        outgoingToday,
		TotalTransactions:    len(period),
		DailyActivity:        a.DailyActivity(in.Ledger, from, to),
		CategoryDistribution: CategoryDistribution(in.Products),
		TopMovingProducts:    TopMovingProducts(period, a.topMovers),
		StockValueTrend:      trend,
		LowStockProducts:     lowStock,
		TurnoverRates:        a.TurnoverRates(period, now),
		LedgerCapReached:     in.LedgerCapReached,
		ExcludedTransactions: excluded,
		UnrecognizedTypes:    unrecognized,
		EstimatedTrendPoints: estimated,
		Window:               dateWindow(from, to),
		GeneratedAt:          now,
	}
}

// withinWindow devolve os movimentos cujo dia de calendário cai em [from, to], na ordem recebida
func (a *Aggregator) withinWindow(ledger []domain.TransactionRecord, from, to time.Time) []domain.TransactionRecord {
	records := make([]domain.TransactionRecord, 0, len(ledger))
	for _, record := range ledger {
		day := a.calendar.StartOfDay(record.CreatedAt)
		if day.Before(from) || day.After(to) {
			continue
		}
		records = append(records, record)
	}
	return records
}

// excludedTransactions conta os movimentos cujo tipo não é reconhecido e lista os literais encontrados
func excludedTransactions(ledger []domain.TransactionRecord) (int, []string) {
	count := 0
	seen := make(map[string]bool)

	for _, record := range ledger {
		if record.IsRecognized() {
			continue
		}
		count++
		seen[record.RawType] = true
	}

	if len(seen) == 0 {
		return count, nil
	}

	types := make([]string, 0, len(seen))
	for raw := range seen {
		types = append(types, raw)
	}
	sort.Strings(types)

	return count, types
}
