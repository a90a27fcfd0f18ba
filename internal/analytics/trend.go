package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

// StockValueTrend reconstrói o valor de fechamento diário a partir do valor atual, andando no
// ledger do mais novo para o mais antigo e desfazendo cada movimento:
//
//	entrada desfeita: valor -= quantidade * preço do movimento
//	saída desfeita:   valor += quantidade * preço do movimento
//
// Para cada dia D com movimentos é gravado o fechamento de D (antes de desfazer D). Ao final
// é gravado o fechamento do dia anterior ao movimento mais antigo, que é o ponto de partida
// para refazer todo o ledger para frente. Hoje sempre aparece com o valor atual.
//
// Movimentos sem preço histórico usam o preço atual do catálogo (ou zero se o produto não
// existe mais); a partir daí todos os pontos anteriores são marcados como estimados.
// Movimentos além do limite do ledger não estão aqui, então pontos antigos podem divergir
// do histórico real.
func (a *Aggregator) StockValueTrend(
	totalValue decimal.Decimal,
	products []domain.ProductSnapshot,
	ledger []domain.TransactionRecord,
	now time.Time,
) ([]domain.ValueTrendPoint, int) {
	today := a.calendar.StartOfDay(now)
	catalog := catalogPrices(products)

	points := map[string]domain.ValueTrendPoint{
		today.Format(time.DateOnly): {Date: today.Format(time.DateOnly), TotalValue: totalValue},
	}

	ordered := newestFirst(ledger)

	running := totalValue
	estimated := false
	var earliest time.Time

	for i := 0; i < len(ordered); {
		day := a.clampToToday(ordered[i].CreatedAt, today)
		key := day.Format(time.DateOnly)

		points[key] = domain.ValueTrendPoint{Date: key, TotalValue: running, Estimated: estimated}

		// Desfaz todos os movimentos do mesmo dia
		for ; i < len(ordered) && a.clampToToday(ordered[i].CreatedAt, today).Equal(day); i++ {
			effect, priceEstimated := TransactionValueEffect(ordered[i], catalog)
			running = running.Sub(effect)
			estimated = estimated || priceEstimated
		}

		earliest = day
	}

	if !earliest.IsZero() {
		opening := earliest.AddDate(0, 0, -1).Format(time.DateOnly)
		points[opening] = domain.ValueTrendPoint{Date: opening, TotalValue: running, Estimated: estimated}
	}

	trend := make([]domain.ValueTrendPoint, 0, len(points))
	estimatedCount := 0
	for _, point := range points {
		trend = append(trend, point)
		if point.Estimated {
			estimatedCount++
		}
	}

	sort.Slice(trend, func(i, j int) bool {
		return trend[i].Date < trend[j].Date
	})

	return trend, estimatedCount
}

// TransactionValueEffect é quanto o movimento alterou o valor total do estoque quando aconteceu.
// O segundo retorno indica que o preço histórico estava ausente e foi estimado.
func TransactionValueEffect(record domain.TransactionRecord, catalog map[string]decimal.Decimal) (decimal.Decimal, bool) {
	if !record.IsRecognized() {
		return decimal.Zero, false
	}

	price := record.UnitPrice
	estimated := false
	if !record.HasUnitPrice {
		price = catalog[record.ProductID]
		estimated = true
	}

	value := record.Quantity.Mul(price)
	if record.IsOutgoing() {
		return value.Neg(), estimated
	}
	return value, estimated
}

func catalogPrices(products []domain.ProductSnapshot) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.UnitPrice
	}
	return prices
}

// newestFirst devolve uma cópia ordenada por created_at decrescente, preservando a ordem
// recebida para timestamps iguais
func newestFirst(ledger []domain.TransactionRecord) []domain.TransactionRecord {
	ordered := make([]domain.TransactionRecord, len(ledger))
	copy(ordered, ledger)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})

	return ordered
}

// clampToToday trata movimentos com data futura (relógio adiantado) como de hoje
func (a *Aggregator) clampToToday(t time.Time, today time.Time) time.Time {
	day := a.calendar.StartOfDay(t)
	if day.After(today) {
		return today
	}
	return day
}
