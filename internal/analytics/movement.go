package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

const turnoverRatePrecision = 4

// TopMovingProducts agrupa o ledger por nome de produto e devolve os limit mais movimentados.
// Empates mantêm a ordem de primeira aparição no ledger (sort estável).
func TopMovingProducts(ledger []domain.TransactionRecord, limit int) []domain.ProductMovement {
	index := make(map[string]int)
	movements := make([]domain.ProductMovement, 0)

	for _, record := range ledger {
		if !record.IsRecognized() {
			continue
		}

		i, exists := index[record.ProductName]
		if !exists {
			i = len(movements)
			index[record.ProductName] = i
			movements = append(movements, domain.ProductMovement{
				ProductName:   record.ProductName,
				Incoming:      decimal.Zero,
				Outgoing:      decimal.Zero,
				TotalMovement: decimal.Zero,
			})
		}

		m := &movements[i]
		if record.IsIncoming() {
			m.Incoming = m.Incoming.Add(record.Quantity)
		} else {
			m.Outgoing = m.Outgoing.Add(record.Quantity)
		}
		m.TotalMovement = m.Incoming.Add(m.Outgoing)
	}

	sort.SliceStable(movements, func(i, j int) bool {
		return movements[i].TotalMovement.GreaterThan(movements[j].TotalMovement)
	})

	if limit > 0 && len(movements) > limit {
		movements = movements[:limit]
	}

	return movements
}

type turnoverAccumulator struct {
	stat         domain.TurnoverStat
	lastMovement time.Time
}

// TurnoverRates calcula movimento total / dias desde o último movimento para cada produto
// com ao menos um movimento. Último movimento hoje (0 dias) resulta em taxa 0.
func (a *Aggregator) TurnoverRates(ledger []domain.TransactionRecord, now time.Time) []domain.TurnoverStat {
	index := make(map[string]int)
	accumulators := make([]*turnoverAccumulator, 0)

	for _, record := range ledger {
		if !record.IsRecognized() {
			continue
		}

		key := record.ProductID
		if key == "" {
			key = record.ProductName
		}

		i, exists := index[key]
		if !exists {
			i = len(accumulators)
			index[key] = i
			accumulators = append(accumulators, &turnoverAccumulator{
				stat: domain.TurnoverStat{
					ProductID:     record.ProductID,
					ProductName:   record.ProductName,
					TotalMovement: decimal.Zero,
				},
				lastMovement: record.CreatedAt,
			})
		}

		acc := accumulators[i]
		acc.stat.TotalMovement = acc.stat.TotalMovement.Add(record.Quantity)
		if record.CreatedAt.After(acc.lastMovement) {
			acc.lastMovement = record.CreatedAt
		}
	}

	stats := make([]domain.TurnoverStat, 0, len(accumulators))
	for _, acc := range accumulators {
		days := max(a.calendar.DaysBetween(acc.lastMovement, now), 0)

		acc.stat.DaysSinceLastMovement = days
		acc.stat.TurnoverRate = decimal.Zero
		if days > 0 {
			acc.stat.TurnoverRate = acc.stat.TotalMovement.DivRound(decimal.NewFromInt(int64(days)), turnoverRatePrecision)
		}

		stats = append(stats, acc.stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TurnoverRate.GreaterThan(stats[j].TurnoverRate)
	})

	return stats
}
