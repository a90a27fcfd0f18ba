package analytics

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

// DailyActivity semeia todos os dias de [from, to] com zero e depois soma as quantidades
// de cada movimento no seu dia. Dias sem movimento continuam na série.
func (a *Aggregator) DailyActivity(ledger []domain.TransactionRecord, from, to time.Time) []domain.DailyActivityPoint {
	days := a.calendar.Days(from, to)

	points := make([]domain.DailyActivityPoint, len(days))
	index := make(map[string]int, len(days))
	for i, day := range days {
		key := day.Format(time.DateOnly)
		points[i] = domain.DailyActivityPoint{Date: key, Incoming: decimal.Zero, Outgoing: decimal.Zero}
		index[key] = i
	}

	for _, record := range ledger {
		i, inWindow := index[a.calendar.DayKey(record.CreatedAt)]
		if !inWindow {
			continue
		}

		switch record.Type {
		case domain.TransactionTypeIncoming:
			points[i].Incoming = points[i].Incoming.Add(record.Quantity)
		case domain.TransactionTypeOutgoing:
			points[i].Outgoing = points[i].Outgoing.Add(record.Quantity)
		}
	}

	return points
}

// TodayActivity soma as quantidades de entrada e saída do dia corrente
func (a *Aggregator) TodayActivity(ledger []domain.TransactionRecord, now time.Time) (decimal.Decimal, decimal.Decimal) {
	today := a.calendar.DayKey(now)
	incoming, outgoing := decimal.Zero, decimal.Zero

	for _, record := range ledger {
		if a.calendar.DayKey(record.CreatedAt) != today {
			continue
		}

		switch record.Type {
		case domain.TransactionTypeIncoming:
			incoming = incoming.Add(record.Quantity)
		case domain.TransactionTypeOutgoing:
			outgoing = outgoing.Add(record.Quantity)
		}
	}

	return incoming, outgoing
}
