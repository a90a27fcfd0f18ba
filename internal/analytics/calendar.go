package analytics

import (
	"time"

	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

// Calendar concentra a regra de corte de dia. Todo agrupamento diário passa por aqui,
// assim nenhum componente usa um fuso diferente de outro.
type Calendar struct {
	loc *time.Location
}

func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

func (c Calendar) Location() *time.Location {
	return c.loc
}

// StartOfDay retorna a meia-noite (no fuso do calendário) do dia em que o instante cai
func (c Calendar) StartOfDay(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
}

// DateOf trata t como data de calendário (ano/mês/dia informados pelo usuário), sem conversão de fuso
func (c Calendar) DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// DayKey formata o dia de um instante como YYYY-MM-DD
func (c Calendar) DayKey(t time.Time) string {
	return c.StartOfDay(t).Format(time.DateOnly)
}

// DaysBetween conta dias de calendário entre dois instantes (to - from)
func (c Calendar) DaysBetween(from, to time.Time) int {
	a := c.StartOfDay(from)
	b := c.StartOfDay(to)
	// Datas em UTC evitam distorções de horário de verão na divisão por 24h
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// Window resolve a janela de datas. Sem limites, usa os últimos defaultDays dias até hoje.
func (c Calendar) Window(filters domain.DashboardFilters, defaultDays int, now time.Time) (time.Time, time.Time) {
	if defaultDays <= 0 {
		defaultDays = 30
	}

	today := c.StartOfDay(now)

	switch {
	case filters.DateFrom != nil && filters.DateTo != nil:
		return c.DateOf(*filters.DateFrom), c.DateOf(*filters.DateTo)
	case filters.DateFrom != nil:
		return c.DateOf(*filters.DateFrom), today
	case filters.DateTo != nil:
		to := c.DateOf(*filters.DateTo)
		return to.AddDate(0, 0, -(defaultDays - 1)), to
	default:
		return today.AddDate(0, 0, -(defaultDays - 1)), today
	}
}

// Days lista os dias de from até to (inclusive). Janela invertida retorna lista vazia.
func (c Calendar) Days(from, to time.Time) []time.Time {
	days := make([]time.Time, 0)
	last := c.DateOf(to)
	for d := c.DateOf(from); !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
