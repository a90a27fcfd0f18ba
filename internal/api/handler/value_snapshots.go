package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/internal/usecases/dashboarding"
	"github.com/vfg2006/inventory-analytics-api/pkg/apiErrors"
	"github.com/vfg2006/inventory-analytics-api/pkg/log"
	"github.com/vfg2006/inventory-analytics-api/pkg/utils"
)

const defaultHistoryDays = 30

// ValueSnapshotHistory lê os fechamentos diários gravados
type ValueSnapshotHistory interface {
	History(ctx context.Context, scope domain.Scope, from, to time.Time) ([]*domain.BranchValueSnapshot, error)
}

// GetValueSnapshots retorna os fechamentos diários do valor do estoque da filial.
// Sem date_from, devolve os últimos `days` dias (padrão 30).
func GetValueSnapshots(service ValueSnapshotHistory, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := scopeFromRequest(r)
		if !ok {
			writeUnauthenticated(w)
			return
		}

		filters, err := parseDateFilters(r)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		days := utils.ParsePositiveInt(r.URL.Query().Get("days"), defaultHistoryDays)
		to := dateOrDefault(filters.DateTo, now())
		from := dateOrDefault(filters.DateFrom, to.AddDate(0, 0, -(days-1)))

		snapshots, err := service.History(r.Context(), scope, from, to)
		if err != nil {
			if errors.Is(err, dashboarding.ErrInvalidDateRange) || errors.Is(err, domain.ErrScopeRequired) {
				apiErrors.WriteError(w, dashboarding.ErrorCode(err), err.Error(), nil)
				return
			}
			log.ForScope(r.Context(), scope).WithError(err).Error("Erro ao buscar fechamentos de estoque")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao buscar fechamentos de estoque", nil)
			return
		}

		if snapshots == nil {
			snapshots = []*domain.BranchValueSnapshot{}
		}

		writeJSON(w, r, http.StatusOK, map[string]any{
			"from":      from.Format(time.DateOnly),
			"to":        to.Format(time.DateOnly),
			"snapshots": snapshots,
		})
	}
}
