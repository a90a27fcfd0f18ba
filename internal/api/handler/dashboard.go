package handler

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/vfg2006/inventory-analytics-api/internal/usecases/dashboarding"
	"github.com/vfg2006/inventory-analytics-api/pkg/apiErrors"
	"github.com/vfg2006/inventory-analytics-api/pkg/log"
)

// GetDashboard retorna as métricas de estoque da filial
func GetDashboard(service dashboarding.Dashboarder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := scopeFromRequest(r)
		if !ok {
			writeUnauthenticated(w)
			return
		}
		logger := log.ForScope(r.Context(), scope)
		logger.Debug("INIT - GetDashboard")

		filters, err := parseDateFilters(r)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		metrics, err := service.GetDashboard(r.Context(), scope, filters)
		if err != nil {
			writeDashboardError(w, r, err)
			return
		}

		if metrics.Stale {
			w.Header().Set("Warning", `110 - "metricas desatualizadas"`)
		}
		writeJSON(w, r, http.StatusOK, metrics)
	}
}

// InvalidateDashboard descarta as métricas em cache da filial
func InvalidateDashboard(service dashboarding.Dashboarder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := scopeFromRequest(r)
		if !ok {
			writeUnauthenticated(w)
			return
		}

		if err := service.Invalidate(r.Context(), scope); err != nil {
			log.ForScope(r.Context(), scope).WithError(err).Error("Erro ao invalidar métricas")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao invalidar métricas", nil)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeDashboardError(w http.ResponseWriter, r *http.Request, err error) {
	code := dashboarding.ErrorCode(err)
	message := "Erro ao calcular métricas"

	var dashErr *dashboarding.DashboardError
	if errors.As(err, &dashErr) {
		message = dashErr.Error()
	}

	if apiErrors.StatusFor(code) >= http.StatusInternalServerError {
		log.ForContext(r.Context()).WithError(err).Error("Erro ao obter métricas do dashboard")
		if errors.Is(err, dashboarding.ErrLoaderFailure) {
			message = "Não foi possível carregar catálogo ou movimentos"
		}
	}

	apiErrors.WriteError(w, code, message, nil)
}
