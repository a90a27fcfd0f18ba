package handler

import (
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/pkg/apiErrors"
	"github.com/vfg2006/inventory-analytics-api/pkg/log"
	"github.com/vfg2006/inventory-analytics-api/pkg/middleware"
	"github.com/vfg2006/inventory-analytics-api/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errInvalidDateFilter = errors.New("filtro de data inválido")

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.ForContext(r.Context()).WithError(err).Error("Erro ao enviar resposta")
	}
}

// scopeFromRequest monta o escopo com o tenant do token e a filial da rota
func scopeFromRequest(r *http.Request) (domain.Scope, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return domain.Scope{}, false
	}

	return domain.Scope{
		TenantID: claims.TenantID,
		BranchID: httprouter.ParamsFromContext(r.Context()).ByName("branch_id"),
	}, true
}

// parseDateFilters lê date_from e date_to (AAAA-MM-DD, ambos opcionais)
func parseDateFilters(r *http.Request) (domain.DashboardFilters, error) {
	query := r.URL.Query()

	from, err := utils.ParseDate(query.Get("date_from"))
	if err != nil {
		return domain.DashboardFilters{}, errors.Wrap(errInvalidDateFilter, err.Error())
	}
	to, err := utils.ParseDate(query.Get("date_to"))
	if err != nil {
		return domain.DashboardFilters{}, errors.Wrap(errInvalidDateFilter, err.Error())
	}

	return domain.DashboardFilters{DateFrom: from, DateTo: to}, nil
}

func writeUnauthenticated(w http.ResponseWriter) {
	apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
}

func dateOrDefault(value *time.Time, fallback time.Time) time.Time {
	if value == nil {
		return fallback
	}
	return *value
}
