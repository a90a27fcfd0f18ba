package handler

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/vfg2006/inventory-analytics-api/pkg/apiErrors"
	"github.com/vfg2006/inventory-analytics-api/pkg/log"
)

// CronJobType define o tipo de cron job que será executada
const (
	CronJobTypeDashboardRefresh = "dashboard-refresh"
	CronJobTypeValueSnapshot    = "value-snapshot"
	CronJobTypeAll              = "all"
)

type DashboardRefresher interface {
	TriggerManualSync()
	GetStatus() map[string]any
}

type ValueSnapshotter interface {
	TriggerManualSync(ctx context.Context)
	GetStatus() map[string]any
}

// CronJobServices contém os serviços de cron necessários para executar manualmente
type CronJobServices struct {
	DashboardRefreshService DashboardRefresher
	ValueSnapshotService    ValueSnapshotter
}

// RunCronJob executa manualmente uma cron job específica (rota restrita a administradores)
func RunCronJob(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())
		logger.Info("INIT - RunCronJob")

		cronType := httprouter.ParamsFromContext(r.Context()).ByName("type")
		if cronType == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Tipo de cron job não especificado", nil)
			return
		}

		switch cronType {
		case CronJobTypeDashboardRefresh:
			if services.DashboardRefreshService == nil {
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Serviço de atualização do dashboard não disponível", nil)
				return
			}
			services.DashboardRefreshService.TriggerManualSync()

		case CronJobTypeValueSnapshot:
			if services.ValueSnapshotService == nil {
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Serviço de fechamento de estoque não disponível", nil)
				return
			}
			services.ValueSnapshotService.TriggerManualSync(r.Context())

		case CronJobTypeAll:
			if services.DashboardRefreshService != nil {
				services.DashboardRefreshService.TriggerManualSync()
			}
			if services.ValueSnapshotService != nil {
				services.ValueSnapshotService.TriggerManualSync(r.Context())
			}

		default:
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Tipo de cron job inválido. Valores aceitos: dashboard-refresh, value-snapshot, all", nil)
			return
		}

		writeJSON(w, r, http.StatusAccepted, map[string]any{
			"message": "Cron job iniciada com sucesso",
			"type":    cronType,
		})
	}
}

// GetCronStatus retorna o status das cron jobs
func GetCronStatus(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.ForContext(r.Context()).Info("INIT - GetCronStatus")

		status := map[string]any{}
		if services.DashboardRefreshService != nil {
			status[CronJobTypeDashboardRefresh] = services.DashboardRefreshService.GetStatus()
		}
		if services.ValueSnapshotService != nil {
			status[CronJobTypeValueSnapshot] = services.ValueSnapshotService.GetStatus()
		}

		writeJSON(w, r, http.StatusOK, status)
	}
}
