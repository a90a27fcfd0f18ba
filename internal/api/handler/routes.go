package handler

import (
	"net/http"
	"time"

	"github.com/vfg2006/inventory-analytics-api/internal/api/handler/router"
	"github.com/vfg2006/inventory-analytics-api/internal/usecases/dashboarding"
	"github.com/vfg2006/inventory-analytics-api/pkg/middleware"
)

func Healthcheck(checks map[string]Pinger) []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(checks),
		},
	}
}

func Dashboard(service dashboarding.Dashboarder, hub StreamHub, adminRoleID int, allowedOrigins []string) []router.Route {
	branchAccess := []func(http.Handler) http.Handler{middleware.AllRoles(), middleware.BranchAccess(adminRoleID)}

	return []router.Route{
		{
			Path:        "/v1/branches/:branch_id/dashboard",
			Method:      http.MethodGet,
			Handler:     GetDashboard(service),
			Middlewares: branchAccess,
		},
		{
			Path:        "/v1/branches/:branch_id/dashboard/stream",
			Method:      http.MethodGet,
			Handler:     DashboardStream(hub, allowedOrigins),
			Middlewares: branchAccess,
		},
		{
			Path:        "/v1/branches/:branch_id/dashboard/cache",
			Method:      http.MethodDelete,
			Handler:     InvalidateDashboard(service),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOnly(), middleware.BranchAccess(adminRoleID)},
		},
	}
}

func ValueSnapshots(service ValueSnapshotHistory, adminRoleID int) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/branches/:branch_id/value-snapshots",
			Method:      http.MethodGet,
			Handler:     GetValueSnapshots(service, time.Now),
			Middlewares: []func(http.Handler) http.Handler{middleware.AllRoles(), middleware.BranchAccess(adminRoleID)},
		},
	}
}

func CronJobs(services CronJobServices) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/cron/:type/run",
			Method:      http.MethodPost,
			Handler:     RunCronJob(services),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOnly()},
		},
		{
			Path:        "/v1/cron/status",
			Method:      http.MethodGet,
			Handler:     GetCronStatus(services),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOnly()},
		},
	}
}
