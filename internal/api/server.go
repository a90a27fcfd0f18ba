package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/inventory-analytics-api/internal/api/handler"
	"github.com/vfg2006/inventory-analytics-api/internal/api/handler/router"
	"github.com/vfg2006/inventory-analytics-api/internal/config"
	"github.com/vfg2006/inventory-analytics-api/internal/usecases/authenticating"
	"github.com/vfg2006/inventory-analytics-api/internal/usecases/dashboarding"
	"github.com/vfg2006/inventory-analytics-api/pkg/middleware"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	httpServer *http.Server
	hub        *dashboarding.Hub
}

// Dependencies agrupa os serviços expostos pela API
type Dependencies struct {
	Dashboard     dashboarding.Dashboarder
	Hub           *dashboarding.Hub
	ValueHistory  handler.ValueSnapshotHistory
	CronServices  handler.CronJobServices
	Authenticator authenticating.Authenticator
	HealthChecks  map[string]handler.Pinger
}

func New(config *config.Config, deps Dependencies) (*Server, error) {
	if deps.Dashboard == nil || deps.Hub == nil || deps.Authenticator == nil {
		return nil, fmt.Errorf("dependências obrigatórias da API não informadas")
	}

	adminRoleID := deps.Authenticator.AdminRoleID()

	routes := []router.ConfigRouter{
		router.WithRoutes(handler.Healthcheck(deps.HealthChecks)...),
		router.WithRoutes(handler.Dashboard(deps.Dashboard, deps.Hub, adminRoleID, config.Server.AllowedOrigins)...),
		router.WithRoutes(handler.CronJobs(deps.CronServices)...),
	}
	if deps.ValueHistory != nil {
		routes = append(routes, router.WithRoutes(handler.ValueSnapshots(deps.ValueHistory, adminRoleID)...))
	}
	rt := router.New(routes...)

	middlewares := []alice.Constructor{
		middleware.LoggingMiddleware(),
		middleware.LogPanicMiddleware(),
		middleware.Cors(config.Server.AllowedOrigins),
		middleware.AuthMiddleware(deps.Authenticator),
	}

	srv := &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
			Handler:           alice.New(middlewares...).Then(rt),
			ReadHeaderTimeout: 2 * time.Second,
		},
		hub: deps.Hub,
	}

	return srv, nil
}

func (s Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s Server) Run(ctx context.Context) error {
	go func() {
		logrus.WithFields(logrus.Fields{
			"address": s.httpServer.Addr,
		}).Info("Servidor iniciando")

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("Erro durante a execução do servidor")
		}
	}()

	// Canal para aguardar sinais de término
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		logrus.Info("Sinal de interrupção recebido")
	case <-ctx.Done():
		logrus.Info("Contexto de aplicação cancelado")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logrus.WithFields(logrus.Fields{
		"timeout": shutdownTimeout.String(),
	}).Info("Iniciando desligamento gracioso do servidor")

	if err := s.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Erro durante o desligamento do servidor")
		return err
	}

	logrus.Info("Servidor desligado com sucesso")
	return nil
}

func (s Server) Shutdown(ctx context.Context) error {
	logrus.Info("Encerrando instâncias de métricas abertas")

	// Websockets são conexões sequestradas: Shutdown não espera por elas, então as
	// instâncias são fechadas antes, o que encerra os streams
	s.hub.Close()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	logrus.Info("Servidor HTTP desligado com sucesso")
	return nil
}
