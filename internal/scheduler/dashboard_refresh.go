// Package scheduler contém os serviços agendados: a varredura que força o recálculo das
// métricas vivas e o fechamento diário do valor do estoque.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/inventory-analytics-api/internal/config"
)

// StaleMarker é implementado pelo hub de instâncias de métricas
type StaleMarker interface {
	MarkAllStale() int
}

// IdlePruner é opcional: quando o marker também encerra inscrições ociosas, a varredura
// aproveita para fazê-lo
type IdlePruner interface {
	PruneIdle() int
}

type DashboardRefreshConfig struct {
	CronSchedule string
	SyncEnabled  bool
}

// DashboardRefreshService marca periodicamente todas as métricas vivas como desatualizadas.
// Cobre avisos de alteração perdidos (queda do listener, driver "none").
type DashboardRefreshService struct {
	scheduler           *gocron.Scheduler
	marker              StaleMarker
	config              DashboardRefreshConfig
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastMarked          int
	lastPruned          int
}

func NewDashboardRefreshService(marker StaleMarker, cfg *config.Config, loc *time.Location) *DashboardRefreshService {
	refreshConfig := DashboardRefreshConfig{
		CronSchedule: cfg.DashboardRefresh.CronSchedule,
		SyncEnabled:  cfg.DashboardRefresh.Enabled,
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule": refreshConfig.CronSchedule,
		"sync_enabled":  refreshConfig.SyncEnabled,
	}).Info("Configuração do agendador de atualização do dashboard carregada")

	return &DashboardRefreshService{
		scheduler: gocron.NewScheduler(loc),
		marker:    marker,
		config:    refreshConfig,
	}
}

func (s *DashboardRefreshService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Atualização periódica do dashboard desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de atualização do dashboard")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.RefreshAll()
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar atualização do dashboard: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de atualização do dashboard")
		s.scheduler.Stop()
	}()

	return nil
}

// RefreshAll devolve quantas instâncias foram marcadas
func (s *DashboardRefreshService) RefreshAll() int {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Atualização do dashboard já em andamento, ignorando")
		return 0
	}
	s.syncRunning = true
	s.lastSyncStartedAt = time.Now()
	s.syncMutex.Unlock()

	marked := s.marker.MarkAllStale()

	pruned := 0
	if pruner, ok := s.marker.(IdlePruner); ok {
		pruned = pruner.PruneIdle()
	}

	s.syncMutex.Lock()
	s.syncRunning = false
	s.lastMarked = marked
	s.lastPruned = pruned
	s.lastSyncCompletedAt = time.Now()
	s.syncMutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"instances":     marked,
		"pruned_scopes": pruned,
	}).Info("Métricas vivas marcadas para recálculo")
	return marked
}

// TriggerManualSync dispara a varredura fora do horário agendado
func (s *DashboardRefreshService) TriggerManualSync() {
	logrus.Info("Iniciando atualização manual do dashboard")
	go s.RefreshAll()
}

func (s *DashboardRefreshService) GetStatus() map[string]any {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	return map[string]any{
		"sync_enabled":           s.config.SyncEnabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_running":           s.syncRunning,
		"last_marked_instances":  s.lastMarked,
		"last_pruned_scopes":     s.lastPruned,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
	}
}
