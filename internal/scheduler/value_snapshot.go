package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/inventory-analytics-api/infrastructure/repository"
	"github.com/vfg2006/inventory-analytics-api/internal/analytics"
	"github.com/vfg2006/inventory-analytics-api/internal/config"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/internal/usecases/dashboarding"
	"github.com/vfg2006/inventory-analytics-api/pkg/log"
)

const defaultMaxConcurrentJobs = 4

type ValueSnapshotConfig struct {
	CronSchedule      string
	MaxConcurrentJobs int
	SyncEnabled       bool
}

// ValueSnapshotService grava o fechamento diário do valor do estoque de cada filial.
// É um registro paralelo: a tendência do dashboard continua reconstruída a partir do ledger.
type ValueSnapshotService struct {
	scheduler           *gocron.Scheduler
	config              ValueSnapshotConfig
	loader              dashboarding.SnapshotLoader
	snapshotRepo        repository.ValueSnapshotRepository
	calendar            analytics.Calendar
	now                 func() time.Time
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastSaved           int
	lastFailed          int
}

func NewValueSnapshotService(
	loader dashboarding.SnapshotLoader,
	snapshotRepo repository.ValueSnapshotRepository,
	calendar analytics.Calendar,
	cfg *config.Config,
) *ValueSnapshotService {
	snapshotConfig := ValueSnapshotConfig{
		CronSchedule:      cfg.ValueSnapshot.CronSchedule,
		MaxConcurrentJobs: cfg.ValueSnapshot.MaxConcurrentJobs,
		SyncEnabled:       cfg.ValueSnapshot.Enabled,
	}
	if snapshotConfig.MaxConcurrentJobs <= 0 {
		snapshotConfig.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule":       snapshotConfig.CronSchedule,
		"max_concurrent_jobs": snapshotConfig.MaxConcurrentJobs,
		"sync_enabled":        snapshotConfig.SyncEnabled,
	}).Info("Configuração do agendador de fechamento de estoque carregada")

	return &ValueSnapshotService{
		scheduler:    gocron.NewScheduler(calendar.Location()),
		config:       snapshotConfig,
		loader:       loader,
		snapshotRepo: snapshotRepo,
		calendar:     calendar,
		now:          time.Now,
	}
}

func (s *ValueSnapshotService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Fechamento diário do estoque desabilitado por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de fechamento de estoque")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		if err := s.SnapshotAll(ctx); err != nil {
			logrus.WithError(err).Error("Erro no fechamento diário do estoque")
		}
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar fechamento de estoque: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de fechamento de estoque")
		s.scheduler.Stop()
	}()

	return nil
}

// SnapshotAll grava o fechamento do dia corrente para todas as filiais com catálogo
func (s *ValueSnapshotService) SnapshotAll(ctx context.Context) error {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Fechamento de estoque já em andamento, ignorando")
		return nil
	}
	s.syncRunning = true
	s.lastSyncStartedAt = s.now()
	s.syncMutex.Unlock()

	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.lastSyncCompletedAt = s.now()
		s.syncMutex.Unlock()
	}()

	scopes, err := s.snapshotRepo.ListScopes(ctx)
	if err != nil {
		return fmt.Errorf("erro ao listar filiais para o fechamento: %w", err)
	}
	if len(scopes) == 0 {
		logrus.Info("Nenhuma filial encontrada para o fechamento de estoque")
		return nil
	}

	date := s.calendar.StartOfDay(s.now())
	saved, failed := s.processScopes(ctx, scopes, date)

	s.syncMutex.Lock()
	s.lastSaved = saved
	s.lastFailed = failed
	s.syncMutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"date":     date.Format(time.DateOnly),
		"branches": len(scopes),
		"saved":    saved,
		"failed":   failed,
	}).Info("Fechamento de estoque concluído")

	return nil
}

func (s *ValueSnapshotService) processScopes(ctx context.Context, scopes []domain.Scope, date time.Time) (int, int) {
	semaphore := make(chan struct{}, s.config.MaxConcurrentJobs)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		saved  int
		failed int
	)

	for _, scope := range scopes {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(scope domain.Scope) {
			defer func() {
				<-semaphore
				wg.Done()
			}()

			err := s.snapshotScope(ctx, scope, date)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				log.ForScope(ctx, scope).WithError(err).Error("Erro ao gravar fechamento de estoque da filial")
				return
			}
			saved++
		}(scope)
	}

	wg.Wait()
	return saved, failed
}

func (s *ValueSnapshotService) snapshotScope(ctx context.Context, scope domain.Scope, date time.Time) error {
	rows, err := s.loader.GetProductSnapshot(ctx, scope.TenantID, scope.BranchID)
	if err != nil {
		return fmt.Errorf("%w: %w", dashboarding.ErrSnapshotLoader, err)
	}

	products, rejected := domain.ValidateProducts(rows)
	if len(rejected) > 0 {
		log.ForScope(ctx, scope).WithField("rejected", len(rejected)).Warn("Produtos rejeitados no fechamento de estoque")
	}

	snapshot := &domain.BranchValueSnapshot{
		TenantID:      scope.TenantID,
		BranchID:      scope.BranchID,
		Date:          date,
		TotalValue:    analytics.TotalValue(products),
		TotalProducts: len(products),
		LowStockCount: len(analytics.LowStockProducts(products)),
		Categories:    analytics.CategoryDistribution(products),
	}

	if err := s.snapshotRepo.SaveOrUpdate(ctx, snapshot); err != nil {
		return fmt.Errorf("erro ao salvar fechamento: %w", err)
	}
	return nil
}

// History devolve os fechamentos gravados no período (datas inclusivas)
func (s *ValueSnapshotService) History(ctx context.Context, scope domain.Scope, from, to time.Time) ([]*domain.BranchValueSnapshot, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, dashboarding.ErrInvalidDateRange
	}
	return s.snapshotRepo.GetByDateRange(ctx, scope, s.calendar.DateOf(from), s.calendar.DateOf(to))
}

// TriggerManualSync dispara o fechamento fora do horário agendado
func (s *ValueSnapshotService) TriggerManualSync(ctx context.Context) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Fechamento de estoque já em andamento, ignorando solicitação manual")
		return
	}
	s.syncMutex.Unlock()

	logrus.Info("Iniciando fechamento manual de estoque")
	go func() {
		if err := s.SnapshotAll(context.WithoutCancel(ctx)); err != nil {
			logrus.WithError(err).Error("Erro no fechamento manual de estoque")
		}
	}()
}

func (s *ValueSnapshotService) GetStatus() map[string]any {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	return map[string]any{
		"sync_enabled":           s.config.SyncEnabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_max_concurrent":    s.config.MaxConcurrentJobs,
		"sync_running":           s.syncRunning,
		"last_saved_branches":    s.lastSaved,
		"last_failed_branches":   s.lastFailed,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
	}
}
