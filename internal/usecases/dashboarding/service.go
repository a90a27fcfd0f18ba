// Package dashboarding orquestra os loaders, o agregador e o cache das métricas de estoque
// e mantém instâncias vivas que se recalculam a cada alteração avisada pelo backend.
package dashboarding

import (
	"context"
	"fmt"
	"time"

	"github.com/vfg2006/inventory-analytics-api/infrastructure/cache"
	"github.com/vfg2006/inventory-analytics-api/internal/analytics"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/pkg/apiErrors"
	"github.com/vfg2006/inventory-analytics-api/pkg/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultCacheTTL = 5 * time.Minute
	DefaultStaleTTL = 24 * time.Hour
	// DefaultMaxWindowDays limita o tamanho da série diária por requisição
	DefaultMaxWindowDays = 366
)

type Options struct {
	// LedgerLimit é o teto de movimentos lidos por cálculo
	LedgerLimit int
	// CacheTTL é por quanto tempo um resultado em cache é servido sem recalcular
	CacheTTL time.Duration
	// StaleTTL é por quanto tempo o resultado fica disponível como fallback quando os loaders falham
	StaleTTL time.Duration
	// MaxWindowDays é o maior período (em dias) aceito nos filtros de data
	MaxWindowDays int
}

type Service struct {
	snapshots  SnapshotLoader
	ledger     LedgerLoader
	cache      MetricsCache
	aggregator *analytics.Aggregator
	opts       Options
	writes     *writeGuard
}

func NewService(snapshots SnapshotLoader, ledger LedgerLoader, metricsCache MetricsCache, aggregator *analytics.Aggregator, opts Options) *Service {
	if opts.LedgerLimit <= 0 {
		opts.LedgerLimit = domain.DefaultLedgerLimit
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.StaleTTL < opts.CacheTTL {
		opts.StaleTTL = max(DefaultStaleTTL, opts.CacheTTL)
	}
	if opts.MaxWindowDays <= 0 {
		opts.MaxWindowDays = DefaultMaxWindowDays
	}

	return &Service{
		snapshots:  snapshots,
		ledger:     ledger,
		cache:      metricsCache,
		aggregator: aggregator,
		opts:       opts,
		writes:     newWriteGuard(),
	}
}

// CacheTTL é por quanto tempo um resultado gravado é servido sem recalcular
func (s *Service) CacheTTL() time.Duration {
	return s.opts.CacheTTL
}

// CacheKey identifica o resultado de um escopo numa janela já resolvida
func (s *Service) CacheKey(scope domain.Scope, filters domain.DashboardFilters) string {
	return cache.Key(scope, s.aggregator.ResolveWindow(filters))
}

// GetDashboard devolve as métricas do cache enquanto estiverem frescas; caso contrário recalcula.
// Se o recálculo falhar e houver um resultado anterior guardado, ele é devolvido com Stale=true.
func (s *Service) GetDashboard(ctx context.Context, scope domain.Scope, filters domain.DashboardFilters) (*domain.DashboardMetrics, error) {
	if err := s.validate(scope, filters); err != nil {
		return nil, err
	}

	logger := log.ForScope(ctx, scope)
	key := s.CacheKey(scope, filters)

	cached, found, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.WithError(err).Warn("Erro ao ler métricas do cache, recalculando")
		found = false
	}

	if found && s.isFresh(cached) {
		logger.WithField("key", key).Debug("Métricas servidas do cache")
		return cached, nil
	}

	metrics, err := s.Refresh(ctx, scope, filters)
	if err != nil {
		if found {
			logger.WithError(err).WithField("generated_at", cached.GeneratedAt).
				Warn("Falha ao recalcular métricas, devolvendo último resultado disponível")
			stale := *cached
			stale.Stale = true
			return &stale, nil
		}
		return nil, err
	}

	return metrics, nil
}

// Refresh ignora o cache: carrega, valida, agrega e grava o novo resultado. A gravação é
// descartada quando um cálculo iniciado depois já gravou a mesma janela ou quando o escopo
// foi invalidado durante o cálculo; o resultado ainda é devolvido a quem chamou.
func (s *Service) Refresh(ctx context.Context, scope domain.Scope, filters domain.DashboardFilters) (*domain.DashboardMetrics, error) {
	if err := s.validate(scope, filters); err != nil {
		return nil, err
	}

	ticket := s.writes.begin()

	metrics, err := s.compute(ctx, scope, filters)
	if err != nil {
		return nil, err
	}

	logger := log.ForScope(ctx, scope)
	key := cache.Key(scope, metrics.Window)

	written, err := s.writes.commit(scope, key, ticket, func() error {
		return s.cache.Set(ctx, key, metrics, s.opts.StaleTTL)
	})
	switch {
	case err != nil:
		logger.WithError(err).Warn("Erro ao gravar métricas no cache")
	case !written:
		logger.WithFields(log.Fields{"key": key, "ticket": ticket}).
			Debug("Resultado superado por cálculo mais novo ou invalidação, cache mantido")
	}

	return &metrics, nil
}

// Invalidate remove todas as janelas em cache da filial. Cálculos já em andamento para a
// filial não gravam mais no cache.
func (s *Service) Invalidate(ctx context.Context, scope domain.Scope) error {
	s.writes.invalidate(scope)

	if err := s.cache.InvalidatePrefix(ctx, cache.ScopePrefix(scope)); err != nil {
		return fmt.Errorf("erro ao invalidar cache de %s: %w", scope, err)
	}
	return nil
}

func (s *Service) validate(scope domain.Scope, filters domain.DashboardFilters) error {
	if err := scope.Validate(); err != nil {
		return NewDashboardError(err, apiErrors.ErrMissingRequiredData, scope, "")
	}

	if filters.DateFrom != nil && filters.DateTo != nil {
		calendar := s.aggregator.Calendar()
		from := calendar.DateOf(*filters.DateFrom)
		to := calendar.DateOf(*filters.DateTo)
		if from.After(to) {
			return NewDashboardError(ErrInvalidDateRange, apiErrors.ErrInvalidDateRange, scope,
				fmt.Sprintf("%s > %s", from.Format(time.DateOnly), to.Format(time.DateOnly)))
		}
	}

	if s.aggregator.WindowExceeds(filters, s.opts.MaxWindowDays) {
		window := s.aggregator.ResolveWindow(filters)
		return NewDashboardError(ErrWindowTooLarge, apiErrors.ErrInvalidDateRange, scope,
			fmt.Sprintf("%s a %s excede %d dias", window.From, window.To, s.opts.MaxWindowDays))
	}

	return nil
}

func (s *Service) isFresh(metrics *domain.DashboardMetrics) bool {
	if metrics == nil || metrics.Stale {
		return false
	}
	return s.aggregator.Now().Sub(metrics.GeneratedAt) < s.opts.CacheTTL
}

// compute busca catálogo e ledger em paralelo; a agregação só começa quando os dois terminam
func (s *Service) compute(ctx context.Context, scope domain.Scope, filters domain.DashboardFilters) (domain.DashboardMetrics, error) {
	logger := log.ForScope(ctx, scope)
	filter := s.ledgerFilter(filters)

	var (
		productRows []domain.ProductRow
		ledgerRows  []domain.TransactionRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.snapshots.GetProductSnapshot(gctx, scope.TenantID, scope.BranchID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSnapshotLoader, err)
		}
		productRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.ledger.GetTransactionLedger(gctx, scope.BranchID, filter)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLedgerLoader, err)
		}
		ledgerRows = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("Erro ao carregar dados do dashboard")
		return domain.DashboardMetrics{}, NewDashboardError(err, apiErrors.ErrLoaderFailure, scope, "")
	}

	products, rejectedProducts := domain.ValidateProducts(productRows)
	ledger, rejectedLedger := domain.ValidateLedger(ledgerRows)
	for _, rejected := range rejectedProducts {
		logger.WithError(rejected).Warn("Produto rejeitado na validação")
	}
	for _, rejected := range rejectedLedger {
		logger.WithError(rejected).Warn("Movimento rejeitado na validação")
	}

	capReached := len(ledgerRows) >= filter.EffectiveLimit()
	metrics := s.aggregator.Aggregate(analytics.Input{
		Products:         products,
		Ledger:           ledger,
		Filters:          filters,
		LedgerCapReached: capReached,
	})

	fields := log.Fields{
		"products":     metrics.TotalProducts,
		"transactions": metrics.TotalTransactions,
		"window_from":  metrics.Window.From,
		"window_to":    metrics.Window.To,
	}
	if capReached {
		logger.WithFields(fields).Warnf("Limite de %d movimentos atingido, métricas aproximadas", filter.EffectiveLimit())
	}
	if metrics.ExcludedTransactions > 0 {
		logger.WithFields(log.Fields{
			"excluded": metrics.ExcludedTransactions,
			"types":    metrics.UnrecognizedTypes,
		}).Warn("Movimentos com tipo não reconhecido ignorados no cálculo")
	}
	if metrics.EstimatedTrendPoints > 0 {
		logger.WithField("estimated_points", metrics.EstimatedTrendPoints).
			Info("Tendência de valor com pontos estimados por falta de preço histórico")
	}
	logger.WithFields(fields).Debug("Métricas calculadas")

	return metrics, nil
}

// ledgerFilter só restringe o início do ledger (date_from no fuso do calendário). O fim fica
// aberto: a tendência de valor parte do valor atual e precisa desfazer também os movimentos
// posteriores a date_to. O agregador recorta as métricas do período.
func (s *Service) ledgerFilter(filters domain.DashboardFilters) domain.LedgerFilter {
	filter := domain.LedgerFilter{Limit: s.opts.LedgerLimit}

	if filters.DateFrom != nil {
		from := s.aggregator.Calendar().DateOf(*filters.DateFrom)
		filter.DateFrom = &from
	}

	return filter
}
