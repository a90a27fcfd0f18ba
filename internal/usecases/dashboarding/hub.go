package dashboarding

import (
	"context"
	"sync"
	"time"

	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/pkg/log"
)

var _ Dashboarder = (*Hub)(nil)

type hubEntry struct {
	instance *MetricsInstance
	refs     int
}

// scopeWatch é a inscrição que invalida o cache de uma filial consultada sem observadores
type scopeWatch struct {
	unsubscribe func()
	lastUsed    time.Time
}

// Hub compartilha uma MetricsInstance por escopo e janela entre todos os observadores.
// Também atende as consultas avulsas (Dashboarder) e mantém uma inscrição por filial
// consultada, assim qualquer alteração invalida o cache mesmo sem stream aberto.
type Hub struct {
	service  *Service
	notifier ChangeNotifier
	opts     InstanceOptions

	mu        sync.Mutex
	instances map[string]*hubEntry

	watchMu sync.Mutex
	watches map[domain.Scope]*scopeWatch
}

func NewHub(service *Service, notifier ChangeNotifier, opts InstanceOptions) *Hub {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Hub{
		service:   service,
		notifier:  notifier,
		opts:      opts,
		instances: make(map[string]*hubEntry),
		watches:   make(map[domain.Scope]*scopeWatch),
	}
}

func (h *Hub) GetDashboard(ctx context.Context, scope domain.Scope, filters domain.DashboardFilters) (*domain.DashboardMetrics, error) {
	if scope.Validate() == nil {
		h.watch(ctx, scope)
	}
	return h.service.GetDashboard(ctx, scope, filters)
}

func (h *Hub) Refresh(ctx context.Context, scope domain.Scope, filters domain.DashboardFilters) (*domain.DashboardMetrics, error) {
	if scope.Validate() == nil {
		h.watch(ctx, scope)
	}
	return h.service.Refresh(ctx, scope, filters)
}

func (h *Hub) Invalidate(ctx context.Context, scope domain.Scope) error {
	return h.service.Invalidate(ctx, scope)
}

// watch garante a inscrição da filial. Falha ao assinar não impede a consulta: o cache
// ainda expira pelo TTL.
func (h *Hub) watch(ctx context.Context, scope domain.Scope) {
	now := h.opts.Now()

	h.watchMu.Lock()
	if w, exists := h.watches[scope]; exists {
		w.lastUsed = now
		h.watchMu.Unlock()
		return
	}
	h.watchMu.Unlock()

	watchCtx := context.WithoutCancel(ctx)
	logger := log.ForScope(watchCtx, scope)

	unsubscribe, err := h.notifier.Subscribe(watchCtx, scope, domain.DashboardTables, func(event domain.ChangeEvent) {
		if err := h.service.Invalidate(watchCtx, scope); err != nil {
			logger.WithError(err).Warn("Erro ao invalidar métricas no cache")
			return
		}
		logger.WithFields(log.Fields{"table": event.Table, "operation": event.Operation}).
			Debug("Alteração recebida, cache da filial invalidado")
	})
	if err != nil {
		logger.WithError(err).Warn("Erro ao assinar alterações da filial, cache depende do TTL")
		return
	}

	h.watchMu.Lock()
	if w, exists := h.watches[scope]; exists {
		w.lastUsed = now
		h.watchMu.Unlock()
		unsubscribe()
		return
	}
	h.watches[scope] = &scopeWatch{unsubscribe: unsubscribe, lastUsed: now}
	h.watchMu.Unlock()
}

// PruneIdle encerra as inscrições de filiais sem consulta há mais de duas vezes o TTL do
// cache: depois disso nenhum resultado delas é servido como fresco. Devolve quantas encerrou.
func (h *Hub) PruneIdle() int {
	limit := h.opts.Now().Add(-2 * h.service.CacheTTL())

	h.watchMu.Lock()
	idle := make([]func(), 0)
	for scope, w := range h.watches {
		if w.lastUsed.Before(limit) {
			idle = append(idle, w.unsubscribe)
			delete(h.watches, scope)
		}
	}
	h.watchMu.Unlock()

	for _, unsubscribe := range idle {
		unsubscribe()
	}
	return len(idle)
}

// Watched conta as filiais com inscrição de invalidação ativa
func (h *Hub) Watched() int {
	h.watchMu.Lock()
	defer h.watchMu.Unlock()
	return len(h.watches)
}

// Acquire devolve a instância do escopo, iniciando-a no primeiro uso. A função retornada
// libera a referência; a instância é encerrada quando o último observador sai.
func (h *Hub) Acquire(ctx context.Context, scope domain.Scope, filters domain.DashboardFilters) (*MetricsInstance, func(), error) {
	if err := h.service.validate(scope, filters); err != nil {
		return nil, nil, err
	}

	key := h.service.CacheKey(scope, filters)

	h.mu.Lock()
	entry, exists := h.instances[key]
	if !exists {
		instance := NewMetricsInstance(key, scope, filters, h.service, h.notifier, h.opts)
		entry = &hubEntry{instance: instance}
		h.instances[key] = entry

		if err := instance.Start(ctx); err != nil {
			delete(h.instances, key)
			h.mu.Unlock()
			instance.Close()
			return nil, nil, err
		}
		log.ForScope(ctx, scope).WithField("key", key).Info("Instância de métricas iniciada")
	}
	entry.refs++
	h.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() { h.release(ctx, key, entry) })
	}

	return entry.instance, release, nil
}

func (h *Hub) release(ctx context.Context, key string, entry *hubEntry) {
	h.mu.Lock()
	entry.refs--
	closing := entry.refs <= 0
	if closing && h.instances[key] == entry {
		delete(h.instances, key)
	}
	h.mu.Unlock()

	if closing {
		entry.instance.Close()
		log.ForScope(ctx, entry.instance.Scope()).WithField("key", key).Info("Instância de métricas encerrada")
	}
}

// MarkAllStale força o recálculo de todas as instâncias vivas e devolve quantas foram marcadas
func (h *Hub) MarkAllStale() int {
	instances := h.live()
	for _, instance := range instances {
		instance.MarkStale()
	}
	return len(instances)
}

// Scopes lista os escopos com instâncias vivas, sem repetição
func (h *Hub) Scopes() []domain.Scope {
	seen := make(map[domain.Scope]bool)
	scopes := make([]domain.Scope, 0)
	for _, instance := range h.live() {
		if !seen[instance.Scope()] {
			seen[instance.Scope()] = true
			scopes = append(scopes, instance.Scope())
		}
	}
	return scopes
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.instances)
}

// Close encerra todas as instâncias e inscrições (usado no desligamento do servidor)
func (h *Hub) Close() {
	h.mu.Lock()
	entries := h.instances
	h.instances = make(map[string]*hubEntry)
	h.mu.Unlock()

	for _, entry := range entries {
		entry.instance.Close()
	}

	h.watchMu.Lock()
	watches := h.watches
	h.watches = make(map[domain.Scope]*scopeWatch)
	h.watchMu.Unlock()

	for _, w := range watches {
		w.unsubscribe()
	}
}

func (h *Hub) live() []*MetricsInstance {
	h.mu.Lock()
	defer h.mu.Unlock()

	instances := make([]*MetricsInstance, 0, len(h.instances))
	for _, entry := range h.instances {
		instances = append(instances, entry.instance)
	}
	return instances
}
