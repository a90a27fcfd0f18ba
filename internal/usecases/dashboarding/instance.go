package dashboarding

import (
	"context"
	"sync"
	"time"

	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/pkg/log"
	"github.com/vfg2006/inventory-analytics-api/pkg/utils"
)

const (
	DefaultDebounce       = 250 * time.Millisecond
	defaultObserverBuffer = 4
)

type State string

const (
	StateIdle         State = "IDLE"
	StateLoading      State = "LOADING"
	StateReady        State = "READY"
	StateStale        State = "STALE"
	StateError        State = "ERROR"
	StateUnsubscribed State = "UNSUBSCRIBED"
)

// DashboardUpdate é enviado aos observadores a cada transição de estado. Metrics é o último
// resultado READY, mesmo em STALE, LOADING ou ERROR.
type DashboardUpdate struct {
	State     State                    `json:"state"`
	Sequence  uint64                   `json:"sequence"`
	Metrics   *domain.DashboardMetrics `json:"metrics,omitempty"`
	Error     error                    `json:"-"`
	ErrorCode string                   `json:"error_code,omitempty"`
	At        time.Time                `json:"at"`
}

// Refresher recalcula as métricas ignorando o cache e descarta o cache da filial
type Refresher interface {
	Refresh(ctx context.Context, scope domain.Scope, filters domain.DashboardFilters) (*domain.DashboardMetrics, error)
	Invalidate(ctx context.Context, scope domain.Scope) error
}

type InstanceOptions struct {
	Debounce time.Duration
	Now      func() time.Time
}

// MetricsInstance mantém as métricas de um escopo e janela atualizadas:
// IDLE → LOADING → READY → STALE → LOADING → … e UNSUBSCRIBED ao encerrar.
type MetricsInstance struct {
	key       string
	scope     domain.Scope
	filters   domain.DashboardFilters
	refresher Refresher
	notifier  ChangeNotifier
	debounce  time.Duration
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	metrics     *domain.DashboardMetrics
	lastErr     error
	requested   uint64
	applied     uint64
	timer       *time.Timer
	unsubscribe func()
	observers   map[string]chan DashboardUpdate
}

func NewMetricsInstance(
	key string,
	scope domain.Scope,
	filters domain.DashboardFilters,
	refresher Refresher,
	notifier ChangeNotifier,
	opts InstanceOptions,
) *MetricsInstance {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &MetricsInstance{
		key:       key,
		scope:     scope,
		filters:   filters,
		refresher: refresher,
		notifier:  notifier,
		debounce:  opts.Debounce,
		now:       opts.Now,
		state:     StateIdle,
		observers: make(map[string]chan DashboardUpdate),
	}
}

func (m *MetricsInstance) Key() string {
	return m.key
}

func (m *MetricsInstance) Scope() domain.Scope {
	return m.scope
}

// Start assina as alterações de products e stock_transactions e dispara o primeiro cálculo.
// O contexto informado só fornece os valores de log; o ciclo de vida é controlado por Close.
func (m *MetricsInstance) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return nil
	}
	m.ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	m.mu.Unlock()

	unsubscribe, err := m.notifier.Subscribe(m.ctx, m.scope, domain.DashboardTables, m.onChange)
	if err != nil {
		m.cancel()
		return NewDashboardError(ErrSubscribeFailed, "", m.scope, err.Error())
	}

	m.mu.Lock()
	if m.state == StateUnsubscribed {
		m.mu.Unlock()
		unsubscribe()
		return ErrInstanceClosed
	}
	m.unsubscribe = unsubscribe
	seq := m.requestLocked()
	m.mu.Unlock()

	go m.recompute(seq)
	return nil
}

// Snapshot devolve o estado atual
func (m *MetricsInstance) Snapshot() DashboardUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked()
}

func (m *MetricsInstance) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Watch registra um observador. O canal é fechado quando a instância ou o observador encerra.
func (m *MetricsInstance) Watch() (string, <-chan DashboardUpdate, func()) {
	id := utils.SubscriberID()
	ch := make(chan DashboardUpdate, defaultObserverBuffer)

	m.mu.Lock()
	if m.state == StateUnsubscribed {
		m.mu.Unlock()
		close(ch)
		return id, ch, func() {}
	}
	m.observers[id] = ch
	m.mu.Unlock()

	return id, ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if observer, exists := m.observers[id]; exists {
			delete(m.observers, id)
			close(observer)
		}
	}
}

// MarkStale tem o mesmo efeito de um aviso de alteração
func (m *MetricsInstance) MarkStale() {
	m.onChange(domain.ChangeEvent{
		TenantID:  m.scope.TenantID,
		BranchID:  m.scope.BranchID,
		Operation: "SWEEP",
		At:        m.now(),
	})
}

// Close encerra a inscrição e os timers; eventos e resultados posteriores são ignorados
func (m *MetricsInstance) Close() {
	m.mu.Lock()
	if m.state == StateUnsubscribed {
		m.mu.Unlock()
		return
	}

	m.state = StateUnsubscribed
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	if m.cancel != nil {
		m.cancel()
	}

	m.broadcastLocked()
	for id, observer := range m.observers {
		delete(m.observers, id)
		close(observer)
	}
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// onChange descarta o cache de todas as janelas da filial, marca as métricas como
// desatualizadas e agenda um recálculo. Eventos que chegam dentro da janela de debounce
// são absorvidos pelo recálculo já agendado.
func (m *MetricsInstance) onChange(event domain.ChangeEvent) {
	m.mu.Lock()
	if m.state == StateUnsubscribed || m.state == StateIdle {
		m.mu.Unlock()
		return
	}
	ctx := m.ctx
	m.mu.Unlock()

	// Invalida antes de agendar: o recálculo agendado sempre começa depois da invalidação
	if err := m.refresher.Invalidate(ctx, m.scope); err != nil {
		log.ForScope(ctx, m.scope).WithError(err).Warn("Erro ao invalidar métricas no cache")
	}

	m.mu.Lock()
	if m.state == StateUnsubscribed {
		m.mu.Unlock()
		return
	}

	if m.state != StateLoading {
		m.state = StateStale
		m.broadcastLocked()
	}

	scheduled := m.timer != nil
	if !scheduled {
		m.timer = time.AfterFunc(m.debounce, m.fire)
	}
	m.mu.Unlock()

	log.ForScope(ctx, m.scope).WithFields(log.Fields{
		"table":     event.Table,
		"operation": event.Operation,
		"coalesced": scheduled,
	}).Debug("Alteração recebida, métricas marcadas como desatualizadas")
}

func (m *MetricsInstance) fire() {
	m.mu.Lock()
	if m.state == StateUnsubscribed {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	seq := m.requestLocked()
	m.mu.Unlock()

	m.recompute(seq)
}

func (m *MetricsInstance) requestLocked() uint64 {
	m.requested++
	m.state = StateLoading
	m.broadcastLocked()
	return m.requested
}

// recompute aplica o resultado somente se nenhum cálculo mais novo já tiver sido aplicado
func (m *MetricsInstance) recompute(seq uint64) {
	metrics, err := m.refresher.Refresh(m.ctx, m.scope, m.filters)

	m.mu.Lock()
	defer m.mu.Unlock()

	logger := log.ForScope(m.ctx, m.scope).WithField("sequence", seq)

	if m.state == StateUnsubscribed {
		return
	}
	if seq <= m.applied {
		logger.Debugf("Resultado descartado, sequência %d já aplicada", m.applied)
		return
	}
	m.applied = seq
	pending := seq < m.requested

	if err != nil {
		logger.WithError(err).Warn("Falha ao recalcular métricas, mantendo último resultado")
		m.lastErr = err
		if !pending {
			m.state = StateError
		}
		m.broadcastLocked()
		return
	}

	m.metrics = metrics
	m.lastErr = nil
	if !pending {
		m.state = StateReady
	}
	m.broadcastLocked()
}

func (m *MetricsInstance) updateLocked() DashboardUpdate {
	update := DashboardUpdate{
		State:    m.state,
		Sequence: m.applied,
		Metrics:  m.metrics,
		Error:    m.lastErr,
		At:       m.now(),
	}
	if m.lastErr != nil {
		update.ErrorCode = ErrorCode(m.lastErr)
	}
	return update
}

// broadcastLocked não bloqueia: observador lento perde a atualização mais antiga do buffer
func (m *MetricsInstance) broadcastLocked() {
	update := m.updateLocked()
	for _, observer := range m.observers {
		select {
		case observer <- update:
			continue
		default:
		}

		select {
		case <-observer:
		default:
		}
		select {
		case observer <- update:
		default:
		}
	}
}
