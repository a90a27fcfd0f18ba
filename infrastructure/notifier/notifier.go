// Package notifier entrega os avisos de alteração de produtos e movimentos de estoque
// para quem mantém métricas calculadas.
package notifier

import (
	"context"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OperationReconnect é enviado a todos os inscritos quando a conexão de notificações
// cai e volta: avisos podem ter sido perdidos no intervalo.
const OperationReconnect = "RECONNECT"

type subscription struct {
	scope   domain.Scope
	tables  []string
	handler func(domain.ChangeEvent)
}

// registry guarda as inscrições ativas e faz o filtro por escopo e tabela
type registry struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]subscription
}

func newRegistry() *registry {
	return &registry{subs: make(map[uint64]subscription)}
}

func (r *registry) add(scope domain.Scope, tables []string, handler func(domain.ChangeEvent)) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs[id] = subscription{scope: scope, tables: tables, handler: handler}
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

func (r *registry) snapshot() []subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make([]subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	return subs
}

func (r *registry) dispatch(event domain.ChangeEvent) int {
	delivered := 0
	for _, sub := range r.snapshot() {
		if event.Matches(sub.scope, sub.tables) {
			sub.handler(event)
			delivered++
		}
	}
	return delivered
}

// broadcastReconnect avisa todos os inscritos, cada um com o seu próprio escopo
func (r *registry) broadcastReconnect(event domain.ChangeEvent) {
	for _, sub := range r.snapshot() {
		e := event
		e.TenantID = sub.scope.TenantID
		e.BranchID = sub.scope.BranchID
		e.Operation = OperationReconnect
		sub.handler(e)
	}
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func decodeEvent(payload []byte) (domain.ChangeEvent, error) {
	var event domain.ChangeEvent
	err := json.Unmarshal(payload, &event)
	return event, err
}

// None não entrega eventos: as métricas dependem apenas do TTL do cache e da varredura agendada
type None struct{}

func NewNone() *None {
	return &None{}
}

func (None) Subscribe(_ context.Context, _ domain.Scope, _ []string, _ func(domain.ChangeEvent)) (func(), error) {
	return func() {}, nil
}
