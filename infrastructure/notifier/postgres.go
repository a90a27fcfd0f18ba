package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/pkg/log"
)

const listenerPingInterval = 90 * time.Second

// Listener é o subconjunto de *pq.Listener usado aqui
type Listener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// Postgres recebe os NOTIFY disparados pelos gatilhos de products e stock_transactions
// num único canal e distribui para as inscrições por filial.
type Postgres struct {
	listener Listener
	channel  string
	registry *registry
	now      func() time.Time

	startOnce sync.Once
	done      chan struct{}
}

func NewPostgres(listener Listener, channel string) *Postgres {
	return &Postgres{
		listener: listener,
		channel:  channel,
		registry: newRegistry(),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start executa LISTEN e inicia o loop de distribuição até o contexto ser cancelado
func (p *Postgres) Start(ctx context.Context) error {
	var err error
	p.startOnce.Do(func() {
		if err = p.listener.Listen(p.channel); err != nil {
			err = fmt.Errorf("erro ao escutar o canal %s: %w", p.channel, err)
			close(p.done)
			return
		}
		go p.loop(ctx)
	})
	return err
}

func (p *Postgres) Subscribe(_ context.Context, scope domain.Scope, tables []string, handler func(domain.ChangeEvent)) (func(), error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return p.registry.add(scope, tables, handler), nil
}

// Done é fechado quando o loop termina
func (p *Postgres) Done() <-chan struct{} {
	return p.done
}

func (p *Postgres) loop(ctx context.Context) {
	defer close(p.done)
	defer p.listener.Close()

	logger := log.ForContext(ctx).WithField("channel", p.channel)
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Encerrando escuta de alterações do PostgreSQL")
			return

		case notification, ok := <-p.listener.NotificationChannel():
			if !ok {
				logger.Warn("Canal de notificações do PostgreSQL fechado")
				return
			}

			// pq envia nil depois de reconectar
			if notification == nil {
				logger.Warn("Conexão de notificações restabelecida, marcando métricas como desatualizadas")
				p.registry.broadcastReconnect(domain.ChangeEvent{At: p.now()})
				continue
			}

			p.handle(ctx, notification)

		case <-ticker.C:
			if err := p.listener.Ping(); err != nil {
				logger.WithError(err).Warn("Falha no ping da conexão de notificações")
			}
		}
	}
}

func (p *Postgres) handle(ctx context.Context, notification *pq.Notification) {
	event, err := decodeEvent([]byte(notification.Extra))
	if err != nil {
		log.ForContext(ctx).WithError(err).Warnf("Payload de notificação inválido: %s", notification.Extra)
		return
	}
	if event.At.IsZero() {
		event.At = p.now()
	}

	delivered := p.registry.dispatch(event)
	log.ForScope(ctx, event.Scope()).WithFields(log.Fields{
		"table":     event.Table,
		"operation": event.Operation,
		"delivered": delivered,
	}).Debug("Alteração recebida do PostgreSQL")
}
