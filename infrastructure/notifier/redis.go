package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/pkg/log"
)

const redisChannelPrefix = "inventory:changes"

// RedisChannel é o canal pub/sub de uma filial
func RedisChannel(scope domain.Scope) string {
	return fmt.Sprintf("%s:%s:%s", redisChannelPrefix, scope.TenantID, scope.BranchID)
}

// Redis assina um canal por filial. Útil quando o backend publica as alterações
// no Redis em vez de usar NOTIFY.
type Redis struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client, now: time.Now}
}

// Publish permite que outros serviços (ou testes) avisem alterações
func (r *Redis) Publish(ctx context.Context, event domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("erro ao serializar evento: %w", err)
	}
	return r.client.Publish(ctx, RedisChannel(event.Scope()), payload).Err()
}

func (r *Redis) Subscribe(ctx context.Context, scope domain.Scope, tables []string, handler func(domain.ChangeEvent)) (func(), error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	pubsub := r.client.Subscribe(ctx, RedisChannel(scope))
	// Confirma a inscrição antes de devolver, assim nenhum evento publicado depois se perde
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("erro ao assinar %s: %w", RedisChannel(scope), err)
	}

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	logger := log.ForScope(ctx, scope)

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				event, err := decodeEvent([]byte(msg.Payload))
				if err != nil {
					logger.WithError(err).Warn("Payload de alteração inválido no Redis")
					continue
				}
				if event.At.IsZero() {
					event.At = r.now()
				}
				if event.Matches(scope, tables) {
					handler(event)
				}
			}
		}
	}()

	return func() {
		cancel()
		_ = pubsub.Close()
	}, nil
}
