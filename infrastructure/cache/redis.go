package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/vfg2006/inventory-analytics-api/internal/config"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const scanBatchSize = 100

// globEscaper protege os caracteres especiais do MATCH do SCAN: ids de tenant ou filial com
// *, ? ou [ não podem casar chaves de outros escopos
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// Redis compartilha as métricas entre réplicas da API
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// NewRedisClient cria o client e testa a conexão
func NewRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("impossível conectar ao Redis: %w", err)
	}

	return client, nil
}

func (r *Redis) Get(ctx context.Context, key string) (*domain.DashboardMetrics, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	var metrics domain.DashboardMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		// Entrada corrompida: descarta e segue como cache miss
		_ = r.client.Del(ctx, key).Err()
		return nil, false, nil
	}

	return &metrics, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, metrics domain.DashboardMetrics, ttl time.Duration) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("erro ao serializar métricas: %w", err)
	}

	if ttl < 0 {
		ttl = 0
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// InvalidatePrefix usa SCAN em vez de KEYS para não bloquear o Redis. O prefixo é escapado
// no padrão e conferido de novo em cada chave antes do DEL.
func (r *Redis) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, globEscaper.Replace(prefix)+"*", scanBatchSize).Iterator()

	keys := make([]string, 0, scanBatchSize)
	for iter.Next(ctx) {
		if !strings.HasPrefix(iter.Val(), prefix) {
			continue
		}
		keys = append(keys, iter.Val())
		if len(keys) == scanBatchSize {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
	}

	return nil
}
