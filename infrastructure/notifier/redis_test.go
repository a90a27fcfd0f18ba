package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client), server
}

func TestRedis_DeliversMatchingEvents(t *testing.T) {
	ctx := context.Background()
	notifier, server := newTestRedis(t)
	scope := domain.Scope{TenantID: "t1", BranchID: "b1"}

	events := &recorder{}
	unsubscribe, err := notifier.Subscribe(ctx, scope, []string{domain.TableStockTransactions}, events.handle)
	require.NoError(t, err)
	defer unsubscribe()

	// Tabela fora do filtro e payload inválido são descartados
	server.Publish(RedisChannel(scope), `{"tenant_id":"t1","branch_id":"b1","table":"suppliers","operation":"UPDATE"}`)
	server.Publish(RedisChannel(scope), `isto não é json`)
	// Tenant diferente no mesmo canal também não passa
	server.Publish(RedisChannel(scope), `{"tenant_id":"t2","branch_id":"b1","table":"stock_transactions","operation":"INSERT"}`)

	require.NoError(t, notifier.Publish(ctx, domain.ChangeEvent{
		TenantID: "t1", BranchID: "b1", Table: domain.TableStockTransactions, Operation: "INSERT",
	}))

	assert.Eventually(t, func() bool { return events.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, events.count())

	event := events.last()
	assert.Equal(t, "t1", event.TenantID)
	assert.Equal(t, domain.TableStockTransactions, event.Table)
	assert.False(t, event.At.IsZero(), "At vazio recebe o horário de chegada")
}

func TestRedis_ChannelsAreIsolatedByBranch(t *testing.T) {
	ctx := context.Background()
	notifier, _ := newTestRedis(t)

	b1 := &recorder{}
	b2 := &recorder{}
	unsubscribeB1, err := notifier.Subscribe(ctx, domain.Scope{TenantID: "t1", BranchID: "b1"}, domain.DashboardTables, b1.handle)
	require.NoError(t, err)
	defer unsubscribeB1()
	unsubscribeB2, err := notifier.Subscribe(ctx, domain.Scope{TenantID: "t1", BranchID: "b2"}, domain.DashboardTables, b2.handle)
	require.NoError(t, err)
	defer unsubscribeB2()

	require.NoError(t, notifier.Publish(ctx, domain.ChangeEvent{TenantID: "t1", BranchID: "b2", Table: domain.TableProducts, Operation: "UPDATE"}))

	assert.Eventually(t, func() bool { return b2.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, b1.count())
}

func TestRedis_UnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	notifier, server := newTestRedis(t)
	scope := domain.Scope{TenantID: "t1", BranchID: "b1"}
	channel := RedisChannel(scope)

	events := &recorder{}
	unsubscribe, err := notifier.Subscribe(ctx, scope, nil, events.handle)
	require.NoError(t, err)
	assert.Equal(t, 1, server.PubSubNumSub(channel)[channel])

	unsubscribe()
	assert.Eventually(t, func() bool { return server.PubSubNumSub(channel)[channel] == 0 }, time.Second, 5*time.Millisecond)

	server.Publish(channel, `{"tenant_id":"t1","branch_id":"b1","table":"products","operation":"UPDATE"}`)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, events.count())
}

func TestRedis_SubscribeRequiresScope(t *testing.T) {
	notifier, _ := newTestRedis(t)

	_, err := notifier.Subscribe(context.Background(), domain.Scope{TenantID: "t1"}, nil, func(domain.ChangeEvent) {})
	assert.ErrorIs(t, err, domain.ErrScopeRequired)
}

func TestRedis_SubscribeFailsWhenServerIsDown(t *testing.T) {
	notifier, server := newTestRedis(t)
	server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := notifier.Subscribe(ctx, domain.Scope{TenantID: "t1", BranchID: "b1"}, nil, func(domain.ChangeEvent) {})
	assert.Error(t, err)
}
