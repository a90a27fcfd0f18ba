package dashboarding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/inventory-analytics-api/infrastructure/cache"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/internal/usecases/dashboarding/mocks"
	"github.com/vfg2006/inventory-analytics-api/pkg/apiErrors"
	"go.uber.org/mock/gomock"
)

type serviceMocks struct {
	snapshots *mocks.MockSnapshotLoader
	ledger    *mocks.MockLedgerLoader
	cache     *mocks.MockMetricsCache
}

func newTestService(t *testing.T, opts Options) (*Service, serviceMocks) {
	ctrl := gomock.NewController(t)
	m := serviceMocks{
		snapshots: mocks.NewMockSnapshotLoader(ctrl),
		ledger:    mocks.NewMockLedgerLoader(ctrl),
		cache:     mocks.NewMockMetricsCache(ctrl),
	}
	return NewService(m.snapshots, m.ledger, m.cache, newTestAggregator(), opts), m
}

func TestService_GetDashboard_CacheMiss(t *testing.T) {
	service, m := newTestService(t, Options{})
	ctx := context.Background()

	m.cache.EXPECT().Get(gomock.Any(), defaultKey).Return(nil, false, nil)
	m.snapshots.EXPECT().GetProductSnapshot(gomock.Any(), "t1", "b1").
		Return([]domain.ProductRow{productRow("p1", "5", "10", "10")}, nil)
	m.ledger.EXPECT().GetTransactionLedger(gomock.Any(), "b1", domain.LedgerFilter{Limit: domain.DefaultLedgerLimit}).
		Return([]domain.TransactionRow{}, nil)
	m.cache.EXPECT().Set(gomock.Any(), defaultKey, gomock.Any(), DefaultStaleTTL).Return(nil)

	metrics, err := service.GetDashboard(ctx, testScope, domain.DashboardFilters{})

	require.NoError(t, err)
	assert.Equal(t, "50", metrics.TotalValue.String())
	assert.Equal(t, 1, metrics.LowStockCount)
	assert.Equal(t, 1, metrics.TotalProducts)
	assert.False(t, metrics.Stale)
	assert.False(t, metrics.LedgerCapReached)
	assert.Equal(t, domain.DateWindow{From: "2023-12-12", To: "2024-01-10"}, metrics.Window)
}

func TestService_GetDashboard_FreshCacheHit(t *testing.T) {
	service, m := newTestService(t, Options{CacheTTL: 5 * time.Minute})

	cached := metricsWithProducts(7)
	cached.GeneratedAt = referenceNow.Add(-time.Minute)
	m.cache.EXPECT().Get(gomock.Any(), defaultKey).Return(cached, true, nil)

	metrics, err := service.GetDashboard(context.Background(), testScope, domain.DashboardFilters{})

	require.NoError(t, err)
	assert.Equal(t, 7, metrics.TotalProducts)
}

func TestService_GetDashboard_StaleFallback(t *testing.T) {
	service, m := newTestService(t, Options{CacheTTL: 5 * time.Minute})

	cached := metricsWithProducts(7)
	cached.GeneratedAt = referenceNow.Add(-10 * time.Minute)
	m.cache.EXPECT().Get(gomock.Any(), defaultKey).Return(cached, true, nil)
	m.snapshots.EXPECT().GetProductSnapshot(gomock.Any(), "t1", "b1").Return(nil, errors.New("connection refused"))
	m.ledger.EXPECT().GetTransactionLedger(gomock.Any(), "b1", gomock.Any()).Return(nil, nil).AnyTimes()

	metrics, err := service.GetDashboard(context.Background(), testScope, domain.DashboardFilters{})

	require.NoError(t, err)
	assert.True(t, metrics.Stale)
	assert.Equal(t, 7, metrics.TotalProducts)
	assert.False(t, cached.Stale, "o valor em cache não deve ser alterado")
}

func TestService_GetDashboard_LoaderFailureWithoutCache(t *testing.T) {
	service, m := newTestService(t, Options{})

	m.cache.EXPECT().Get(gomock.Any(), defaultKey).Return(nil, false, errors.New("redis down"))
	m.snapshots.EXPECT().GetProductSnapshot(gomock.Any(), "t1", "b1").Return([]domain.ProductRow{}, nil).AnyTimes()
	m.ledger.EXPECT().GetTransactionLedger(gomock.Any(), "b1", gomock.Any()).Return(nil, errors.New("timeout"))

	metrics, err := service.GetDashboard(context.Background(), testScope, domain.DashboardFilters{})

	require.Error(t, err)
	assert.Nil(t, metrics)
	assert.ErrorIs(t, err, ErrLoaderFailure)
	assert.ErrorIs(t, err, ErrLedgerLoader)
	assert.Equal(t, apiErrors.ErrLoaderFailure, ErrorCode(err))

	var dashErr *DashboardError
	require.ErrorAs(t, err, &dashErr)
	assert.Equal(t, testScope, dashErr.Scope)
}

func TestService_GetDashboard_Validation(t *testing.T) {
	tests := []struct {
		name    string
		scope   domain.Scope
		filters domain.DashboardFilters
		wantErr error
		code    string
	}{
		{
			name:    "sem filial",
			scope:   domain.Scope{TenantID: "t1"},
			wantErr: domain.ErrScopeRequired,
			code:    apiErrors.ErrMissingRequiredData,
		},
		{
			name:    "período invertido",
			scope:   testScope,
			filters: domain.DashboardFilters{DateFrom: date("2024-01-05"), DateTo: date("2024-01-01")},
			wantErr: ErrInvalidDateRange,
			code:    apiErrors.ErrInvalidDateRange,
		},
		{
			name:    "janela acima do máximo",
			scope:   testScope,
			filters: domain.DashboardFilters{DateFrom: date("0001-01-01")},
			wantErr: ErrWindowTooLarge,
			code:    apiErrors.ErrInvalidDateRange,
		},
		{
			name:    "janela de 367 dias",
			scope:   testScope,
			filters: domain.DashboardFilters{DateFrom: date("2023-01-08"), DateTo: date("2024-01-09")},
			wantErr: ErrInvalidDateRange,
			code:    apiErrors.ErrInvalidDateRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestService(t, Options{})

			_, err := service.GetDashboard(context.Background(), tt.scope, tt.filters)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.code, ErrorCode(err))
		})
	}
}

func TestService_Refresh_LedgerFilterAndCap(t *testing.T) {
	service, m := newTestService(t, Options{LedgerLimit: 2})
	filters := domain.DashboardFilters{DateFrom: date("2024-01-01"), DateTo: date("2024-01-05")}

	m.snapshots.EXPECT().GetProductSnapshot(gomock.Any(), "t1", "b1").Return([]domain.ProductRow{
		productRow("p1", "5", "10", "0"),
		{Name: ptr("sem id")},
	}, nil)
	m.ledger.EXPECT().GetTransactionLedger(gomock.Any(), "b1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, filter domain.LedgerFilter) ([]domain.TransactionRow, error) {
			if assert.NotNil(t, filter.DateFrom) {
				assert.Equal(t, "2024-01-01", filter.DateFrom.Format(time.DateOnly))
			}
			// O fim fica aberto para a tendência desfazer os movimentos depois de date_to
			assert.Nil(t, filter.DateTo)
			assert.Equal(t, 2, filter.Limit)

			return []domain.TransactionRow{
				transactionRow("tx2", "p1", "out", "1", "2024-01-03T10:00:00Z"),
				transactionRow("tx1", "p1", "incoming", "3", "2024-01-02T10:00:00Z"),
			}, nil
		})
	m.cache.EXPECT().Set(gomock.Any(), "dashboard:t1:b1:2024-01-01:2024-01-05", gomock.Any(), gomock.Any()).Return(nil)

	metrics, err := service.Refresh(context.Background(), testScope, filters)

	require.NoError(t, err)
	assert.True(t, metrics.LedgerCapReached)
	assert.Equal(t, 1, metrics.TotalProducts, "linha sem id é rejeitada")
	assert.Equal(t, 2, metrics.TotalTransactions)
	require.Len(t, metrics.DailyActivity, 5)
	assert.Equal(t, "3", metrics.DailyActivity[1].Incoming.String())
	assert.Equal(t, "1", metrics.DailyActivity[2].Outgoing.String())
}

func TestService_Refresh_CacheWriteFailureIsNotFatal(t *testing.T) {
	service, m := newTestService(t, Options{})

	m.snapshots.EXPECT().GetProductSnapshot(gomock.Any(), "t1", "b1").Return(nil, nil)
	m.ledger.EXPECT().GetTransactionLedger(gomock.Any(), "b1", gomock.Any()).Return(nil, nil)
	m.cache.EXPECT().Set(gomock.Any(), defaultKey, gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	metrics, err := service.Refresh(context.Background(), testScope, domain.DashboardFilters{})

	require.NoError(t, err)
	assert.Equal(t, 0, metrics.TotalProducts)
	assert.Len(t, metrics.DailyActivity, 30)
}

func TestService_Invalidate(t *testing.T) {
	service, m := newTestService(t, Options{})

	m.cache.EXPECT().InvalidatePrefix(gomock.Any(), "dashboard:t1:b1:").Return(nil)
	require.NoError(t, service.Invalidate(context.Background(), testScope))

	m.cache.EXPECT().InvalidatePrefix(gomock.Any(), "dashboard:t1:b1:").Return(errors.New("redis down"))
	assert.Error(t, service.Invalidate(context.Background(), testScope))
}

func TestService_Validate_AcceptsMaxWindow(t *testing.T) {
	service, m := newTestService(t, Options{MaxWindowDays: 366})
	// 2023-01-09 a 2024-01-09: 366 dias
	filters := domain.DashboardFilters{DateFrom: date("2023-01-09"), DateTo: date("2024-01-09")}

	m.snapshots.EXPECT().GetProductSnapshot(gomock.Any(), "t1", "b1").Return(nil, nil)
	m.ledger.EXPECT().GetTransactionLedger(gomock.Any(), "b1", gomock.Any()).Return(nil, nil)
	m.cache.EXPECT().Set(gomock.Any(), "dashboard:t1:b1:2023-01-09:2024-01-09", gomock.Any(), gomock.Any()).Return(nil)

	metrics, err := service.Refresh(context.Background(), testScope, filters)

	require.NoError(t, err)
	assert.Len(t, metrics.DailyActivity, 366)
}

// blockingSnapshots segura a primeira leitura do catálogo até o teste liberar
type blockingSnapshots struct {
	calls   atomic.Int32
	started chan int
	release chan struct{}
}

func newBlockingSnapshots() *blockingSnapshots {
	return &blockingSnapshots{started: make(chan int, 8), release: make(chan struct{})}
}

func (b *blockingSnapshots) GetProductSnapshot(_ context.Context, _, _ string) ([]domain.ProductRow, error) {
	call := int(b.calls.Add(1))
	b.started <- call
	if call == 1 {
		<-b.release
		return []domain.ProductRow{productRow("p1", "1", "10", "0")}, nil
	}
	return []domain.ProductRow{productRow("p1", "1", "10", "0"), productRow("p2", "1", "10", "0")}, nil
}

func waitStarted(t *testing.T, started chan int, want int) {
	t.Helper()
	select {
	case call := <-started:
		require.Equal(t, want, call)
	case <-time.After(time.Second):
		t.Fatalf("leitura %d do catálogo não foi iniciada", want)
	}
}

func newGuardedService(t *testing.T, snapshots SnapshotLoader) (*Service, *cache.Memory) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerLoader(ctrl)
	ledger.EXPECT().GetTransactionLedger(gomock.Any(), "b1", gomock.Any()).Return(nil, nil).AnyTimes()

	metricsCache := cache.NewMemory()
	return NewService(snapshots, ledger, metricsCache, newTestAggregator(), Options{}), metricsCache
}

func TestService_Refresh_OlderResultDoesNotOverwriteCache(t *testing.T) {
	snapshots := newBlockingSnapshots()
	service, metricsCache := newGuardedService(t, snapshots)
	ctx := context.Background()

	older := make(chan *domain.DashboardMetrics, 1)
	go func() {
		metrics, err := service.Refresh(ctx, testScope, domain.DashboardFilters{})
		assert.NoError(t, err)
		older <- metrics
	}()
	waitStarted(t, snapshots.started, 1)

	newer, err := service.Refresh(ctx, testScope, domain.DashboardFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, newer.TotalProducts)

	close(snapshots.release)
	select {
	case metrics := <-older:
		assert.Equal(t, 1, metrics.TotalProducts, "quem chamou recebe o próprio resultado")
	case <-time.After(time.Second):
		t.Fatal("cálculo mais antigo não terminou")
	}

	cached, found, err := metricsCache.Get(ctx, defaultKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, cached.TotalProducts)

	metrics, err := service.GetDashboard(ctx, testScope, domain.DashboardFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.TotalProducts)
}

func TestService_Refresh_InvalidatedDuringComputeIsNotCached(t *testing.T) {
	snapshots := newBlockingSnapshots()
	service, metricsCache := newGuardedService(t, snapshots)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := service.Refresh(ctx, testScope, domain.DashboardFilters{})
		assert.NoError(t, err)
	}()
	waitStarted(t, snapshots.started, 1)

	// Alteração chega enquanto o cálculo lê dados antigos
	require.NoError(t, service.Invalidate(ctx, testScope))
	close(snapshots.release)
	<-done

	_, found, err := metricsCache.Get(ctx, defaultKey)
	require.NoError(t, err)
	assert.False(t, found)

	// O próximo cálculo começa depois da invalidação e grava normalmente
	metrics, err := service.GetDashboard(ctx, testScope, domain.DashboardFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.TotalProducts)
	_, found, _ = metricsCache.Get(ctx, defaultKey)
	assert.True(t, found)
}
