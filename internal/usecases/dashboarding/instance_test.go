package dashboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/pkg/apiErrors"
)

const testDebounce = 20 * time.Millisecond

func newTestInstance(refresher Refresher, notifier ChangeNotifier) *MetricsInstance {
	return NewMetricsInstance(defaultKey, testScope, domain.DashboardFilters{}, refresher, notifier,
		InstanceOptions{Debounce: testDebounce, Now: func() time.Time { return referenceNow }})
}

func waitCall(t *testing.T, refresher *fakeRefresher, want int) {
	t.Helper()
	select {
	case call := <-refresher.started:
		require.Equal(t, want, call)
	case <-time.After(time.Second):
		t.Fatalf("recálculo %d não foi iniciado", want)
	}
}

func waitState(t *testing.T, instance *MetricsInstance, want State) {
	t.Helper()
	assert.Eventually(t, func() bool { return instance.State() == want }, time.Second, 2*time.Millisecond)
}

func stockEvent() domain.ChangeEvent {
	return domain.ChangeEvent{TenantID: "t1", BranchID: "b1", Table: domain.TableStockTransactions, Operation: "INSERT"}
}

func TestMetricsInstance_Lifecycle(t *testing.T) {
	refresher := newFakeRefresher()
	notifier := &fakeNotifier{}
	instance := newTestInstance(refresher, notifier)

	assert.Equal(t, StateIdle, instance.State())

	_, updates, stop := instance.Watch()
	defer stop()

	require.NoError(t, instance.Start(context.Background()))
	waitCall(t, refresher, 1)
	assert.Equal(t, StateLoading, instance.State())

	refresher.resolve(1, metricsWithProducts(1), nil)
	waitState(t, instance, StateReady)

	snapshot := instance.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Sequence)
	assert.Equal(t, 1, snapshot.Metrics.TotalProducts)

	received := false
	timeout := time.After(time.Second)
	for !received {
		select {
		case update := <-updates:
			received = update.State == StateReady && update.Metrics != nil
		case <-timeout:
			t.Fatal("observador não recebeu READY")
		}
	}
}

func TestMetricsInstance_DebounceCoalescesBursts(t *testing.T) {
	refresher := newFakeRefresher()
	notifier := &fakeNotifier{}
	instance := newTestInstance(refresher, notifier)

	require.NoError(t, instance.Start(context.Background()))
	waitCall(t, refresher, 1)
	refresher.resolve(1, metricsWithProducts(1), nil)
	waitState(t, instance, StateReady)

	for i := 0; i < 5; i++ {
		notifier.emit(stockEvent())
	}
	// Em máquina lenta o debounce pode já ter disparado
	assert.Contains(t, []State{StateStale, StateLoading}, instance.State())

	assert.Equal(t, 5, refresher.invalidationCount(), "todo evento invalida o cache da filial")

	waitCall(t, refresher, 2)
	refresher.resolve(2, metricsWithProducts(2), nil)
	waitState(t, instance, StateReady)

	time.Sleep(3 * testDebounce)
	assert.Equal(t, 2, refresher.callCount(), "rajada gera um único recálculo")
	assert.Equal(t, 2, instance.Snapshot().Metrics.TotalProducts)
}

func TestMetricsInstance_OlderResultNeverOverwritesNewer(t *testing.T) {
	refresher := newFakeRefresher()
	notifier := &fakeNotifier{}
	instance := newTestInstance(refresher, notifier)

	require.NoError(t, instance.Start(context.Background()))
	waitCall(t, refresher, 1)
	refresher.resolve(1, metricsWithProducts(1), nil)
	waitState(t, instance, StateReady)

	notifier.emit(stockEvent())
	waitCall(t, refresher, 2)

	// Novo aviso enquanto o cálculo 2 ainda está em andamento
	instance.MarkStale()
	waitCall(t, refresher, 3)

	refresher.resolve(3, metricsWithProducts(3), nil)
	waitState(t, instance, StateReady)

	refresher.resolve(2, metricsWithProducts(2), nil)
	time.Sleep(3 * testDebounce)

	snapshot := instance.Snapshot()
	assert.Equal(t, StateReady, snapshot.State)
	assert.Equal(t, uint64(3), snapshot.Sequence)
	assert.Equal(t, 3, snapshot.Metrics.TotalProducts)
}

func TestMetricsInstance_ErrorKeepsLastMetrics(t *testing.T) {
	refresher := newFakeRefresher()
	notifier := &fakeNotifier{}
	instance := newTestInstance(refresher, notifier)

	require.NoError(t, instance.Start(context.Background()))
	waitCall(t, refresher, 1)
	refresher.resolve(1, metricsWithProducts(4), nil)
	waitState(t, instance, StateReady)

	notifier.emit(stockEvent())
	waitCall(t, refresher, 2)
	refresher.resolve(2, nil, NewDashboardError(ErrSnapshotLoader, apiErrors.ErrLoaderFailure, testScope, ""))
	waitState(t, instance, StateError)

	snapshot := instance.Snapshot()
	require.NotNil(t, snapshot.Metrics)
	assert.Equal(t, 4, snapshot.Metrics.TotalProducts)
	assert.ErrorIs(t, snapshot.Error, ErrLoaderFailure)
	assert.Equal(t, apiErrors.ErrLoaderFailure, snapshot.ErrorCode)

	// Recupera no próximo aviso
	notifier.emit(stockEvent())
	waitCall(t, refresher, 3)
	refresher.resolve(3, metricsWithProducts(5), nil)
	waitState(t, instance, StateReady)
	assert.Nil(t, instance.Snapshot().Error)
}

func TestMetricsInstance_CloseIsTerminal(t *testing.T) {
	refresher := newFakeRefresher()
	notifier := &fakeNotifier{}
	instance := newTestInstance(refresher, notifier)

	_, updates, _ := instance.Watch()

	require.NoError(t, instance.Start(context.Background()))
	waitCall(t, refresher, 1)

	instance.Close()
	instance.Close()
	assert.Equal(t, StateUnsubscribed, instance.State())
	assert.Equal(t, 1, notifier.unsubscribeCount())

	// Resultado que chega depois do encerramento é ignorado
	refresher.resolve(1, metricsWithProducts(1), nil)
	notifier.emit(stockEvent())
	time.Sleep(3 * testDebounce)

	assert.Equal(t, StateUnsubscribed, instance.State())
	assert.Nil(t, instance.Snapshot().Metrics)
	assert.Equal(t, 1, refresher.callCount())

	for range updates {
	}

	_, closed, _ := instance.Watch()
	_, open := <-closed
	assert.False(t, open)
}

func TestMetricsInstance_StartFailsWhenSubscribeFails(t *testing.T) {
	refresher := newFakeRefresher()
	notifier := &fakeNotifier{err: errors.New("listener down")}
	instance := newTestInstance(refresher, notifier)

	err := instance.Start(context.Background())

	assert.ErrorIs(t, err, ErrSubscribeFailed)
	assert.Equal(t, apiErrors.ErrStreamUnavailable, ErrorCode(err))
	assert.Equal(t, 0, refresher.callCount())
}

func TestMetricsInstance_OutOfOrderRefreshKeepsNewestInCache(t *testing.T) {
	snapshots := newBlockingSnapshots()
	service, metricsCache := newGuardedService(t, snapshots)
	notifier := &fakeNotifier{}
	instance := newTestInstance(service, notifier)
	defer instance.Close()
	ctx := context.Background()

	require.NoError(t, instance.Start(ctx))
	waitStarted(t, snapshots.started, 1)

	// Alteração durante o primeiro cálculo: o segundo termina antes
	notifier.emit(stockEvent())
	waitStarted(t, snapshots.started, 2)
	assert.Eventually(t, func() bool {
		snapshot := instance.Snapshot()
		return snapshot.State == StateReady && snapshot.Metrics != nil && snapshot.Metrics.TotalProducts == 2
	}, time.Second, 2*time.Millisecond)

	close(snapshots.release)
	time.Sleep(3 * testDebounce)

	assert.Equal(t, 2, instance.Snapshot().Metrics.TotalProducts)

	cached, found, err := metricsCache.Get(ctx, defaultKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, cached.TotalProducts)

	metrics, err := service.GetDashboard(ctx, testScope, domain.DashboardFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.TotalProducts)
}
