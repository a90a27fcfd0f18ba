package dashboarding

import (
	"context"
	"sync"
	"time"

	"github.com/vfg2006/inventory-analytics-api/internal/analytics"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

// Data de referência dos testes: 10 de janeiro de 2024, meio-dia UTC
var referenceNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

var testScope = domain.Scope{TenantID: "t1", BranchID: "b1"}

// Chave da janela padrão (30 dias até a data de referência)
const defaultKey = "dashboard:t1:b1:2023-12-12:2024-01-10"

func newTestAggregator() *analytics.Aggregator {
	return analytics.NewAggregator(analytics.Options{
		Now: func() time.Time { return referenceNow },
	})
}

func ptr(s string) *string {
	return &s
}

func productRow(id, qty, price, min string) domain.ProductRow {
	return domain.ProductRow{
		ID:                ptr(id),
		Name:              ptr("Produto " + id),
		QuantityInStock:   ptr(qty),
		UnitPrice:         ptr(price),
		MinimumStockLevel: ptr(min),
	}
}

func transactionRow(id, productID, rawType, qty, createdAt string) domain.TransactionRow {
	return domain.TransactionRow{
		ID:          ptr(id),
		ProductID:   ptr(productID),
		ProductName: ptr("Produto " + productID),
		Type:        ptr(rawType),
		Quantity:    ptr(qty),
		UnitPrice:   ptr("10"),
		CreatedAt:   ptr(createdAt),
		BranchID:    ptr("b1"),
	}
}

func date(value string) *time.Time {
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		panic(err)
	}
	return &d
}

// fakeNotifier guarda os handlers inscritos para que o teste dispare eventos
type fakeNotifier struct {
	mu           sync.Mutex
	handlers     []func(domain.ChangeEvent)
	unsubscribed int
	err          error
}

func (f *fakeNotifier) Subscribe(_ context.Context, _ domain.Scope, _ []string, onEvent func(domain.ChangeEvent)) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.handlers = append(f.handlers, onEvent)
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		f.unsubscribed++
		f.mu.Unlock()
	}, nil
}

func (f *fakeNotifier) emit(event domain.ChangeEvent) {
	f.mu.Lock()
	handlers := append([]func(domain.ChangeEvent){}, f.handlers...)
	f.mu.Unlock()
	for _, handler := range handlers {
		handler(event)
	}
}

func (f *fakeNotifier) unsubscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribed
}

type refreshResult struct {
	metrics *domain.DashboardMetrics
	err     error
}

// fakeRefresher devolve resultados na ordem em que o teste os libera, permitindo simular
// cálculos que terminam fora de ordem
type fakeRefresher struct {
	mu            sync.Mutex
	calls         int
	invalidations int
	pending       []chan refreshResult
	started       chan int
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{started: make(chan int, 16)}
}

func (f *fakeRefresher) Refresh(_ context.Context, _ domain.Scope, _ domain.DashboardFilters) (*domain.DashboardMetrics, error) {
	ch := make(chan refreshResult, 1)
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.pending = append(f.pending, ch)
	f.mu.Unlock()

	f.started <- call
	result := <-ch
	return result.metrics, result.err
}

// resolve libera a chamada n (a partir de 1)
func (f *fakeRefresher) resolve(n int, metrics *domain.DashboardMetrics, err error) {
	f.mu.Lock()
	ch := f.pending[n-1]
	f.mu.Unlock()
	ch <- refreshResult{metrics: metrics, err: err}
}

func (f *fakeRefresher) Invalidate(_ context.Context, _ domain.Scope) error {
	f.mu.Lock()
	f.invalidations++
	f.mu.Unlock()
	return nil
}

func (f *fakeRefresher) invalidationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalidations
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func metricsWithProducts(total int) *domain.DashboardMetrics {
	return &domain.DashboardMetrics{TotalProducts: total, GeneratedAt: referenceNow}
}
