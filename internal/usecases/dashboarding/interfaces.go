package dashboarding

import (
	"context"
	"time"

	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/interfaces.go -package=mocks

// SnapshotLoader obtém o catálogo atual da filial (estado presente do estoque)
type SnapshotLoader interface {
	GetProductSnapshot(ctx context.Context, tenantID, branchID string) ([]domain.ProductRow, error)
}

// LedgerLoader obtém os movimentos mais recentes primeiro, limitados por filter.Limit
type LedgerLoader interface {
	GetTransactionLedger(ctx context.Context, branchID string, filter domain.LedgerFilter) ([]domain.TransactionRow, error)
}

// MetricsCache guarda o último resultado calculado por chave
type MetricsCache interface {
	Get(ctx context.Context, key string) (*domain.DashboardMetrics, bool, error)
	Set(ctx context.Context, key string, metrics domain.DashboardMetrics, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// ChangeNotifier avisa alterações nas tabelas de uma filial. O retorno deve ser chamado
// ao encerrar o consumo para liberar a inscrição.
type ChangeNotifier interface {
	Subscribe(ctx context.Context, scope domain.Scope, tables []string, onEvent func(domain.ChangeEvent)) (func(), error)
}

// Dashboarder é o que a camada HTTP usa
type Dashboarder interface {
	GetDashboard(ctx context.Context, scope domain.Scope, filters domain.DashboardFilters) (*domain.DashboardMetrics, error)
	Refresh(ctx context.Context, scope domain.Scope, filters domain.DashboardFilters) (*domain.DashboardMetrics, error)
	Invalidate(ctx context.Context, scope domain.Scope) error
}
