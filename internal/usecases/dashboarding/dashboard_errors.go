package dashboarding

import (
	"errors"
	"fmt"

	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/pkg/apiErrors"
)

var (
	// Erros de validação
	ErrInvalidDateRange = errors.New("período inválido")
	ErrWindowTooLarge   = fmt.Errorf("%w: janela acima do máximo permitido", ErrInvalidDateRange)

	// Erros de carregamento
	ErrLoaderFailure   = errors.New("falha ao carregar dados de estoque")
	ErrSnapshotLoader  = fmt.Errorf("%w: catálogo", ErrLoaderFailure)
	ErrLedgerLoader    = fmt.Errorf("%w: ledger", ErrLoaderFailure)
	ErrInstanceClosed  = errors.New("instância de métricas encerrada")
	ErrSubscribeFailed = errors.New("falha ao assinar alterações")
)

// DashboardError é um erro com contexto adicional para o dashboard
type DashboardError struct {
	Err     error        // Erro base
	Code    string       // Código de erro para API
	Scope   domain.Scope // Tenant e filial envolvidos
	Details string       // Detalhes adicionais
}

func (e *DashboardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *DashboardError) Unwrap() error {
	return e.Err
}

func NewDashboardError(err error, code string, scope domain.Scope, details string) *DashboardError {
	return &DashboardError{
		Err:     err,
		Code:    code,
		Scope:   scope,
		Details: details,
	}
}

// ErrorCode retorna o código da API para qualquer erro produzido por este pacote
func ErrorCode(err error) string {
	var dashErr *DashboardError
	if errors.As(err, &dashErr) && dashErr.Code != "" {
		return dashErr.Code
	}

	switch {
	case errors.Is(err, domain.ErrScopeRequired):
		return apiErrors.ErrMissingRequiredData
	case errors.Is(err, ErrInvalidDateRange):
		return apiErrors.ErrInvalidDateRange
	case errors.Is(err, ErrLoaderFailure):
		return apiErrors.ErrLoaderFailure
	case errors.Is(err, ErrSubscribeFailed), errors.Is(err, ErrInstanceClosed):
		return apiErrors.ErrStreamUnavailable
	default:
		return apiErrors.ErrInternalServer
	}
}
