// Package cache guarda o último DashboardMetrics calculado por escopo e janela
package cache

import (
	"errors"
	"fmt"

	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

const keyPrefix = "dashboard"

var ErrCacheUnavailable = errors.New("cache indisponível")

// Key monta a chave do cache: dashboard:<tenant>:<branch>:<from>:<to>
func Key(scope domain.Scope, window domain.DateWindow) string {
	return fmt.Sprintf("%s%s:%s", ScopePrefix(scope), window.From, window.To)
}

// ScopePrefix é o prefixo comum de todas as janelas de um escopo (termina em ":" para
// que a filial "b1" não case com "b10")
func ScopePrefix(scope domain.Scope) string {
	return fmt.Sprintf("%s:%s:%s:", keyPrefix, scope.TenantID, scope.BranchID)
}
