// Package domain contém as estruturas de dados do domínio da aplicação
package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrScopeRequired = errors.New("tenant and branch are required")

// Scope identifica o tenant e a filial sobre os quais as métricas são calculadas
type Scope struct {
	TenantID string `json:"tenant_id"`
	BranchID string `json:"branch_id"`
}

func (s Scope) Validate() error {
	if strings.TrimSpace(s.TenantID) == "" || strings.TrimSpace(s.BranchID) == "" {
		return ErrScopeRequired
	}
	return nil
}

func (s Scope) Key() string {
	return fmt.Sprintf("%s:%s", s.TenantID, s.BranchID)
}

func (s Scope) String() string {
	return s.Key()
}
