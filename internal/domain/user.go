package domain

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims são emitidas pelo serviço de autenticação externo
type Claims struct {
	UserID    string   `json:"sub_id"`
	UserEmail string   `json:"email"`
	RoleID    int      `json:"role_id"`
	TenantID  string   `json:"tenant_id"`
	BranchIDs []string `json:"branch_ids"`
	jwt.RegisteredClaims
}

// CanAccessBranch indica se o usuário tem acesso à filial (administradores acessam todas do tenant)
func (c *Claims) CanAccessBranch(branchID string, adminRoleID int) bool {
	if c.RoleID == adminRoleID {
		return true
	}
	return slices.Contains(c.BranchIDs, branchID)
}
