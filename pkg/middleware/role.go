package middleware

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/inventory-analytics-api/pkg/apiErrors"
)

// Constantes para identificar os roles
const (
	RoleAdmin      = 1
	RoleSupervisor = 2
	RoleOperator   = 3
)

// RoleMiddleware cria um middleware que restringe o acesso com base nos roles
// allowedRoles é um array de IDs de roles que têm permissão para acessar a rota
func RoleMiddleware(allowedRoles []int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userClaims, ok := ClaimsFromContext(r.Context())
			if !ok {
				logrus.Warning("Tentativa de acesso sem autenticação")
				apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
				return
			}

			isAllowed := false
			for _, role := range allowedRoles {
				if userClaims.RoleID == role {
					isAllowed = true
					break
				}
			}

			if !isAllowed {
				logrus.Warningf("Acesso negado para usuário ID=%s, Role=%d", userClaims.UserID, userClaims.RoleID)
				apiErrors.WriteError(w, apiErrors.ErrInsufficientPrivilege, "Você não tem permissão para acessar este recurso", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnly é um middleware que permite acesso apenas para administradores
func AdminOnly() func(http.Handler) http.Handler {
	return RoleMiddleware([]int{RoleAdmin})
}

// AllRoles permite acesso a qualquer usuário autenticado com role conhecido
func AllRoles() func(http.Handler) http.Handler {
	return RoleMiddleware([]int{RoleAdmin, RoleSupervisor, RoleOperator})
}

// BranchAccess garante que a filial da rota (:branch_id) pertence ao usuário.
// Administradores acessam todas as filiais do seu tenant.
func BranchAccess(adminRoleID int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userClaims, ok := ClaimsFromContext(r.Context())
			if !ok {
				apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
				return
			}

			branchID := httprouter.ParamsFromContext(r.Context()).ByName("branch_id")
			if branchID == "" {
				apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Filial não informada", nil)
				return
			}

			if !userClaims.CanAccessBranch(branchID, adminRoleID) {
				logrus.WithFields(logrus.Fields{
					"user_id":   userClaims.UserID,
					"tenant_id": userClaims.TenantID,
					"branch_id": branchID,
				}).Warn("Acesso negado à filial")
				apiErrors.WriteError(w, apiErrors.ErrBranchAccessDenied, "Você não tem acesso a esta filial", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
