package authenticating

import (
	"errors"
	"fmt"

	"github.com/vfg2006/inventory-analytics-api/pkg/apiErrors"
)

var (
	ErrInvalidToken          = errors.New("token inválido")
	ErrExpiredToken          = errors.New("token expirado")
	ErrMissingTenant         = errors.New("token sem tenant")
	ErrInsufficientPrivilege = errors.New("privilégios insuficientes")
	ErrBranchAccessDenied    = errors.New("usuário sem acesso à filial")
)

// AuthError é um erro com contexto adicional para autenticação
type AuthError struct {
	Err     error  // Erro base
	UserID  string // ID do usuário envolvido (quando aplicável)
	Details string // Detalhes adicionais
}

func (e *AuthError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ErrorCode traduz o erro de autenticação para o código da API
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrExpiredToken):
		return apiErrors.ErrExpiredToken
	case errors.Is(err, ErrInsufficientPrivilege):
		return apiErrors.ErrInsufficientPrivilege
	case errors.Is(err, ErrBranchAccessDenied):
		return apiErrors.ErrBranchAccessDenied
	default:
		return apiErrors.ErrInvalidToken
	}
}
