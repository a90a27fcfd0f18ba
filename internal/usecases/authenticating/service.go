package authenticating

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vfg2006/inventory-analytics-api/internal/config"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
)

// Authenticator valida os tokens emitidos pelo serviço de autenticação externo.
// A emissão existe apenas para ferramentas internas e testes.
type Authenticator interface {
	ValidateToken(tokenString string) (*domain.Claims, error)
	GenerateToken(claims domain.Claims, ttl time.Duration) (string, error)
	AdminRoleID() int
}

type Service struct {
	cfg config.Auth
}

func NewService(cfg config.Auth) Authenticator {
	return &Service{cfg: cfg}
}

func (s *Service) AdminRoleID() int {
	return s.cfg.AdminRoleID
}

func (s *Service) GenerateToken(claims domain.Claims, ttl time.Duration) (string, error) {
	if claims.TenantID == "" {
		return "", &AuthError{Err: ErrMissingTenant, Details: "claims sem tenant_id"}
	}

	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}

func (s *Service) ValidateToken(tokenString string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &AuthError{Err: ErrExpiredToken}
		}
		return nil, &AuthError{Err: ErrInvalidToken, Details: err.Error()}
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, &AuthError{Err: ErrInvalidToken}
	}

	// Sem tenant não há como delimitar as métricas
	if claims.TenantID == "" {
		return nil, &AuthError{Err: ErrMissingTenant, UserID: claims.UserID}
	}

	return claims, nil
}
