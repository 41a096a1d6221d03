// Package idp define los contratos hacia el identity provider y el cliente
// HTTP de producción que los implementa. El resto del servicio depende solo
// de estas interfaces; los tests inyectan fakes.
package idp

import (
	"context"

	"github.com/dropDatabas3/loginjohn/internal/cookies"
	"github.com/dropDatabas3/loginjohn/internal/domain/session"
)

// SessionAPI consulta sesiones en el IdP.
type SessionAPI interface {
	// GetSession retorna la vista fresca de una sesión.
	GetSession(ctx context.Context, id string) (session.View, error)

	// ListSessions retorna las vistas de las sesiones pedidas en un solo
	// batch. El caller es responsable de filtrar ids vacíos antes de llamar.
	ListSessions(ctx context.Context, ids []string) ([]session.View, error)
}

// UserAPI opera sobre usuarios del IdP.
type UserAPI interface {
	// ListAuthenticationMethodTypes retorna los métodos de autenticación
	// configurados para la cuenta (independiente de la sesión actual).
	ListAuthenticationMethodTypes(ctx context.Context, userID string) ([]session.FactorKind, error)

	// SetPasswordWithSession setea la password actuando como el usuario,
	// autenticado con el token de la propia sesión.
	SetPasswordWithSession(ctx context.Context, in SessionPasswordInput) error

	// SetPasswordAsService setea la password actuando como operador, con la
	// credencial privilegiada de servicio, dirigida a usuario+organización.
	SetPasswordAsService(ctx context.Context, in ServicePasswordInput) error
}

// SettingsAPI consulta settings de login por organización.
type SettingsAPI interface {
	GetLoginSettings(ctx context.Context, orgID string) (*LoginSettings, error)
	GetPasswordComplexitySettings(ctx context.Context, orgID string) (*PasswordComplexitySettings, error)
	GetLockoutSettings(ctx context.Context, orgID string) (*LockoutSettings, error)
}

// CompletionRequest es la entrada de una completion OIDC/SAML.
// RequestID viene ya sin prefijo de protocolo.
type CompletionRequest struct {
	RequestID    string
	SessionID    string
	Organization string
	Sessions     []session.View
	Cookies      []cookies.SessionCookie
}

// OIDCAPI completa auth requests OIDC pendientes.
type OIDCAPI interface {
	// LoginWithOIDCAndSession retorna el resultado cerrado de la completion,
	// o un error de transporte/colaborador. Un (nil, nil) es un resultado
	// vacío inesperado del colaborador y lo maneja el resolver.
	LoginWithOIDCAndSession(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// SAMLAPI completa SAML requests pendientes.
type SAMLAPI interface {
	LoginWithSAMLAndSession(ctx context.Context, req CompletionRequest) (*Completion, error)
}
