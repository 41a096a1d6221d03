package idp

import "time"

// LoginSettings son los settings de login de una organización.
type LoginSettings struct {
	// PasswordCheckLifetime define la ventana de frescura de la verificación
	// de password para step-up. Cero significa "usar el default del servicio".
	PasswordCheckLifetime  time.Duration
	ForceMFA               bool
	IgnoreUnknownUsernames bool
}

// PasswordComplexitySettings son los requisitos de complejidad de password.
type PasswordComplexitySettings struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// LockoutSettings son los settings de lockout de la organización.
type LockoutSettings struct {
	MaxPasswordAttempts int
}

// Completion es el resultado cerrado de una completion OIDC/SAML: exactamente
// uno de los dos campos viene seteado.
type Completion struct {
	// Redirect es la URL de continuación hacia el relying party.
	Redirect string
	// FailureReason es el error estructurado que reportó el protocolo.
	FailureReason string
}

// SessionPasswordInput es la entrada del path session-scoped.
type SessionPasswordInput struct {
	SessionID      string
	SessionToken   string
	UserID         string
	NewPassword    string
	IdempotencyKey string
}

// ServicePasswordInput es la entrada del path privilegiado.
type ServicePasswordInput struct {
	UserID         string
	OrganizationID string
	NewPassword    string
	IdempotencyKey string
}
