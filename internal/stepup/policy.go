// Package stepup implementa la política de step-up para mutaciones sensibles
// de cuenta: decide si la sesión puede actuar por sí misma o si debe actuar
// una credencial privilegiada en su lugar.
//
// Decide es una función pura de sus parámetros (ventana de frescura y reloj
// incluidos); nada acá lee configuración ambiente.
package stepup

import (
	"errors"
	"time"

	"github.com/dropDatabas3/loginjohn/internal/domain/session"
)

// Path indica con qué credencial se ejecuta la mutación autorizada.
type Path string

const (
	// PathSessionScoped: la sesión actúa por sí misma, con su propio token.
	PathSessionScoped Path = "session_scoped"
	// PathPrivilegedFallback: una credencial de servicio actúa sobre la cuenta.
	PathPrivilegedFallback Path = "privileged_fallback"
)

// Outcome es el resultado de la evaluación: autorizar o denegar.
type Outcome string

const (
	OutcomeAuthorize Outcome = "authorize"
	OutcomeDeny      Outcome = "deny"
)

// Reason explica por qué se llegó a la decisión.
type Reason string

const (
	ReasonNoSecondFactorConfigured Reason = "no_second_factor_configured"
	ReasonSecondFactorVerified     Reason = "second_factor_verified_in_session"
	ReasonSecondFactorMissingFresh Reason = "second_factor_missing_password_fresh"
	ReasonSecondFactorMissingStale Reason = "second_factor_missing_password_stale"
)

// MsgPasswordCheckTooOld es el mensaje visible al usuario cuando la
// verificación de password quedó fuera de la ventana de frescura.
const MsgPasswordCheckTooOld = "password verification too old"

// ErrNoPasswordVerification: la sesión nunca verificó password. Es un estado
// inválido del caller, distinto de "verificación vieja"; no produce Deny ni
// fallback, se propaga tal cual.
var ErrNoPasswordVerification = errors.New("session has no password verification")

// AccountAuthConfig describe qué métodos de autenticación tiene enrolados la
// cuenta, independiente de lo verificado en la sesión actual.
type AccountAuthConfig struct {
	ConfiguredMethods []session.FactorKind
}

// HasSecondFactor indica si la cuenta tiene algún segundo factor configurado.
func (c AccountAuthConfig) HasSecondFactor() bool {
	for _, m := range c.ConfiguredMethods {
		if m.IsSecondFactor() {
			return true
		}
	}
	return false
}

// Decision es el resultado de Decide. Outcome separa "autorizar" de "denegar"
// de forma explícita: Path solo es válido cuando Outcome == OutcomeAuthorize,
// y Message solo viene seteado en denegaciones.
type Decision struct {
	Outcome Outcome
	Path    Path
	Reason  Reason
	Message string
}

// Authorized es un shortcut para Outcome == OutcomeAuthorize.
func (d Decision) Authorized() bool { return d.Outcome == OutcomeAuthorize }

// Decide evalúa, en este orden exacto (gana la primera regla que aplique):
//
//  1. La cuenta no tiene segundo factor configurado → la sesión actúa sola.
//  2. La sesión ya verificó un segundo factor (cualquier antigüedad) → actúa sola.
//  3. Falta el segundo factor: se mira la edad de la verificación de password.
//     Sin verificación de password → ErrNoPasswordVerification.
//     Edad ≤ window → fallback privilegiado (gracia post re-autenticación).
//     Edad > window → denegar con MsgPasswordCheckTooOld.
//
// La edad se compara en segundos enteros y una edad negativa (clock skew)
// cuenta como fresca.
func Decide(view session.View, cfg AccountAuthConfig, window time.Duration, now time.Time) (Decision, error) {
	if !cfg.HasSecondFactor() {
		return Decision{
			Outcome: OutcomeAuthorize,
			Path:    PathSessionScoped,
			Reason:  ReasonNoSecondFactorConfigured,
		}, nil
	}

	if view.HasVerifiedSecondFactor() {
		return Decision{
			Outcome: OutcomeAuthorize,
			Path:    PathSessionScoped,
			Reason:  ReasonSecondFactorVerified,
		}, nil
	}

	pwAt, ok := view.VerifiedAt(session.FactorPassword)
	if !ok {
		return Decision{}, ErrNoPasswordVerification
	}

	age := now.Unix() - pwAt.Unix()
	if age <= int64(window.Seconds()) {
		return Decision{
			Outcome: OutcomeAuthorize,
			Path:    PathPrivilegedFallback,
			Reason:  ReasonSecondFactorMissingFresh,
		}, nil
	}

	return Decision{
		Outcome: OutcomeDeny,
		Reason:  ReasonSecondFactorMissingStale,
		Message: MsgPasswordCheckTooOld,
	}, nil
}
