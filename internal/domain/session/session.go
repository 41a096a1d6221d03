// Package session define la vista de solo lectura de una sesión autenticada
// usada por las decisiones de política. Es una proyección pura del estado que
// expone el IdP: se construye fresca en cada evaluación y nunca se muta acá.
package session

import "time"

// FactorKind identifica un método de prueba de identidad dentro de una sesión.
type FactorKind string

const (
	FactorPassword FactorKind = "password"
	FactorTOTP     FactorKind = "totp"
	FactorOTPSMS   FactorKind = "otp_sms"
	FactorOTPEmail FactorKind = "otp_email"
	FactorU2F      FactorKind = "u2f"
	FactorPasskey  FactorKind = "passkey"
	FactorIDP      FactorKind = "idp"
)

// IsSecondFactor indica si el factor cuenta como segundo factor para step-up.
// Password no lo es; IDP tampoco (es un login delegado, no una prueba extra).
func (k FactorKind) IsSecondFactor() bool {
	switch k {
	case FactorTOTP, FactorOTPSMS, FactorOTPEmail, FactorU2F, FactorPasskey:
		return true
	}
	return false
}

// Factor es una prueba de identidad verificada dentro de la sesión.
type Factor struct {
	Kind       FactorKind
	VerifiedAt time.Time
}

// View es el subset de una sesión relevante para decisiones de política.
// Factors solo contiene factores efectivamente verificados (VerifiedAt != zero):
// un factor con timestamp vacío se trata igual que un factor ausente.
type View struct {
	ID             string
	UserID         string
	OrganizationID string
	Token          string
	Factors        map[FactorKind]Factor
}

// VerifiedAt retorna el timestamp de verificación de un factor, si está presente.
func (v View) VerifiedAt(kind FactorKind) (time.Time, bool) {
	f, ok := v.Factors[kind]
	if !ok || f.VerifiedAt.IsZero() {
		return time.Time{}, false
	}
	return f.VerifiedAt, true
}

// HasVerifiedSecondFactor indica si algún segundo factor fue verificado en la
// sesión. Un factor con VerifiedAt zero se trata igual que un factor ausente.
func (v View) HasVerifiedSecondFactor() bool {
	for kind, f := range v.Factors {
		if kind.IsSecondFactor() && !f.VerifiedAt.IsZero() {
			return true
		}
	}
	return false
}

// Payload es la forma cruda de una sesión tal como la entrega el IdP,
// previa a la normalización. VerifiedAt nil o zero significa "no verificado".
type Payload struct {
	ID             string
	UserID         string
	OrganizationID string
	Token          string
	Factors        []PayloadFactor
}

// PayloadFactor es un factor crudo del payload del IdP.
type PayloadFactor struct {
	Kind       FactorKind
	VerifiedAt *time.Time
}

// FromPayload proyecta el payload crudo a la vista normalizada.
// Descarta factores sin timestamp de verificación; ante kinds repetidos
// conserva la verificación más reciente.
func FromPayload(p Payload) View {
	v := View{
		ID:             p.ID,
		UserID:         p.UserID,
		OrganizationID: p.OrganizationID,
		Token:          p.Token,
		Factors:        make(map[FactorKind]Factor, len(p.Factors)),
	}
	for _, f := range p.Factors {
		if f.VerifiedAt == nil || f.VerifiedAt.IsZero() {
			continue
		}
		if prev, ok := v.Factors[f.Kind]; ok && prev.VerifiedAt.After(*f.VerifiedAt) {
			continue
		}
		v.Factors[f.Kind] = Factor{Kind: f.Kind, VerifiedAt: *f.VerifiedAt}
	}
	return v
}
