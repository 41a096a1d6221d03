// Package flow resuelve la completion de flows de autenticación pendientes:
// recibe el id del request del protocolo, junta las sesiones que conoce el
// user-agent y delega en el colaborador OIDC o SAML según el prefijo del id.
package flow

import (
	"errors"
	"strings"
)

// Protocol identifica el protocolo dueño de un auth request pendiente.
type Protocol string

const (
	ProtocolOIDC Protocol = "oidc"
	ProtocolSAML Protocol = "saml"
)

const (
	oidcPrefix = "oidc_"
	samlPrefix = "saml_"
)

// ErrInvalidRequestIDFormat: el id no lleva un prefijo de protocolo conocido.
// El mensaje es el que ve el usuario.
var ErrInvalidRequestIDFormat = errors.New("Invalid request ID format")

// RequestID es un id de auth request ya clasificado por protocolo.
// ID es el identificador sin el prefijo, tal como lo espera el IdP.
type RequestID struct {
	Protocol Protocol
	ID       string
}

// ParseRequestID clasifica un id por su prefijo y lo despoja de él.
// Un prefijo sin resto ("oidc_") también es formato inválido.
func ParseRequestID(raw string) (RequestID, error) {
	switch {
	case strings.HasPrefix(raw, oidcPrefix) && len(raw) > len(oidcPrefix):
		return RequestID{Protocol: ProtocolOIDC, ID: strings.TrimPrefix(raw, oidcPrefix)}, nil
	case strings.HasPrefix(raw, samlPrefix) && len(raw) > len(samlPrefix):
		return RequestID{Protocol: ProtocolSAML, ID: strings.TrimPrefix(raw, samlPrefix)}, nil
	}
	return RequestID{}, ErrInvalidRequestIDFormat
}
