package idp

import "fmt"

// APIError es un error devuelto por la API del IdP. Se propaga sin
// reinterpretar: la capa HTTP decide la presentación al usuario.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("idp: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("idp: %s (status %d)", e.Message, e.StatusCode)
}
