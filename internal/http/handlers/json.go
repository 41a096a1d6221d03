// Package handlers contiene los handlers HTTP del servicio de login.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/dropDatabas3/loginjohn/internal/http/errors"
)

const maxJSONBody = 64 << 10 // 64KB

// readStrictJSON decodifica el body rechazando campos desconocidos y datos
// extra. Escribe la respuesta de error y retorna false si algo falla.
func readStrictJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	if !strings.Contains(ct, "application/json") {
		apperrors.WriteError(w, apperrors.ErrUnsupportedMediaType)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		msg := "json inválido"
		if err == io.EOF {
			msg = "body vacío"
		}
		apperrors.WriteError(w, apperrors.ErrInvalidJSON.WithDetail(msg))
		return false
	}

	// No debe haber datos extra
	if dec.More() {
		apperrors.WriteError(w, apperrors.ErrInvalidJSON.WithDetail("sobran datos en el body"))
		return false
	}

	return true
}

// writeJSON escribe una respuesta JSON estándar.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
