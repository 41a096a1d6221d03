package handlers

import (
	"net/http"

	apperrors "github.com/dropDatabas3/loginjohn/internal/http/errors"
	"github.com/dropDatabas3/loginjohn/internal/observability/logger"
	"github.com/dropDatabas3/loginjohn/internal/observability/metrics"
	"github.com/dropDatabas3/loginjohn/internal/password"
)

type changePasswordRequest struct {
	SessionID    string `json:"session_id"`
	Organization string `json:"organization,omitempty"`
	NewPassword  string `json:"new_password"`
}

type changePasswordResponse struct {
	OK     bool   `json:"ok"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// PasswordHandler atiende los cambios de password.
type PasswordHandler struct {
	Service    password.Service
	CookieName string
}

// Change maneja POST /v1/password.
func (h *PasswordHandler) Change(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("handler"), logger.Op("password.change"))

	var req changePasswordRequest
	if !readStrictJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" || req.NewPassword == "" {
		apperrors.WriteError(w, apperrors.ErrMissingFields.WithDetail("session_id y new_password son requeridos"))
		return
	}

	res, err := h.Service.Change(r.Context(), password.ChangeRequest{
		SessionID:    req.SessionID,
		Organization: req.Organization,
		NewPassword:  req.NewPassword,
		JarHandle:    jarHandle(r, h.CookieName),
	})
	if err != nil {
		log.Warn("password change rejected", logger.SessionID(req.SessionID), logger.Err(err))
		metrics.ObservePasswordChange("rejected")
		apperrors.WriteError(w, mapServiceError(err))
		return
	}

	metrics.ObservePasswordChange("ok")
	metrics.ObserveStepUpDecision("authorize", string(res.Path), string(res.Reason))
	writeJSON(w, http.StatusOK, changePasswordResponse{
		OK:     true,
		Path:   string(res.Path),
		Reason: string(res.Reason),
	})
}

// jarHandle extrae el handle del jar de la cookie de sesión, si existe.
func jarHandle(r *http.Request, cookieName string) string {
	if cookieName == "" {
		return ""
	}
	ck, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}
