package handlers

import (
	"net/http"

	"github.com/dropDatabas3/loginjohn/internal/flow"
	apperrors "github.com/dropDatabas3/loginjohn/internal/http/errors"
	"github.com/dropDatabas3/loginjohn/internal/observability/logger"
	"github.com/dropDatabas3/loginjohn/internal/observability/metrics"
)

type completeFlowRequest struct {
	AuthRequestID string `json:"auth_request_id"`
	SessionID     string `json:"session_id,omitempty"`
	Organization  string `json:"organization,omitempty"`
}

type completeFlowResponse struct {
	Redirect string `json:"redirect"`
}

// FlowHandler atiende las completions de flows pendientes.
type FlowHandler struct {
	Service    flow.Service
	CookieName string
}

// Complete maneja POST /v1/flow/complete.
func (h *FlowHandler) Complete(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("handler"), logger.Op("flow.complete"))

	var req completeFlowRequest
	if !readStrictJSON(w, r, &req) {
		return
	}

	protocol := "unknown"
	if rid, err := flow.ParseRequestID(req.AuthRequestID); err == nil {
		protocol = string(rid.Protocol)
	}

	res, err := h.Service.Complete(r.Context(), flow.CompleteRequest{
		AuthRequestID: req.AuthRequestID,
		SessionID:     req.SessionID,
		Organization:  req.Organization,
		JarHandle:     jarHandle(r, h.CookieName),
	})
	if err != nil {
		log.Warn("flow completion failed", logger.AuthRequestID(req.AuthRequestID), logger.Err(err))
		metrics.ObserveFlowCompletion(protocol, "error")
		apperrors.WriteError(w, mapServiceError(err))
		return
	}

	metrics.ObserveFlowCompletion(protocol, "ok")
	writeJSON(w, http.StatusOK, completeFlowResponse{Redirect: res.Redirect})
}
