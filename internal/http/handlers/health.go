package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/loginjohn/internal/cache"
)

// HealthHandler responde los checks de liveness/readiness.
type HealthHandler struct {
	Cache   cache.Client
	Version string
}

// Healthz maneja GET /healthz: proceso vivo.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": h.Version})
}

// Readyz maneja GET /readyz: dependencias alcanzables.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]string{}
	status := http.StatusOK
	if h.Cache != nil {
		if err := h.Cache.Ping(ctx); err != nil {
			deps["cache"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			deps["cache"] = "ok"
		}
	}
	writeJSON(w, status, map[string]any{"status": http.StatusText(status), "deps": deps})
}
