package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/loginjohn/internal/cache"
	"github.com/dropDatabas3/loginjohn/internal/flow"
	"github.com/dropDatabas3/loginjohn/internal/http/handlers"
	"github.com/dropDatabas3/loginjohn/internal/http/middlewares"
	"github.com/dropDatabas3/loginjohn/internal/observability/metrics"
	"github.com/dropDatabas3/loginjohn/internal/password"
	"github.com/dropDatabas3/loginjohn/internal/rate"
)

// RouterDeps agrupa todo lo que necesita el router.
type RouterDeps struct {
	Password   password.Service
	Flow       flow.Service
	Cache      cache.Client
	RateLimit  rate.Limiter
	CookieName string
	Version    string
}

// NewRouter arma el router completo del servicio.
func NewRouter(deps RouterDeps) (http.Handler, error) {
	metricsHandler, err := metrics.Register(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}

	pw := &handlers.PasswordHandler{Service: deps.Password, CookieName: deps.CookieName}
	fl := &handlers.FlowHandler{Service: deps.Flow, CookieName: deps.CookieName}
	health := &handlers.HealthHandler{Cache: deps.Cache, Version: deps.Version}

	r := chi.NewRouter()

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/password", middlewares.ChainFunc(
			pw.Change,
			middlewares.WithNoStore(),
			middlewares.WithRateLimit(deps.RateLimit),
		))
		r.Method(http.MethodPost, "/flow/complete", middlewares.ChainFunc(
			fl.Complete,
			middlewares.WithNoStore(),
		))
	})

	// Middlewares externos: request id primero, después logging y métricas.
	return middlewares.Chain(r,
		middlewares.WithRequestID(),
		middlewares.WithLogging(),
		WithMetrics(),
		middlewares.WithRecover(),
	), nil
}
