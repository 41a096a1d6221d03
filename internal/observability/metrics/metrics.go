// Package metrics registra y expone las métricas Prometheus del servicio.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once
	registerErr  error

	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	// Dominio
	stepupDecisionsTotal *prometheus.CounterVec
	passwordChangesTotal *prometheus.CounterVec
	flowCompletionsTotal *prometheus.CounterVec
)

// Register inicializa las métricas y devuelve el handler para /metrics.
func Register(registry prometheus.Registerer) (http.Handler, error) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"})

		stepupDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepup_decisions_total",
			Help: "Decisiones de step-up por resultado y path",
		}, []string{"outcome", "path", "reason"})

		passwordChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "password_changes_total",
			Help: "Cambios de password por resultado",
		}, []string{"outcome"})

		flowCompletionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flow_completions_total",
			Help: "Completions de flows por protocolo y resultado",
		}, []string{"protocol", "outcome"})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration, httpInflight,
			stepupDecisionsTotal, passwordChangesTotal, flowCompletionsTotal,
		} {
			if err := register(registry, c); err != nil {
				registerErr = err
				return
			}
		}
	})
	if registerErr != nil {
		return nil, registerErr
	}
	return promhttp.Handler(), nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// ObserveHTTPRequest registra una request terminada.
func ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// InflightAdd ajusta el gauge de requests en vuelo.
func InflightAdd(method, path string, delta float64) {
	if httpInflight != nil {
		httpInflight.WithLabelValues(method, path).Add(delta)
	}
}

// ObserveStepUpDecision registra una decisión de step-up.
func ObserveStepUpDecision(outcome, path, reason string) {
	if stepupDecisionsTotal != nil {
		stepupDecisionsTotal.WithLabelValues(outcome, path, reason).Inc()
	}
}

// ObservePasswordChange registra el resultado de un cambio de password.
func ObservePasswordChange(outcome string) {
	if passwordChangesTotal != nil {
		passwordChangesTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveFlowCompletion registra el resultado de una completion.
func ObserveFlowCompletion(protocol, outcome string) {
	if flowCompletionsTotal != nil {
		flowCompletionsTotal.WithLabelValues(protocol, outcome).Inc()
	}
}
