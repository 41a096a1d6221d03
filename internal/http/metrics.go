// Package http arma el router, las métricas y el cableado de middlewares
// del servicio.
package http

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/dropDatabas3/loginjohn/internal/http/middlewares"
	"github.com/dropDatabas3/loginjohn/internal/observability/metrics"
)

var idSegment = regexp.MustCompile(`/[0-9a-fA-F-]{8,}`)

// normalizePath colapsa segmentos con pinta de id para no explotar la
// cardinalidad de las métricas.
func normalizePath(p string) string {
	return idSegment.ReplaceAllString(p, "/:id")
}

// WithMetrics instrumenta cada request con contadores, histograma y gauge.
func WithMetrics() middlewares.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := normalizePath(r.URL.Path)
			metrics.InflightAdd(r.Method, path, 1)
			defer metrics.InflightAdd(r.Method, path, -1)

			start := time.Now()
			rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			metrics.ObserveHTTPRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
