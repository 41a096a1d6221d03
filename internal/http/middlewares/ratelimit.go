package middlewares

import (
	"net"
	"net/http"
	"strconv"

	"github.com/dropDatabas3/loginjohn/internal/http/errors"
	"github.com/dropDatabas3/loginjohn/internal/observability/logger"
	"github.com/dropDatabas3/loginjohn/internal/rate"
)

// WithRateLimit limita por IP del cliente usando el limiter inyectado.
// Un limiter caído deja pasar: preferimos disponibilidad a exactitud acá.
func WithRateLimit(l rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}
			res, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				errors.WriteError(w, errors.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
