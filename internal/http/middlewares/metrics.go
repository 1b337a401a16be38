package middlewares

import (
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/userauth/internal/metrics"
)

// WithMetrics instrumenta requests (contador, latencia, inflight).
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method := strings.ToUpper(r.Method)
			path := metrics.NormalizePath(r.URL.Path)

			metrics.HTTPInflight.WithLabelValues(method, path).Inc()
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				metrics.HTTPInflight.WithLabelValues(method, path).Dec()
				metrics.ObserveRequest(method, path, rec.status, time.Since(start))
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
