package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rfqpulse/internal/infrastructure"
)

// Metrics records per-route request counts and latency. Placed after the
// router has matched so the chi route pattern is available as the label,
// keeping metric cardinality bounded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		infrastructure.HTTPRequestsTotal.WithLabelValues(
			r.Method, route, strconv.Itoa(ww.Status()),
		).Inc()
		infrastructure.HTTPRequestDuration.WithLabelValues(route).
			Observe(time.Since(start).Seconds())
	})
}
