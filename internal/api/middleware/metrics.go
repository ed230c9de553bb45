package middleware

import (
	"lora-lending/internal/infrastructure/monitoring"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MetricsMiddleware labels requests by route pattern so path parameters
// such as loan IDs do not explode label cardinality.
func MetricsMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				routePattern := "unmatched"
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					routePattern = rctx.RoutePattern()
				}
				monitoring.RecordHTTPRequest(r.Method, routePattern, strconv.Itoa(ww.Status()), time.Since(start))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
