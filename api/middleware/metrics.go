package middleware

import (
	"net/http"
	"time"

	"github.com/fornihq/forni-backend/pkg/metrics"
)

// Metrics observes request durations and status codes labelled by the
// matched chi route pattern, not the raw path.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(recorder, r)

			m.Observe(r.Method, routePattern(r), recorder.statusOrOK(), time.Since(start))
		})
	}
}
