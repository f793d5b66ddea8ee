package middleware

import (
	"net/http"
	"strconv"
	"time"

	"runlog/internal/metrics"
)

// statusRecorder captures the status a handler writes so request counters
// can carry it as a label. The first explicit WriteHeader wins, matching
// net/http's own latching.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.written {
		rec.status = code
		rec.written = true
		rec.ResponseWriter.WriteHeader(code)
	}
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	// A body write without an explicit status is an implicit 200
	if !rec.written {
		rec.WriteHeader(http.StatusOK)
	}
	return rec.ResponseWriter.Write(b)
}

// WrapHandler instruments a handler with the request counter and duration
// histogram under the given endpoint label. Labels are the fixed endpoint
// names from the metrics package, never raw URL paths, so per-activity ids
// in admin routes cannot blow up label cardinality.
func WrapHandler(endpoint string, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
	})
}
