package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/qqqlxhjy/NishimoriLine/pkg/metrics"
)

// MetricsMiddleware wraps a handler to record request counts, latency and
// error classes under endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(rec, r)
		observeRequest(endpoint, r.Method, rec.status(), time.Since(start))
	}
}

func observeRequest(endpoint, method string, status int, took time.Duration) {
	code := strconv.Itoa(status)
	metrics.RecordHTTPRequest(endpoint, method, code)
	metrics.RecordHTTPRequestDuration(endpoint, method, code, float64(took.Microseconds())/1000)
	if status >= http.StatusBadRequest {
		metrics.RecordErrorByEndpoint(endpoint, method, errorClass(status))
	}
}

// errorClass buckets error statuses into the error_type label values.
func errorClass(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusUnprocessableEntity:
		return "unprocessable"
	case status == http.StatusRequestEntityTooLarge:
		return "too_large"
	case status == http.StatusNotFound:
		return "not_found"
	case status >= http.StatusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// statusRecorder remembers the first status written through it.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.code == 0 {
		s.code = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.code == 0 {
		s.code = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// status reports the response status; handlers that wrote nothing
// produce an implicit 200.
func (s *statusRecorder) status() int {
	if s.code == 0 {
		return http.StatusOK
	}
	return s.code
}
