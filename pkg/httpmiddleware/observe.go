package httpmiddleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// RequestObserver records one completed HTTP request into a duration
// distribution.
type RequestObserver interface {
	ObserveRequest(method, route, statusCode string, seconds float64)
}

// statusWriter captures the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Observe returns a middleware that times every request, feeds the duration
// histogram, and emits one http_request log line per request.
//
// The route label uses the ServeMux pattern that matched (bounded
// cardinality); the log line carries the raw path. Observe must wrap the
// routing mux directly: handlers that clone the request before dispatch,
// such as otelhttp, would hide the matched pattern from any middleware
// outside of them.
func Observe(obs RequestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = r.URL.Path
			}
			obs.ObserveRequest(r.Method, route, strconv.Itoa(sw.status), elapsed.Seconds())

			zctx.From(r.Context()).Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Float64("duration_ms", float64(elapsed.Microseconds())/1000),
				zap.String("user_agent", r.UserAgent()),
			)
		})
	}
}
