package middleware

import (
	"net/http"
	"time"

	"github.com/payeasy/payeasy-api/internal/logging"
)

const (
	// TraceHeader carries the request trace id in both directions.
	TraceHeader = "X-Trace-ID"
	// RequestIDHeader is set by most load balancers; it seeds the trace id
	// when no X-Trace-ID is present.
	RequestIDHeader = "X-Request-ID"

	maxTraceIDLen = 64
)

// TracingMiddleware assigns each request a trace id, which also becomes
// the request id of audit events, and logs the request when it completes.
type TracingMiddleware struct {
	logger *logging.Logger
}

// NewTracingMiddleware creates a new tracing middleware.
func NewTracingMiddleware(logger *logging.Logger) *TracingMiddleware {
	return &TracingMiddleware{logger: logger}
}

// Handler returns the tracing middleware handler.
func (m *TracingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := inboundTraceID(r)
		if traceID == "" {
			traceID = logging.NewTraceID()
		}
		ctx := logging.WithTraceID(r.Context(), traceID)
		w.Header().Set(TraceHeader, traceID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rw, r.WithContext(ctx))

		m.logger.LogRequest(ctx, r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// inboundTraceID returns a client supplied id if it is safe to store and
// log verbatim, or "".
func inboundTraceID(r *http.Request) string {
	for _, h := range []string{TraceHeader, RequestIDHeader} {
		if id := r.Header.Get(h); validTraceID(id) {
			return id
		}
	}
	return ""
}

func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return false
		}
	}
	return true
}
