package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/payeasy/payeasy-api/internal/logging"
	"github.com/payeasy/payeasy-api/internal/metrics"
)

func TestTracingMiddleware_PropagatesTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithOutput("test", "info", "json", &buf)

	var seen string
	handler := NewTracingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetTraceID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(TraceHeader, "trace-abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "trace-abc" {
		t.Errorf("context trace id = %q", seen)
	}
	if got := rec.Header().Get(TraceHeader); got != "trace-abc" {
		t.Errorf("response trace id = %q", got)
	}
	if !strings.Contains(buf.String(), "trace-abc") {
		t.Errorf("request log missing trace id: %s", buf.String())
	}
}

func TestTracingMiddleware_GeneratesTraceID(t *testing.T) {
	handler := NewTracingMiddleware(testLogger()).Handler(okHandler)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(TraceHeader) == "" {
		t.Error("trace id header not set")
	}
}

func TestTracingMiddleware_InboundIDs(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"request id fallback", map[string]string{RequestIDHeader: "lb-123"}, "lb-123"},
		{"trace id wins", map[string]string{TraceHeader: "t-1", RequestIDHeader: "lb-123"}, "t-1"},
		{"unsafe trace id skipped", map[string]string{TraceHeader: "bad id\n", RequestIDHeader: "lb-123"}, "lb-123"},
		{"too long", map[string]string{TraceHeader: strings.Repeat("a", 65)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := NewTracingMiddleware(testLogger()).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = logging.GetTraceID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if tt.want != "" && seen != tt.want {
				t.Errorf("trace id = %q, want %q", seen, tt.want)
			}
			if tt.want == "" && (seen == "" || seen == tt.headers[TraceHeader]) {
				t.Errorf("trace id = %q, want a generated id", seen)
			}
			if rec.Header().Get(TraceHeader) != seen {
				t.Errorf("response header = %q, context = %q", rec.Header().Get(TraceHeader), seen)
			}
		})
	}
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	m := metrics.New()
	r := mux.NewRouter()
	r.Use(MetricsMiddleware("payeasy-api", m))
	r.HandleFunc("/api/users/{id}/stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/"+id+"/stats", nil))
	}

	expected := `
# HELP payeasy_http_requests_total Total number of HTTP requests handled.
# TYPE payeasy_http_requests_total counter
payeasy_http_requests_total{method="GET",path="/api/users/{id}/stats",service="payeasy-api",status="403"} 2
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "payeasy_http_requests_total"); err != nil {
		t.Error(err)
	}
}
