package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/payeasy/payeasy-api/internal/logging"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(1, 2, time.Minute, testLogger())
	handler := rl.Handler(okHandler)

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/listings/search", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("198.51.100.1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, code)
		}
	}
	if code := send("198.51.100.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", code)
	}
	if code := send("198.51.100.2"); code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", code)
	}
}

func TestRateLimiter_KeysByUser(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute, testLogger())
	handler := rl.Handler(okHandler)

	for _, user := range []string{"u1", "u2"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(logging.WithUserID(req.Context(), user))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", user, rec.Code)
		}
	}
	if rl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", rl.Len())
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(10, 10, 5*time.Minute, testLogger())
	rl.now = func() time.Time { return now }

	rl.getLimiter("old")
	now = now.Add(4 * time.Minute)
	rl.getLimiter("fresh")
	now = now.Add(2 * time.Minute)

	if removed := rl.Cleanup(); removed != 1 {
		t.Errorf("Cleanup() removed %d, want 1", removed)
	}
	if rl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rl.Len())
	}
}

func TestRateLimiter_StartCleanupRejectsBadSchedule(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute, testLogger())
	if _, err := rl.StartCleanup("not a schedule"); err == nil {
		t.Fatal("StartCleanup() error = nil, want error")
	}
	stop, err := rl.StartCleanup("@every 1h")
	if err != nil {
		t.Fatalf("StartCleanup() error = %v", err)
	}
	stop()
}

func TestRateLimiter_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute, testLogger())
	handler := rl.Handler(okHandler)

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
		req.RemoteAddr = "198.51.100.9:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	if allowed != 1 {
		t.Errorf("allowed = %d, want 1", allowed)
	}
	if rl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rl.Len())
	}
}

func TestRateLimiter_TrustedProxyForwardedFor(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute, testLogger())
	if err := rl.TrustProxies([]string{"10.0.0.0/8", "192.0.2.7"}); err != nil {
		t.Fatalf("TrustProxies() error = %v", err)
	}

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"untrusted peer", "198.51.100.9:1", "203.0.113.5", "198.51.100.9"},
		{"trusted peer", "10.1.2.3:1", "203.0.113.5", "203.0.113.5"},
		{"spoofed leftmost hop", "10.1.2.3:1", "1.1.1.1, 203.0.113.5", "203.0.113.5"},
		{"proxy chain", "192.0.2.7:1", "203.0.113.5, 10.9.9.9", "203.0.113.5"},
		{"no header", "10.1.2.3:1", "", "10.1.2.3"},
		{"garbage hop", "10.1.2.3:1", "not-an-ip", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := rl.clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}

	if err := rl.TrustProxies([]string{"nope"}); err == nil {
		t.Error("TrustProxies(nope) error = nil")
	}
}
