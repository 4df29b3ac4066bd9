package http

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/weatherglass/weatherglass/internal/ratelimit"
	"github.com/weatherglass/weatherglass/internal/service"
)

func newRateLimitedRouter(t *testing.T, limiter *ratelimit.Limiter) *mux.Router {
	t.Helper()
	logger := zap.NewNop()
	svc := service.NewWeatherService(newMockClient(), time.Second)
	handler := NewHandler(svc, logger, "test")
	return NewRouter(handler, logger, limiter, 5*time.Second)
}

func TestCorrelationID_Generated(t *testing.T) {
	router := newTestRouter(t, newMockClient())
	w := doRequest(t, router, "GET", "/health", "")

	if w.Header().Get("X-Correlation-ID") == "" {
		t.Error("X-Correlation-ID header missing")
	}
}

func TestCorrelationID_Propagated(t *testing.T) {
	router := newTestRouter(t, newMockClient())
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Correlation-ID", "client-provided-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Correlation-ID"); got != "client-provided-id" {
		t.Errorf("X-Correlation-ID = %q, want client-provided-id", got)
	}
}

func TestRateLimit_HeadersOnAdmitted(t *testing.T) {
	router := newRateLimitedRouter(t, ratelimit.New(10, time.Minute))
	w := doRequest(t, router, "GET", "/api/weather/current/Toronto", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "10" {
		t.Errorf("X-RateLimit-Limit = %q, want 10", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "9" {
		t.Errorf("X-RateLimit-Remaining = %q, want 9", got)
	}
	if w.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("X-RateLimit-Reset missing")
	}
}

func TestRateLimit_RejectsOverQuota(t *testing.T) {
	router := newRateLimitedRouter(t, ratelimit.New(2, time.Minute))

	for i := 0; i < 2; i++ {
		if w := doRequest(t, router, "GET", "/api/weather/current/Toronto", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, w.Code)
		}
	}

	w := doRequest(t, router, "GET", "/api/weather/current/Toronto", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 || retryAfter > 60 {
		t.Errorf("Retry-After = %q, want 1..60 seconds", w.Header().Get("Retry-After"))
	}
	body := decodeBody(t, w)
	if body["error"] != "Too Many Requests" {
		t.Errorf("error = %v, want Too Many Requests", body["error"])
	}

	// A different route shares the same quota.
	if w := doRequest(t, router, "GET", "/api/cities/search/Toronto", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("other route status = %d, want 429 (quota is per key, not per route)", w.Code)
	}
}

func TestRateLimit_KeysByClientIP(t *testing.T) {
	router := newRateLimitedRouter(t, ratelimit.New(1, time.Minute))

	first := httptest.NewRequest("GET", "/api/weather/current/Toronto", nil)
	first.Header.Set("X-Forwarded-For", "203.0.113.1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, first)
	if w.Code != http.StatusOK {
		t.Fatalf("first client status = %d, want 200", w.Code)
	}

	blocked := httptest.NewRequest("GET", "/api/weather/current/Toronto", nil)
	blocked.Header.Set("X-Forwarded-For", "203.0.113.1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, blocked)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("same client second request status = %d, want 429", w.Code)
	}

	other := httptest.NewRequest("GET", "/api/weather/current/Toronto", nil)
	other.Header.Set("X-Forwarded-For", "203.0.113.2")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, other)
	if w.Code != http.StatusOK {
		t.Errorf("different client status = %d, want 200", w.Code)
	}
}

func TestRateLimit_CoversEveryRoute(t *testing.T) {
	router := newRateLimitedRouter(t, ratelimit.New(1, time.Minute))

	if w := doRequest(t, router, "GET", "/api/weather/current/Toronto", ""); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}
	if w := doRequest(t, router, "GET", "/health", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("/health status = %d, want 429 (quota applies to every route)", w.Code)
	}
	if w := doRequest(t, router, "GET", "/no/such/route", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("unmatched route status = %d, want 429 (quota applies before 404)", w.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr", "192.0.2.7:51234", "", "192.0.2.7"},
		{"forwarded single", "10.0.0.1:80", "203.0.113.9", "203.0.113.9"},
		{"forwarded chain takes first hop", "10.0.0.1:80", "203.0.113.9, 10.0.0.2", "203.0.113.9"},
		{"no port", "192.0.2.7", "", "192.0.2.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
