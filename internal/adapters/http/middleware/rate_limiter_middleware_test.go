package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draff227/bslc/internal/core/domain"
	"github.com/draff227/bslc/internal/core/ports"
	"github.com/draff227/bslc/internal/core/services"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRequestGate_PublicRequestStampsRateLimitHeaders(t *testing.T) {
	handler, calls := newTestGate(t, newTestLimiter(t, 10), GateConfig{})

	rec := serve(handler, http.MethodPost, "/api/public/calculate", map[string]string{"X-Forwarded-For": "203.0.113.5"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, strconv.FormatInt(fixedNow.Add(time.Minute).UnixMilli(), 10), rec.Header().Get("X-RateLimit-Reset"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestRequestGate_PublicRequestRejectedWhenExhausted(t *testing.T) {
	handler, calls := newTestGate(t, newTestLimiter(t, 2), GateConfig{})
	headers := map[string]string{"X-Real-IP": "198.51.100.20"}

	for i := 0; i < 2; i++ {
		rec := serve(handler, http.MethodGet, "/api/public/stations", headers)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(handler, http.MethodGet, "/api/public/stations", headers)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 2, *calls, "rejected request must not reach the handler")
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])
	assert.Equal(t, float64(http.StatusTooManyRequests), body["statusCode"])
	assert.Equal(t, float64(60), body["retryAfter"])

	// A different client is unaffected.
	other := serve(handler, http.MethodGet, "/api/public/stations", map[string]string{"X-Real-IP": "198.51.100.21"})
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRequestGate_ExemptIdentifierBypassesLimiter(t *testing.T) {
	limiter := &countingLimiter{rule: domain.RateLimitRule{Requests: 10, Window: time.Minute}}
	handler, calls := newTestGate(t, limiter, GateConfig{ExemptIdentifiers: []string{"10.1.1.1"}})

	for i := 0; i < 25; i++ {
		rec := serve(handler, http.MethodPost, "/api/public/calculate", map[string]string{"X-Forwarded-For": "10.1.1.1, 172.16.0.1"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
	}
	assert.Equal(t, 25, *calls)
	assert.Zero(t, limiter.checks)
}

func TestRequestGate_PublicPreflightIsNotCounted(t *testing.T) {
	limiter := &countingLimiter{rule: domain.RateLimitRule{Requests: 1, Window: time.Minute}}
	handler, calls := newTestGate(t, limiter, GateConfig{})

	rec := serve(handler, http.MethodOptions, "/api/public/calculate", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Zero(t, limiter.checks)
	assert.Zero(t, *calls)
}

func TestRequestGate_InternalRequiresAllowedOrigin(t *testing.T) {
	cfg := GateConfig{AllowedOrigins: []string{"https://quotes.example.com"}}

	cases := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{name: "no origin or referer", headers: nil, status: http.StatusForbidden},
		{name: "exact origin", headers: map[string]string{"Origin": "https://quotes.example.com"}, status: http.StatusOK},
		{name: "origin with path is not exact", headers: map[string]string{"Origin": "https://quotes.example.com/"}, status: http.StatusForbidden},
		{name: "referer prefix", headers: map[string]string{"Referer": "https://quotes.example.com/calculator?x=1"}, status: http.StatusOK},
		{name: "bad origin rescued by referer", headers: map[string]string{"Origin": "https://evil.example", "Referer": "https://quotes.example.com/"}, status: http.StatusOK},
		{name: "bad origin and referer", headers: map[string]string{"Origin": "https://evil.example", "Referer": "https://evil.example/page"}, status: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, calls := newTestGate(t, newTestLimiter(t, 10), cfg)
			rec := serve(handler, http.MethodPost, "/api/calculate-price", tc.headers)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusForbidden {
				assert.Zero(t, *calls)
				assert.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())
			} else {
				assert.Equal(t, 1, *calls)
			}
			assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"), "internal paths are not rate limited")
		})
	}
}

func TestRequestGate_InternalPreflightWithAllowedOrigin(t *testing.T) {
	handler, calls := newTestGate(t, newTestLimiter(t, 10), GateConfig{AllowedOrigins: []string{"https://quotes.example.com"}})

	rec := serve(handler, http.MethodOptions, "/api/calculate-price", map[string]string{"Origin": "https://quotes.example.com"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://quotes.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Zero(t, *calls)
}

func TestRequestGate_ClassifiesPaths(t *testing.T) {
	handler, calls := newTestGate(t, newTestLimiter(t, 10), GateConfig{})

	rec := serve(handler, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	// Shares the prefix text but is not under the public tree.
	rec = serve(handler, http.MethodGet, "/api/publicity", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(handler, http.MethodGet, "/api/public", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))

	assert.Equal(t, 2, *calls)
}

func TestExtractIdentifier(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "forwarded for first entry", headers: map[string]string{"X-Forwarded-For": " 203.0.113.1 , 10.0.0.1", "X-Real-IP": "198.51.100.1"}, want: "203.0.113.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.1", "CF-Connecting-IP": "192.0.2.9"}, want: "198.51.100.1"},
		{name: "cloudflare", headers: map[string]string{"CF-Connecting-IP": "192.0.2.9"}, want: "192.0.2.9"},
		{name: "empty forwarded entry", headers: map[string]string{"X-Forwarded-For": " , 10.0.0.1", "CF-Connecting-IP": "192.0.2.9"}, want: "192.0.2.9"},
		{name: "fallback", headers: nil, want: "127.0.0.1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/public/stations", nil)
			for key, value := range tc.headers {
				req.Header.Set(key, value)
			}
			assert.Equal(t, tc.want, ExtractIdentifier(req))
		})
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 2, retryAfterSeconds(fixedNow.Add(1500*time.Millisecond), fixedNow))
	assert.Equal(t, 1, retryAfterSeconds(fixedNow.Add(time.Millisecond), fixedNow))
	assert.Equal(t, 0, retryAfterSeconds(fixedNow, fixedNow))
	assert.Equal(t, 0, retryAfterSeconds(fixedNow.Add(-time.Second), fixedNow))
}

func newTestLimiter(t *testing.T, requests int) *services.RateLimiterService {
	t.Helper()
	limiter, err := services.NewRateLimiterService(services.RateLimiterConfig{
		Rule: domain.RateLimitRule{Requests: requests, Window: time.Minute},
		Now:  func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return limiter
}

func newTestGate(t *testing.T, limiter ports.RateLimiter, cfg GateConfig) (http.Handler, *int) {
	t.Helper()
	cfg.Now = func() time.Time { return fixedNow }

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	return NewRequestGate(limiter, cfg, zap.NewNop())(next), &calls
}

func serve(handler http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

type countingLimiter struct {
	rule   domain.RateLimitRule
	checks int
}

func (c *countingLimiter) Check(string) domain.RateLimitResult {
	c.checks++
	return domain.RateLimitResult{Allowed: true, Limit: c.rule.Requests, Remaining: c.rule.Requests - 1, ResetTime: fixedNow}
}

func (c *countingLimiter) Reset(string) {}

func (c *countingLimiter) Rule() domain.RateLimitRule {
	return c.rule
}
