package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/contact-limiter/internal/adapters/clock"
	"github.com/JeanGrijp/contact-limiter/internal/adapters/storage/memory"
	"github.com/JeanGrijp/contact-limiter/internal/core/domain"
	"github.com/JeanGrijp/contact-limiter/internal/core/services"
)

type stubLimiter struct {
	decision domain.Decision
	err      error
	keys     []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (domain.Decision, error) {
	s.keys = append(s.keys, key)
	return s.decision, s.err
}

type countingRecorder struct {
	allowed, rejected int
}

func (c *countingRecorder) RecordDecision(allowed bool) {
	if allowed {
		c.allowed++
		return
	}
	c.rejected++
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestClientKey_FallbackChain(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded first entry", map[string]string{"X-Forwarded-For": " 203.0.113.10 , 10.0.0.1", "X-Real-IP": "1.1.1.1"}, "203.0.113.10"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.5 ", "Client-IP": "2.2.2.2"}, "198.51.100.5"},
		{"client ip", map[string]string{"Client-IP": "192.0.2.1"}, "192.0.2.1"},
		{"empty forwarded entry", map[string]string{"X-Forwarded-For": " , 10.0.0.1", "Client-IP": "192.0.2.1"}, "192.0.2.1"},
		{"nothing", nil, "unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
			req.RemoteAddr = "127.0.0.1:1234"
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, ClientKey(req))
		})
	}
}

func TestRateLimiterMiddleware_Allowed(t *testing.T) {
	limiter := &stubLimiter{decision: domain.Decision{Allowed: true, Limit: 5, Remaining: 3, ResetIn: time.Hour}}
	recorder := &countingRecorder{}
	handler := NewRateLimiterMiddleware(limiter, zerolog.Nop(), recorder)(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.10")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "3", rec.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, []string{"203.0.113.10"}, limiter.keys)
	require.Equal(t, 1, recorder.allowed)
}

func TestRateLimiterMiddleware_Rejected(t *testing.T) {
	limiter := &stubLimiter{decision: domain.Decision{Allowed: false, Limit: 5, ResetIn: 3_599_995 * time.Millisecond}}
	recorder := &countingRecorder{}
	handler := NewRateLimiterMiddleware(limiter, zerolog.Nop(), recorder)(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/contact", nil))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "3600", rec.Header().Get("Retry-After"))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Too many requests. Please try again later.", body["error"])
	require.EqualValues(t, 60, body["retryAfterMinutes"])
	require.Equal(t, 1, recorder.rejected)
}

func TestRateLimiterMiddleware_RetryAfterIsAtLeastOneSecond(t *testing.T) {
	limiter := &stubLimiter{decision: domain.Decision{Allowed: false, Limit: 5, ResetIn: 0}}
	handler := NewRateLimiterMiddleware(limiter, zerolog.Nop(), nil)(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/contact", nil))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimiterMiddleware_StorageErrorIsNot429(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	recorder := &countingRecorder{}
	handler := NewRateLimiterMiddleware(limiter, zerolog.Nop(), recorder)(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/contact", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Zero(t, recorder.allowed+recorder.rejected)
}

func TestRateLimiterMiddleware_NilLimiterPassesThrough(t *testing.T) {
	handler := NewRateLimiterMiddleware(nil, zerolog.Nop(), nil)(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/contact", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterMiddleware_EndToEndQuota(t *testing.T) {
	fake := clock.NewFake(time.UnixMilli(0))
	limiter, err := services.NewRateLimiterService(memory.New(), fake, services.Config{
		Rule: domain.RateLimitRule{Requests: 5, Window: time.Hour},
	})
	require.NoError(t, err)
	handler := NewRateLimiterMiddleware(limiter, zerolog.Nop(), nil)(okHandler)

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		fake.Advance(time.Millisecond)
		return rec
	}

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, send("1.2.3.4").Code, "request %d", i+1)
	}
	rejected := send("1.2.3.4")
	require.Equal(t, http.StatusTooManyRequests, rejected.Code)
	require.Equal(t, "3600", rejected.Header().Get("Retry-After"))

	require.Equal(t, http.StatusOK, send("5.6.7.8").Code)

	fake.Advance(time.Hour)
	require.Equal(t, http.StatusOK, send("1.2.3.4").Code)
}
