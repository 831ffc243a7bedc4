package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"payload-codec-go/internal/config"
)

func newRateLimitedEcho(cfg config.RateLimitConfig) *echo.Echo {
	e := echo.New()
	e.Use(RateLimiter(cfg))
	e.GET("/v1/id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func TestRateLimiter_Disabled(t *testing.T) {
	e := newRateLimitedEcho(config.RateLimitConfig{Enabled: false, RequestsPerSecond: 1})

	for i := range 20 {
		req := httptest.NewRequest(http.MethodGet, "/v1/id", http.NoBody)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, http.StatusOK)
		}
	}
}

func TestRateLimiter_Enabled(t *testing.T) {
	// 1 request per second gives a burst of 1: the second request is rejected.
	e := newRateLimitedEcho(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1})

	req := httptest.NewRequest(http.MethodGet, "/v1/id", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", rec.Code, http.StatusOK)
	}

	var limited *httptest.ResponseRecorder
	for range 10 {
		req = httptest.NewRequest(http.MethodGet, "/v1/id", http.NoBody)
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = rec
			break
		}
	}
	if limited == nil {
		t.Fatal("expected a 429 response after the burst, got none")
	}
	if !strings.Contains(limited.Body.String(), `"error":"rate limit exceeded"`) {
		t.Errorf("body = %s, want rate limit error", limited.Body.String())
	}
}

func TestRateLimiter_BurstFollowsRate(t *testing.T) {
	e := newRateLimitedEcho(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 2.5})

	// Burst is ceil(2.5) = 3.
	for i := range 3 {
		req := httptest.NewRequest(http.MethodGet, "/v1/id", http.NoBody)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, http.StatusOK)
		}
	}
}
