package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID_Generated(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-Id"))
}

func TestCorrelationID_Echoed(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-Id", "test-correlation-id")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-correlation-id", rec.Header().Get("X-Correlation-Id"))
}

func TestAuthRateLimit_ThrottlesCredentialEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	// httptest requests share a remote address, so they count against
	// one bucket. Well past the burst size, requests must start failing.
	throttled := false
	for range 2 * authRateLimitBurst {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ghost@example.com","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)

		if rec.Code == http.StatusTooManyRequests {
			assert.JSONEq(t, `{"code":"RATE_LIMITED","message":"too many requests"}`, rec.Body.String())
			throttled = true
			break
		}
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	assert.True(t, throttled, "credential endpoint should rate limit")
}

func TestAuthRateLimit_IgnoresOtherRoutes(t *testing.T) {
	ts := setupTestServer(t)

	for range 2 * authRateLimitBurst {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
