package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_AllowsWithinBudget(t *testing.T) {
	handler := NewRateLimiter(100, 5).Middleware(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:51000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiter_RejectsOverBudget(t *testing.T) {
	// One request of burst and a refill rate too slow to matter
	handler := NewRateLimiter(1, 1).Middleware(okHandler())

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:51000"
	handler.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestRateLimiter_BudgetsArePerClient(t *testing.T) {
	handler := NewRateLimiter(1, 1).Middleware(okHandler())

	exhaust := httptest.NewRequest(http.MethodGet, "/", nil)
	exhaust.RemoteAddr = "10.0.0.3:51000"
	handler.ServeHTTP(httptest.NewRecorder(), exhaust)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.4:51000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)

	assert.Equal(t, http.StatusOK, rec.Code)
}
