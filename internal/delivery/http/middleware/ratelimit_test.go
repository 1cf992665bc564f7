package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

func TestRateLimiter_Limit(t *testing.T) {
	limiter := NewRateLimiter(0.0001, 2)
	handler := limiter.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	call := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "http://test/events/e/checkins", nil)
		req = req.WithContext(SetPrincipal(req.Context(), &domain.Principal{UserID: userID}))
		rr := httptest.NewRecorder()
		handler(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, call("scanner-1").Code)
	assert.Equal(t, http.StatusOK, call("scanner-1").Code)

	rr := call("scanner-1")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	assert.Equal(t, helpers.ErrCodeRateLimited, envelope.Error.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, call("scanner-2").Code, "buckets are per caller")
}

func TestRateLimiter_AnonymousUsesRemoteAddr(t *testing.T) {
	limiter := NewRateLimiter(0.0001, 0)
	handler := limiter.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "http://test/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rr := httptest.NewRecorder()
	handler(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "burst is at least one")

	rr = httptest.NewRecorder()
	handler(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	limiter := NewRateLimiter(1, 5)
	clock := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }
	limiter.lastSweep = clock
	handler := limiter.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	call := func(addr string) {
		req := httptest.NewRequest(http.MethodPost, "http://test/events/e/checkins", nil)
		req.RemoteAddr = addr
		handler(httptest.NewRecorder(), req)
	}

	call("10.0.0.1:1")
	call("10.0.0.2:1")
	require.Equal(t, 2, limiter.Len())

	clock = clock.Add(30 * time.Second)
	call("10.0.0.2:1")
	assert.Equal(t, 2, limiter.Len(), "nothing is swept before the idle window")

	clock = clock.Add(40 * time.Second)
	call("10.0.0.3:1")
	assert.Equal(t, 2, limiter.Len(), "the bucket idle for a full window is dropped")

	clock = clock.Add(2 * time.Minute)
	call("10.0.0.4:1")
	assert.Equal(t, 1, limiter.Len())
}

func TestRefillTime(t *testing.T) {
	assert.Equal(t, time.Minute, refillTime(10, 5), "short refills keep the floor")
	assert.Equal(t, 200*time.Second, refillTime(0.5, 100))
	assert.Equal(t, time.Minute, refillTime(0, 5))
	assert.Equal(t, 24*time.Hour, refillTime(1e-9, 5), "very slow limits are capped")
}
