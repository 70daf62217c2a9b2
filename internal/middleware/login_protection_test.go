package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginProtection_AccountLockout(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	const email = "root@example.com"

	locked, _ := lp.RecordFailedAttempt(email)
	assert.False(t, locked)
	locked, _ = lp.RecordFailedAttempt(email)
	assert.False(t, locked)
	assert.Equal(t, 1, lp.GetRemainingAttempts(email))

	locked, dur := lp.RecordFailedAttempt(email)
	assert.True(t, locked)
	assert.Equal(t, time.Minute, dur)

	isLocked, remaining := lp.IsAccountLocked(email)
	assert.True(t, isLocked)
	assert.Greater(t, remaining, time.Duration(0))
}

func TestLoginProtection_ExponentialBackoff(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 2,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Hour,
	})

	const email = "root@example.com"

	lp.RecordFailedAttempt(email)
	_, first := lp.RecordFailedAttempt(email)
	assert.Equal(t, time.Minute, first)

	// Second lockout doubles the duration.
	lp.RecordFailedAttempt(email)
	_, second := lp.RecordFailedAttempt(email)
	assert.Equal(t, 2*time.Minute, second)
}

func TestLoginProtection_SuccessClearsTracking(t *testing.T) {
	lp := NewLoginProtection(DefaultLoginProtectionConfig())

	const email = "root@example.com"
	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	assert.Less(t, lp.GetRemainingAttempts(email), lp.maxFailedAttempts)

	lp.RecordSuccessfulLogin(email)
	assert.Equal(t, lp.maxFailedAttempts, lp.GetRemainingAttempts(email))
}

func TestLoginProtection_MiddlewareOnlyLimitsPost(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit: 1000,
		IPBurst:     1,
	})
	mw := lp.Middleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// GET requests are never rate limited
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLoginProtection_MiddlewareLimitsByIP(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit: 0.001, // effectively one request per burst window
		IPBurst:     1,
	})
	mw := lp.Middleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Real-IP", "203.0.113.9")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different IP has its own limiter
	other := httptest.NewRequest(http.MethodPost, "/login", nil)
	other.Header.Set("X-Real-IP", "203.0.113.10")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}
