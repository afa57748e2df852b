package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware(), StrictTransportSecurityMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Contains(t, rr.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}

func newTestLimiter(now *time.Time) *RateLimiter {
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     3,
		WindowDuration:  time.Minute,
		LockoutDuration: 5 * time.Minute,
		CleanupInterval: time.Hour,
	})
	rl.now = func() time.Time { return *now }
	return rl
}

func TestRateLimiter_LocksAfterMaxAttempts(t *testing.T) {
	now := time.Now()
	rl := newTestLimiter(&now)
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		allowed, _ := rl.Allow("1.2.3.4", "a@example.com")
		assert.True(t, allowed)
		assert.False(t, rl.RecordFailure("1.2.3.4", "a@example.com"))
	}
	assert.True(t, rl.RecordFailure("1.2.3.4", "A@Example.com"), "email is case-insensitive")

	allowed, wait := rl.Allow("1.2.3.4", "a@example.com")
	assert.False(t, allowed)
	assert.Equal(t, 5*time.Minute, wait)

	// Other IPs and emails are unaffected.
	allowed, _ = rl.Allow("5.6.7.8", "a@example.com")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("1.2.3.4", "b@example.com")
	assert.True(t, allowed)

	now = now.Add(6 * time.Minute)
	allowed, _ = rl.Allow("1.2.3.4", "a@example.com")
	assert.True(t, allowed)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	now := time.Now()
	rl := newTestLimiter(&now)
	defer rl.Stop()

	rl.RecordFailure("ip", "user@example.com")
	rl.RecordFailure("ip", "user@example.com")
	now = now.Add(2 * time.Minute)

	assert.False(t, rl.RecordFailure("ip", "user@example.com"), "failures outside the window start a new count")
}

func TestRateLimiter_RecordSuccessClears(t *testing.T) {
	now := time.Now()
	rl := newTestLimiter(&now)
	defer rl.Stop()

	rl.RecordFailure("ip", "user@example.com")
	rl.RecordFailure("ip", "user@example.com")
	rl.RecordSuccess("ip", "user@example.com")

	assert.False(t, rl.RecordFailure("ip", "user@example.com"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Now()
	rl := newTestLimiter(&now)
	defer rl.Stop()

	rl.RecordFailure("ip", "old@example.com")
	now = now.Add(10 * time.Minute)
	rl.RecordFailure("ip", "new@example.com")
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.attempts, key("ip", "old@example.com"))
	assert.Contains(t, rl.attempts, key("ip", "new@example.com"))
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})
	rl.Stop()
	rl.Stop()
}
