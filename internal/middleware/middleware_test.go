package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func tokenRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	mw := NewTokenMiddleware(service.NewTokenValidator("pulse_test"), NewInvalidAuthRateLimiter(ctx))

	r := gin.New()
	r.GET("/api/ping", mw.Handle(), func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestTokenMiddlewareSources(t *testing.T) {
	r := tokenRouter(t)

	cases := []struct {
		name   string
		setup  func(*http.Request)
		url    string
		status int
	}{
		{"query", func(*http.Request) {}, "/api/ping?token=pulse_test", http.StatusOK},
		{"header", func(r *http.Request) { r.Header.Set("X-Api-Token", "pulse_test") }, "/api/ping", http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer pulse_test") }, "/api/ping", http.StatusOK},
		{"missing", func(*http.Request) {}, "/api/ping", http.StatusUnauthorized},
		{"wrong", func(*http.Request) {}, "/api/ping?token=nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestTokenMiddlewareThrottlesInvalidAttempts(t *testing.T) {
	r := tokenRouter(t)

	var last int
	for i := 0; i < invalidAuthLimit+1; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping?token=bad", nil))
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRateLimiterWindowResets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewInvalidAuthRateLimiter(ctx)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < invalidAuthLimit; i++ {
		require.True(t, rl.Allow("10.0.0.1"))
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("10.0.0.1"))

	now = now.Add(2 * time.Minute)
	rl.sweep()
	assert.Empty(t, rl.attempts)
}

func TestJWTMiddleware(t *testing.T) {
	mgr := utils.NewJWTManager("jwt-secret", time.Hour)
	r := gin.New()
	r.GET("/admin", NewJWTMiddleware(mgr).Handle(), func(c *gin.Context) {
		id := AdminUserID(c)
		require.NotNil(t, id)
		c.JSON(http.StatusOK, gin.H{"user_id": *id})
	})

	token, _, err := mgr.GenerateJWT(7, "ops@pulse.test")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7}`, w.Body.String())

	other, _, err := utils.NewJWTManager("other", time.Hour).GenerateJWT(7, "ops@pulse.test")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://admin.pulse.test"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://admin.pulse.test:443")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.pulse.test:443", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggingMiddlewareSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(LoggingMiddleware(), MetricsMiddleware())
	r.GET("/x", func(c *gin.Context) { utils.Success(c, http.StatusOK, "ok", nil) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-Id"))
	assert.Contains(t, w.Body.String(), `"requestId":"req-123"`)
}
