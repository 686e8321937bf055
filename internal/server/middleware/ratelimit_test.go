package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	var logBuf strings.Builder
	rl := NewRateLimiter(3, time.Hour, newBufferLogger(&logBuf))
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d within burst", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, rl.Allow("10.0.0.2"), "other clients have own limit")
}

func TestRateLimiter_CleanupIdle(t *testing.T) {
	var logBuf strings.Builder
	rl := NewRateLimiter(1, time.Minute, newBufferLogger(&logBuf))
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	rl.cleanupIdle(time.Now())
	assert.Len(t, rl.clients, 1, "recent client is kept")

	rl.cleanupIdle(time.Now().Add(3 * time.Minute))
	assert.Empty(t, rl.clients)
}

func TestRateLimiter_Middleware(t *testing.T) {
	var logBuf strings.Builder
	rl := NewRateLimiter(2, time.Hour, newBufferLogger(&logBuf))
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", nil)
		req.RemoteAddr = "192.168.1.10:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Contains(t, logBuf.String(), "Rate limit exceeded")
	assert.Contains(t, logBuf.String(), "ip=192.168.1.10")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		expected   string
	}{
		{name: "forwarded for", xff: "203.0.113.1, 10.0.0.1", remoteAddr: "10.0.0.2:1", expected: "203.0.113.1"},
		{name: "real ip", xri: "203.0.113.5", remoteAddr: "10.0.0.2:1", expected: "203.0.113.5"},
		{name: "remote addr", remoteAddr: "192.168.1.1:12345", expected: "192.168.1.1"},
		{name: "remote addr without port", remoteAddr: "192.168.1.1", expected: "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.expected, getClientIP(req))
		})
	}
}
