package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sales-quality-service/service/config"
	"sales-quality-service/service/rate_limiter"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (*rate_limiter.RateLimitResult, error) {
	return nil, errors.New("redis down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func request(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/quality/evaluate", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_RejectsAfterLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := rate_limiter.NewRedisRateLimiter(client, config.RateLimitConfig{WindowSeconds: 60, ClientMax: 2})
	h := RateLimit(limiter)(okHandler())

	for i := 0; i < 2; i++ {
		w := request(h, "10.0.0.1:5000")
		require.Equal(t, http.StatusOK, w.Code)
	}
	other := request(h, "10.0.0.2:5000")
	assert.Equal(t, http.StatusOK, other.Code, "其他客户端不受影响")
	assert.Equal(t, "1", other.Header().Get("X-RateLimit-Remaining"))

	w := request(h, "10.0.0.1:6000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Contains(t, w.Body.String(), "客户端限流限制")
}

func TestRateLimit_FailOpen(t *testing.T) {
	h := RateLimit(failingLimiter{})(okHandler())
	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:5000").Code)
}

func TestRateLimit_NilLimiter(t *testing.T) {
	h := RateLimit(nil)(okHandler())
	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:5000").Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:4431"
	assert.Equal(t, "192.168.1.9", clientIP(req))

	req.RemoteAddr = "192.168.1.9"
	assert.Equal(t, "192.168.1.9", clientIP(req))
}
