package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(ip string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/request-code", nil)
	r.RemoteAddr = ip + ":5555"
	return r
}

func TestRateLimiterFixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute, nil)
	rl.now = func() time.Time { return now }
	h := rl.Middleware()(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1"))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.2"))
	assert.Equal(t, http.StatusOK, rec.Code, "other clients have their own window")

	now = now.Add(61 * time.Second)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.1"))
	assert.Equal(t, http.StatusOK, rec.Code, "window resets")
}

func TestRedisRateLimiter(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := NewRedisRateLimiter(rdb, 3, time.Minute, "test", nil)
	h := rl.Middleware(logger, false)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.9"))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.9"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.9"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRedisRateLimiterFailMode(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := NewRedisRateLimiter(rdb, 3, time.Minute, "test", nil)

	rec := httptest.NewRecorder()
	rl.Middleware(logger, true)(okHandler()).ServeHTTP(rec, requestFrom("10.0.0.9"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	rl.Middleware(logger, false)(okHandler()).ServeHTTP(rec, requestFrom("10.0.0.9"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
