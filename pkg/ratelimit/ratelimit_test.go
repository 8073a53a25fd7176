package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(t *testing.T, limit int, window time.Duration) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	r := gin.New()
	r.Use(Middleware(rdb, limit, window, nil))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r, mr
}

func get(r *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAllowsUpToLimit(t *testing.T) {
	r, _ := newLimitedRouter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, get(r, "10.0.0.1"))
	}
	require.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.1"))
}

func TestLimitIsPerIP(t *testing.T) {
	r, _ := newLimitedRouter(t, 1, time.Minute)

	require.Equal(t, http.StatusOK, get(r, "10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.1"))

	// A different client still has budget.
	require.Equal(t, http.StatusOK, get(r, "10.0.0.2"))
}

func TestWindowResets(t *testing.T) {
	r, mr := newLimitedRouter(t, 1, time.Minute)

	require.Equal(t, http.StatusOK, get(r, "10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.1"))

	mr.FastForward(2 * time.Minute)

	require.Equal(t, http.StatusOK, get(r, "10.0.0.1"))
}

func TestFailsOpenWhenRedisDown(t *testing.T) {
	r, mr := newLimitedRouter(t, 1, time.Minute)
	mr.Close()

	// Throttling is best-effort: an unreachable backend never blocks traffic.
	require.Equal(t, http.StatusOK, get(r, "10.0.0.1"))
	require.Equal(t, http.StatusOK, get(r, "10.0.0.1"))
}
