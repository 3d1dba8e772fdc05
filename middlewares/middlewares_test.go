package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCounter struct {
	redis.Cmdable
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCounter) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expires[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func okHandler(c *gin.Context) { c.Status(http.StatusOK) }

func TestRateLimiter(t *testing.T) {
	counter := newFakeCounter()
	r := gin.New()
	r.Use(NewRateLimiter(counter, 2, time.Minute).Middleware())
	r.GET("/ping", okHandler)

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		return req
	}
	assert.Equal(t, http.StatusOK, serve(r, newReq()).Code)
	assert.Equal(t, http.StatusOK, serve(r, newReq()).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, newReq()).Code)

	assert.Equal(t, int64(3), counter.counts["ratelimit:192.0.2.1"])
	assert.Equal(t, time.Minute, counter.expires["ratelimit:192.0.2.1"])
}

func TestRateLimiterFailsOpen(t *testing.T) {
	counter := newFakeCounter()
	counter.err = errors.New("connection refused")
	r := gin.New()
	r.Use(NewRateLimiter(counter, 1, time.Minute).Middleware())
	r.GET("/ping", okHandler)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}
}

func TestSessionMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(SessionMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		ctx := c.Request.Context()
		orgId, _ := utils.GetOrganizationIdFromContext(ctx)
		userId, _ := utils.GetUserIdFromContext(ctx)
		isAdmin, _ := utils.GetIsAdminFromContext(ctx)
		c.JSON(http.StatusOK, gin.H{"org": orgId, "user": userId, "admin": isAdmin})
	})

	token, err := utils.JwtGenerate("user-1", "org-1", "Aye", utils.RoleAdmin)
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := serve(r, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"org":"org-1","user":"user-1","admin":true}`, w.Body.String())
	})

	t.Run("token header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("token", token)
		assert.Equal(t, http.StatusOK, serve(r, req).Code)
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"org":"","user":"","admin":false}`, w.Body.String())
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
	})

	t.Run("token without organization", func(t *testing.T) {
		orphan, err := utils.JwtGenerate("user-1", "", "Aye", "U")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("token", orphan)
		assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
	})
}

func TestRequireSessionAndAdmin(t *testing.T) {
	r := gin.New()
	r.Use(SessionMiddleware())
	r.GET("/session", RequireSession(), okHandler)
	r.GET("/admin", RequireAdmin(), okHandler)

	userToken, err := utils.JwtGenerate("user-1", "org-1", "Aye", "U")
	require.NoError(t, err)
	adminToken, err := utils.JwtGenerate("user-2", "org-1", "Mya", utils.RoleAdmin)
	require.NoError(t, err)

	request := func(path, token string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("token", token)
		}
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusUnauthorized, request("/session", ""))
	assert.Equal(t, http.StatusOK, request("/session", userToken))
	assert.Equal(t, http.StatusUnauthorized, request("/admin", userToken))
	assert.Equal(t, http.StatusOK, request("/admin", adminToken))
}

func TestReadinessGate(t *testing.T) {
	ready := false
	r := gin.New()
	r.Use(ReadinessGate(func() bool { return ready }))
	r.GET("/healthz", okHandler)
	r.GET("/todo-lists", okHandler)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, httptest.NewRequest(http.MethodGet, "/todo-lists", nil)).Code)

	ready = true
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/todo-lists", nil)).Code)
}

func TestCorrelationId(t *testing.T) {
	r := gin.New()
	r.Use(CorrelationId())
	r.GET("/cid", func(c *gin.Context) {
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.String(http.StatusOK, cid)
	})

	req := httptest.NewRequest(http.MethodGet, "/cid", nil)
	req.Header.Set(CorrelationIdHeader, "abc-123")
	w := serve(r, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(CorrelationIdHeader))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/cid", nil))
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(CorrelationIdHeader))
}
