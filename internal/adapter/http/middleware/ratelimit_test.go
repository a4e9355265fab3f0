package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	redisStore "wallet-ledger/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newRateLimitRouter(t *testing.T, rule RateLimitRule) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := redisStore.NewRateLimitStore(client)

	router := gin.New()
	router.POST("/transfer", RateLimiter(store, "transfers", rule, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	return router
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	router := newRateLimitRouter(t, RateLimitRule{Limit: 3, Window: time.Minute})
	userID := uuid.New().String()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/transfer", nil)
		req.Header.Set(HeaderUserID, userID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	router := newRateLimitRouter(t, RateLimitRule{Limit: 2, Window: time.Minute})
	userID := uuid.New().String()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/transfer", nil)
		req.Header.Set(HeaderUserID, userID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/transfer", nil)
	req.Header.Set(HeaderUserID, userID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "SYS_002")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter_UsersAreIndependent(t *testing.T) {
	router := newRateLimitRouter(t, RateLimitRule{Limit: 1, Window: time.Minute})

	first := httptest.NewRequest(http.MethodPost, "/transfer", nil)
	first.Header.Set(HeaderUserID, uuid.New().String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, first)
	assert.Equal(t, http.StatusOK, w.Code)

	second := httptest.NewRequest(http.MethodPost, "/transfer", nil)
	second.Header.Set(HeaderUserID, uuid.New().String())
	w = httptest.NewRecorder()
	router.ServeHTTP(w, second)
	assert.Equal(t, http.StatusOK, w.Code, "a different user starts with a fresh budget")
}

func TestDefaultRateLimitRules(t *testing.T) {
	rules := DefaultRateLimitRules()

	for _, group := range []string{"transfers", "listings", "wallets", "admin"} {
		rule, ok := rules[group]
		assert.True(t, ok, "missing rule for group %s", group)
		assert.Greater(t, rule.Limit, int64(0))
		assert.Greater(t, rule.Window, time.Duration(0))
	}
}
