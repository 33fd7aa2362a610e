package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCacheServesSecondRequestFromStore(t *testing.T) {
	hits := 0
	r := gin.New()
	store := cache.New(time.Minute, time.Minute)
	r.GET("/logs", Cache(store, time.Minute), func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"hits": hits})
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/logs", nil))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/logs", nil))

	assert.Equal(t, 1, hits, "second request must not reach the handler")
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
}

func TestCacheSkipsErrorsAndWrites(t *testing.T) {
	r := gin.New()
	store := cache.New(time.Minute, time.Minute)
	status := http.StatusBadGateway
	r.GET("/flaky", Cache(store, time.Minute), func(c *gin.Context) {
		c.Status(status)
	})
	posts := 0
	r.POST("/flaky", Cache(store, time.Minute), func(c *gin.Context) {
		posts++
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/flaky", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// The failed response was not cached; the recovered one comes through.
	status = http.StatusOK
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/flaky", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	for i := 0; i < 2; i++ {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/flaky", nil))
	}
	assert.Equal(t, 2, posts, "POST requests bypass the cache")
}

func TestRateLimiterThrottlesBursts(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RateLimiter(rate.Limit(1), 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make(map[int]int)
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes[w.Code]++
	}

	assert.Equal(t, 2, codes[http.StatusOK], "burst of 2 is allowed")
	assert.GreaterOrEqual(t, codes[http.StatusTooManyRequests], 3)
}

func TestRateLimiterIsPerIP(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RateLimiter(rate.Limit(1), 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = addr
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "client %d has its own budget", i)
	}
}
