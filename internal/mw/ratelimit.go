// Package mw holds the gin middleware for the dashboard API.
package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitor is one client's limiter plus the last time it was used, so idle
// entries can be pruned.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	r        rate.Limit
	b        int
}

const visitorIdleTTL = 10 * time.Minute

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.r, l.b)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

func (l *ipLimiter) prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-visitorIdleTTL)
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
		}
	}
}

// RateLimiter limits requests per client IP. One dashboard session issues
// bursts of commands during a shunting move, so the burst size matters more
// than the sustained rate.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	l := &ipLimiter{visitors: make(map[string]*visitor), r: r, b: b}

	go func() {
		for range time.Tick(visitorIdleTTL) {
			l.prune()
		}
	}()

	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}
