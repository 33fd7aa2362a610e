package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache is a short-TTL response cache for read endpoints whose upstream
// source is expensive to hit, such as the merged operations log. State
// endpoints that must reflect optimistic mutations immediately should not sit
// behind it.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, ok := store.Get(key); ok {
			resp := hit.(cachedResponse)
			c.Header("X-Cache", "HIT")
			c.Data(resp.status, resp.contentType, resp.body)
			c.Abort()
			return
		}

		cw := &captureWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = cw
		c.Next()

		if cw.Status() == http.StatusOK {
			store.Set(key, cachedResponse{
				status:      cw.Status(),
				contentType: cw.Header().Get("Content-Type"),
				body:        append([]byte(nil), cw.body.Bytes()...),
			}, ttl)
		}
	}
}
