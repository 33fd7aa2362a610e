package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"station-dashboard-backend/config"
	"station-dashboard-backend/internal/mw"
)

// NewRouter wires the API routes. Command and state endpoints are never
// cached; only the merged log view sits behind the short-TTL cache.
func NewRouter(cfg *config.ServerConfig, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/state", h.GetState)
		api.POST("/refresh", h.Refresh)

		api.GET("/notifications", h.GetNotifications)
		api.DELETE("/notifications/:id", h.DismissNotification)

		api.POST("/assign", h.Assign)
		api.POST("/assign-freight", h.AssignFreight)
		api.POST("/unassign", h.Unassign)
		api.POST("/depart", h.Depart)
		api.POST("/toggle-maintenance", h.ToggleMaintenance)

		api.POST("/waiting-list", h.AddToWaitingList)
		api.DELETE("/waiting-list/:trainNo", h.RemoveFromWaitingList)

		api.POST("/trains", h.AddTrain)
		api.DELETE("/trains/:trainNo", h.DeleteTrain)

		api.POST("/suggestion/accept", h.AcceptSuggestion)

		api.GET("/logs", caching, h.GetLogs)

		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
