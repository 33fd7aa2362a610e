package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetState returns the current local view of the station.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.core.Snapshot())
}

// GetNotifications returns the notification list, newest first.
func (h *Handler) GetNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.core.Notifier().List()})
}

// DismissNotification removes one notification by id.
func (h *Handler) DismissNotification(c *gin.Context) {
	if !h.core.DismissNotification(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh forces a full authoritative refetch.
func (h *Handler) Refresh(c *gin.Context) {
	if err := h.core.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.core.Snapshot())
}
