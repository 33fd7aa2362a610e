package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const defaultLogLimit = 100

// GetLogs returns the merged operations log: the upstream feed is mirrored
// into the journal first, then the newest rows of both sources are served
// together. An unreachable upstream degrades to journal-only rather than
// failing the request.
func (h *Handler) GetLogs(c *gin.Context) {
	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	if feed, err := h.logs.FetchLogEntries(ctx); err != nil {
		log.Warn().Err(err).Msg("upstream log feed unavailable, serving journal only")
	} else if err := h.journal.MirrorUpstream(ctx, feed); err != nil {
		log.Warn().Err(err).Msg("failed to mirror upstream log feed")
	}

	entries, err := h.journal.Recent(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries})
}
