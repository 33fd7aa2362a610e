// Package api exposes the dashboard's HTTP surface: the synchronized station
// state, the mutation commands, the operations log and the push subscription
// endpoints.
package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"station-dashboard-backend/internal/journal"
	"station-dashboard-backend/internal/station"
	"station-dashboard-backend/internal/upstream"
)

// LogSource fetches the upstream operations log feed.
type LogSource interface {
	FetchLogEntries(ctx context.Context) ([]upstream.LogEntry, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	core    *station.Core
	logs    LogSource
	journal journal.Store
	webpush *webpush.Options
}

// NewHandler creates the API handler set.
func NewHandler(core *station.Core, logs LogSource, store journal.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		core:    core,
		logs:    logs,
		journal: store,
		webpush: webpushOptions,
	}
}
