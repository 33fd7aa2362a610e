package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "station_fetches_total",
			Help: "Full-state fetch completions",
		},
		[]string{"result"}, // committed|stale|error
	)

	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "station_commands_total",
			Help: "Remote commands issued",
		},
		[]string{"command", "result"}, // success|failure
	)

	PushEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "station_push_events_total",
			Help: "Push events received from the upstream stream",
		},
		[]string{"type"},
	)

	StreamReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "station_stream_reconnects_total",
			Help: "Reconnection attempts of the upstream event stream",
		},
	)
)

func init() {
	prometheus.MustRegister(FetchesTotal)
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(PushEventsTotal)
	prometheus.MustRegister(StreamReconnectsTotal)
}
