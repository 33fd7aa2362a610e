package model

import "time"

// TrainRecord is the canonical form of a train-like record regardless of which
// upstream spelling it arrived in. The upstream adapter is the only place that
// maps external field names onto this type.
type TrainRecord struct {
	TrainNo            string `json:"trainNo"`
	Name               string `json:"name"`
	IncomingLine       string `json:"incomingLine,omitempty"`
	ScheduledArrival   string `json:"scheduledArrival,omitempty"`
	ScheduledDeparture string `json:"scheduledDeparture,omitempty"`
	Terminating        bool   `json:"isTerminating,omitempty"`
}

// WaitingEntry is a train that was logged as arrived but could not be placed.
type WaitingEntry struct {
	TrainRecord
	ActualArrival string    `json:"actualArrival,omitempty"`
	EnqueuedAt    time.Time `json:"enqueuedAt"`
}
