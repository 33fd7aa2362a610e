package upstream

import (
	"strings"
	"time"

	"station-dashboard-backend/internal/identity"
	"station-dashboard-backend/internal/model"
)

// The upstream emits train-like records in two dialects: the dashboard's own
// camelCase fields and the master schedule's upper-case column names. Every
// accepted spelling is resolved here, exactly once; nothing past the adapter
// ever checks alternates.

func pick(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func pickString(raw map[string]any, keys ...string) string {
	v := pick(raw, keys...)
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func pickBool(raw map[string]any, keys ...string) bool {
	v := pick(raw, keys...)
	b, _ := v.(bool)
	return b
}

func adaptTrain(raw map[string]any) model.TrainRecord {
	return model.TrainRecord{
		TrainNo:            identity.Normalize(pick(raw, "trainNo", "TRAIN NO")),
		Name:               pickString(raw, "name", "trainName", "TRAIN NAME"),
		IncomingLine:       pickString(raw, "incomingLine", "incoming_line", "INCOMING LINE"),
		ScheduledArrival:   pickString(raw, "scheduledArrival", "scheduled_arrival", "ARRIVAL AT KGP"),
		ScheduledDeparture: pickString(raw, "scheduledDeparture", "scheduled_departure", "DEPARTURE FROM KGP"),
		Terminating:        pickBool(raw, "isTerminating", "ISTERMINATING"),
	}
}

func adaptWaiting(raw map[string]any) model.WaitingEntry {
	entry := model.WaitingEntry{
		TrainRecord:   adaptTrain(raw),
		ActualArrival: pickString(raw, "actualArrival", "actual_arrival"),
	}
	if ts := pickString(raw, "enqueuedAt", "enqueued_at"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			entry.EnqueuedAt = t
		}
	}
	return entry
}

func adaptResource(w wireResource) model.Resource {
	r := model.Resource{
		ID:            w.ID,
		Class:         classOf(w.ID),
		Occupied:      w.IsOccupied,
		Maintenance:   w.IsUnderMaintenance,
		ActualArrival: w.ActualArrival,
	}
	if w.IsOccupied && w.TrainDetails != nil {
		r.Occupant = &model.Occupant{
			TrainNo:      identity.Normalize(pick(w.TrainDetails, "trainNo", "TRAIN NO")),
			Name:         pickString(w.TrainDetails, "name", "TRAIN NAME"),
			IncomingLine: pickString(w.TrainDetails, "incomingLine", "incoming_line", "INCOMING LINE"),
			Terminating:  pickBool(w.TrainDetails, "isTerminating", "ISTERMINATING"),
		}
		if linked := pickString(w.TrainDetails, "linkedPlatformId", "linkedResourceId"); linked != "" {
			r.Pairing = &model.Pairing{
				LinkedResourceID: linked,
				IsPrimary:        pickBool(w.TrainDetails, "isPrimary"),
			}
		}
	}
	return r
}

// classOf derives the capacity class from the resource id prefix. Ids look
// like "Platform 1" or "Track 6"; anything unrecognized counts as a track so
// freight assignment picks the more permissive command.
func classOf(id string) model.ResourceClass {
	if strings.HasPrefix(id, "Platform") {
		return model.ClassPlatform
	}
	return model.ClassTrack
}

// MasterRecord renders a canonical train record in the master schedule
// spellings the add-train endpoint expects.
func MasterRecord(t model.TrainRecord) map[string]any {
	return map[string]any{
		"TRAIN NO":           t.TrainNo,
		"TRAIN NAME":         t.Name,
		"INCOMING LINE":      t.IncomingLine,
		"ARRIVAL AT KGP":     t.ScheduledArrival,
		"DEPARTURE FROM KGP": t.ScheduledDeparture,
		"ISTERMINATING":      t.Terminating,
	}
}

func adaptState(doc stateDocument) *FullState {
	st := &FullState{
		Resources:   make([]model.Resource, 0, len(doc.Platforms)),
		Roster:      make([]model.TrainRecord, 0, len(doc.ArrivingTrains)),
		WaitingList: make([]model.WaitingEntry, 0, len(doc.WaitingList)),
	}
	for _, w := range doc.Platforms {
		st.Resources = append(st.Resources, adaptResource(w))
	}
	for _, raw := range doc.ArrivingTrains {
		st.Roster = append(st.Roster, adaptTrain(raw))
	}
	for _, raw := range doc.WaitingList {
		st.WaitingList = append(st.WaitingList, adaptWaiting(raw))
	}
	return st
}
