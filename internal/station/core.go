// Package station holds the client-side synchronization core: a local view of
// the station's resources kept consistent with the remote authoritative API
// while speculative local mutations, reordered fetch responses and server-push
// events all write into it.
package station

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"station-dashboard-backend/internal/metrics"
	"station-dashboard-backend/internal/model"
	"station-dashboard-backend/internal/upstream"
)

// Remote is the boundary to the authoritative store.
type Remote interface {
	FetchFullState(ctx context.Context) (*upstream.FullState, error)
	SendCommand(ctx context.Context, name string, payload any) (string, error)
}

// Recorder journals locally issued actions. Optional.
type Recorder interface {
	RecordAction(ctx context.Context, action string) error
}

// Core owns all synchronization state for one session. There is no ambient
// state: the fetch epoch and the three tracked collections live here, guarded
// by one mutex so every logical write is a single short critical section.
type Core struct {
	remote   Remote
	notifier *Notifier
	recorder Recorder
	now      func() time.Time

	mu        sync.Mutex
	epoch     uint64
	resources []model.Resource
	roster    []model.TrainRecord
	waiting   []model.WaitingEntry
	pending   *model.PendingSuggestion
	ready     bool
	loadErr   string
}

// New creates a synchronization core for one dashboard session.
func New(remote Remote, notifier *Notifier) *Core {
	return &Core{
		remote:   remote,
		notifier: notifier,
		now:      time.Now,
	}
}

// SetRecorder attaches the local action journal.
func (c *Core) SetRecorder(r Recorder) {
	c.recorder = r
}

// Notifier returns the notification sink the core writes to.
func (c *Core) Notifier() *Notifier {
	return c.notifier
}

// Snapshot is the UI-facing view of the current local state.
type Snapshot struct {
	Ready             bool                     `json:"ready"`
	LoadError         string                   `json:"loadError,omitempty"`
	Resources         []model.Resource         `json:"resources"`
	Roster            []model.TrainRecord      `json:"arrivingTrains"`
	WaitingList       []model.WaitingEntry     `json:"waitingList"`
	PendingSuggestion *model.PendingSuggestion `json:"pendingSuggestion,omitempty"`
}

// Snapshot returns a deep copy of the current local state.
func (c *Core) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Ready:       c.ready,
		LoadError:   c.loadErr,
		Resources:   cloneResources(c.resources),
		Roster:      append([]model.TrainRecord(nil), c.roster...),
		WaitingList: append([]model.WaitingEntry(nil), c.waiting...),
	}
	if c.pending != nil {
		p := *c.pending
		p.ResourceIDs = append([]string(nil), c.pending.ResourceIDs...)
		snap.PendingSuggestion = &p
	}
	return snap
}

// DismissNotification removes a notification by id. Dismissing the offer
// notification of the tracked pending suggestion also discards the suggestion.
func (c *Core) DismissNotification(id string) bool {
	n, ok := c.notifier.Dismiss(id)
	if !ok {
		return false
	}
	if n.Key != "" {
		c.mu.Lock()
		if c.pending != nil && n.Key == suggestionKey(c.pending.ID) {
			c.pending = nil
		}
		c.mu.Unlock()
	}
	return true
}

// beginFetch advances the fetch epoch and returns the token for this fetch.
func (c *Core) beginFetch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	return c.epoch
}

// isCurrentLocked reports whether no newer fetch has begun since token.
func (c *Core) isCurrentLocked(token uint64) bool {
	return token == c.epoch
}

// Refresh performs a full authoritative fetch. Only the response to the most
// recently initiated fetch may overwrite local state; a superseded response is
// discarded silently, which is routine, not a failure.
func (c *Core) Refresh(ctx context.Context) error {
	token := c.beginFetch()
	st, err := c.remote.FetchFullState(ctx)

	c.mu.Lock()
	if !c.isCurrentLocked(token) {
		c.mu.Unlock()
		metrics.FetchesTotal.WithLabelValues("stale").Inc()
		log.Debug().Uint64("token", token).Msg("discarding superseded fetch response")
		return nil
	}
	if err != nil {
		initial := !c.ready
		if initial {
			c.loadErr = err.Error()
		}
		c.mu.Unlock()
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		if initial {
			c.notifier.PersistentError(initialLoadKey, "Failed to load station state: "+err.Error())
		}
		log.Error().Err(err).Msg("full-state fetch failed")
		return err
	}

	c.resources = st.Resources
	c.roster = st.Roster
	c.waiting = st.WaitingList
	c.ready = true
	c.loadErr = ""
	c.mu.Unlock()

	metrics.FetchesTotal.WithLabelValues("committed").Inc()
	c.notifier.Resolve(initialLoadKey)
	return nil
}

// collectionsSnapshot is an explicit value-type copy of the three tracked
// collections, captured before a speculative mutation and restored on command
// failure. The pending suggestion is deliberately outside it: rollbacks must
// never resurrect a superseded suggestion.
type collectionsSnapshot struct {
	resources []model.Resource
	roster    []model.TrainRecord
	waiting   []model.WaitingEntry
}

func (c *Core) captureLocked() collectionsSnapshot {
	return collectionsSnapshot{
		resources: cloneResources(c.resources),
		roster:    append([]model.TrainRecord(nil), c.roster...),
		waiting:   append([]model.WaitingEntry(nil), c.waiting...),
	}
}

func (c *Core) restoreLocked(snap collectionsSnapshot) {
	c.resources = snap.resources
	c.roster = snap.roster
	c.waiting = snap.waiting
}

func (c *Core) resourceLocked(id string) *model.Resource {
	for i := range c.resources {
		if c.resources[i].ID == id {
			return &c.resources[i]
		}
	}
	return nil
}

func (c *Core) recordAction(ctx context.Context, action string) {
	if c.recorder == nil || action == "" {
		return
	}
	if err := c.recorder.RecordAction(ctx, action); err != nil {
		log.Warn().Err(err).Msg("failed to journal action")
	}
}

func cloneResources(in []model.Resource) []model.Resource {
	out := make([]model.Resource, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

const initialLoadKey = "initial-load"

func suggestionKey(id string) string {
	return "suggestion:" + id
}
