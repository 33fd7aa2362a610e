package station

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"station-dashboard-backend/internal/identity"
	"station-dashboard-backend/internal/metrics"
	"station-dashboard-backend/internal/model"
	"station-dashboard-backend/internal/upstream"
)

// Reconcile consumes server-push events until the channel closes or the
// context ends. A malformed payload is logged and dropped; it never takes the
// reconciler down.
func (c *Core) Reconcile(ctx context.Context, events <-chan upstream.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(ctx, ev)
		}
	}
}

func (c *Core) handleEvent(ctx context.Context, ev upstream.Event) {
	metrics.PushEventsTotal.WithLabelValues(ev.Type).Inc()

	switch ev.Type {
	case upstream.EventDepartureAlert:
		c.handleDepartureAlert(ev.Data)
	case upstream.EventSuggestionOffered:
		c.handleSuggestionOffered(ev.Data)
	case upstream.EventSuggestionExpired:
		c.handleSuggestionExpired(ev.Data)
	case upstream.EventSuggestionAccepted:
		c.handleSuggestionAccepted(ctx, ev.Data)
	default:
		log.Debug().Str("type", ev.Type).Msg("ignoring unknown push event")
	}
}

type departurePayload struct {
	TrainNumber any    `json:"train_number"`
	TrainName   string `json:"train_name"`
	ResourceID  string `json:"platform_id"`
}

func (c *Core) handleDepartureAlert(data []byte) {
	var p departurePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Msg("dropping malformed departure alert")
		return
	}
	key := identity.Normalize(p.TrainNumber)
	if key == "" {
		log.Warn().Msg("dropping departure alert without a train number")
		return
	}

	name := p.TrainName
	if name == "" {
		name = "Train " + key
	}
	msg := fmt.Sprintf("Departure due: %s (%s)", name, key)
	if p.ResourceID != "" {
		msg += " on " + p.ResourceID
	}
	// Keyed by train so a re-announced departure updates in place.
	c.notifier.Alert("departure:"+key, msg)
}

func (c *Core) handleSuggestionOffered(data []byte) {
	var s model.PendingSuggestion
	if err := json.Unmarshal(data, &s); err != nil {
		log.Warn().Err(err).Msg("dropping malformed suggestion offer")
		return
	}
	if s.ID == "" || identity.Normalize(s.TrainNo) == "" || len(s.ResourceIDs) == 0 {
		log.Warn().Str("suggestionId", s.ID).Msg("dropping incomplete suggestion offer")
		return
	}
	s.TrainNo = identity.Normalize(s.TrainNo)

	c.mu.Lock()
	prev := c.pending
	c.pending = &s
	c.mu.Unlock()

	if prev != nil && prev.ID != s.ID {
		c.notifier.Resolve(suggestionKey(prev.ID))
	}

	name := s.DisplayName
	if name == "" {
		name = "Train " + s.TrainNo
	}
	c.notifier.InfoKeyed(suggestionKey(s.ID),
		fmt.Sprintf("Suggestion: assign %s to %s.", name, strings.Join(s.ResourceIDs, ", ")))
}

type suggestionRef struct {
	ID string `json:"suggestionId"`
}

func (c *Core) handleSuggestionExpired(data []byte) {
	var ref suggestionRef
	if err := json.Unmarshal(data, &ref); err != nil {
		log.Warn().Err(err).Msg("dropping malformed suggestion expiry")
		return
	}
	if ref.ID == "" {
		log.Warn().Msg("dropping suggestion expiry without an id")
		return
	}

	c.mu.Lock()
	// An expiry for a suggestion that is no longer the tracked one is stale
	// news and carries no effect.
	if c.pending == nil || c.pending.ID != ref.ID {
		c.mu.Unlock()
		return
	}
	expired := *c.pending
	c.pending = nil
	c.mu.Unlock()

	c.notifier.Resolve(suggestionKey(expired.ID))
	c.notifier.Warning(fmt.Sprintf("Suggestion for train %s expired.", expired.TrainNo))
}

func (c *Core) handleSuggestionAccepted(ctx context.Context, data []byte) {
	var ref suggestionRef
	if err := json.Unmarshal(data, &ref); err != nil {
		log.Warn().Err(err).Msg("dropping malformed suggestion acceptance")
		return
	}

	// Acceptance is authoritative: the tracked suggestion is cleared even
	// when the ids disagree.
	c.mu.Lock()
	accepted := c.pending
	c.pending = nil
	c.mu.Unlock()

	if accepted != nil {
		c.notifier.Resolve(suggestionKey(accepted.ID))
	}
	c.notifier.Success("Suggestion applied.")

	// Another session applied the suggestion; refetch for the outcome.
	_ = c.Refresh(ctx)
}
