package station

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"station-dashboard-backend/internal/identity"
	"station-dashboard-backend/internal/metrics"
	"station-dashboard-backend/internal/model"
	"station-dashboard-backend/internal/pairing"
	"station-dashboard-backend/internal/upstream"
)

const commandFailedFallback = "Command failed. The station state was restored."

// ErrNoPendingSuggestion is returned by AcceptSuggestion when no offer is
// currently tracked.
var ErrNoPendingSuggestion = errors.New("no pending suggestion to accept")

// execute is the optimistic mutation path: capture a snapshot of the three
// tracked collections, apply the speculative transform locally, then issue
// the remote command. Success notifies and triggers an authoritative refetch;
// failure restores the snapshot and surfaces the server's reason.
func (c *Core) execute(ctx context.Context, command string, payload any, action string, transform func()) error {
	c.mu.Lock()
	snap := c.captureLocked()
	if transform != nil {
		transform()
	}
	c.mu.Unlock()

	msg, err := c.remote.SendCommand(ctx, command, payload)
	if err != nil {
		metrics.CommandsTotal.WithLabelValues(command, "failure").Inc()
		c.mu.Lock()
		c.restoreLocked(snap)
		c.mu.Unlock()
		c.notifier.Error(failureMessage(err))
		return err
	}

	metrics.CommandsTotal.WithLabelValues(command, "success").Inc()
	if msg == "" {
		msg = action
	}
	c.notifier.Success(msg)
	c.recordAction(ctx, action)

	// The refetch may further correct the optimistic guess; its own error
	// handling applies.
	_ = c.Refresh(ctx)
	return nil
}

func failureMessage(err error) string {
	var cmdErr *upstream.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Detail != "" {
		return cmdErr.Detail
	}
	return commandFailedFallback
}

// AssignRequest places a train on one or more resources. Train optionally
// carries explicit record info that overrides cached roster/waiting data.
type AssignRequest struct {
	TrainNo       string
	ResourceIDs   []string
	ActualArrival string
	Train         *model.TrainRecord
}

// Assign marks every target resource occupied by the train, attaches pairing
// metadata, and removes the train from the roster and the waiting list.
func (c *Core) Assign(ctx context.Context, req AssignRequest) error {
	key := identity.Normalize(req.TrainNo)
	if key == "" {
		return errors.New("train number is required")
	}
	if len(req.ResourceIDs) == 0 {
		return errors.New("at least one resource id is required")
	}

	arrival := req.ActualArrival
	if arrival == "" {
		arrival = c.now().Format("15:04")
	}

	payload := map[string]any{
		"trainNo":       key,
		"platformIds":   req.ResourceIDs,
		"actualArrival": arrival,
	}
	action := fmt.Sprintf("ARRIVED & ASSIGNED: Train %s arrived at %s and assigned to %s.",
		key, arrival, strings.Join(req.ResourceIDs, ", "))

	return c.execute(ctx, upstream.CmdAssign, payload, action, func() {
		occ := c.occupantLocked(key, req.Train)
		c.placeLocked(occ, req.ResourceIDs, arrival)
		c.roster = removeTrain(c.roster, key)
		c.waiting = removeWaiting(c.waiting, key)
	})
}

// FreightRequest places a freight consist that has no pre-existing train
// record; the occupant is synthesized from the supplied label and line.
type FreightRequest struct {
	Label         string
	IncomingLine  string
	ResourceID    string
	ActualArrival string
}

// AssignFreight occupies a single resource with a synthesized freight record.
func (c *Core) AssignFreight(ctx context.Context, req FreightRequest) error {
	if req.ResourceID == "" {
		return errors.New("resource id is required")
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = "Freight"
	}
	arrival := req.ActualArrival
	if arrival == "" {
		arrival = c.now().Format("15:04")
	}

	command := upstream.CmdAssignFreightTrack
	c.mu.Lock()
	if r := c.resourceLocked(req.ResourceID); r != nil && r.Class == model.ClassPlatform {
		command = upstream.CmdAssignFreightPlatform
	}
	c.mu.Unlock()

	payload := map[string]any{
		"label":         label,
		"incomingLine":  req.IncomingLine,
		"platformId":    req.ResourceID,
		"actualArrival": arrival,
	}
	action := fmt.Sprintf("ARRIVED & ASSIGNED: Freight %s arrived at %s and assigned to %s.", label, arrival, req.ResourceID)

	return c.execute(ctx, command, payload, action, func() {
		occ := model.Occupant{
			TrainNo:      identity.Normalize(label),
			Name:         label,
			IncomingLine: req.IncomingLine,
		}
		c.placeLocked(occ, []string{req.ResourceID}, arrival)
	})
}

// Unassign clears exactly one resource. A pairing partner is deliberately
// left untouched: clearing it is an operator decision, not a cascade.
func (c *Core) Unassign(ctx context.Context, resourceID string) error {
	if resourceID == "" {
		return errors.New("resource id is required")
	}

	payload := map[string]any{"platformId": resourceID}
	action := fmt.Sprintf("UNASSIGNED: %s cleared and train returned to the arrival list.", resourceID)

	return c.execute(ctx, upstream.CmdUnassign, payload, action, func() {
		if r := c.resourceLocked(resourceID); r != nil {
			clearResource(r)
		}
	})
}

// WaitingRequest enqueues a train on the waiting list. Missing fields are
// filled from the cached roster or waiting-list record.
type WaitingRequest struct {
	TrainNo       string
	Name          string
	IncomingLine  string
	ActualArrival string
}

// AddToWaitingList inserts or replaces the train's waiting-list entry with a
// fresh enqueue timestamp and removes the train from the roster.
func (c *Core) AddToWaitingList(ctx context.Context, req WaitingRequest) error {
	key := identity.Normalize(req.TrainNo)
	if key == "" {
		return errors.New("train number is required")
	}

	payload := map[string]any{
		"trainNo":       key,
		"incomingLine":  req.IncomingLine,
		"actualArrival": req.ActualArrival,
	}
	action := fmt.Sprintf("WAITING: Train %s added to the waiting list.", key)

	return c.execute(ctx, upstream.CmdAddToWaitingList, payload, action, func() {
		entry := model.WaitingEntry{
			TrainRecord: model.TrainRecord{
				TrainNo:      key,
				Name:         req.Name,
				IncomingLine: req.IncomingLine,
			},
			ActualArrival: req.ActualArrival,
			EnqueuedAt:    c.now(),
		}
		c.mergeCachedLocked(&entry)

		replaced := false
		for i := range c.waiting {
			if identity.Match(c.waiting[i].TrainNo, key) {
				c.waiting[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			c.waiting = append(c.waiting, entry)
		}
		c.roster = removeTrain(c.roster, key)
	})
}

// RemoveFromWaitingList drops the train from the waiting list.
func (c *Core) RemoveFromWaitingList(ctx context.Context, trainNo string) error {
	key := identity.Normalize(trainNo)
	if key == "" {
		return errors.New("train number is required")
	}

	payload := map[string]any{"trainNo": key}
	action := fmt.Sprintf("WAITING LIST: Train %s removed from waiting list.", key)

	return c.execute(ctx, upstream.CmdRemoveFromWaitingList, payload, action, func() {
		c.waiting = removeWaiting(c.waiting, key)
	})
}

// Depart clears the resource and every partner resource holding the same
// train: the stored pairing link first, an occupant-identity search as the
// fallback when no link is stored.
func (c *Core) Depart(ctx context.Context, resourceID string) error {
	if resourceID == "" {
		return errors.New("resource id is required")
	}

	c.mu.Lock()
	ids := c.departureSetLocked(resourceID)
	c.mu.Unlock()

	payload := map[string]any{"platformId": resourceID}
	action := fmt.Sprintf("DEPARTED: Train departed from %s at %s.", strings.Join(ids, ", "), c.now().Format("15:04"))

	return c.execute(ctx, upstream.CmdDepart, payload, action, func() {
		for _, id := range c.departureSetLocked(resourceID) {
			if r := c.resourceLocked(id); r != nil {
				clearResource(r)
			}
		}
	})
}

// ToggleMaintenance flips the maintenance flag. Entering maintenance forces
// the resource vacant (maintenance and occupancy are mutually exclusive);
// leaving it does not alter occupancy.
func (c *Core) ToggleMaintenance(ctx context.Context, resourceID string) error {
	if resourceID == "" {
		return errors.New("resource id is required")
	}

	payload := map[string]any{"platformId": resourceID}
	action := fmt.Sprintf("MAINTENANCE: Maintenance toggled for %s.", resourceID)

	return c.execute(ctx, upstream.CmdToggleMaintenance, payload, action, func() {
		r := c.resourceLocked(resourceID)
		if r == nil {
			return
		}
		r.Maintenance = !r.Maintenance
		if r.Maintenance {
			r.Occupied = false
			r.Occupant = nil
			r.ActualArrival = ""
			r.Pairing = nil
		}
	})
}

// AddTrain inserts or replaces a roster record.
func (c *Core) AddTrain(ctx context.Context, rec model.TrainRecord) error {
	key := identity.Normalize(rec.TrainNo)
	if key == "" {
		return errors.New("train number is required")
	}
	rec.TrainNo = key

	action := fmt.Sprintf("TRAIN ADDED: New train %s added to the master schedule.", key)

	return c.execute(ctx, upstream.CmdAddTrain, upstream.MasterRecord(rec), action, func() {
		replaced := false
		for i := range c.roster {
			if identity.Match(c.roster[i].TrainNo, key) {
				c.roster[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			c.roster = append(c.roster, rec)
		}
		sortRoster(c.roster)
	})
}

// DeleteTrain removes a train from the roster and the waiting list.
func (c *Core) DeleteTrain(ctx context.Context, trainNo string) error {
	key := identity.Normalize(trainNo)
	if key == "" {
		return errors.New("train number is required")
	}

	payload := map[string]any{"trainNo": key}
	action := fmt.Sprintf("TRAIN DELETED: Train %s removed from the master schedule.", key)

	return c.execute(ctx, upstream.CmdDeleteTrain, payload, action, func() {
		c.roster = removeTrain(c.roster, key)
		c.waiting = removeWaiting(c.waiting, key)
	})
}

// AcceptSuggestion accepts the tracked pending suggestion. Nothing is mutated
// optimistically here: on failure the suggestion simply stays pending.
func (c *Core) AcceptSuggestion(ctx context.Context) error {
	c.mu.Lock()
	p := c.pending
	c.mu.Unlock()
	if p == nil {
		return ErrNoPendingSuggestion
	}

	payload := map[string]any{"suggestionId": p.ID, "trainNo": p.TrainNo}
	msg, err := c.remote.SendCommand(ctx, upstream.CmdAcceptSuggestion, payload)
	if err != nil {
		metrics.CommandsTotal.WithLabelValues(upstream.CmdAcceptSuggestion, "failure").Inc()
		c.notifier.Error(failureMessage(err))
		return err
	}

	metrics.CommandsTotal.WithLabelValues(upstream.CmdAcceptSuggestion, "success").Inc()
	c.mu.Lock()
	if c.pending != nil && c.pending.ID == p.ID {
		c.pending = nil
	}
	c.mu.Unlock()

	if msg == "" {
		msg = fmt.Sprintf("Suggestion accepted for train %s.", p.TrainNo)
	}
	c.notifier.Success(msg)
	c.recordAction(ctx, fmt.Sprintf("SUGGESTION ACCEPTED: Train %s assigned per suggestion %s.", p.TrainNo, p.ID))
	_ = c.Refresh(ctx)
	return nil
}

// occupantLocked builds the occupant from the best available information:
// explicit override, then the cached roster or waiting-list record, then a
// synthetic placeholder. The refetch corrects the guess if the server knows
// better.
func (c *Core) occupantLocked(key string, override *model.TrainRecord) model.Occupant {
	if override != nil {
		return model.Occupant{
			TrainNo:      key,
			Name:         override.Name,
			IncomingLine: override.IncomingLine,
			Terminating:  override.Terminating,
		}
	}
	for _, t := range c.roster {
		if identity.Match(t.TrainNo, key) {
			return model.Occupant{TrainNo: key, Name: t.Name, IncomingLine: t.IncomingLine, Terminating: t.Terminating}
		}
	}
	for _, w := range c.waiting {
		if identity.Match(w.TrainNo, key) {
			return model.Occupant{TrainNo: key, Name: w.Name, IncomingLine: w.IncomingLine, Terminating: w.Terminating}
		}
	}
	return model.Occupant{TrainNo: key, Name: "Train " + key}
}

// placeLocked occupies every target resource with the occupant and the
// pairing metadata derived from the assignment order.
func (c *Core) placeLocked(occ model.Occupant, ids []string, arrival string) {
	links := pairing.Derive(ids)
	for _, id := range ids {
		r := c.resourceLocked(id)
		if r == nil {
			continue
		}
		o := occ
		p := links[id]
		r.Occupied = true
		r.Maintenance = false
		r.Occupant = &o
		r.Pairing = &p
		r.ActualArrival = arrival
	}
}

// departureSetLocked resolves the full set of resource ids to clear for a
// departure from the given resource.
func (c *Core) departureSetLocked(resourceID string) []string {
	ids := []string{resourceID}
	r := c.resourceLocked(resourceID)
	if r == nil {
		return ids
	}
	if r.Pairing != nil && r.Pairing.LinkedResourceID != "" {
		return append(ids, r.Pairing.LinkedResourceID)
	}
	if r.Occupant != nil {
		for i := range c.resources {
			other := &c.resources[i]
			if other.ID == resourceID || !other.Occupied || other.Occupant == nil {
				continue
			}
			if identity.Match(other.Occupant.TrainNo, r.Occupant.TrainNo) {
				ids = append(ids, other.ID)
			}
		}
	}
	return ids
}

// mergeCachedLocked fills the entry's missing fields from the cached roster
// record, then from an existing waiting-list entry.
func (c *Core) mergeCachedLocked(entry *model.WaitingEntry) {
	for _, t := range c.roster {
		if identity.Match(t.TrainNo, entry.TrainNo) {
			if entry.Name == "" {
				entry.Name = t.Name
			}
			if entry.IncomingLine == "" {
				entry.IncomingLine = t.IncomingLine
			}
			entry.ScheduledArrival = t.ScheduledArrival
			entry.ScheduledDeparture = t.ScheduledDeparture
			entry.Terminating = t.Terminating
			break
		}
	}
	for _, w := range c.waiting {
		if identity.Match(w.TrainNo, entry.TrainNo) {
			if entry.Name == "" {
				entry.Name = w.Name
			}
			if entry.IncomingLine == "" {
				entry.IncomingLine = w.IncomingLine
			}
			if entry.ActualArrival == "" {
				entry.ActualArrival = w.ActualArrival
			}
			break
		}
	}
}

func clearResource(r *model.Resource) {
	r.Occupied = false
	r.Occupant = nil
	r.ActualArrival = ""
	r.Pairing = nil
}

func removeTrain(in []model.TrainRecord, key string) []model.TrainRecord {
	out := in[:0]
	for _, t := range in {
		if !identity.Match(t.TrainNo, key) {
			out = append(out, t)
		}
	}
	return out
}

func removeWaiting(in []model.WaitingEntry, key string) []model.WaitingEntry {
	out := in[:0]
	for _, w := range in {
		if !identity.Match(w.TrainNo, key) {
			out = append(out, w)
		}
	}
	return out
}

func sortRoster(roster []model.TrainRecord) {
	sort.SliceStable(roster, func(i, j int) bool {
		return rosterSortKey(roster[i]) < rosterSortKey(roster[j])
	})
}

func rosterSortKey(t model.TrainRecord) string {
	if t.ScheduledArrival != "" {
		return t.ScheduledArrival
	}
	if t.ScheduledDeparture != "" {
		return t.ScheduledDeparture
	}
	return "99:99"
}
