package upstream

import "station-dashboard-backend/internal/model"

// FullState is one authoritative snapshot of the station, already adapted to
// the canonical record types.
type FullState struct {
	Resources   []model.Resource
	Roster      []model.TrainRecord
	WaitingList []model.WaitingEntry
}

// LogEntry is one row of the upstream operations log feed.
type LogEntry struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

// Event is one server-push event from the upstream stream.
type Event struct {
	Type string
	Data []byte
}

// Push event types emitted by the upstream stream.
const (
	EventDepartureAlert     = "departure_alert"
	EventSuggestionOffered  = "suggestion_offered"
	EventSuggestionExpired  = "suggestion_expired"
	EventSuggestionAccepted = "suggestion_accepted"
)

// Command names accepted by the upstream API.
const (
	CmdAssign                = "assign-platform"
	CmdAssignFreightPlatform = "assign-freight-to-platform"
	CmdAssignFreightTrack    = "assign-freight-to-track"
	CmdUnassign              = "unassign-platform"
	CmdAddToWaitingList      = "add-to-waiting-list"
	CmdRemoveFromWaitingList = "remove-from-waiting-list"
	CmdDepart                = "depart-train"
	CmdToggleMaintenance     = "toggle-maintenance"
	CmdAddTrain              = "add-train"
	CmdDeleteTrain           = "delete-train"
	CmdAcceptSuggestion      = "accept-suggestion"
)

// stateDocument is the wire shape of GET /api/station-data. Train-like objects
// are decoded as raw maps because the upstream mixes camelCase and master
// schedule spellings; the adapter maps them into canonical records once.
type stateDocument struct {
	Platforms      []wireResource   `json:"platforms"`
	ArrivingTrains []map[string]any `json:"arrivingTrains"`
	WaitingList    []map[string]any `json:"waitingList"`
}

type wireResource struct {
	ID                 string         `json:"id"`
	IsOccupied         bool           `json:"isOccupied"`
	TrainDetails       map[string]any `json:"trainDetails"`
	IsUnderMaintenance bool           `json:"isUnderMaintenance"`
	ActualArrival      string         `json:"actualArrival"`
}

type commandReply struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Error   string `json:"error"`
}
