package model

// PendingSuggestion is a server-offered, not-yet-accepted resource proposal for
// a waiting train. At most one is tracked at a time.
type PendingSuggestion struct {
	ID          string   `json:"suggestionId"`
	TrainNo     string   `json:"trainNo"`
	ResourceIDs []string `json:"platformIds"`
	DisplayName string   `json:"trainName,omitempty"`
}
