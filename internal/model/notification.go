package model

import "time"

// NotificationLevel classifies a UI-facing notification.
type NotificationLevel string

const (
	NoticeSuccess NotificationLevel = "success"
	NoticeInfo    NotificationLevel = "info"
	NoticeWarning NotificationLevel = "warning"
	NoticeError   NotificationLevel = "error"
)

// Notification is an entry in the UI notification sink. Persistent
// notifications do not auto-dismiss and are deduplicated by Key: a repeat with
// the same key updates the existing entry instead of stacking a new one.
type Notification struct {
	ID         string            `json:"id"`
	Level      NotificationLevel `json:"level"`
	Message    string            `json:"message"`
	Persistent bool              `json:"persistent"`
	Key        string            `json:"key,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}
