package model

import "time"

// Log entry sources.
const (
	LogSourceLocal    = "local"
	LogSourceUpstream = "upstream"
)

// LogEntry is one line of the operations log. Locally issued commands are
// recorded with SourceLocal; entries mirrored from the upstream feed carry
// SourceUpstream. The (source, timestamp, action) triple is unique so the
// mirror can be re-applied without duplicating rows.
type LogEntry struct {
	ID        int64     `gorm:"autoIncrement;primaryKey" json:"-"`
	Source    string    `gorm:"size:16;not null;uniqueIndex:idx_log_entry_identity" json:"source"`
	Timestamp time.Time `gorm:"not null;index;uniqueIndex:idx_log_entry_identity" json:"timestamp"`
	Action    string    `gorm:"size:512;not null;uniqueIndex:idx_log_entry_identity" json:"action"`
}

// PushSubscription holds the information for an operator browser's push
// subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
