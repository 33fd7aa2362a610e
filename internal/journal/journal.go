// Package journal persists the operations log and the operator push
// subscriptions. The journal is supporting infrastructure: the authoritative
// station state always lives upstream, but the log of who did what survives
// restarts here.
package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"station-dashboard-backend/config"
	"station-dashboard-backend/internal/model"
	"station-dashboard-backend/internal/upstream"
)

// Store is the journal's database surface.
type Store interface {
	RecordAction(ctx context.Context, action string) error
	MirrorUpstream(ctx context.Context, entries []upstream.LogEntry) error
	Recent(ctx context.Context, limit int) ([]model.LogEntry, error)

	SaveSubscription(ctx context.Context, sub model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	Subscriptions(ctx context.Context) ([]model.PushSubscription, error)
}

type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects to the journal database, runs migrations, and returns the
// store. A postgres-looking DSN selects the postgres driver; anything else is
// treated as a sqlite file path.
func Open(cfg *config.JournalConfig) (Store, error) {
	dial := dialectorFor(cfg.DSN)
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := db.AutoMigrate(&model.LogEntry{}, &model.PushSubscription{}); err != nil {
		return nil, fmt.Errorf("journal automigrate failed: %w", err)
	}

	log.Info().Str("dialect", dial.Name()).Msg("journal database ready")
	return &gormStore{db: db, now: time.Now}, nil
}

// NewStore wraps an already-open database. Used by tests.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: time.Now}
}

func dialectorFor(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

// RecordAction appends one locally issued action to the log.
func (s *gormStore) RecordAction(ctx context.Context, action string) error {
	entry := model.LogEntry{
		Source:    model.LogSourceLocal,
		Timestamp: s.now().UTC(),
		Action:    action,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}
	return nil
}

// MirrorUpstream stores the upstream log feed. Rows already mirrored are left
// alone, so the full feed can be re-applied on every poll.
func (s *gormStore) MirrorUpstream(ctx context.Context, entries []upstream.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		if e.Action == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			log.Debug().Str("timestamp", e.Timestamp).Msg("skipping upstream log entry with unparseable timestamp")
			continue
		}
		rows = append(rows, model.LogEntry{
			Source:    model.LogSourceUpstream,
			Timestamp: ts.UTC(),
			Action:    e.Action,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		DoNothing: true,
	}).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to mirror upstream log: %w", err)
	}
	return nil
}

// Recent returns the newest log entries, newest first.
func (s *gormStore) Recent(ctx context.Context, limit int) ([]model.LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []model.LogEntry
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load log entries: %w", err)
	}
	return entries, nil
}

// SaveSubscription upserts a push subscription keyed by its endpoint.
func (s *gormStore) SaveSubscription(ctx context.Context, sub model.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now().UTC()
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
	}).Create(&sub).Error
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// DeleteSubscription removes a subscription by endpoint. Deleting an unknown
// endpoint is not an error.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	err := s.db.WithContext(ctx).
		Delete(&model.PushSubscription{}, "endpoint = ?", endpoint).Error
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// Subscriptions returns all stored push subscriptions.
func (s *gormStore) Subscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	return subs, nil
}
