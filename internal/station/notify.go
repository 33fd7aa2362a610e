package station

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"station-dashboard-backend/internal/model"
)

// PushDispatcher fans a notification out to subscribed operator browsers.
type PushDispatcher interface {
	Dispatch(n model.Notification)
}

const notificationLimit = 100

// Notifier is the UI-facing notification sink. Transient notifications stack;
// persistent ones are keyed and deduplicated, so a repeated alert updates the
// existing entry instead of adding another.
type Notifier struct {
	mu    sync.Mutex
	items []model.Notification
	push  PushDispatcher
	now   func() time.Time
}

// NewNotifier creates an empty notification sink.
func NewNotifier() *Notifier {
	return &Notifier{now: time.Now}
}

// SetPushDispatcher attaches the web push fan-out for persistent notifications.
func (n *Notifier) SetPushDispatcher(d PushDispatcher) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.push = d
}

// Success adds a transient success notification.
func (n *Notifier) Success(msg string) { n.add(model.NoticeSuccess, msg, false, "") }

// Info adds a transient informational notification.
func (n *Notifier) Info(msg string) { n.add(model.NoticeInfo, msg, false, "") }

// InfoKeyed adds a transient informational notification carrying a key, so a
// later dismissal can be correlated with what it announced.
func (n *Notifier) InfoKeyed(key, msg string) { n.add(model.NoticeInfo, msg, false, key) }

// Warning adds a transient warning notification.
func (n *Notifier) Warning(msg string) { n.add(model.NoticeWarning, msg, false, "") }

// Error adds a transient error notification.
func (n *Notifier) Error(msg string) { n.add(model.NoticeError, msg, false, "") }

// Alert adds a persistent warning keyed by subject; repeats with the same key
// update in place rather than stacking.
func (n *Notifier) Alert(key, msg string) { n.add(model.NoticeWarning, msg, true, key) }

// PersistentError adds a persistent error keyed by subject.
func (n *Notifier) PersistentError(key, msg string) { n.add(model.NoticeError, msg, true, key) }

func (n *Notifier) add(level model.NotificationLevel, msg string, persistent bool, key string) {
	n.mu.Lock()
	if key != "" {
		for i := range n.items {
			if n.items[i].Key == key {
				n.items[i].Level = level
				n.items[i].Message = msg
				n.items[i].CreatedAt = n.now()
				n.mu.Unlock()
				return
			}
		}
	}

	item := model.Notification{
		ID:         uuid.NewString(),
		Level:      level,
		Message:    msg,
		Persistent: persistent,
		Key:        key,
		CreatedAt:  n.now(),
	}
	n.items = append(n.items, item)
	if len(n.items) > notificationLimit {
		n.items = n.items[len(n.items)-notificationLimit:]
	}
	push := n.push
	n.mu.Unlock()

	if persistent && push != nil {
		push.Dispatch(item)
	}
}

// List returns the current notifications, newest first.
func (n *Notifier) List() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]model.Notification, 0, len(n.items))
	for i := len(n.items) - 1; i >= 0; i-- {
		out = append(out, n.items[i])
	}
	return out
}

// Dismiss removes a notification by id, returning it when found.
func (n *Notifier) Dismiss(id string) (model.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i := range n.items {
		if n.items[i].ID == id {
			item := n.items[i]
			n.items = append(n.items[:i], n.items[i+1:]...)
			return item, true
		}
	}
	return model.Notification{}, false
}

// Resolve removes a keyed notification, if present. Used when the condition a
// persistent notification reported has cleared.
func (n *Notifier) Resolve(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i := range n.items {
		if n.items[i].Key == key {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return
		}
	}
}
