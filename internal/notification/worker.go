// Package notification fans persistent dashboard notifications out to
// subscribed operator browsers over web push.
package notification

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog/log"

	"station-dashboard-backend/internal/journal"
	"station-dashboard-backend/internal/model"
)

// Sender sends one web push message. Split out so tests can fake the wire.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender sends through the webpush library.
type WebPushSender struct{}

func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// pushMessage is the payload shown by the operator's service worker.
type pushMessage struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level"`
}

// WorkerPool fans notifications out to every stored subscription without
// blocking the synchronization core.
type WorkerPool struct {
	size    int
	jobs    chan model.Notification
	store   journal.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a worker pool over the stored subscriptions.
func NewWorkerPool(size int, store journal.Store, webpushOptions *webpush.Options) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.Notification, size*8),
		store:   store,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Debug().Int("worker", id).Msg("push worker started")
	for {
		select {
		case n := <-wp.jobs:
			wp.deliver(ctx, n)
		case <-ctx.Done():
			log.Debug().Int("worker", id).Msg("push worker shutting down")
			return
		}
	}
}

// Dispatch queues a notification for delivery. The queue is bounded; when the
// push path cannot keep up the notification is dropped rather than stalling
// the caller.
func (wp *WorkerPool) Dispatch(n model.Notification) {
	select {
	case wp.jobs <- n:
	default:
		log.Warn().Str("key", n.Key).Msg("push queue full, dropping notification")
	}
}

// deliver sends one notification to every stored subscription.
func (wp *WorkerPool) deliver(ctx context.Context, n model.Notification) {
	subs, err := wp.store.Subscriptions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load push subscriptions")
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(pushMessage{
		Title:   "Station Dashboard",
		Message: n.Message,
		Level:   string(n.Level),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode push payload")
		return
	}

	log.Debug().Int("subscriptions", len(subs)).Str("key", n.Key).Msg("sending push notifications")
	for _, sub := range subs {
		wp.send(ctx, sub, payload)
	}
}

func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send push notification")
		return
	}
	defer resp.Body.Close()

	// 410 means the browser dropped the subscription; prune it.
	if resp.StatusCode == http.StatusGone {
		log.Info().Str("endpoint", sub.Endpoint).Msg("pruning expired push subscription")
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}
