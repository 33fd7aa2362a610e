package upstream

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"station-dashboard-backend/internal/metrics"
)

// Stream is the persistent push-event subscription. It reconnects with capped
// backoff until closed; reconnection is a transport concern, invisible to the
// event consumer.
type Stream struct {
	client *Client
	min    time.Duration
	max    time.Duration

	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
}

// Subscribe opens the upstream event stream. The returned Stream delivers
// events on Events() until Close is called; the channel is closed on teardown.
func (c *Client) Subscribe(ctx context.Context, reconnectMin, reconnectMax time.Duration) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		client: c,
		min:    reconnectMin,
		max:    reconnectMax,
		events: make(chan Event, 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Events returns the channel of push events.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Close tears the subscription down and closes the event channel.
func (s *Stream) Close() {
	s.cancel()
	<-s.done
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.events)
	defer close(s.done)

	backoff := s.min
	for {
		err := s.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Dur("retry_in", backoff).Msg("event stream disconnected, reconnecting")
		metrics.StreamReconnectsTotal.Inc()

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.max {
			backoff = s.max
		}
	}
}

// consume holds one SSE connection open and forwards its events. Returns when
// the connection drops or the context is cancelled.
func (s *Stream) consume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.base+"/api/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The shared client has a request timeout that would sever a long-lived
	// stream; use its transport with no deadline instead.
	streamClient := &http.Client{Transport: s.client.client.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream returned status %d", resp.StatusCode)
	}

	log.Info().Msg("event stream connected")

	var eventType string
	var data strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 256*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			s.dispatch(ctx, eventType, data.String())
			eventType = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
			// comment/keep-alive
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	// Flush a final event if the server closed without a trailing blank line.
	s.dispatch(ctx, eventType, data.String())
	return scanner.Err()
}

func (s *Stream) dispatch(ctx context.Context, eventType, data string) {
	if eventType == "" || eventType == "ping" {
		return
	}
	select {
	case s.events <- Event{Type: eventType, Data: []byte(data)}:
	case <-ctx.Done():
	}
}
