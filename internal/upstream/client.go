package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"station-dashboard-backend/config"
)

// CommandError is returned when the upstream rejects a command. Detail carries
// the server-supplied reason when one was decodable.
type CommandError struct {
	Command string
	Status  int
	Detail  string
}

func (e *CommandError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("command %s failed with status %d", e.Command, e.Status)
}

// Client talks to the remote authoritative station-control API.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client for the configured upstream.
func NewClient(cfg *config.UpstreamConfig) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Warn().Str("proxy", cfg.HTTPProxy).Err(err).Msg("invalid proxy URL, continuing without a proxy")
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		base: cfg.BaseURL,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// FetchFullState retrieves the authoritative station snapshot.
func (c *Client) FetchFullState(ctx context.Context) (*FullState, error) {
	body, err := c.get(ctx, "/api/station-data")
	if err != nil {
		return nil, err
	}

	var doc stateDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal station state: %w", err)
	}
	return adaptState(doc), nil
}

// FetchLogEntries retrieves the upstream operations log (read-only feed for
// the log viewer).
func (c *Client) FetchLogEntries(ctx context.Context) ([]LogEntry, error) {
	body, err := c.get(ctx, "/api/logs")
	if err != nil {
		return nil, err
	}

	var entries []LogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal log entries: %w", err)
	}
	return entries, nil
}

// SendCommand posts a command to the upstream and returns the server's
// confirmation message. Network failure, a non-2xx status and a malformed
// response body all collapse to an error; a *CommandError carries the
// server-supplied reason when the upstream provided one.
func (c *Client) SendCommand(ctx context.Context, name string, payload any) (string, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal command payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/"+name, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("command %s: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("command %s: failed to read response: %w", name, err)
	}

	var reply commandReply
	// A body that fails to decode on a 2xx still counts as success; the
	// confirmation message is cosmetic.
	_ = json.Unmarshal(body, &reply)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := reply.Detail
		if detail == "" {
			detail = reply.Error
		}
		return "", &CommandError{Command: name, Status: resp.StatusCode, Detail: detail}
	}
	return reply.Message, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
