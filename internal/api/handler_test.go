package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"station-dashboard-backend/config"
	"station-dashboard-backend/internal/journal"
	"station-dashboard-backend/internal/model"
	"station-dashboard-backend/internal/station"
	"station-dashboard-backend/internal/upstream"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRemote struct {
	state   *upstream.FullState
	sendErr error
	logFeed []upstream.LogEntry
	logErr  error
}

func (s *stubRemote) FetchFullState(ctx context.Context) (*upstream.FullState, error) {
	return s.state, nil
}

func (s *stubRemote) SendCommand(ctx context.Context, name string, payload any) (string, error) {
	if s.sendErr != nil {
		return "", s.sendErr
	}
	return "done", nil
}

func (s *stubRemote) FetchLogEntries(ctx context.Context) ([]upstream.LogEntry, error) {
	return s.logFeed, s.logErr
}

func testState() *upstream.FullState {
	return &upstream.FullState{
		Resources: []model.Resource{
			{ID: "Platform 1", Class: model.ClassPlatform},
			{ID: "Track 6", Class: model.ClassTrack},
		},
		Roster: []model.TrainRecord{
			{TrainNo: "12841", Name: "Coromandel Express", ScheduledArrival: "10:10"},
		},
	}
}

func newTestServer(t *testing.T, remote *stubRemote) (*gin.Engine, *station.Core, journal.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.LogEntry{}, &model.PushSubscription{}))
	store := journal.NewStore(db)

	core := station.New(remote, station.NewNotifier())
	core.SetRecorder(store)
	require.NoError(t, core.Refresh(context.Background()))

	h := NewHandler(core, remote, store, &webpush.Options{VAPIDPublicKey: "test-public-key"})
	cfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 1}
	return NewRouter(cfg, h), core, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetState(t *testing.T) {
	r, _, _ := newTestServer(t, &stubRemote{state: testState()})

	w := doJSON(t, r, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap station.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.True(t, snap.Ready)
	assert.Len(t, snap.Resources, 2)
	assert.Len(t, snap.Roster, 1)
}

func TestAssignEndpoint(t *testing.T) {
	remote := &stubRemote{state: testState()}
	r, _, store := newTestServer(t, remote)

	w := doJSON(t, r, http.MethodPost, "/api/assign", gin.H{
		"trainNo":       "12841",
		"platformIds":   []string{"Platform 1"},
		"actualArrival": "10:05",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The action was journaled through the recorder.
	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Action, "12841")
	assert.Equal(t, model.LogSourceLocal, entries[0].Source)
}

func TestAssignValidation(t *testing.T) {
	r, _, _ := newTestServer(t, &stubRemote{state: testState()})

	w := doJSON(t, r, http.MethodPost, "/api/assign", gin.H{"platformIds": []string{"Platform 1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/assign", gin.H{"trainNo": "12841", "platformIds": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpstreamRejectionKeepsStatusAndReason(t *testing.T) {
	remote := &stubRemote{state: testState()}
	remote.sendErr = &upstream.CommandError{
		Command: upstream.CmdAssign,
		Status:  http.StatusConflict,
		Detail:  "Platform 1 is occupied.",
	}
	r, _, _ := newTestServer(t, remote)

	w := doJSON(t, r, http.MethodPost, "/api/assign", gin.H{
		"trainNo":     "12841",
		"platformIds": []string{"Platform 1"},
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Platform 1 is occupied.")
}

func TestAcceptSuggestionWithoutOffer(t *testing.T) {
	r, _, _ := newTestServer(t, &stubRemote{state: testState()})

	w := doJSON(t, r, http.MethodPost, "/api/suggestion/accept", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestNotificationLifecycle(t *testing.T) {
	remote := &stubRemote{state: testState()}
	r, core, _ := newTestServer(t, remote)

	core.Notifier().Success("assignment applied")

	w := doJSON(t, r, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Notifications []model.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 1)

	w = doJSON(t, r, http.MethodDelete, "/api/notifications/"+resp.Notifications[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/notifications/"+resp.Notifications[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLogsMergesUpstreamFeed(t *testing.T) {
	remote := &stubRemote{
		state: testState(),
		logFeed: []upstream.LogEntry{
			{Action: "DEPARTED: Train departed from Platform 2.", Timestamp: "2026-08-25T09:30:00Z"},
		},
	}
	r, _, store := newTestServer(t, remote)
	require.NoError(t, store.RecordAction(context.Background(), "local action"))

	w := doJSON(t, r, http.MethodGet, "/api/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Logs []model.LogEntry `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Logs, 2)
	assert.Equal(t, model.LogSourceLocal, resp.Logs[0].Source)
	assert.Equal(t, model.LogSourceUpstream, resp.Logs[1].Source)
}

func TestGetLogsRejectsBadLimit(t *testing.T) {
	r, _, _ := newTestServer(t, &stubRemote{state: testState()})

	w := doJSON(t, r, http.MethodGet, "/api/logs?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionEndpoints(t *testing.T) {
	r, _, store := newTestServer(t, &stubRemote{state: testState()})

	w := doJSON(t, r, http.MethodPut, "/api/subscriptions", gin.H{
		"endpoint": "https://push.example/sub",
		"p256dh":   "key",
		"auth":     "auth",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	subs, err := store.Subscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)

	w = doJSON(t, r, http.MethodPut, "/api/subscriptions", gin.H{"endpoint": "incomplete"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": "https://push.example/sub"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	subs, err = store.Subscriptions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestVAPIDPublicKey(t *testing.T) {
	r, _, _ := newTestServer(t, &stubRemote{state: testState()})

	w := doJSON(t, r, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-public-key")
}
