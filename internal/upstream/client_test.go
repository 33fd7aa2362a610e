package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"station-dashboard-backend/config"
	"station-dashboard-backend/internal/model"
)

func newTestClient(serverURL string) *Client {
	return NewClient(&config.UpstreamConfig{
		BaseURL: serverURL,
		Timeout: 5 * time.Second,
	})
}

func TestFetchFullState(t *testing.T) {
	// The upstream mixes camelCase and master-schedule spellings, and emits
	// numeric train numbers; all must land in the canonical records.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/station-data", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"platforms": [
				{"id": "Platform 1", "isOccupied": true,
				 "trainDetails": {"trainNo": 12841, "name": "Coromandel Express", "linkedPlatformId": "Platform 3", "isPrimary": true},
				 "isUnderMaintenance": false, "actualArrival": "10:05"},
				{"id": "Track 6", "isOccupied": false, "isUnderMaintenance": true}
			],
			"arrivingTrains": [
				{"TRAIN NO": "12860", "TRAIN NAME": "Gitanjali Express", "ARRIVAL AT KGP": "11:20", "ISTERMINATING": true}
			],
			"waitingList": [
				{"trainNo": "58001", "name": "Passenger", "incomingLine": "Midnapore Line", "enqueuedAt": "2026-08-25T10:00:00Z"}
			]
		}`))
	}))
	defer server.Close()

	st, err := newTestClient(server.URL).FetchFullState(context.Background())
	require.NoError(t, err)

	require.Len(t, st.Resources, 2)
	p1 := st.Resources[0]
	assert.Equal(t, model.ClassPlatform, p1.Class)
	assert.True(t, p1.Occupied)
	require.NotNil(t, p1.Occupant)
	assert.Equal(t, "12841", p1.Occupant.TrainNo)
	require.NotNil(t, p1.Pairing)
	assert.Equal(t, "Platform 3", p1.Pairing.LinkedResourceID)
	assert.True(t, p1.Pairing.IsPrimary)
	assert.Equal(t, "10:05", p1.ActualArrival)

	t6 := st.Resources[1]
	assert.Equal(t, model.ClassTrack, t6.Class)
	assert.True(t, t6.Maintenance)
	assert.Nil(t, t6.Occupant)

	require.Len(t, st.Roster, 1)
	assert.Equal(t, model.TrainRecord{
		TrainNo:          "12860",
		Name:             "Gitanjali Express",
		ScheduledArrival: "11:20",
		Terminating:      true,
	}, st.Roster[0])

	require.Len(t, st.WaitingList, 1)
	assert.Equal(t, "58001", st.WaitingList[0].TrainNo)
	assert.Equal(t, "Midnapore Line", st.WaitingList[0].IncomingLine)
	assert.Equal(t, time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC), st.WaitingList[0].EnqueuedAt)
}

func TestFetchFullStateErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchFullState(context.Background())
	assert.Error(t, err)
}

func TestSendCommand(t *testing.T) {
	t.Run("success returns server message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/assign-platform", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			w.Write([]byte(`{"message": "Train 12841 assigned to Platform 1."}`))
		}))
		defer server.Close()

		msg, err := newTestClient(server.URL).SendCommand(context.Background(), CmdAssign, map[string]any{"trainNo": "12841"})
		require.NoError(t, err)
		assert.Equal(t, "Train 12841 assigned to Platform 1.", msg)
	})

	t.Run("non-2xx carries the server detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail": "Train not found in arriving or waiting lists."}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).SendCommand(context.Background(), CmdAssign, map[string]any{})
		require.Error(t, err)
		var cmdErr *CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, http.StatusNotFound, cmdErr.Status)
		assert.Equal(t, "Train not found in arriving or waiting lists.", cmdErr.Error())
	})

	t.Run("malformed success body is still a success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		msg, err := newTestClient(server.URL).SendCommand(context.Background(), CmdDepart, map[string]any{})
		require.NoError(t, err)
		assert.Empty(t, msg)
	})

	t.Run("network failure", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1")
		_, err := client.SendCommand(context.Background(), CmdDepart, map[string]any{})
		assert.Error(t, err)
	})
}
