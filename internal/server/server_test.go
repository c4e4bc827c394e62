package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergeworks/zipsim/internal/config"
	"github.com/mergeworks/zipsim/internal/sim"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(config.Default(), logger)
	require.NoError(t, err)
	return s
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Lanes = 1
	_, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestStateEndpoint(t *testing.T) {
	s := newTestServer(t)
	router := s.router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var snap sim.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, config.Default().Lanes, len(snap.Cells))
	assert.Empty(t, snap.Vehicles)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	router := s.router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "throughput")
	assert.Contains(t, body, "fairness")
	assert.Equal(t, 1.0, body["fairness"])
}

func TestResetReplacesRoad(t *testing.T) {
	s := newTestServer(t)
	router := s.router()

	s.mu.Lock()
	s.road.SpawnVehicle(s.spawner.Traits())
	s.mu.Unlock()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/reset", nil))
	require.Equal(t, http.StatusOK, w.Code)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Zero(t, s.road.VehicleCount())
	assert.Zero(t, s.road.Now())
}

func TestPrometheusEndpoint(t *testing.T) {
	s := newTestServer(t)
	router := s.router()
	s.fairness.Set(0.8)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "zipsim_fairness_score 0.8")
}

func TestWebsocketReceivesBroadcasts(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	// Registration happens in the upgrade handler; give it a moment.
	require.Eventually(t, func() bool {
		s.clientsMu.Lock()
		defer s.clientsMu.Unlock()
		return len(s.clients) == 1
	}, time.Second, 10*time.Millisecond)

	s.mu.Lock()
	snap := s.road.Snapshot()
	s.mu.Unlock()
	s.broadcast(snap)

	ws.SetReadDeadline(time.Now().Add(time.Second))
	var got sim.Snapshot
	require.NoError(t, ws.ReadJSON(&got))
	assert.Equal(t, snap.Timestamp, got.Timestamp)
	assert.Equal(t, len(snap.Cells), len(got.Cells))
}
