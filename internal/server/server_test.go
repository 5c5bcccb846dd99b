package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kWAYTV/rust-decay-notification-app/internal/server"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/storage"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupServer(t *testing.T) (*server.Server, *tracker.Session, model.Container) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := tracker.NewSession(store, logger, tracker.WithClock(func() time.Time { return now }))
	require.NoError(t, session.Load(testContext(t)))

	// Seed some data
	c, err := session.Add(testContext(t), "Main base", map[model.ResourceKind]model.StockInput{
		model.KindStone: {Amount: 1000, DailyUpkeep: 500},
		model.KindMetal: {Amount: 200, DailyUpkeep: 0},
	})
	require.NoError(t, err)

	return server.NewServer(session, logger), session, c
}

func do(t *testing.T, srv *server.Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv, _, _ := setupServer(t)

	w := do(t, srv, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
}

func TestServer_ListContainers(t *testing.T) {
	srv, _, c := setupServer(t)

	w := do(t, srv, "GET", "/api/v1/containers", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var views []tracker.ContainerView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, c.ID, views[0].ID)
	require.Len(t, views[0].Stocks, 2)
	assert.Equal(t, model.KindStone, views[0].Stocks[0].Kind)
	assert.Equal(t, 100.0, views[0].Stocks[0].Status.Percentage)
	assert.Equal(t, tracker.LevelStable, views[0].Stocks[1].Level)
}

func TestServer_NeverDepletingStock(t *testing.T) {
	srv, _, c := setupServer(t)

	w := do(t, srv, "GET", "/api/v1/containers/"+c.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var raw struct {
		Stocks []struct {
			Kind   string         `json:"kind"`
			Status map[string]any `json:"status"`
		} `json:"stocks"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
	require.Len(t, raw.Stocks, 2)
	assert.Equal(t, "metal", raw.Stocks[1].Kind)
	assert.Contains(t, raw.Stocks[1].Status, "time_to_empty_hours")
	assert.Nil(t, raw.Stocks[1].Status["time_to_empty_hours"])
	assert.InDelta(t, 48.0, raw.Stocks[0].Status["time_to_empty_hours"], 1e-9)
}

func TestServer_ReadsChangesFromOtherProcesses(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shared.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	open := func() *tracker.Session {
		store, err := storage.NewSQLite(dbPath)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		session := tracker.NewSession(store, logger, tracker.WithClock(func() time.Time { return now }))
		require.NoError(t, session.Load(testContext(t)))
		return session
	}
	srv := server.NewServer(open(), logger)
	other := open()

	_, err := other.Add(testContext(t), "Outpost", map[model.ResourceKind]model.StockInput{model.KindWood: {Amount: 10, DailyUpkeep: 1}})
	require.NoError(t, err)
	require.NoError(t, other.SetAlertsEnabled(testContext(t), true))

	w := do(t, srv, "GET", "/api/v1/containers", "")
	var views []tracker.ContainerView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, "Outpost", views[0].Name)

	w = do(t, srv, "GET", "/api/v1/alerts", "")
	assert.JSONEq(t, `{"enabled":true}`, w.Body.String())
}

func TestServer_GetContainer(t *testing.T) {
	srv, _, c := setupServer(t)

	w := do(t, srv, "GET", "/api/v1/containers/"+c.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var v tracker.ContainerView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	assert.Equal(t, "Main base", v.Name)

	w = do(t, srv, "GET", "/api/v1/containers/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_CreateContainer(t *testing.T) {
	srv, session, _ := setupServer(t)

	w := do(t, srv, "POST", "/api/v1/containers", `{"name":"Outpost","resources":{"Wood":{"amount":500,"daily_upkeep":50}}}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var v tracker.ContainerView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	assert.Equal(t, "Outpost", v.Name)
	assert.Len(t, session.Containers(), 2)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"empty name", `{"name":"","resources":{"wood":{"amount":1}}}`},
		{"no resources", `{"name":"x","resources":{}}`},
		{"unknown kind", `{"name":"x","resources":{"gold":{"amount":1}}}`},
		{"duplicate kind", `{"name":"x","resources":{"wood":{"amount":1},"WOOD":{"amount":2}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, "POST", "/api/v1/containers", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Len(t, session.Containers(), 2)
}

func TestServer_UpdateContainer(t *testing.T) {
	srv, _, c := setupServer(t)

	w := do(t, srv, "PUT", "/api/v1/containers/"+c.ID, `{"name":"Renamed","resources":{"armored":{"amount":100,"daily_upkeep":25}}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var v tracker.ContainerView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	assert.Equal(t, "Renamed", v.Name)
	require.Len(t, v.Stocks, 1)
	assert.Equal(t, model.KindArmored, v.Stocks[0].Kind)

	w = do(t, srv, "PUT", "/api/v1/containers/missing", `{"name":"x","resources":{"wood":{"amount":1}}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_DeleteContainer(t *testing.T) {
	srv, session, c := setupServer(t)

	w := do(t, srv, "DELETE", "/api/v1/containers/"+c.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, session.Containers())

	w = do(t, srv, "DELETE", "/api/v1/containers/"+c.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_RefillContainer(t *testing.T) {
	srv, _, c := setupServer(t)

	w := do(t, srv, "POST", "/api/v1/containers/"+c.ID+"/refill?kind=stone", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, "POST", "/api/v1/containers/"+c.ID+"/refill", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, "POST", "/api/v1/containers/"+c.ID+"/refill?kind=armored", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, "POST", "/api/v1/containers/"+c.ID+"/refill?kind=gold", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, "POST", "/api/v1/containers/missing/refill", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Alerts(t *testing.T) {
	srv, session, _ := setupServer(t)

	w := do(t, srv, "GET", "/api/v1/alerts", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enabled":false}`, w.Body.String())

	w = do(t, srv, "PUT", "/api/v1/alerts", `{"enabled":true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enabled":true}`, w.Body.String())
	assert.True(t, session.AlertsEnabled())

	w = do(t, srv, "PUT", "/api/v1/alerts", `nope`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// testContext returns a context that is canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
