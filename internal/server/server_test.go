package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/ecodash/internal/emission"
	"github.com/runnerr0/ecodash/internal/storage"
	"github.com/runnerr0/ecodash/internal/tracker"
)

// setupServer creates a daemon over an in-memory store.
func setupServer(t *testing.T) (*httptest.Server, *storage.SQLiteStore) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	require.NoError(t, storage.NewMigrationRunner(db).Run())
	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := New(tracker.New(store), store, "127.0.0.1:0")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func postSignals(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/signals", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts, _ := setupServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignals_BatchTracksSessions(t *testing.T) {
	ts, store := setupServer(t)

	base := time.Now().Add(-time.Hour).UnixMilli()
	batch := SignalBatch{Signals: []Signal{
		{URL: "https://www.youtube.com/watch?v=x", TSMs: base},
		{URL: "https://www.youtube.com/watch?v=x", TSMs: base + 5*60*1000},
		{URL: "https://open.spotify.com/", TSMs: base + 5*60*1000},
	}}
	body, err := json.Marshal(batch)
	require.NoError(t, err)

	resp := postSignals(t, ts, string(body))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	services, err := store.ServiceBreakdown(context.Background())
	require.NoError(t, err)
	require.Contains(t, services, emission.ServiceYouTube)
	assert.InDelta(t, 5.0, services[emission.ServiceYouTube].Minutes, 1e-9)
	assert.InDelta(t, 4.5, services[emission.ServiceYouTube].CO2Grams, 1e-9)
}

func TestSignals_InvalidJSON(t *testing.T) {
	ts, _ := setupServer(t)

	resp := postSignals(t, ts, "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignals_EmptyBatch(t *testing.T) {
	ts, _ := setupServer(t)

	resp := postSignals(t, ts, `{"signals":[]}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSignals_MethodNotAllowed(t *testing.T) {
	ts, _ := setupServer(t)

	resp, err := http.Get(ts.URL + "/signals")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestState_Shape(t *testing.T) {
	ts, store := setupServer(t)

	require.NoError(t, store.RecordSession(context.Background(), emission.ServiceNetflix, 10*time.Minute))

	resp, err := http.Get(ts.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var state stateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))

	assert.InDelta(t, 9.0, state.TotalCO2, 1e-9)
	require.Contains(t, state.Services, emission.ServiceNetflix)
	assert.InDelta(t, 10.0, state.Services[emission.ServiceNetflix].Minutes, 1e-9)

	now := time.Now()
	assert.Equal(t, storage.DayKey(now), state.DayKey)
	assert.Equal(t, storage.WeekKey(now), state.WeekKey)
	require.NotNil(t, state.Advisory)
	assert.NotEmpty(t, state.Advisory.Tips)

	// The session was recorded just now, so it appears in today's and
	// this week's buckets too.
	assert.Contains(t, state.Today, emission.ServiceNetflix)
	assert.Contains(t, state.ThisWeek, emission.ServiceNetflix)
}

func TestState_MethodNotAllowed(t *testing.T) {
	ts, _ := setupServer(t)

	resp, err := http.Post(ts.URL+"/state", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
