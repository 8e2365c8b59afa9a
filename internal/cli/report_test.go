package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/ecodash/internal/emission"
	"github.com/runnerr0/ecodash/internal/storage"
)

func TestReport_DefaultsToToday(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordSession(ctx, emission.ServiceTikTok, 15*time.Minute))

	cmd := &ReportCommand{globals: &GlobalFlags{}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	assert.Contains(t, output, storage.DayKey(time.Now()))
	assert.Contains(t, output, "TIKTOK")
	assert.Contains(t, output, "social")
	assert.Contains(t, output, "15.0 min")
}

func TestReport_EmptyDay(t *testing.T) {
	store, _ := setupTestStore(t)

	cmd := &ReportCommand{Day: "2020-01-01", globals: &GlobalFlags{}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	assert.Contains(t, output, "No activity recorded.")
}

func TestReport_WeekResolvesToMonday(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordSession(ctx, emission.ServiceVideoCall, 20*time.Minute))

	// Asking for today's week resolves to its Monday key and finds the
	// session recorded above.
	today := storage.DayKey(time.Now())
	cmd := &ReportCommand{Week: today, globals: &GlobalFlags{}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	assert.Contains(t, output, storage.WeekKey(time.Now()))
	assert.Contains(t, output, "VIDEO_CALL")
	assert.Contains(t, output, "video-call")
}

func TestReport_JSON(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordSession(ctx, emission.ServiceYouTube, 5*time.Minute))
	require.NoError(t, store.RecordSession(ctx, emission.ServiceNetflix, 5*time.Minute))

	cmd := &ReportCommand{globals: &GlobalFlags{JSON: true}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	var parsed reportJSON
	require.NoError(t, json.Unmarshal([]byte(output), &parsed))
	assert.Equal(t, "day", parsed.Period)
	assert.Equal(t, storage.DayKey(time.Now()), parsed.Key)
	assert.Contains(t, parsed.Services, "YOUTUBE")
	assert.Contains(t, parsed.Services, "NETFLIX")

	// Both services roll up into one video-streaming bucket.
	require.Contains(t, parsed.Kinds, "video-streaming")
	assert.InDelta(t, 10.0, parsed.Kinds["video-streaming"].Minutes, 1e-9)
}

func TestReport_FlagValidation(t *testing.T) {
	store, _ := setupTestStore(t)

	cmd := &ReportCommand{Day: "2025-01-01", Week: "2025-01-01", globals: &GlobalFlags{}}
	assert.Error(t, cmd.executeWithStore(store))

	cmd = &ReportCommand{Day: "not-a-date", globals: &GlobalFlags{}}
	assert.Error(t, cmd.executeWithStore(store))

	cmd = &ReportCommand{Week: "13/01/2025", globals: &GlobalFlags{}}
	assert.Error(t, cmd.executeWithStore(store))
}
