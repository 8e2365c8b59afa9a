package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/ecodash/internal/emission"
)

func TestReset_RequiresAllFlag(t *testing.T) {
	cmd := &ResetCommand{globals: &GlobalFlags{}}
	err := cmd.Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
}

func TestReset_ForceSkipsPromptAndClearsData(t *testing.T) {
	store, db := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordSession(ctx, emission.ServiceYouTube, time.Hour))
	total, err := store.Totals(ctx)
	require.NoError(t, err)
	require.Greater(t, total, 0.0)

	cmd := &ResetCommand{All: true, Force: true, globals: &GlobalFlags{}}
	cmd.setDB(db)

	output := captureOutput(t, func() {
		require.NoError(t, cmd.Execute(nil))
	})
	assert.Contains(t, output, "Reset all data")

	total, err = store.Totals(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	services, err := store.ServiceBreakdown(ctx)
	require.NoError(t, err)
	assert.Empty(t, services)
}

func TestReset_JSONOutput(t *testing.T) {
	_, db := setupTestStore(t)

	cmd := &ResetCommand{All: true, Force: true, globals: &GlobalFlags{JSON: true}}
	cmd.setDB(db)

	output := captureOutput(t, func() {
		require.NoError(t, cmd.Execute(nil))
	})
	assert.Contains(t, output, `"reset":true`)
}
