package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/idlerpg/internal/sim"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func TestRunThenHistory(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "history.db")

	out := execute(t, "run",
		"--archive", archive,
		"--output", dir,
		"--runs", "2",
		"--seed", "11",
		"--max-ticks", "300",
		"--target-zone", "2",
		"--json",
	)
	rep, err := sim.ParseJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, uint64(11), rep.BaseSeed)
	assert.Len(t, rep.Runs, 2)
	assert.Equal(t, uint32(2), rep.Config.TargetZone)

	_, err = os.Stat(filepath.Join(dir, sim.FileName(rep.GeneratedAt)))
	assert.NoError(t, err, "JSON report written to the output directory")

	list := execute(t, "history", "--archive", archive)
	assert.Contains(t, list, rep.BatchID)

	shown := execute(t, "history", "--archive", archive, rep.BatchID)
	assert.Contains(t, shown, "Balance simulation report")
	assert.Contains(t, shown, rep.BatchID)
}

func TestHistory_Empty(t *testing.T) {
	out := execute(t, "history", "--archive", filepath.Join(t.TempDir(), "empty.db"))
	assert.Contains(t, out, "No archived batches yet.")
}

func TestHistory_UnknownBatch(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"history", "--archive", filepath.Join(t.TempDir(), "h.db"), "missing"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no archived batch")
}

func TestRunFlags_OverlayOnlyChanged(t *testing.T) {
	cmd := newRunCmd(&globalFlags{})
	require.NoError(t, cmd.ParseFlags([]string{"--runs", "7", "--prestige"}))
	f := &runFlags{}
	// Re-read parsed values through the command's own flag set.
	f.runs, _ = cmd.Flags().GetUint32("runs")
	f.prestige, _ = cmd.Flags().GetBool("prestige")

	defaults := sim.DefaultSimConfig()
	sc := f.simConfig(cmd, defaults)
	assert.Equal(t, uint32(7), sc.NumRuns)
	assert.True(t, sc.SimulatePrestige)
	assert.Equal(t, defaults.TargetZone, sc.TargetZone)
	assert.Equal(t, defaults.MaxTicksPerRun, sc.MaxTicksPerRun)
	assert.Nil(t, sc.Seed)
}
