package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comptonseq/internal/session"
	"github.com/roach88/comptonseq/internal/store"
	"github.com/roach88/comptonseq/internal/testutil"
)

const comptonPhotoHistory = "../input/testdata/compton_photo.yaml"

// simulateOutput is the part of the JSON output the tests look at.
type simulateOutput struct {
	Status string `json:"status"`
	Data   struct {
		RunID     string `json:"run_id"`
		DecayMode string `json:"decay_mode"`
		Events    []struct {
			ID      string `json:"id"`
			Records []struct {
				ID       int64 `json:"id"`
				OriginID int64 `json:"origin_id"`
			} `json:"records"`
			EnergyLoss float64  `json:"energy_loss"`
			Comments   []string `json:"comments"`
		} `json:"events"`
		Session  session.Counts `json:"session"`
		Database string         `json:"database"`
	} `json:"data"`
}

func testCommand(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(context.Background())
	return cmd
}

func simulate(t *testing.T, opts *SimulateOptions, path string) simulateOutput {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, runSimulate(opts, path, testCommand(buf)))

	var out simulateOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, "ok", out.Status)
	return out
}

func TestSimulateWithoutDatabase(t *testing.T) {
	opts := &SimulateOptions{
		RootOptions: &RootOptions{Format: "json"},
		RunIDs:      testutil.NewFixedRunID("sim-run"),
	}
	out := simulate(t, opts, comptonPhotoHistory)

	assert.Equal(t, "sim-run", out.Data.RunID)
	assert.Equal(t, "normal", out.Data.DecayMode)
	assert.Empty(t, out.Data.Database)
	require.Len(t, out.Data.Events, 1)
	ev := out.Data.Events[0]
	assert.Equal(t, "cs137-line", ev.ID)
	require.Len(t, ev.Records, 2)
	assert.Equal(t, int64(2), ev.Records[0].ID)
	assert.Equal(t, int64(3), ev.Records[1].ID)
	assert.Equal(t, int64(1), ev.Records[0].OriginID, "both records descend from the initial photon")
	assert.Equal(t, session.Counts{}, out.Data.Session)
}

func TestSimulateText(t *testing.T) {
	opts := &SimulateOptions{
		RootOptions: &RootOptions{Format: "text"},
		RunIDs:      testutil.NewFixedRunID("sim-run"),
	}
	buf := &bytes.Buffer{}
	require.NoError(t, runSimulate(opts, comptonPhotoHistory, testCommand(buf)))

	out := buf.String()
	assert.Contains(t, out, "Run sim-run (decay mode normal)")
	assert.Contains(t, out, "Event cs137-line: 2 records")
	assert.Contains(t, out, "COMP id=2 origin=1")
	assert.Contains(t, out, "PHOT id=3 origin=1")
	assert.Contains(t, out, "Session: 0 future events, 0 stored nuclei, 0 pending skips")
}

func TestSimulatePersistsAndResumesIDs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	first := simulate(t, &SimulateOptions{
		RootOptions: &RootOptions{Format: "json"},
		Database:    dbPath,
		RunIDs:      testutil.NewFixedRunID("first"),
	}, comptonPhotoHistory)
	assert.Equal(t, dbPath, first.Data.Database)

	second := simulate(t, &SimulateOptions{
		RootOptions: &RootOptions{Format: "json"},
		Database:    dbPath,
		RunIDs:      testutil.NewFixedRunID("second"),
	}, comptonPhotoHistory)
	require.Len(t, second.Data.Events, 1)
	require.Len(t, second.Data.Events[0].Records, 2)
	assert.Greater(t, second.Data.Events[0].Records[0].ID, int64(3), "ids continue after the stored records")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "first", runs[0].ID)
	assert.Equal(t, store.KindSimulate, runs[0].Kind)
	assert.Equal(t, comptonPhotoHistory, runs[0].Source)

	counts, err := st.Counts(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Records)
	assert.Zero(t, counts.Orderings)
}

const runawayHistory = `
events:
  - id: runaway
    initial_particles: [gamma]
    steps:
      - track: 1
        particle: gamma
        process: Transportation
        pre: {position: [0, 0, 10], energy: 500, volume: Tracker}
        post: {position: [0, 0, 5], energy: 500, volume: Tracker}
      - track: 1
        particle: gamma
        process: Transportation
        pre: {position: [0, 0, 5], energy: 500, volume: Tracker}
        post: {position: [0, 0, 0], energy: 500, volume: Tracker}
`

func TestSimulateReportsGuardKills(t *testing.T) {
	dir := t.TempDir()
	history := filepath.Join(dir, "runaway.yaml")
	require.NoError(t, os.WriteFile(history, []byte(runawayHistory), 0o644))
	cfgPath := filepath.Join(dir, "comptonseq.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("stream:\n  max_steps: 1\n"), 0o644))

	opts := &SimulateOptions{
		RootOptions: &RootOptions{Format: "json", ConfigPath: cfgPath},
		RunIDs:      testutil.NewFixedRunID("sim-run"),
	}
	out := simulate(t, opts, history)
	require.Len(t, out.Data.Events, 1)
	ev := out.Data.Events[0]
	assert.Equal(t, []string{"track 1 killed (runaway) after 2 steps"}, ev.Comments)
	assert.Equal(t, 500.0, ev.EnergyLoss)

	opts.Format = "text"
	buf := &bytes.Buffer{}
	require.NoError(t, runSimulate(opts, history, testCommand(buf)))
	assert.Contains(t, buf.String(), "  # track 1 killed (runaway) after 2 steps\n")
	assert.Contains(t, buf.String(), "energy lost with killed tracks: 500 keV")
}

func TestSimulateErrors(t *testing.T) {
	opts := &SimulateOptions{RootOptions: &RootOptions{Format: "text"}}

	err := runSimulate(opts, "/nonexistent/history.yaml", testCommand(&bytes.Buffer{}))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load history")

	// A readout file is not a history.
	err = runSimulate(opts, "../input/testdata/readout.yaml", testCommand(&bytes.Buffer{}))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSimulateCommandArgs(t *testing.T) {
	cmd := NewSimulateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
