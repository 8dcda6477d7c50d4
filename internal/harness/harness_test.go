package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comptonseq/internal/csr"
	"github.com/roach88/comptonseq/internal/input"
	"github.com/roach88/comptonseq/internal/stream"
	"github.com/roach88/comptonseq/internal/testutil"
)

func loadTestdata(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_ComptonPhoto(t *testing.T) {
	result, err := Run(loadTestdata(t, "compton_photo"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, "cs137-run", result.RunID)
	assert.Equal(t, 2, result.Counts.Records)
	assert.Equal(t, 1, result.Counts.Orderings)
	assert.Equal(t, 1, result.Counts.Good)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, TraceRecord, result.Trace[0].Type)
	assert.Equal(t, TraceRecord, result.Trace[1].Type)
	assert.Equal(t, TraceOrdering, result.Trace[2].Type)
	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
		assert.Equal(t, "cs137-line", ev.EventID)
	}

	ev, ok := result.Event("cs137-line")
	require.True(t, ok)
	require.NotNil(t, ev.Reconstruction)
	assert.Equal(t, []int{0, 1}, ev.Reconstruction.Order)
	assert.Empty(t, ev.Kills)
}

func TestRun_Activation(t *testing.T) {
	result, err := Run(loadTestdata(t, "activation"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, testutil.DefaultRunID, result.RunID)
	assert.Zero(t, result.Counts.Records)
	assert.Equal(t, 2, result.Counts.Isotopes)
	assert.Zero(t, result.Counts.Orderings, "history is not reconstructed")

	ev, ok := result.Event("decay-1")
	require.True(t, ok)
	require.NotEmpty(t, ev.Kills)
	assert.Equal(t, 1, ev.Kills[0].Track)
	assert.Equal(t, stream.KillDecayDiscarded, ev.Kills[0].Reason)
	assert.Equal(t, 1, ev.Skipped, "the electron of a discarded decay is not tracked")
	assert.Nil(t, ev.Reconstruction)
}

func TestRun_Readout(t *testing.T) {
	result, err := Run(loadTestdata(t, "readout"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, 4, result.Counts.Orderings)
	assert.Equal(t, 1, result.Counts.Good)
	assert.Zero(t, result.Counts.Records)

	single, ok := result.Event("single")
	require.True(t, ok)
	assert.Equal(t, csr.StatusRejected, single.Reconstruction.Status)
	assert.Equal(t, csr.ReasonTooFewSites, single.Reconstruction.Reason)
	assert.Empty(t, single.Reconstruction.Order)

	ev, ok := result.Event("three-site")
	require.True(t, ok)
	assert.Equal(t, 6, ev.Reconstruction.NCandidates)
	assert.Greater(t, ev.Reconstruction.SecondQuality, ev.Reconstruction.Quality)

	crowded, ok := result.Event("crowded")
	require.True(t, ok)
	assert.Equal(t, csr.StatusRejected, crowded.Reconstruction.Status)
	assert.Equal(t, csr.ReasonTooManyHits, crowded.Reconstruction.Reason)
}

func TestRun_Deterministic(t *testing.T) {
	s := loadTestdata(t, "compton_photo")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	a, err := Snapshot(s.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_FailingAssertionsAreReported(t *testing.T) {
	s := &Scenario{
		Name:        "wrong_expectation",
		Description: "Expects an ordering for a lone photo absorption",
		Events: []input.EventSpec{{
			ID:    "single",
			Sites: []input.SiteSpec{{Position: input.Vec{0, 0, -10}, Energy: 662, Detector: "calorimeter"}},
		}},
		Assertions: []Assertion{
			{Type: AssertReconstruction, Event: "single", Status: string(csr.StatusGood)},
			{Type: AssertRecordCount, Category: "COMP", Count: 1},
			{Type: AssertFinalState, Table: "orderings", Where: map[string]any{"event_id": "single"}, Expect: map[string]any{"status": "good"}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Assertion failed: reconstruction")
	assert.Contains(t, result.Errors[1], "Assertion failed: record_count")
	assert.Contains(t, result.Errors[2], "Assertion failed: final_state")
}

func TestRun_HistoryWithoutReconstruction(t *testing.T) {
	s := loadTestdata(t, "compton_photo")
	s.Reconstruct = false
	s.Assertions = []Assertion{{Type: AssertRecordCount, Category: "COMP", Count: 1}}

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Zero(t, result.Counts.Orderings)
	for _, ev := range result.Trace {
		assert.NotEqual(t, TraceOrdering, ev.Type)
	}
}

func TestRun_UnnamedHistoryEvents(t *testing.T) {
	s := loadTestdata(t, "compton_photo")
	s.History[0].ID = ""
	s.Reconstruct = false
	s.Assertions = []Assertion{{Type: AssertRecordCount, Event: "history-1", Category: "PHOT", Count: 1}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	_, ok := result.Event("history-1")
	assert.True(t, ok)
}

func TestRun_InvalidConfig(t *testing.T) {
	s := &Scenario{
		Name:        "bad_config",
		Description: "Unknown decay mode",
		Config:      map[string]any{"decay": map[string]any{"mode": "sometimes"}},
		Events: []input.EventSpec{{
			ID:    "single",
			Sites: []input.SiteSpec{{Position: input.Vec{0, 0, -10}, Energy: 662, Detector: "calorimeter"}},
		}},
		Assertions: []Assertion{{Type: AssertReconstruction, Event: "single"}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario config")
}

func TestRunContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunContext(ctx, loadTestdata(t, "compton_photo"))
	require.Error(t, err)
}
