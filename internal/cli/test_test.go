package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comptonseq/internal/harness"
)

const scenarioDir = "../harness/testdata/scenarios"

func runTestCommand(format string, args ...string) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

// copyScenario copies a scenario into a fresh directory.
func copyScenario(t *testing.T, name string) (dir, path string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(scenarioDir, name))
	require.NoError(t, err)
	dir = t.TempDir()
	path = filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return dir, path
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand("text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenarios(t *testing.T) {
	_, err := runTestCommand("text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios not found")
}

func TestTestCommandEmptyDirectory(t *testing.T) {
	buf, err := runTestCommand("text", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", buf.String())
}

func TestTestCommandRunsScenarios(t *testing.T) {
	buf, err := runTestCommand("json", scenarioDir)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 3, resp.Data.Passed)
	assert.Zero(t, resp.Data.Failed)
	for _, s := range resp.Data.Scenarios {
		assert.True(t, s.Pass, s.Name)
		assert.Equal(t, GoldenMissing, s.Golden, "the scenarios directory has no golden subdirectory")
	}
}

func TestTestCommandFilter(t *testing.T) {
	buf, err := runTestCommand("text", scenarioDir, "--filter", "readout")
	require.NoError(t, err)
	assert.Equal(t, "✓ readout\n\n1 passed, 0 failed, 1 total\n", buf.String())
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir, path := copyScenario(t, "compton_photo.yaml")

	buf, err := runTestCommand("text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ compton_photo (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "compton_photo.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile("../harness/testdata/golden/compton_photo.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), string(golden), "the command writes the harness snapshot")

	buf, err = runTestCommand("json", path)
	require.NoError(t, err)
	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, GoldenMatched, resp.Data.Scenarios[0].Golden)
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir, _ := copyScenario(t, "compton_photo.yaml")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "compton_photo.golden"), []byte("{}"), 0o644))

	buf, err := runTestCommand("text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ compton_photo")
	assert.Contains(t, buf.String(), "golden file mismatch")
}

func TestTestCommandFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_broken.yaml"), []byte("name: broken\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_wrong.yaml"), []byte(`name: wrong
description: "expects a record that is never emitted"
history:
  - id: ev
    initial_particles: [gamma]
    steps:
      - track: 1
        particle: gamma
        process: phot
        pre: {position: [0, 0, 0], energy: 100, volume: D, detector: calorimeter, material: CsI}
        post: {position: [0, 0, -1], volume: D, detector: calorimeter, material: CsI}
        deposit: 100
        end: true
assertions:
  - type: record_count
    category: COMP
    count: 1
`), 0o644))

	buf, err := runTestCommand("json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 of 2 scenarios failed")

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data.Scenarios, 2)

	broken := resp.Data.Scenarios[0]
	assert.Equal(t, "a_broken.yaml", broken.Name, "unloadable scenarios are named by file")
	require.Len(t, broken.Errors, 1)
	assert.Contains(t, broken.Errors[0], "load error")

	wrong := resp.Data.Scenarios[1]
	assert.Equal(t, "wrong", wrong.Name)
	assert.False(t, wrong.Pass)
	assert.NotEmpty(t, wrong.Errors)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "cs137.golden"), goldenFilePath(filepath.Join("scenarios", "cs137.yaml")))
}

func TestSnapshotMatchesHarness(t *testing.T) {
	scenario, err := harness.LoadScenario(filepath.Join(scenarioDir, "readout.yaml"))
	require.NoError(t, err)
	result, err := harness.Run(scenario)
	require.NoError(t, err)

	dir, path := copyScenario(t, "readout.yaml")
	_, err = runTestCommand("text", path, "--update")
	require.NoError(t, err)

	want, err := harness.Snapshot(scenario.Name, result)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dir, "golden", "readout.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}
