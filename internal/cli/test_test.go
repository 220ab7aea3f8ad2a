package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	harnessScenarios = "../harness/testdata/scenarios"
	harnessGolden    = "../harness/testdata/golden"
)

// copyScenarios copies the harness scenarios into a temp dir so golden
// files can be written without touching testdata.
func copyScenarios(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	entries, err := os.ReadDir(harnessScenarios)
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(harnessScenarios, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Name()), data, 0644))
	}
	return dir
}

func TestFindScenarioFiles_SkipsViewConfig(t *testing.T) {
	files, err := findScenarioFiles(harnessScenarios, "")
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.ElementsMatch(t, []string{
		"dashboard_initial_load.yaml",
		"mutation_failure.yaml",
		"session_expired.yaml",
	}, names)
}

func TestFindScenarioFiles_Filter(t *testing.T) {
	files, err := findScenarioFiles(harnessScenarios, "session_*")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "session_expired.yaml", filepath.Base(files[0]))

	_, err = findScenarioFiles(harnessScenarios, "[")
	require.Error(t, err)
}

func TestTestCommand_GoldenTraces(t *testing.T) {
	out, err := executeCommand(t, "test", harnessScenarios, "--golden", harnessGolden)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ dashboard_initial_load")
	assert.Contains(t, out, "✓ session_expired")
	assert.Contains(t, out, "3 passed, 0 failed, 3 total")
}

func TestTestCommand_JSON(t *testing.T) {
	out, err := executeCommand(t, "--format", "json", "test", harnessScenarios, "--golden", harnessGolden)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 3, resp.Data.Passed)
	for _, s := range resp.Data.Scenarios {
		assert.Positive(t, s.Events, s.Name)
	}
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	dir := copyScenarios(t)

	out, err := executeCommand(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")

	for _, name := range []string{"dashboard_initial_load", "mutation_failure", "session_expired"} {
		written, err := os.ReadFile(filepath.Join(dir, "golden", name+".golden"))
		require.NoError(t, err)
		want, err := os.ReadFile(filepath.Join(harnessGolden, name+".golden"))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(written), name)
	}

	_, err = executeCommand(t, "test", dir)
	require.NoError(t, err)
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	dir := copyScenarios(t)
	goldenDir := filepath.Join(dir, "golden")
	require.NoError(t, os.MkdirAll(goldenDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(goldenDir, "session_expired.golden"), []byte("{}\n"), 0644))

	out, err := executeCommand(t, "test", dir, "--filter", "session_*")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ session_expired")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_FailingAssertion(t *testing.T) {
	dir := copyScenarios(t)
	scenario := `name: wrong_route
views: views.yaml
steps:
  - mount: dashboard
assertions:
  - {type: route, expect: /elsewhere}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_route.yaml"), []byte(scenario), 0644))

	out, err := executeCommand(t, "--format", "json", "test", dir, "--filter", "wrong_*")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommand_LoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: bad\nbogus: true\n"), 0644))

	out, err := executeCommand(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ bad.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_NoScenarios(t *testing.T) {
	out, err := executeCommand(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_MissingDirectory(t *testing.T) {
	_, err := executeCommand(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
