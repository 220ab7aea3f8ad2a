package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes a views file and a scenario into a temp dir and
// returns the scenario path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "views.yaml"), []byte("views: {}\n"), 0644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario"
views: views.yaml
user: 7
route: /users/7
responses:
  - views:
      0: {values: {title: Hello}}
  - error: {status: 500, message: boom}
steps:
  - mount: dashboard
  - dispatch: {action: set-variable, params: {name: tab, value: 2}}
  - sync: true
assertions:
  - {type: request_count, count: 2}
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "views.yaml"), scenario.Views)
	assert.Equal(t, int64(7), scenario.User)
	assert.Equal(t, "/users/7", scenario.Route)
	require.Len(t, scenario.Responses, 2)
	assert.Contains(t, scenario.Responses[0].Views, int64(0))
	require.NotNil(t, scenario.Responses[1].Error)
	assert.Equal(t, 500, scenario.Responses[1].Error.Status)
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, "mount", scenario.Steps[0].kind())
	assert.Equal(t, "set-variable", scenario.Steps[1].Dispatch.Action)
	assert.Equal(t, "sync", scenario.Steps[2].kind())
	require.NotNil(t, scenario.Assertions[0].Count)
	assert.Equal(t, 2, *scenario.Assertions[0].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: d
views: views.yaml
steps: [{mount: a}]
assertion: []
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nviews: views.yaml\nsteps: [{mount: a}]\nassertions: [{type: request_count, count: 0}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nviews: views.yaml\nsteps: [{mount: a}]\nassertions: [{type: request_count, count: 0}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing views file",
			content: "name: n\ndescription: d\nviews: nope.yaml\nsteps: [{mount: a}]\nassertions: [{type: request_count, count: 0}]\n",
			wantErr: "views file",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\nviews: views.yaml\nassertions: [{type: request_count, count: 0}]\n",
			wantErr: "steps list is required",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\nviews: views.yaml\nsteps: [{mount: a}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "two kinds in one step",
			content: "name: n\ndescription: d\nviews: views.yaml\nsteps: [{mount: a, sync: true}]\nassertions: [{type: request_count, count: 0}]\n",
			wantErr: "steps[0]: exactly one of",
		},
		{
			name:    "dispatch without action",
			content: "name: n\ndescription: d\nviews: views.yaml\nsteps: [{dispatch: {params: {}}}]\nassertions: [{type: request_count, count: 0}]\n",
			wantErr: "steps[0].dispatch: action is required",
		},
		{
			name:    "error reply with views",
			content: "name: n\ndescription: d\nviews: views.yaml\nresponses: [{views: {0: {}}, error: {status: 500}}]\nsteps: [{mount: a}]\nassertions: [{type: request_count, count: 0}]\n",
			wantErr: "responses[0]: error excludes views and models",
		},
		{
			name:    "request_count without count",
			content: "name: n\ndescription: d\nviews: views.yaml\nsteps: [{mount: a}]\nassertions: [{type: request_count}]\n",
			wantErr: "assertions[0]: non-negative count is required",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nviews: views.yaml\nsteps: [{mount: a}]\nassertions: [{type: trace_order}]\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "model_value without attribute",
			content: "name: n\ndescription: d\nviews: views.yaml\nsteps: [{mount: a}]\nassertions: [{type: model_value, model: user, id: \"7\"}]\n",
			wantErr: "model, id and attribute are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "shared.yaml"), []byte("views: {}\n"), 0644))

	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: n
description: d
views: shared.yaml
steps: [{sync: true}]
assertions: [{type: request_count, count: 0}]
`), 0644))

	scenario, err := LoadScenarioWithBasePath(path, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "shared.yaml"), scenario.Views)
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	loaded := 0
	for _, path := range paths {
		if filepath.Base(path) == "views.yaml" {
			continue
		}
		_, err := LoadScenario(path)
		require.NoError(t, err, path)
		loaded++
	}
	assert.Equal(t, 3, loaded)
}
