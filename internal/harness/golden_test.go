package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"dashboard_initial_load", "mutation_failure", "session_expired"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalTrace(t *testing.T) {
	trace := []TraceEvent{
		{Type: TraceNavigation, Seq: 1, Data: map[string]any{"url": "/b"}},
		{Type: TraceCycle, Seq: 2},
	}

	out, err := MarshalTrace(trace)
	require.NoError(t, err)
	assert.Equal(t,
		`{"data":{"url":"/b"},"seq":1,"type":"navigation"}`+"\n"+
			`{"seq":2,"type":"cycle"}`+"\n",
		string(out))
}

func TestMarshalTrace_Empty(t *testing.T) {
	out, err := MarshalTrace(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
