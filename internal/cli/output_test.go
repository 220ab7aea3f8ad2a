package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		write      func(*OutputFormatter) error
		wantStatus string
		wantCode   string
		wantData   bool
		wantDetail bool
	}{
		{
			name:       "success",
			write:      func(f *OutputFormatter) error { return f.Success(map[string]int{"views": 3}) },
			wantStatus: "ok",
			wantData:   true,
		},
		{
			name:       "error",
			write:      func(f *OutputFormatter) error { return f.Error("E001", "view config not found", nil) },
			wantStatus: "error",
			wantCode:   "E001",
		},
		{
			name: "error with details",
			write: func(f *OutputFormatter) error {
				return f.Error("E005", "decode failed", map[string]string{"file": "views.cue", "line": "42"})
			},
			wantStatus: "error",
			wantCode:   "E005",
			wantDetail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, tt.write(&OutputFormatter{Format: "json", Writer: buf}))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantData, resp.Data != nil)
			if tt.wantCode == "" {
				assert.Nil(t, resp.Error)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantDetail, resp.Error.Details != nil)
		})
	}
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success("3 view(s) valid"))
	assert.Equal(t, "3 view(s) valid\n", buf.String())

	buf.Reset()
	require.NoError(t, f.Error("E001", "view config not found", map[string]string{"file": "views.cue"}))
	assert.Contains(t, buf.String(), "Error [E001]: view config not found")
	assert.NotContains(t, buf.String(), "Details:", "details need --verbose")

	buf.Reset()
	f.Verbose = true
	require.NoError(t, f.Error("E001", "view config not found", map[string]string{"file": "views.cue"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Processing %s", "views.cue")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Processing views.cue")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestOutputFormatter_Failure(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "json", Writer: buf}

		err := formatter.Failure(ExitFailure, "SYNC_FAILED", "1 view(s) without a response", map[string]int{"views": 1})
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		assert.NotNil(t, resp.Data)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "SYNC_FAILED", resp.Error.Code)
	})

	t.Run("text writes nothing", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}

		err := formatter.Failure(ExitCommandError, "E_X", "broken", nil)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Empty(t, buf.String())
	})
}
