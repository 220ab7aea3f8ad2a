package viewconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	for _, dir := range []string{"cue", "json", "yaml"} {
		res, err := Load(filepath.Join("testdata", dir))
		require.NoError(t, err, dir)
		assert.Empty(t, Validate(res.Views, WithActions(func(string) bool { return true })), dir)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	res, err := Load(filepath.Join("testdata", "invalid"))
	require.NoError(t, err)

	known := func(name string) bool { return name == "navigate" }
	errs := Validate(res.Views, WithActions(known))

	got := map[string]string{}
	for _, e := range errs {
		got[e.Field] = e.Code
	}
	assert.Equal(t, map[string]string{
		"broken.view":                                    ErrViewNameMismatch,
		"broken.baseRoute":                               ErrUnknownBaseRoute,
		"broken.layout.type":                             ErrMissingType,
		"broken.layout.values.who.scope":                 ErrUnknownScope,
		"broken.layout.values.bad.attribute":             ErrInvalidPath,
		"broken.layout.values.rows.inputs[0].op":         ErrUnknownInputOp,
		"broken.layout.values.rows.inputs[1].name":       ErrDuplicateInput,
		"broken.layout.values.rows.inputs[2].name":       ErrInputNoName,
		"broken.layout.values.rows.inputs[2].selectFrom": ErrInputNoSelectFrom,
		"broken.layout.events.click[0].action":           ErrUnknownEventAction,
		"empty.layout":                                   ErrMissingLayout,
	}, got)

	for i := 1; i < len(errs); i++ {
		assert.LessOrEqual(t, errs[i-1].Field, errs[i].Field, "errors sorted by field")
	}
}

func TestValidate_WithoutActionCheck(t *testing.T) {
	res, err := Load(filepath.Join("testdata", "invalid"))
	require.NoError(t, err)

	for _, e := range Validate(res.Views) {
		assert.NotEqual(t, ErrUnknownEventAction, e.Code)
	}
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "home.layout", Code: ErrMissingLayout, Message: "layout is required"}
	assert.Equal(t, "[E102] home.layout: layout is required", e.Error())
}
