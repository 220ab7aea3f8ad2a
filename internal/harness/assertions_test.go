package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/presenter/internal/ir"
)

func TestCompareValue(t *testing.T) {
	assert.NoError(t, compareValue(nil, AssertModelValue, "x", "Alice", ir.IRString("Alice")))
	assert.NoError(t, compareValue(nil, AssertModelValue, "x", 7, ir.IRInt(7)))
	assert.NoError(t, compareValue(nil, AssertModelValue, "x", 7, ir.IRFloat(7)))
	assert.NoError(t, compareValue(nil, AssertModelValue, "x", nil, nil))
	assert.NoError(t, compareValue(nil, AssertModelValue, "x",
		map[string]any{"a": []any{1, "b"}},
		ir.IRObject{"a": ir.IRArray{ir.IRInt(1), ir.IRString("b")}}))

	err := compareValue(nil, AssertResolvedValue, "dashboard at values.title", "Hello", ir.IRString("Bye"))
	require.Error(t, err)
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertResolvedValue, aerr.Type)
	assert.Equal(t, `dashboard at values.title = "Hello"`, aerr.Expected)
	assert.Equal(t, `"Bye"`, aerr.Actual)
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertRoute,
		Expected: "url /a",
		Actual:   "url /b",
		Trace: []TraceEvent{
			{Type: TraceNavigation, Seq: 1, Data: ir.IRObject{"url": ir.IRString("/b")}},
		},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: route")
	assert.Contains(t, msg, "Expected: url /a")
	assert.Contains(t, msg, `[1] navigation {"url":"/b"}`)
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "trace_contains"}}, &AssertionContext{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "trace_contains"`)
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
