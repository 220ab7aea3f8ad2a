package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/presenter/internal/engine"
	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/notify"
	"github.com/roach88/presenter/internal/testutil"
	"github.com/roach88/presenter/internal/view"
)

// AssertionContext gives assertions access to the finished run.
type AssertionContext struct {
	Engine        *engine.Engine
	Loader        *view.Loader
	Backend       *testutil.ScriptedBackend
	Notifications *notify.Recorder
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Type, describe(event.Data))
		}
	}
	return buf.String()
}

func describe(data any) string {
	if v, ok := data.(ir.IRValue); ok {
		out, err := ir.MarshalCanonical(v)
		if err == nil {
			return string(out)
		}
	}
	return fmt.Sprint(data)
}

// assertViewStatus checks the display status of a mounted view.
func assertViewStatus(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	want := fmt.Sprint(a.Expect)
	c, ok := actx.Loader.Get(a.View)
	if !ok {
		return &AssertionError{
			Type:     AssertViewStatus,
			Expected: fmt.Sprintf("view %s with status %s", a.View, want),
			Actual:   "view not mounted",
			Trace:    trace,
		}
	}
	if got := c.Status(); got != want {
		return &AssertionError{
			Type:     AssertViewStatus,
			Expected: fmt.Sprintf("view %s with status %s", a.View, want),
			Actual:   got,
			Trace:    trace,
		}
	}
	return nil
}

// assertResolvedValue checks a value of a view's data after every
// placeholder has been resolved.
func assertResolvedValue(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	c, ok := actx.Loader.Get(a.View)
	if !ok {
		return &AssertionError{
			Type:     AssertResolvedValue,
			Expected: fmt.Sprintf("view %s mounted", a.View),
			Actual:   "view not mounted",
			Trace:    trace,
		}
	}
	path, err := ir.ParsePath(a.Path)
	if err != nil {
		return fmt.Errorf("resolved_value: %w", err)
	}

	var got ir.IRValue
	if data := c.Data(); data != nil {
		got = path.Lookup(data.ToIR())
	}
	return compareValue(trace, AssertResolvedValue, fmt.Sprintf("%s at %s", a.View, a.Path), a.Expect, got)
}

// assertModelValue checks an attribute of a cached record.
func assertModelValue(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	path, err := ir.ParsePath(a.Attribute)
	if err != nil {
		return fmt.Errorf("model_value: %w", err)
	}
	record, _, _ := actx.Engine.Store().Snapshot().Models.Record(a.Model, a.ID)
	got := path.Lookup(record)
	return compareValue(trace, AssertModelValue, fmt.Sprintf("%s[%s].%s", a.Model, a.ID, a.Attribute), a.Expect, got)
}

// assertNotification checks that a notification with the message was shown.
func assertNotification(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	want := fmt.Sprint(a.Expect)
	messages := actx.Notifications.Messages()
	if slices.Contains(messages, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertNotification,
		Expected: fmt.Sprintf("notification %q", want),
		Actual:   fmt.Sprintf("%q", messages),
		Trace:    trace,
	}
}

// assertRequestCount checks how many state requests reached the backend.
func assertRequestCount(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	got := len(actx.Backend.Requests())
	if got != *a.Count {
		return &AssertionError{
			Type:     AssertRequestCount,
			Expected: fmt.Sprintf("%d state requests", *a.Count),
			Actual:   fmt.Sprintf("%d state requests", got),
			Trace:    trace,
		}
	}
	return nil
}

// assertRoute checks the current URL.
func assertRoute(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	want := fmt.Sprint(a.Expect)
	if got := actx.Engine.Store().Snapshot().URL; got != want {
		return &AssertionError{
			Type:     AssertRoute,
			Expected: fmt.Sprintf("url %s", want),
			Actual:   fmt.Sprintf("url %s", got),
			Trace:    trace,
		}
	}
	return nil
}

func compareValue(trace []TraceEvent, kind, subject string, expect any, got ir.IRValue) error {
	want, err := ir.FromAny(expect)
	if err != nil {
		return fmt.Errorf("%s: expect: %w", kind, err)
	}
	if got == nil {
		got = ir.IRNull{}
	}
	if ir.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%s = %s", subject, describe(want)),
		Actual:   describe(got),
		Trace:    trace,
	}
}

// EvaluateAssertions evaluates all assertions against a finished run and
// returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertViewStatus:
			err = assertViewStatus(result.Trace, assertion, actx)
		case AssertResolvedValue:
			err = assertResolvedValue(result.Trace, assertion, actx)
		case AssertModelValue:
			err = assertModelValue(result.Trace, assertion, actx)
		case AssertNotification:
			err = assertNotification(result.Trace, assertion, actx)
		case AssertRequestCount:
			err = assertRequestCount(result.Trace, assertion, actx)
		case AssertRoute:
			err = assertRoute(result.Trace, assertion, actx)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
