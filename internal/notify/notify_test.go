package notify

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/presenter/internal/ir"
)

func TestWithDefaults(t *testing.T) {
	assert.Equal(t, DefaultDuration, Notification{Message: "x"}.WithDefaults().Duration)
	assert.Equal(t, 5*time.Second, Notification{Duration: 5 * time.Second}.WithDefaults().Duration)
}

func TestRecorderAndMulti(t *testing.T) {
	var a, b Recorder
	m := Multi{&a, &b}
	m.Notify(Notification{Message: "first"})
	m.Notify(Notification{Message: "second"})

	assert.Equal(t, []string{"first", "second"}, a.Messages())
	assert.Equal(t, a.Notifications(), b.Notifications())

	a.Reset()
	assert.Empty(t, a.Messages())
	assert.Len(t, b.Messages(), 2)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	n.Notify(Notification{
		Message:  "saved",
		Duration: time.Second,
		Action:   &Action{Title: "undo", Event: ir.EventData{Action: "mutate-model"}},
	})

	out := buf.String()
	assert.Contains(t, out, "message=saved")
	assert.Contains(t, out, "action_title=undo")
	assert.Contains(t, out, "action_event=mutate-model")
}
