package view

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/presenter/internal/engine"
	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/notify"
	"github.com/roach88/presenter/internal/state"
	"github.com/roach88/presenter/internal/testutil"
)

// recordingEngine records dispatched actions without processing them.
type recordingEngine struct {
	store *state.Store

	mu         sync.Mutex
	dispatched []engine.Action
	stopped    bool
}

func newRecordingEngine() *recordingEngine {
	return &recordingEngine{store: state.NewStore()}
}

func (r *recordingEngine) Store() *state.Store { return r.store }

func (r *recordingEngine) Dispatch(a engine.Action) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	r.dispatched = append(r.dispatched, a)
	return true
}

func (r *recordingEngine) DispatchNamed(name string, params ir.IRObject) error {
	a, err := engine.DefaultRegistry().New(name, params)
	if err != nil {
		return err
	}
	r.Dispatch(a)
	return nil
}

func (r *recordingEngine) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.dispatched))
	for i, a := range r.dispatched {
		out[i] = a.ActionName()
	}
	return out
}

func TestController_MountOnce(t *testing.T) {
	eng := newRecordingEngine()
	c := NewController(eng, "orders")

	id1, err := c.Mount()
	require.NoError(t, err)
	id2, err := c.Mount()
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, []string{engine.NameCreateView, engine.NameLoadView}, eng.names())
	assert.Equal(t, engine.CreateView{ID: id1, View: "orders"}, eng.dispatched[0])
	assert.Equal(t, engine.LoadView{ID: id1}, eng.dispatched[1])
}

func TestController_MountConcurrent(t *testing.T) {
	eng := newRecordingEngine()
	c := NewController(eng, "orders")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Mount()
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{engine.NameCreateView, engine.NameLoadView}, eng.names())
	assert.Equal(t, ir.ViewID(1), eng.store.NextViewID(), "exactly one id allocated")
}

func TestController_UnmountAndRemount(t *testing.T) {
	eng := newRecordingEngine()
	c := NewController(eng, "orders")

	first, err := c.Mount()
	require.NoError(t, err)
	c.Unmount()
	c.Unmount()
	assert.Equal(t, PhaseDestroyed, c.Phase())

	second, err := c.Mount()
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "ids are never reused")
	assert.Equal(t, []string{
		engine.NameCreateView, engine.NameLoadView,
		engine.NameDestroyView,
		engine.NameCreateView, engine.NameLoadView,
	}, eng.names())
}

func TestController_MountStopped(t *testing.T) {
	eng := newRecordingEngine()
	eng.stopped = true
	c := NewController(eng, "orders")

	_, err := c.Mount()
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, PhaseUnmounted, c.Phase())
}

func TestController_HandleAction_Unknown(t *testing.T) {
	eng := newRecordingEngine()
	c := NewController(eng, "orders")

	err := c.HandleAction("teleport", nil)

	require.Error(t, err)
	assert.True(t, engine.IsUnknownActionError(err))
	assert.Empty(t, eng.names())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "loaded", PhaseLoaded.String())
	assert.Equal(t, "Phase(42)", Phase(42).String())
}

// Lifecycle against a real engine.

func dashboardConfig() map[string]*ir.ViewConfig {
	return map[string]*ir.ViewConfig{
		"dashboard": {
			View: "dashboard",
			Layout: &ir.ComponentConfig{
				Type:   "page",
				Values: map[string]ir.ValueConfig{"title": ir.Literal(ir.IRString("Dashboard"))},
				Events: map[string][]ir.EventData{
					"open": {{Action: engine.NameNavigate, Params: ir.IRObject{"route": ir.IRString("/users/:$me")}}},
				},
			},
		},
	}
}

func dashboardReply() testutil.Reply {
	return testutil.Reply{Response: &ir.StateResponse{
		Views: map[ir.ViewID]*ir.ComponentData{
			0: {
				Values: ir.IRObject{
					"title": ir.IRString("Dashboard"),
					"owner": ir.IRObject{"model": ir.IRString("user"), "id": ir.IRInt(7), "attribute": ir.IRString("name")},
				},
				Events: map[string][]ir.EventData{
					"open": {{Action: engine.NameNavigate, Params: ir.IRObject{"route": ir.IRString("/users/:$me")}}},
				},
			},
		},
		Models: ir.ModelState{"user": {"7": ir.IRObject{"name": ir.IRString("Alice")}}},
	}}
}

func newEngine(t *testing.T, be engine.Backend) *engine.Engine {
	t.Helper()
	e := engine.New(state.NewStore(), be,
		engine.WithInlineEffects(),
		engine.WithNotifier(&notify.Recorder{}),
		engine.WithTokenGenerator(testutil.NewSequenceGenerator("")),
	)
	e.Bootstrap()
	require.NoError(t, e.RunUntilIdle(context.Background()))
	return e
}

func TestController_Lifecycle(t *testing.T) {
	be := testutil.NewScriptedBackend(dashboardConfig(), dashboardReply())
	e := newEngine(t, be)
	c := NewController(e, "dashboard")
	assert.Equal(t, PhaseUnmounted, c.Phase())

	var seen []string
	_, err := c.Mount()
	require.NoError(t, err)
	c.Watch(func(inst *state.ViewInstance) {
		if inst != nil {
			seen = append(seen, inst.Status())
		}
	})
	assert.Equal(t, PhaseCreated, c.Phase())

	require.NoError(t, e.RunUntilIdle(context.Background()))

	assert.Equal(t, PhaseLoaded, c.Phase())
	assert.Equal(t, state.StatusResponse, c.Status())
	assert.Contains(t, seen, state.StatusLoading)
	assert.Equal(t, state.StatusResponse, seen[len(seen)-1])

	data := c.Data()
	require.NotNil(t, data)
	assert.Equal(t, ir.IRString("Alice"), data.Values["owner"])
	assert.Equal(t, ir.IRNull{}, data.Values["$me"])

	c.Unmount()
	require.NoError(t, e.RunUntilIdle(context.Background()))
	assert.Nil(t, e.Store().Snapshot().View(0))
	assert.Nil(t, c.Data())
}

func TestController_Errored(t *testing.T) {
	be := testutil.NewScriptedBackend(dashboardConfig(), testutil.Reply{Err: assert.AnError})
	e := newEngine(t, be)
	c := NewController(e, "dashboard")

	_, err := c.Mount()
	require.NoError(t, err)
	require.NoError(t, e.RunUntilIdle(context.Background()))

	assert.Equal(t, PhaseErrored, c.Phase())
	assert.Equal(t, state.StatusError, c.Status())
}

func TestController_HandleEvent(t *testing.T) {
	be := testutil.NewScriptedBackend(dashboardConfig(), dashboardReply())
	e := newEngine(t, be)
	e.Dispatch(engine.RestoreSession{UserID: 7})
	c := NewController(e, "dashboard")
	_, err := c.Mount()
	require.NoError(t, err)
	require.NoError(t, e.RunUntilIdle(context.Background()))

	require.NoError(t, c.HandleEvent("open"))
	require.NoError(t, e.RunUntilIdle(context.Background()))

	assert.Equal(t, "/users/7", e.Store().Snapshot().URL)
}

func TestController_DestroyedWhileInFlight(t *testing.T) {
	be := testutil.NewScriptedBackend(dashboardConfig(), dashboardReply())
	e := newEngine(t, be)
	c := NewController(e, "dashboard")

	_, err := c.Mount()
	require.NoError(t, err)
	c.Unmount()
	require.NoError(t, e.RunUntilIdle(context.Background()))

	require.Len(t, be.Requests(), 1)
	assert.Empty(t, e.Store().Snapshot().Views)
	assert.Equal(t, PhaseDestroyed, c.Phase())
}

func TestController_WatchBeforeMountFollowsOwnInstance(t *testing.T) {
	be := testutil.NewScriptedBackend(dashboardConfig())
	e := newEngine(t, be)

	other := NewController(e, "dashboard")
	mine := NewController(e, "dashboard")

	var seen []ir.ViewID
	mine.Watch(func(inst *state.ViewInstance) {
		if inst != nil {
			seen = append(seen, inst.ID)
		}
	})

	otherID, err := other.Mount()
	require.NoError(t, err)
	require.NoError(t, e.RunUntilIdle(context.Background()))
	assert.Empty(t, seen)

	mineID, err := mine.Mount()
	require.NoError(t, err)
	require.NotEqual(t, otherID, mineID)
	require.NoError(t, e.RunUntilIdle(context.Background()))

	require.NotEmpty(t, seen)
	for _, id := range seen {
		assert.Equal(t, mineID, id)
	}
}
