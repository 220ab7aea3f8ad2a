package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/presenter/internal/auth"
	"github.com/roach88/presenter/internal/backend"
	"github.com/roach88/presenter/internal/engine"
	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/notify"
	"github.com/roach88/presenter/internal/state"
	"github.com/roach88/presenter/internal/store"
	"github.com/roach88/presenter/internal/testutil"
	"github.com/roach88/presenter/internal/view"
	"github.com/roach88/presenter/internal/viewconfig"
)

// ScenarioToken is the session token installed when a scenario sets a user.
const ScenarioToken = "scenario-token"

// Harness runs one scenario. Every run gets a fresh in-memory database,
// inline effects and sequential cycle tokens, so traces are identical
// across runs.
type Harness struct {
	db       *store.Store
	engine   *engine.Engine
	backend  *testutil.ScriptedBackend
	loader   *view.Loader
	recorder *notify.Recorder
	tracer   *tracer
	logger   *slog.Logger
}

// Run executes a scenario and returns its result. Assertion failures are
// reported in the result; the error is for scenarios that cannot run.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	db, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer db.Close()

	h, err := newHarness(ctx, db, scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	if err := h.start(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	if err := h.executeSteps(ctx, scenario.Steps); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}
	result.Trace = h.tracer.events()

	actx := &AssertionContext{
		Engine:        h.engine,
		Loader:        h.loader,
		Backend:       h.backend,
		Notifications: h.recorder,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(ctx context.Context, db *store.Store, scenario *Scenario) (*Harness, error) {
	views, err := viewconfig.Load(scenario.Views)
	if err != nil {
		return nil, fmt.Errorf("failed to load views: %w", err)
	}

	replies := make([]testutil.Reply, len(scenario.Responses))
	for i, r := range scenario.Responses {
		reply, err := r.reply()
		if err != nil {
			return nil, fmt.Errorf("responses[%d]: %w", i, err)
		}
		replies[i] = reply
	}

	session, err := auth.NewService(ctx, auth.NewSQLiteStore(db))
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	if scenario.User != 0 {
		if err := session.SetToken(ctx, ScenarioToken); err != nil {
			return nil, err
		}
		if err := session.SetUserID(ctx, scenario.User); err != nil {
			return nil, err
		}
	}

	tr := &tracer{}
	be := testutil.NewScriptedBackend(views.Views, replies...)
	be.MeID = scenario.User
	recorder := &notify.Recorder{}

	eng := engine.New(state.NewStore(), tracingBackend{ScriptedBackend: be, tracer: tr},
		engine.WithInlineEffects(),
		engine.WithAuth(session),
		engine.WithNotifier(notify.Multi{recorder, tracingNotifier{tr}}),
		engine.WithJournal(tracingJournal{db: db, tracer: tr}),
		engine.WithTokenGenerator(testutil.NewSequenceGenerator("")),
	)

	return &Harness{
		db:       db,
		engine:   eng,
		backend:  be,
		loader:   view.NewLoader(eng),
		recorder: recorder,
		tracer:   tr,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// start seeds the model cache, loads the configuration and navigates to
// the initial route.
func (h *Harness) start(ctx context.Context, scenario *Scenario) error {
	st := h.engine.Store()
	if len(scenario.Models) > 0 {
		models, err := toModelState(scenario.Models)
		if err != nil {
			return fmt.Errorf("models: %w", err)
		}
		st.ApplyResponse(&ir.StateResponse{Models: models})
	}

	lastURL := st.Snapshot().URL
	st.Subscribe(func(snap *state.Snapshot) {
		if snap.URL == lastURL {
			return
		}
		lastURL = snap.URL
		h.tracer.add(TraceNavigation, ir.IRObject{"url": ir.IRString(snap.URL)})
	})

	h.engine.Bootstrap()
	if err := h.engine.RunUntilIdle(ctx); err != nil {
		return err
	}
	if scenario.Route != "" {
		h.engine.Dispatch(engine.NavigateRoute{Route: scenario.Route})
		if err := h.engine.RunUntilIdle(ctx); err != nil {
			return err
		}
	}
	return nil
}

// executeSteps runs each step and lets the engine settle before the next.
func (h *Harness) executeSteps(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := h.executeStep(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.kind(), err)
		}
		if err := h.engine.RunUntilIdle(ctx); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.kind(), err)
		}
		h.logger.Info("step completed", "step", i, "kind", step.kind())
	}
	return nil
}

func (h *Harness) executeStep(step Step) error {
	switch step.kind() {
	case "mount":
		_, err := h.loader.Load(step.Mount)
		return err
	case "unmount":
		if _, ok := h.loader.Get(step.Unmount); !ok {
			return fmt.Errorf("view %q is not mounted", step.Unmount)
		}
		h.loader.Unload(step.Unmount)
		return nil
	case "dispatch":
		params, err := toObject(step.Dispatch.Params)
		if err != nil {
			return fmt.Errorf("params: %w", err)
		}
		return h.engine.DispatchNamed(step.Dispatch.Action, params)
	case "event":
		c, ok := h.loader.Get(step.Event.View)
		if !ok {
			return fmt.Errorf("view %q is not mounted", step.Event.View)
		}
		return c.HandleEvent(step.Event.Name)
	case "sync":
		h.engine.Dispatch(engine.RequestState{})
		return nil
	}
	return fmt.Errorf("invalid step")
}

// reply converts a scripted response into the wire types.
func (r Response) reply() (testutil.Reply, error) {
	if r.Error != nil {
		return testutil.Reply{Err: &backend.RequestError{StatusCode: r.Error.Status, Message: r.Error.Message}}, nil
	}

	resp := &ir.StateResponse{Views: make(map[ir.ViewID]*ir.ComponentData, len(r.Views))}
	for id, raw := range r.Views {
		data, err := toComponentData(raw)
		if err != nil {
			return testutil.Reply{}, fmt.Errorf("views[%d]: %w", id, err)
		}
		resp.Views[ir.ViewID(id)] = data
	}
	models, err := toModelState(r.Models)
	if err != nil {
		return testutil.Reply{}, fmt.Errorf("models: %w", err)
	}
	resp.Models = models
	return testutil.Reply{Response: resp}, nil
}

func toComponentData(raw any) (*ir.ComponentData, error) {
	v, err := ir.FromAny(raw)
	if err != nil {
		return nil, err
	}
	data, err := ir.MarshalIRValue(v)
	if err != nil {
		return nil, err
	}
	var out ir.ComponentData
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out.Values == nil {
		out.Values = ir.IRObject{}
	}
	return &out, nil
}

func toModelState(raw map[string]any) (ir.ModelState, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	models := make(ir.ModelState, len(raw))
	for name, records := range raw {
		v, err := ir.FromAny(records)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		obj, ok := v.(ir.IRObject)
		if !ok {
			return nil, fmt.Errorf("%s: records must be an object keyed by id", name)
		}
		models[name] = obj
	}
	return models, nil
}

func toObject(raw map[string]any) (ir.IRObject, error) {
	if raw == nil {
		return ir.IRObject{}, nil
	}
	v, err := ir.FromAny(raw)
	if err != nil {
		return nil, err
	}
	return v.(ir.IRObject), nil
}

// tracer collects trace events in order.
type tracer struct {
	mu    sync.Mutex
	seq   int64
	trace []TraceEvent
}

func (t *tracer) add(eventType string, data any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.trace = append(t.trace, TraceEvent{Type: eventType, Seq: t.seq, Data: data})
}

func (t *tracer) events() []TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEvent, len(t.trace))
	copy(out, t.trace)
	return out
}

// tracingBackend records every state request and its outcome.
type tracingBackend struct {
	*testutil.ScriptedBackend
	tracer *tracer
}

func (b tracingBackend) RequestState(ctx context.Context, req *ir.StateRequest) (*ir.StateResponse, error) {
	b.tracer.add(TraceRequest, req.ToIR())
	resp, err := b.ScriptedBackend.RequestState(ctx, req)
	if err != nil {
		b.tracer.add(TraceError, errorData(err))
		return nil, err
	}
	if resp != nil {
		b.tracer.add(TraceResponse, resp.ToIR())
	}
	return resp, nil
}

func errorData(err error) ir.IRObject {
	var re *backend.RequestError
	if errors.As(err, &re) {
		return ir.IRObject{"status": ir.IRInt(re.StatusCode), "message": ir.IRString(re.Message)}
	}
	return ir.IRObject{"message": ir.IRString(err.Error())}
}

// tracingJournal records each cycle's outcome and writes it through to
// the database.
type tracingJournal struct {
	db     *store.Store
	tracer *tracer
}

func (j tracingJournal) WriteCycle(ctx context.Context, c store.Cycle) error {
	j.tracer.add(TraceCycle, ir.IRObject{
		"token":   ir.IRString(c.Token),
		"seq":     ir.IRInt(c.Seq),
		"outcome": ir.IRString(string(c.Outcome)),
		"views":   ir.IRInt(c.ViewCount),
		"actions": ir.IRInt(c.ActionCount),
	})
	return j.db.WriteCycle(ctx, c)
}

type tracingNotifier struct {
	tracer *tracer
}

func (n tracingNotifier) Notify(note notify.Notification) {
	note = note.WithDefaults()
	n.tracer.add(TraceNotification, ir.IRObject{
		"message":     ir.IRString(note.Message),
		"duration_ms": ir.IRInt(note.Duration / time.Millisecond),
	})
}
