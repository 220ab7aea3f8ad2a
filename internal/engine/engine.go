package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/presenter/internal/auth"
	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/notify"
	"github.com/roach88/presenter/internal/routes"
	"github.com/roach88/presenter/internal/state"
	"github.com/roach88/presenter/internal/store"
)

// ErrStopped is returned by WaitIdle once the engine no longer accepts
// events.
var ErrStopped = errors.New("engine: stopped")

// Backend is the remote side of the presenter.
type Backend interface {
	Login(ctx context.Context, req ir.LoginRequest) (*ir.LoginResponse, error)
	Me(ctx context.Context) (int64, error)
	LoadViewConfig(ctx context.Context) (map[string]*ir.ViewConfig, error)
	RequestState(ctx context.Context, req *ir.StateRequest) (*ir.StateResponse, error)
}

// Auth holds the session.
type Auth interface {
	Token() string
	UserID() int64
	IsAuthenticated() bool
	SetToken(ctx context.Context, token string) error
	SetUserID(ctx context.Context, id int64) error
	Logout(ctx context.Context) error
}

// Router turns URLs into route trees.
type Router interface {
	Configure(configs map[string]*ir.ViewConfig) error
	Match(url string) (*state.RouteNode, error)
	ConfigureRouteData(views map[ir.ViewID]*ir.ComponentData)
}

// Journal records every synchronization cycle.
type Journal interface {
	WriteCycle(ctx context.Context, c store.Cycle) error
}

// Engine is the single-writer presenter event loop.
//
// The engine processes actions and effect results in FIFO order. It owns
// every write to the state store, batches view requests and queued
// mutations into synchronization cycles, and keeps at most one cycle in
// flight.
//
// All mutations happen in the single-writer Run loop goroutine.
// External callers use Dispatch() to submit actions.
//
// Thread-safety model:
//   - Dispatch(), DispatchNamed(), Bootstrap(), WaitIdle(): safe from any goroutine
//   - Run() or RunUntilIdle(): called from exactly one goroutine at a time
//   - Store().Snapshot(): safe from any goroutine
//
// Network calls run as background effects. Their results come back into
// the queue as events, so state is still only written by the loop.
type Engine struct {
	state    *state.Store
	backend  Backend
	auth     Auth
	router   Router
	notifier notify.Notifier
	journal  Journal
	registry *Registry
	settings Settings
	clock    *Clock
	tokens   CycleTokenGenerator
	queue    *eventQueue
	inline   bool

	configFlight singleflight.Group

	// Owned by the loop goroutine.
	inFlight     bool
	dirty        bool
	outstanding  int
	pendingLoads []LoadView

	idleMu      sync.Mutex
	idleWaiters []chan struct{}
}

// EngineOption allows configuration of engine collaborators.
type EngineOption func(*Engine)

// WithAuth sets the session holder. Default: an in-memory session.
func WithAuth(a Auth) EngineOption {
	return func(e *Engine) { e.auth = a }
}

// WithRouter sets the route table. Default: an empty routes.Table.
func WithRouter(r Router) EngineOption {
	return func(e *Engine) { e.router = r }
}

// WithNotifier sets where notifications go. Default: slog.
func WithNotifier(n notify.Notifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

// WithJournal records every completed cycle.
func WithJournal(j Journal) EngineOption {
	return func(e *Engine) { e.journal = j }
}

// WithRegistry replaces the action registry. Default: DefaultRegistry().
func WithRegistry(r *Registry) EngineOption {
	return func(e *Engine) { e.registry = r }
}

// WithSettings overrides routes, durations and message keys.
func WithSettings(s Settings) EngineOption {
	return func(e *Engine) { e.settings = s.withDefaults() }
}

// WithClock sets the cycle sequence clock, for example to resume after
// the last journaled cycle.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// WithTokenGenerator sets the cycle token generator. Default: UUIDv7.
func WithTokenGenerator(g CycleTokenGenerator) EngineOption {
	return func(e *Engine) { e.tokens = g }
}

// WithInlineEffects runs backend calls on the loop goroutine instead of
// in the background. Cycles then complete in a deterministic order, which
// is what scenario tests and golden traces rely on.
func WithInlineEffects() EngineOption {
	return func(e *Engine) { e.inline = true }
}

// New creates an Engine over the given state store and backend.
func New(st *state.Store, be Backend, opts ...EngineOption) *Engine {
	e := &Engine{
		state:    st,
		backend:  be,
		registry: DefaultRegistry(),
		settings: DefaultSettings(),
		clock:    NewClock(),
		tokens:   UUIDv7Generator{},
		queue:    newEventQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.auth == nil {
		e.auth = auth.NewMemoryService()
	}
	if e.router == nil {
		e.router = routes.NewTable()
	}
	if e.notifier == nil {
		e.notifier = notify.LogNotifier{}
	}
	return e
}

// Store returns the state store the engine writes to.
func (e *Engine) Store() *state.Store {
	return e.state
}

// Registry returns the action registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Router returns the route table.
func (e *Engine) Router() Router {
	return e.router
}

// Dispatch submits an action for processing by the loop.
// Returns false if the engine has been stopped.
func (e *Engine) Dispatch(a Action) bool {
	return e.queue.Enqueue(Event{Type: EventTypeAction, Action: a})
}

// DispatchNamed builds a backend-declared action and submits it.
// Unknown names and invalid params are rejected here, before anything
// reaches the loop.
func (e *Engine) DispatchNamed(name string, params ir.IRObject) error {
	action, err := e.registry.New(name, params)
	if err != nil {
		return err
	}
	if !e.Dispatch(action) {
		return ErrStopped
	}
	return nil
}

// Bootstrap restores a persisted session and starts fetching the view
// configuration.
func (e *Engine) Bootstrap() {
	if e.auth.IsAuthenticated() {
		e.Dispatch(RestoreSession{UserID: e.auth.UserID()})
	}
	e.Dispatch(LoadViewConfig{})
}

// Run starts the single-writer event loop.
// Blocks until context is cancelled or Stop() is called.
//
// On event processing failure, the error is logged with full event
// context and processing continues.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")

	for {
		event, ok := e.queue.TryDequeue()
		if ok {
			e.step(ctx, event)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			e.releaseIdle()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed.
			if e.queue.Drained() {
				slog.Info("engine stopping: queue closed")
				e.releaseIdle()
				return nil
			}
		}
	}
}

// RunUntilIdle processes events on the calling goroutine until the queue
// is empty and no effect is outstanding. It must not be called while Run
// is active.
func (e *Engine) RunUntilIdle(ctx context.Context) error {
	for {
		if event, ok := e.queue.TryDequeue(); ok {
			e.step(ctx, event)
			continue
		}
		if e.outstanding == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.queue.Wait():
			if e.queue.Drained() {
				return ErrStopped
			}
		}
	}
}

// WaitIdle blocks until the running loop has drained its queue and every
// background effect has reported back.
func (e *Engine) WaitIdle(ctx context.Context) error {
	ch := make(chan struct{})
	e.idleMu.Lock()
	e.idleWaiters = append(e.idleWaiters, ch)
	e.idleMu.Unlock()

	if !e.queue.Enqueue(Event{Type: EventTypeIdleCheck}) {
		return ErrStopped
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		if e.isClosed() {
			return ErrStopped
		}
		return nil
	}
}

// Stop gracefully shuts down the engine.
// Closes the event queue, which will cause Run() to return.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) isClosed() bool {
	return e.queue.Closed()
}

func (e *Engine) step(ctx context.Context, event Event) {
	if err := e.processEvent(ctx, event); err != nil {
		logEventError(event, err)
	}
	if e.queue.Len() == 0 && e.outstanding == 0 {
		e.releaseIdle()
	}
}

func (e *Engine) releaseIdle() {
	e.idleMu.Lock()
	waiters := e.idleWaiters
	e.idleWaiters = nil
	e.idleMu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}

// processEvent routes an event to the appropriate handler.
// Called only from the loop goroutine.
func (e *Engine) processEvent(ctx context.Context, event Event) error {
	switch event.Type {
	case EventTypeAction:
		if event.Action == nil {
			return fmt.Errorf("action event missing action")
		}
		return e.handleAction(ctx, event.Action)

	case EventTypeCycleComplete:
		e.outstanding--
		if event.Cycle == nil {
			return fmt.Errorf("cycle event missing result")
		}
		return e.completeCycle(ctx, event.Cycle)

	case EventTypeConfigLoaded:
		e.outstanding--
		if event.Config == nil {
			return fmt.Errorf("config event missing result")
		}
		return e.completeConfig(ctx, event.Config)

	case EventTypeLoginComplete:
		e.outstanding--
		if event.Login == nil {
			return fmt.Errorf("login event missing result")
		}
		return e.completeLogin(ctx, event.Login)

	case EventTypeIdleCheck:
		return nil

	default:
		return fmt.Errorf("unknown event type: %d", event.Type)
	}
}

// handleAction applies one action.
// Called only from the loop goroutine.
func (e *Engine) handleAction(ctx context.Context, action Action) error {
	slog.Debug("processing action", "action", action.ActionName())

	switch a := action.(type) {
	case CreateView:
		if !e.state.CreateView(a.ID, a.View) {
			slog.Debug("view already exists", "view_id", a.ID, "view", a.View)
		}
		return nil

	case LoadView:
		return e.loadView(ctx, a)

	case DestroyView:
		e.state.DestroyView(a.ID)
		e.dropPendingLoad(a.ID)
		return nil

	case RequestState:
		e.requestState(ctx)
		return nil

	case ModelAction:
		if a.Request == nil {
			return fmt.Errorf("model action without request")
		}
		e.state.EnqueueAction(a.Request)
		e.requestState(ctx)
		return nil

	case SetVariable:
		if a.ViewID != nil {
			if !e.state.SetViewVariable(*a.ViewID, a.Name, a.Value) {
				slog.Debug("variable for destroyed view dropped", "view_id", *a.ViewID, "name", a.Name)
			}
			return nil
		}
		e.state.SetGlobalVariable(a.Name, a.Value)
		return nil

	case NavigateRoute:
		e.navigate(a.Route)
		return nil

	case ShowNotification:
		e.notify(a.Notification)
		return nil

	case LoginAction:
		e.login(ctx, a)
		return nil

	case LogoutAction:
		e.logout(ctx)
		return nil

	case LoadViewConfig:
		e.loadViewConfig(ctx)
		return nil

	case RestoreSession:
		e.state.SetLoggedUser(&state.User{ID: a.UserID})
		return nil

	default:
		return NewUnknownActionError(action.ActionName())
	}
}

// spawn runs fn as a background effect and feeds its event back into the
// queue. Called only from the loop goroutine.
func (e *Engine) spawn(ctx context.Context, fn func(context.Context) Event) {
	e.outstanding++
	if e.inline {
		e.queue.Enqueue(fn(ctx))
		return
	}
	go func() {
		if !e.queue.Enqueue(fn(ctx)) {
			slog.Debug("effect result dropped: engine stopped")
		}
	}()
}

// logEventError logs event processing errors with full context.
func logEventError(event Event, err error) {
	switch event.Type {
	case EventTypeAction:
		name := "<nil>"
		if event.Action != nil {
			name = event.Action.ActionName()
		}
		slog.Error("action processing failed",
			"error", err,
			"action", name,
		)

	case EventTypeCycleComplete:
		token := ""
		if event.Cycle != nil {
			token = event.Cycle.token
		}
		slog.Error("cycle completion failed",
			"error", err,
			"cycle", token,
		)

	default:
		slog.Error("event processing failed",
			"error", err,
			"event_type", event.Type.String(),
		)
	}
}
