package view

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/presenter/internal/engine"
	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/selector"
	"github.com/roach88/presenter/internal/state"
)

// ErrStopped is returned when the engine no longer accepts actions.
var ErrStopped = errors.New("view: engine stopped")

// Engine is the part of the engine a controller drives.
type Engine interface {
	Store() *state.Store
	Dispatch(a engine.Action) bool
	DispatchNamed(name string, params ir.IRObject) error
}

// Phase is the lifecycle position of a controller.
type Phase int

const (
	PhaseUnmounted Phase = iota
	PhaseCreated
	PhaseLoading
	PhaseLoaded
	PhaseErrored
	PhaseDestroyed
)

func (p Phase) String() string {
	switch p {
	case PhaseUnmounted:
		return "unmounted"
	case PhaseCreated:
		return "created"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseErrored:
		return "errored"
	case PhaseDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Controller drives one view instance through its lifecycle.
//
// Thread-safety: Controller is safe for concurrent use. Mount and Unmount
// are latched, so repeated or concurrent calls create and load the
// instance once.
type Controller struct {
	engine Engine
	name   string

	mu            sync.Mutex
	id            ir.ViewID
	mounted       bool
	loadRequested bool
	destroyed     bool
	unsubs        []func()
}

// NewController creates an unmounted controller for the named view.
func NewController(e Engine, name string) *Controller {
	return &Controller{engine: e, name: name}
}

// Name returns the view name.
func (c *Controller) Name() string {
	return c.name
}

// ID returns the instance id and whether one is assigned.
func (c *Controller) ID() (ir.ViewID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id, c.mounted
}

// Mount assigns an id, creates the instance and requests its first load.
// Calling Mount again while mounted returns the same id and sends nothing.
// After Unmount, Mount starts over with a fresh id.
func (c *Controller) Mount() (ir.ViewID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		id := c.engine.Store().AllocateViewID()
		if !c.engine.Dispatch(engine.CreateView{ID: id, View: c.name}) {
			return 0, ErrStopped
		}
		c.id = id
		c.mounted = true
		c.destroyed = false
		slog.Debug("view mounted", "view", c.name, "view_id", id)
	}

	if !c.loadRequested {
		var data *ir.ComponentData
		if inst := c.engine.Store().Snapshot().View(c.id); inst != nil {
			data = inst.Response
		}
		if !c.engine.Dispatch(engine.LoadView{ID: c.id, Data: data}) {
			return c.id, ErrStopped
		}
		c.loadRequested = true
	}
	return c.id, nil
}

// Unmount destroys the instance, whatever its request state, and releases
// every watcher. A batch still in flight for it is dropped on arrival.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		return
	}
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil

	if !c.engine.Dispatch(engine.DestroyView{ID: c.id}) {
		slog.Debug("destroy dropped: engine stopped", "view", c.name, "view_id", c.id)
	}
	slog.Debug("view unmounted", "view", c.name, "view_id", c.id)
	c.mounted = false
	c.loadRequested = false
	c.destroyed = true
}

// Instance returns the current instance, or nil when unmounted or not yet
// created by the engine.
func (c *Controller) Instance() *state.ViewInstance {
	id, ok := c.ID()
	if !ok {
		return nil
	}
	return c.engine.Store().Snapshot().View(id)
}

// Status derives the display status of the instance.
func (c *Controller) Status() string {
	return c.Instance().Status()
}

// Phase reports where the controller is in its lifecycle.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	mounted, destroyed, id := c.mounted, c.destroyed, c.id
	c.mu.Unlock()

	switch {
	case destroyed:
		return PhaseDestroyed
	case !mounted:
		return PhaseUnmounted
	}

	inst := c.engine.Store().Snapshot().View(id)
	switch {
	case inst == nil:
		return PhaseCreated
	case inst.Response != nil:
		return PhaseLoaded
	case !inst.Loading && inst.Err != nil:
		return PhaseErrored
	case inst.Loading:
		return PhaseLoading
	}
	return PhaseCreated
}

// Data returns the instance's response with every placeholder resolved
// against the current state. Nil until a response arrives.
func (c *Controller) Data() *ir.ComponentData {
	id, ok := c.ID()
	if !ok {
		return nil
	}
	snap := c.engine.Store().Snapshot()
	inst := snap.View(id)
	if inst == nil {
		return nil
	}
	return selector.ResolveTree(snap, id, inst.Response)
}

// HandleAction dispatches a backend-declared action by name. Unknown
// names fail immediately.
func (c *Controller) HandleAction(name string, params ir.IRObject) error {
	if err := c.engine.DispatchNamed(name, params); err != nil {
		return fmt.Errorf("view %s: %w", c.name, err)
	}
	return nil
}

// HandleEvent dispatches, in order, every action bound to the named event
// of the root component. Params are taken from the resolved data.
func (c *Controller) HandleEvent(event string) error {
	data := c.Data()
	if data == nil {
		return fmt.Errorf("view %s: no data for event %q", c.name, event)
	}
	for _, ev := range data.Events[event] {
		if err := c.HandleAction(ev.Action, ev.Params); err != nil {
			return err
		}
	}
	return nil
}

// Watch calls fn whenever the instance changes. Before Mount there is no
// instance to report, so fn first fires for the instance Mount creates.
// The subscription ends on Unmount. fn runs on the engine goroutine and
// must not block.
func (c *Controller) Watch(fn func(inst *state.ViewInstance)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var last *state.ViewInstance
	unsub := c.engine.Store().Subscribe(func(snap *state.Snapshot) {
		id, mounted := c.ID()
		var inst *state.ViewInstance
		if mounted {
			inst = snap.View(id)
		}
		if inst == last {
			return
		}
		last = inst
		fn(inst)
	})
	c.unsubs = append(c.unsubs, unsub)
}
