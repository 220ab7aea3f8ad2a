package state

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/presenter/internal/ir"
)

// Store owns the presenter state: view instances, model cache, global and
// per-view variables, and the pending action queue.
//
// Thread-safety model:
//   - Snapshot(), NextViewID(), AllocateViewID(): safe from any goroutine
//   - every other method is a writer and must be called from the engine's
//     single Run goroutine
//
// Writers never mutate a published Snapshot. Each commit copies the parts
// it changes and publishes a new Snapshot, so readers see a consistent
// state without holding locks while they resolve.
type Store struct {
	mu     sync.RWMutex
	snap   *Snapshot
	nextID atomic.Int64

	subMu   sync.Mutex
	subs    map[int]func(*Snapshot)
	nextSub int
}

// NewStore creates an empty store. The first allocated view id is 0.
func NewStore() *Store {
	return &Store{
		snap: emptySnapshot(),
		subs: map[int]func(*Snapshot){},
	}
}

// Snapshot returns the current immutable state.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// NextViewID returns the id the next AllocateViewID call will hand out.
func (s *Store) NextViewID() ir.ViewID {
	return ir.ViewID(s.nextID.Load())
}

// AllocateViewID reserves the next view id. IDs are strictly increasing and
// never reused, even after the instance is destroyed.
func (s *Store) AllocateViewID() ir.ViewID {
	return ir.ViewID(s.nextID.Add(1) - 1)
}

// Subscribe registers fn to run after every commit, on the writer
// goroutine. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(*Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) commit(next *Snapshot) {
	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()

	s.subMu.Lock()
	fns := make([]func(*Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

// update applies fn to the current snapshot and publishes the result when
// fn reports a change.
func (s *Store) update(fn func(cur *Snapshot) (*Snapshot, bool)) bool {
	next, changed := fn(s.Snapshot())
	if changed {
		s.commit(next)
	}
	return changed
}

// SetConfig stores the loaded view configuration.
func (s *Store) SetConfig(cfg map[string]*ir.ViewConfig) {
	s.update(func(cur *Snapshot) (*Snapshot, bool) {
		next := cur.shallow()
		next.Config = cfg
		return next, true
	})
}

// SetLoggedUser records the logged-in user; nil logs out.
func (s *Store) SetLoggedUser(u *User) {
	s.update(func(cur *Snapshot) (*Snapshot, bool) {
		next := cur.shallow()
		next.LoggedUser = u
		return next, true
	})
}

// SetRoute records the active route tree and URL.
func (s *Store) SetRoute(url string, route *RouteNode) {
	s.update(func(cur *Snapshot) (*Snapshot, bool) {
		next := cur.shallow()
		next.URL = url
		next.Route = route
		return next, true
	})
}

// CreateView adds a fresh instance under a previously allocated id.
// Creating an id that is already live is a no-op.
func (s *Store) CreateView(id ir.ViewID, view string) bool {
	return s.update(func(cur *Snapshot) (*Snapshot, bool) {
		if _, exists := cur.Views[id]; exists {
			return nil, false
		}
		next := cur.withViews()
		next.Views[id] = &ViewInstance{ID: id, View: view, Variables: ir.IRObject{}}
		next.Order = append(slices.Clone(cur.Order), id)
		return next, true
	})
}

// DestroyView removes an instance. Later writes for the id are dropped.
func (s *Store) DestroyView(id ir.ViewID) bool {
	return s.update(func(cur *Snapshot) (*Snapshot, bool) {
		if _, exists := cur.Views[id]; !exists {
			return nil, false
		}
		return cur.withoutView(id), true
	})
}

// updateView replaces one instance with fn's modified copy. Unknown ids are
// ignored.
func (s *Store) updateView(id ir.ViewID, fn func(v *ViewInstance)) bool {
	return s.update(func(cur *Snapshot) (*Snapshot, bool) {
		inst, exists := cur.Views[id]
		if !exists {
			return nil, false
		}
		next := cur.withViews()
		cp := inst.clone()
		fn(cp)
		next.Views[id] = cp
		return next, true
	})
}

// MarkLoading moves an instance into the loading state and clears any
// previous error.
func (s *Store) MarkLoading(id ir.ViewID) bool {
	return s.updateView(id, func(v *ViewInstance) {
		v.Loading = true
		v.Err = nil
	})
}

// SetViewRequest stores the last built request for an instance.
func (s *Store) SetViewRequest(id ir.ViewID, req *ir.ViewRequest) bool {
	return s.updateView(id, func(v *ViewInstance) {
		v.Request = req
	})
}

// ApplyResponse reconciles a successful batch: every live view named in
// the response receives its data, and returned models are deep-merged into
// the cache. Views destroyed since the request was sent are skipped. It
// returns the ids that were updated.
func (s *Store) ApplyResponse(resp *ir.StateResponse) []ir.ViewID {
	var applied []ir.ViewID
	s.update(func(cur *Snapshot) (*Snapshot, bool) {
		next := cur.withViews()
		for id, data := range resp.Views {
			inst, exists := next.Views[id]
			if !exists {
				slog.Debug("dropping response for destroyed view", "view_id", id)
				continue
			}
			cp := inst.clone()
			cp.Loading = false
			cp.Response = data
			cp.Err = nil
			next.Views[id] = cp
			applied = append(applied, id)
		}
		if len(resp.Models) > 0 {
			next.Models = cur.Models.Merge(resp.Models)
		}
		return next, true
	})
	slices.Sort(applied)
	return applied
}

// ApplyError marks the given views as failed. Only views that were part of
// the failed batch should be passed; destroyed ids are skipped.
func (s *Store) ApplyError(ids []ir.ViewID, err error) []ir.ViewID {
	var applied []ir.ViewID
	s.update(func(cur *Snapshot) (*Snapshot, bool) {
		next := cur.withViews()
		for _, id := range ids {
			inst, exists := next.Views[id]
			if !exists {
				continue
			}
			cp := inst.clone()
			cp.Loading = false
			cp.Err = err
			next.Views[id] = cp
			applied = append(applied, id)
		}
		return next, len(applied) > 0
	})
	return applied
}

// SetGlobalVariable writes a process-wide variable.
func (s *Store) SetGlobalVariable(name string, value ir.IRValue) {
	s.update(func(cur *Snapshot) (*Snapshot, bool) {
		next := cur.shallow()
		next.Globals = cur.Globals.Clone()
		if next.Globals == nil {
			next.Globals = ir.IRObject{}
		}
		next.Globals[name] = value
		return next, true
	})
}

// SetViewVariable writes a variable scoped to one instance. Writes to a
// destroyed instance are dropped.
func (s *Store) SetViewVariable(id ir.ViewID, name string, value ir.IRValue) bool {
	return s.updateView(id, func(v *ViewInstance) {
		vars := v.Variables.Clone()
		if vars == nil {
			vars = ir.IRObject{}
		}
		vars[name] = value
		v.Variables = vars
	})
}

// EnqueueAction appends a mutation to the FIFO action queue.
func (s *Store) EnqueueAction(a *ir.ActionRequest) {
	s.update(func(cur *Snapshot) (*Snapshot, bool) {
		next := cur.shallow()
		next.Actions = append(slices.Clone(cur.Actions), a)
		return next, true
	})
}

// DrainActions atomically removes and returns every queued action in
// enqueue order.
func (s *Store) DrainActions() []*ir.ActionRequest {
	var drained []*ir.ActionRequest
	s.update(func(cur *Snapshot) (*Snapshot, bool) {
		if len(cur.Actions) == 0 {
			return nil, false
		}
		drained = cur.Actions
		next := cur.shallow()
		next.Actions = nil
		return next, true
	})
	return drained
}
