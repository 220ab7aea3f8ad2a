package state

import (
	"maps"
	"slices"

	"github.com/roach88/presenter/internal/ir"
)

// ViewInstance is one live view. Instances are immutable once published in
// a Snapshot; writers replace them wholesale.
type ViewInstance struct {
	ID        ir.ViewID
	View      string
	Request   *ir.ViewRequest
	Loading   bool
	Response  *ir.ComponentData
	Err       error
	Variables ir.IRObject
}

// Status values derived from a ViewInstance.
const (
	StatusLoading  = "loading"
	StatusError    = "error"
	StatusResponse = "response"
)

// Status derives the display status: a response wins, then a settled
// error, otherwise the view is still loading.
func (v *ViewInstance) Status() string {
	switch {
	case v == nil:
		return StatusLoading
	case v.Response != nil:
		return StatusResponse
	case !v.Loading && v.Err != nil:
		return StatusError
	default:
		return StatusLoading
	}
}

func (v *ViewInstance) clone() *ViewInstance {
	cp := *v
	return &cp
}

// User is the logged-in principal.
type User struct {
	ID int64
}

// RouteNode is one level of the active nested route tree.
type RouteNode struct {
	Path     string
	Params   map[string]string
	Children []*RouteNode
}

// Snapshot is an immutable view of the whole presenter state. Holders may
// read it from any goroutine; it never changes after publication.
type Snapshot struct {
	Config     map[string]*ir.ViewConfig
	Views      map[ir.ViewID]*ViewInstance
	Order      []ir.ViewID
	Models     ir.ModelState
	LoggedUser *User
	Globals    ir.IRObject
	Actions    []*ir.ActionRequest
	Route      *RouteNode
	URL        string
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Views:   map[ir.ViewID]*ViewInstance{},
		Models:  ir.ModelState{},
		Globals: ir.IRObject{},
	}
}

// View returns the instance with the given id, or nil once destroyed.
func (s *Snapshot) View(id ir.ViewID) *ViewInstance {
	return s.Views[id]
}

// ViewConfigFor returns the configuration of the view backing instance id.
func (s *Snapshot) ViewConfigFor(id ir.ViewID) *ir.ViewConfig {
	inst := s.Views[id]
	if inst == nil || s.Config == nil {
		return nil
	}
	return s.Config[inst.View]
}

// ConfigLoaded reports whether view configuration has been received.
func (s *Snapshot) ConfigLoaded() bool {
	return s.Config != nil
}

// LiveViews returns the live instances in creation order.
func (s *Snapshot) LiveViews() []*ViewInstance {
	out := make([]*ViewInstance, 0, len(s.Order))
	for _, id := range s.Order {
		if inst := s.Views[id]; inst != nil {
			out = append(out, inst)
		}
	}
	return out
}

// shallow copies the top level so a writer can replace individual fields.
func (s *Snapshot) shallow() *Snapshot {
	cp := *s
	return &cp
}

func (s *Snapshot) withViews() *Snapshot {
	cp := s.shallow()
	cp.Views = maps.Clone(s.Views)
	return cp
}

func (s *Snapshot) withoutView(id ir.ViewID) *Snapshot {
	cp := s.withViews()
	delete(cp.Views, id)
	cp.Order = slices.DeleteFunc(slices.Clone(s.Order), func(v ir.ViewID) bool { return v == id })
	return cp
}
