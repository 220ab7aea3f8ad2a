package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/presenter/internal/ir"
)

// Constructor builds an action from backend-declared params.
type Constructor func(params ir.IRObject) (Action, error)

// Registry maps backend action names to constructors.
//
// Thread-safety: Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: map[string]Constructor{}}
}

// DefaultRegistry returns a registry holding every built-in action under
// its kebab-case name and its legacy type name.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	builtins := []struct {
		name, legacy string
		ctor         Constructor
	}{
		{NameLogin, "LoginAction", newLoginAction},
		{NameLogout, "LogoutAction", newLogoutAction},
		{NameMutateModel, "ModelAction", newModelAction},
		{NameSetVariable, "SetVariable", newSetVariable},
		{NameNavigate, "NavigateRoute", newNavigateRoute},
		{NameShowNotification, "ShowNotification", newShowNotification},
	}
	for _, b := range builtins {
		r.Register(b.name, b.ctor)
		r.Register(b.legacy, b.ctor)
	}
	return r
}

// Register adds a constructor. Panics if name is empty or already taken,
// since registrations happen at startup.
func (r *Registry) Register(name string, ctor Constructor) {
	if name == "" {
		panic("engine: empty action name")
	}
	if ctor == nil {
		panic(fmt.Sprintf("engine: nil constructor for action %q", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[name]; exists {
		panic(fmt.Sprintf("engine: action %q registered twice", name))
	}
	r.ctors[name] = ctor
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[name]
	return ok
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the action registered under name.
//
// Returns an UNKNOWN_ACTION RuntimeError for an unregistered name and an
// INVALID_PAYLOAD RuntimeError when the constructor rejects params. The
// success actions of a model mutation are checked here too, so a batch
// never carries a follow-up that cannot be built.
func (r *Registry) New(name string, params ir.IRObject) (Action, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, NewUnknownActionError(name)
	}

	action, err := ctor(params)
	if err != nil {
		return nil, NewInvalidPayloadError(name, params, err)
	}

	if model, ok := action.(ModelAction); ok {
		for _, ev := range model.Request.SuccessActions {
			if !r.Has(ev.Action) {
				return nil, NewUnknownActionError(ev.Action)
			}
		}
	}
	return action, nil
}
