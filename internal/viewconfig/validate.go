package viewconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/presenter/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrViewNameMismatch   = "E101" // view field differs from its key
	ErrMissingLayout      = "E102" // view has no layout
	ErrMissingType        = "E103" // component has no type
	ErrInputNoName        = "E104" // query input without name
	ErrInputNoSelectFrom  = "E105" // query input without selectFrom
	ErrDuplicateInput     = "E106" // two inputs share a name
	ErrUnknownInputOp     = "E107" // input op outside the known set
	ErrUnknownScope       = "E108" // scope selector names an unknown scope
	ErrInvalidPath        = "E109" // model selector attribute does not parse
	ErrUnknownBaseRoute   = "E110" // baseRoute names no view
	ErrUnknownEventAction = "E111" // event bound to an unregistered action
)

// KnownOps are the comparison operators a query input may use.
var KnownOps = []string{"eq", "neq", "lt", "lte", "gt", "gte", "like", "in"}

var knownScopes = map[string]bool{"route": true, "global": true, "view": true, "local": true}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Option configures Validate.
type Option func(*validator)

// WithActions checks every event's action name against has.
func WithActions(has func(name string) bool) Option {
	return func(v *validator) { v.hasAction = has }
}

type validator struct {
	views     map[string]*ir.ViewConfig
	hasAction func(string) bool
	errs      []ValidationError
}

// Validate checks every view and returns all errors found, sorted by
// field. It does not fail fast.
func Validate(views map[string]*ir.ViewConfig, opts ...Option) []ValidationError {
	v := &validator{views: views}
	for _, opt := range opts {
		opt(v)
	}

	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v.view(name, views[name])
	}

	sort.SliceStable(v.errs, func(i, j int) bool { return v.errs[i].Field < v.errs[j].Field })
	return v.errs
}

func (v *validator) add(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) view(name string, cfg *ir.ViewConfig) {
	if cfg == nil {
		v.add(name, ErrMissingLayout, "view is empty")
		return
	}
	if cfg.View != "" && cfg.View != name {
		v.add(name+".view", ErrViewNameMismatch, "view %q is declared under key %q", cfg.View, name)
	}
	if cfg.BaseRoute != nil && *cfg.BaseRoute != "" {
		if _, ok := v.views[*cfg.BaseRoute]; !ok {
			v.add(name+".baseRoute", ErrUnknownBaseRoute, "no view named %q", *cfg.BaseRoute)
		}
	}
	if cfg.Layout == nil {
		v.add(name+".layout", ErrMissingLayout, "layout is required")
		return
	}
	v.component(name+".layout", cfg.Layout)
}

func (v *validator) component(field string, c *ir.ComponentConfig) {
	if strings.TrimSpace(c.Type) == "" {
		v.add(field+".type", ErrMissingType, "type is required")
	}

	for _, key := range sortedKeys(c.Values) {
		val := c.Values[key]
		vf := field + ".values." + key
		switch val.Kind {
		case ir.ValueQuery:
			v.query(vf, val.Query)
		default:
			v.selector(vf, val.Raw)
		}
	}

	if v.hasAction != nil {
		for _, event := range sortedKeys(c.Events) {
			for i, ev := range c.Events[event] {
				if ev.Action != "" && !v.hasAction(ev.Action) {
					v.add(fmt.Sprintf("%s.events.%s[%d].action", field, event, i), ErrUnknownEventAction, "no action named %q", ev.Action)
				}
			}
		}
	}

	for _, key := range sortedKeys(c.Children) {
		if child := c.Children[key]; child != nil {
			v.component(field+".children."+key, child)
		}
	}
}

func (v *validator) query(field string, q *ir.QueryConfig) {
	if q == nil {
		return
	}
	seen := map[string]bool{}
	for i, in := range q.Inputs {
		inField := fmt.Sprintf("%s.inputs[%d]", field, i)
		if in.Name == "" {
			v.add(inField+".name", ErrInputNoName, "input name is required")
		} else if seen[in.Name] {
			v.add(inField+".name", ErrDuplicateInput, "input %q declared more than once", in.Name)
		}
		seen[in.Name] = true

		if in.SelectFrom == nil {
			v.add(inField+".selectFrom", ErrInputNoSelectFrom, "selectFrom is required")
		} else {
			v.selector(inField+".selectFrom", in.SelectFrom)
		}

		if in.Op != "" && !isKnownOp(in.Op) {
			v.add(inField+".op", ErrUnknownInputOp, "unknown op %q (want one of %s)", in.Op, strings.Join(KnownOps, ", "))
		}
	}
}

func (v *validator) selector(field string, raw ir.IRValue) {
	obj, ok := raw.(ir.IRObject)
	if !ok {
		return
	}
	switch {
	case ir.IsModelSelect(obj):
		if _, err := ir.ParsePath(ir.String(obj["attribute"])); err != nil {
			v.add(field+".attribute", ErrInvalidPath, "%v", err)
		}
	case ir.IsScopeSelect(obj):
		scope := ir.String(obj["scope"])
		if !knownScopes[scope] {
			v.add(field+".scope", ErrUnknownScope, "unknown scope %q", scope)
		}
	}
}

func isKnownOp(op string) bool {
	for _, known := range KnownOps {
		if op == known {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
