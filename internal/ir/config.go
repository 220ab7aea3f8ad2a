package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Capability marks a view as reachable with or without a session.
type Capability int

const (
	CapabilityPublic Capability = iota
	CapabilityPrivate
)

func (c Capability) String() string {
	switch c {
	case CapabilityPublic:
		return "public"
	case CapabilityPrivate:
		return "private"
	}
	return fmt.Sprintf("capability(%d)", int(c))
}

// UnmarshalJSON accepts the numeric form sent by the backend as well as
// the names "public" and "private".
func (c *Capability) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Capability(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("capability: %w", err)
	}
	switch strings.ToLower(s) {
	case "public":
		*c = CapabilityPublic
	case "private":
		*c = CapabilityPrivate
	default:
		return fmt.Errorf("unknown capability %q", s)
	}
	return nil
}

// ViewConfig is the backend-declared configuration of one named view.
type ViewConfig struct {
	View         string       `json:"view"`
	Capabilities []Capability `json:"capabilities,omitempty"`
	// BaseRoute nil means "mount at the top level"; an empty string means
	// "under the home route".
	BaseRoute *string          `json:"baseRoute,omitempty"`
	Layout    *ComponentConfig `json:"layout"`
}

// IsPrivate reports whether the view requires a logged-in user.
func (v *ViewConfig) IsPrivate() bool {
	for _, c := range v.Capabilities {
		if c == CapabilityPrivate {
			return true
		}
	}
	return false
}

// ComponentConfig is one node of a view's declarative layout tree. A node
// with a non-nil Children map is a layout; otherwise it is a leaf.
type ComponentConfig struct {
	Type     string                      `json:"type"`
	Values   map[string]ValueConfig      `json:"values,omitempty"`
	Events   map[string][]EventData      `json:"events,omitempty"`
	Route    string                      `json:"route,omitempty"`
	Multiple bool                        `json:"multiple,omitempty"`
	Children map[string]*ComponentConfig `json:"children,omitempty"`
}

// IsLayout reports whether the node carries children.
func (c *ComponentConfig) IsLayout() bool {
	return c != nil && c.Children != nil
}

// ValueKind tags the variant held by a ValueConfig.
type ValueKind int

const (
	ValueLiteral ValueKind = iota
	ValueDefault
	ValueScopeSelect
	ValueModelSelect
	ValueQuery
	ValueOther
)

func (k ValueKind) String() string {
	switch k {
	case ValueLiteral:
		return "literal"
	case ValueDefault:
		return "default"
	case ValueScopeSelect:
		return "scope"
	case ValueModelSelect:
		return "model"
	case ValueQuery:
		return "query"
	}
	return "other"
}

// ValueConfig is a declarative value: a literal, a {default} wrapper, a
// scope or model placeholder, or a query descriptor.
//
// Raw keeps the value exactly as declared. Query is set only for
// ValueQuery.
type ValueConfig struct {
	Kind  ValueKind
	Raw   IRValue
	Query *QueryConfig
}

// Literal builds a literal ValueConfig.
func Literal(v IRValue) ValueConfig {
	return ValueConfig{Kind: ValueLiteral, Raw: v}
}

// QueryValue builds a query ValueConfig.
func QueryValue(q *QueryConfig) ValueConfig {
	return ValueConfig{Kind: ValueQuery, Raw: q.ToIR(), Query: q}
}

// UnmarshalJSON classifies the declared value by shape.
func (v *ValueConfig) UnmarshalJSON(data []byte) error {
	raw, err := UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	*v = ValueConfig{Kind: ClassifyValue(raw), Raw: raw}
	if v.Kind == ValueQuery {
		var wrapper struct {
			Query QueryConfig `json:"query"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return fmt.Errorf("query: %w", err)
		}
		v.Query = &wrapper.Query
	}
	return nil
}

// MarshalJSON emits the value as declared.
func (v ValueConfig) MarshalJSON() ([]byte, error) {
	if v.Kind == ValueQuery && v.Query != nil {
		return MarshalIRValue(IRObject{"query": v.Query.ToIR()})
	}
	return MarshalIRValue(v.Raw)
}

// ClassifyValue reports which declarative variant v has.
func ClassifyValue(v IRValue) ValueKind {
	obj, ok := v.(IRObject)
	if !ok {
		return ValueLiteral
	}
	if _, ok := obj["query"].(IRObject); ok {
		return ValueQuery
	}
	if IsModelSelect(obj) {
		return ValueModelSelect
	}
	if IsScopeSelect(obj) {
		return ValueScopeSelect
	}
	if _, ok := obj["default"]; ok {
		return ValueDefault
	}
	return ValueOther
}

// IsModelSelect reports whether obj has the {model, id, attribute} shape.
func IsModelSelect(obj IRObject) bool {
	_, hasModel := obj["model"]
	_, hasID := obj["id"]
	_, hasAttr := obj["attribute"]
	return hasModel && hasID && hasAttr
}

// IsScopeSelect reports whether obj has the {scope, select} shape.
func IsScopeSelect(obj IRObject) bool {
	_, hasScope := obj["scope"]
	_, hasSelect := obj["select"]
	return hasScope && hasSelect
}

// QueryConfig describes a backend query whose inputs are filled in by the
// client before each request.
type QueryConfig struct {
	Model     string `json:"model,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Function  string `json:"function,omitempty"`
	// Inputs nil means "no inputs declared"; an empty slice still yields
	// an (empty) params entry.
	Inputs []InputConfig `json:"inputs,omitempty"`
	Build  *QueryBuild   `json:"build,omitempty"`
}

// HasInputs reports whether the query declares an inputs list.
func (q *QueryConfig) HasInputs() bool {
	return q != nil && q.Inputs != nil
}

// ToIR converts the query into its IRObject form.
func (q *QueryConfig) ToIR() IRObject {
	obj := IRObject{}
	if q.Model != "" {
		obj["model"] = IRString(q.Model)
	}
	if q.Attribute != "" {
		obj["attribute"] = IRString(q.Attribute)
	}
	if q.Function != "" {
		obj["function"] = IRString(q.Function)
	}
	if q.Inputs != nil {
		inputs := make(IRArray, len(q.Inputs))
		for i, in := range q.Inputs {
			inputs[i] = in.ToIR()
		}
		obj["inputs"] = inputs
	}
	if q.Build != nil {
		obj["build"] = IRObject{"orderBy": IRString(q.Build.OrderBy), "take": IRInt(q.Build.Take)}
	}
	return obj
}

// QueryBuild carries ordering and paging hints for a query.
type QueryBuild struct {
	OrderBy string `json:"orderBy,omitempty"`
	Take    int64  `json:"take,omitempty"`
}

// InputConfig is one named query input sourced from a selector.
type InputConfig struct {
	Name       string
	Op         string
	SelectFrom IRValue
}

type inputConfigJSON struct {
	Name       string          `json:"name"`
	Op         string          `json:"op,omitempty"`
	SelectFrom json.RawMessage `json:"selectFrom,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (in *InputConfig) UnmarshalJSON(data []byte) error {
	var aux inputConfigJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	in.Name = aux.Name
	in.Op = aux.Op
	in.SelectFrom = nil
	if len(aux.SelectFrom) > 0 {
		v, err := UnmarshalIRValue(aux.SelectFrom)
		if err != nil {
			return fmt.Errorf("input %q selectFrom: %w", aux.Name, err)
		}
		in.SelectFrom = v
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (in InputConfig) MarshalJSON() ([]byte, error) {
	return MarshalIRValue(in.ToIR())
}

// ToIR converts the input into its IRObject form.
func (in InputConfig) ToIR() IRObject {
	obj := IRObject{"name": IRString(in.Name)}
	if in.Op != "" {
		obj["op"] = IRString(in.Op)
	}
	if in.SelectFrom != nil {
		obj["selectFrom"] = in.SelectFrom
	}
	return obj
}
