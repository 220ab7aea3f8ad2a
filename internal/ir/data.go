package ir

// EventData is one action bound to a component event: the backend-declared
// action name plus its params. Event configs and runtime event data share
// this shape.
type EventData struct {
	Action string   `json:"action,omitempty"`
	Params IRObject `json:"params,omitempty"`
	Bubble string   `json:"bubble,omitempty"`
}

// Clone returns a deep copy of the event.
func (e EventData) Clone() EventData {
	return EventData{Action: e.Action, Params: e.Params.Clone(), Bubble: e.Bubble}
}

// ToIR converts the event into its IRObject form.
func (e EventData) ToIR() IRObject {
	obj := IRObject{}
	if e.Action != "" {
		obj["action"] = IRString(e.Action)
	}
	if e.Params != nil {
		obj["params"] = e.Params
	}
	if e.Bubble != "" {
		obj["bubble"] = IRString(e.Bubble)
	}
	return obj
}

// ComponentData is the runtime mirror of a ComponentConfig node, produced by
// the backend per response. Values may still hold placeholders.
type ComponentData struct {
	Values   IRObject                  `json:"values"`
	Events   map[string][]EventData    `json:"events,omitempty"`
	Children map[string]*ComponentData `json:"children,omitempty"`
	Local    IRObject                  `json:"local,omitempty"`
	Route    string                    `json:"route,omitempty"`
}

// Child returns the named child, or nil when d is nil or has no such child.
func (d *ComponentData) Child(key string) *ComponentData {
	if d == nil || d.Children == nil {
		return nil
	}
	return d.Children[key]
}

// Clone returns a deep copy of the data tree.
func (d *ComponentData) Clone() *ComponentData {
	if d == nil {
		return nil
	}
	out := &ComponentData{
		Values: d.Values.Clone(),
		Local:  d.Local.Clone(),
		Route:  d.Route,
	}
	if d.Events != nil {
		out.Events = make(map[string][]EventData, len(d.Events))
		for name, events := range d.Events {
			copied := make([]EventData, len(events))
			for i, ev := range events {
				copied[i] = ev.Clone()
			}
			out.Events[name] = copied
		}
	}
	if d.Children != nil {
		out.Children = make(map[string]*ComponentData, len(d.Children))
		for key, child := range d.Children {
			out.Children[key] = child.Clone()
		}
	}
	return out
}

// ToIR converts the data tree into its IRObject form.
func (d *ComponentData) ToIR() IRValue {
	if d == nil {
		return IRNull{}
	}
	obj := IRObject{"values": d.Values}
	if d.Values == nil {
		obj["values"] = IRObject{}
	}
	if d.Events != nil {
		events := make(IRObject, len(d.Events))
		for name, list := range d.Events {
			arr := make(IRArray, len(list))
			for i, ev := range list {
				arr[i] = ev.ToIR()
			}
			events[name] = arr
		}
		obj["events"] = events
	}
	if d.Children != nil {
		children := make(IRObject, len(d.Children))
		for key, child := range d.Children {
			children[key] = child.ToIR()
		}
		obj["children"] = children
	}
	if d.Local != nil {
		obj["local"] = d.Local
	}
	if d.Route != "" {
		obj["route"] = IRString(d.Route)
	}
	return obj
}
