package selector

import (
	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/state"
)

// Reserved event param keys whose entries are resolved one level deeper.
const (
	paramsKey = "params"
	whereKey  = "where"
)

// ResolveTree returns a copy of data with every placeholder resolved
// against snap: all values (list values element by element), the implicit
// "$me" slot, and every event's params including the nested "params" and
// "where" objects. The input tree is left untouched, so a stored response
// can be re-resolved whenever the snapshot changes.
func ResolveTree(snap *state.Snapshot, viewID ir.ViewID, data *ir.ComponentData) *ir.ComponentData {
	if data == nil {
		return nil
	}

	out := &ir.ComponentData{
		Local: data.Local,
		Route: data.Route,
	}

	if data.Children != nil {
		out.Children = make(map[string]*ir.ComponentData, len(data.Children))
		for key, child := range data.Children {
			out.Children[key] = ResolveTree(snap, viewID, child)
		}
	}

	out.Values = make(ir.IRObject, len(data.Values)+1)
	for key, value := range data.Values {
		if list, ok := value.(ir.IRArray); ok {
			resolved := make(ir.IRArray, len(list))
			for i, elem := range list {
				resolved[i] = Resolve(snap, viewID, data, elem)
			}
			out.Values[key] = resolved
			continue
		}
		out.Values[key] = Resolve(snap, viewID, data, value)
	}
	out.Values[Me] = Resolve(snap, viewID, data, ir.IRString(Me))

	if data.Events != nil {
		out.Events = make(map[string][]ir.EventData, len(data.Events))
		for name, events := range data.Events {
			resolved := make([]ir.EventData, len(events))
			for i, ev := range events {
				resolved[i] = resolveEvent(snap, viewID, data, ev)
			}
			out.Events[name] = resolved
		}
	}

	return out
}

func resolveEvent(snap *state.Snapshot, viewID ir.ViewID, data *ir.ComponentData, ev ir.EventData) ir.EventData {
	out := ir.EventData{Action: ev.Action, Bubble: ev.Bubble}
	if ev.Params == nil {
		return out
	}

	out.Params = make(ir.IRObject, len(ev.Params))
	for key, value := range ev.Params {
		resolved := Resolve(snap, viewID, data, value)
		switch key {
		case paramsKey, whereKey:
			if nested, ok := resolved.(ir.IRObject); ok && !isPlaceholder(nested) {
				resolved = resolveEntries(snap, viewID, data, nested)
			}
		}
		out.Params[key] = resolved
	}
	return out
}

func resolveEntries(snap *state.Snapshot, viewID ir.ViewID, data *ir.ComponentData, obj ir.IRObject) ir.IRObject {
	out := make(ir.IRObject, len(obj))
	for k, v := range obj {
		out[k] = Resolve(snap, viewID, data, v)
	}
	return out
}

// isPlaceholder reports whether obj is itself a selector that Resolve
// left in place, in which case its fields must not be resolved one by one.
func isPlaceholder(obj ir.IRObject) bool {
	return ir.IsScopeSelect(obj) || ir.IsModelSelect(obj)
}
