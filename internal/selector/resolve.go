package selector

import (
	"log/slog"

	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/state"
)

// Me is the placeholder that resolves to the logged-in user's id.
const Me = "$me"

// NoView is passed when a selector is resolved outside any view instance,
// for example while rewriting a navigation URL.
const NoView ir.ViewID = -1

// Scope names understood by scope selectors.
const (
	ScopeRoute  = "route"
	ScopeGlobal = "global"
	ScopeView   = "view"
	ScopeLocal  = "local"
)

// Resolve turns a declarative placeholder into a concrete value using the
// given snapshot. It is pure: nothing in snap or data is modified.
//
//   - "$me" yields the logged-in user id, or null without a session
//   - {model, id, attribute} projects attribute out of the cached record;
//     a missing model or record is logged and the projection runs against
//     undefined
//   - {scope, select} reads the route, global, view or local scope; when
//     that yields null or undefined the placeholder is returned unchanged
//   - {default: v} yields v
//   - anything else is returned unchanged
func Resolve(snap *state.Snapshot, viewID ir.ViewID, data *ir.ComponentData, v ir.IRValue) ir.IRValue {
	switch val := v.(type) {
	case ir.IRString:
		if val == Me {
			return me(snap)
		}
		return v
	case ir.IRObject:
		switch {
		case ir.IsModelSelect(val):
			return resolveModel(snap, val)
		case ir.IsScopeSelect(val):
			selected := resolveScope(snap, viewID, data, val)
			if ir.IsNullish(selected) {
				return v
			}
			return selected
		}
		if def, ok := val["default"]; ok {
			return def
		}
	}
	return v
}

// IsUnresolved reports whether resolved still carries a placeholder that
// Resolve could not satisfy.
func IsUnresolved(resolved ir.IRValue) bool {
	obj, ok := resolved.(ir.IRObject)
	return ok && ir.IsScopeSelect(obj)
}

func me(snap *state.Snapshot) ir.IRValue {
	if snap == nil || snap.LoggedUser == nil {
		return ir.IRNull{}
	}
	return ir.IRInt(snap.LoggedUser.ID)
}

func resolveModel(snap *state.Snapshot, sel ir.IRObject) ir.IRValue {
	model := ir.String(sel["model"])
	id := ir.String(sel["id"])
	attribute := ir.String(sel["attribute"])

	var models ir.ModelState
	if snap != nil {
		models = snap.Models
	}
	record, hasModel, hasRecord := models.Record(model, id)
	if !hasModel {
		slog.Error("model not found in cache", "model", model, "id", id, "attribute", attribute)
	} else if !hasRecord {
		slog.Error("record not found in cache", "model", model, "id", id, "attribute", attribute)
	}

	path, err := ir.ParsePath(attribute)
	if err != nil {
		slog.Error("invalid attribute path", "model", model, "id", id, "attribute", attribute, "error", err)
		return nil
	}
	return path.Lookup(record)
}

func resolveScope(snap *state.Snapshot, viewID ir.ViewID, data *ir.ComponentData, sel ir.IRObject) ir.IRValue {
	scope, _ := sel["scope"].(ir.IRString)
	name := ir.String(sel["select"])
	if snap == nil {
		return nil
	}

	switch string(scope) {
	case ScopeRoute:
		params := FlattenRouteParams(snap.Route)
		value, ok := params[name]
		if !ok {
			return nil
		}
		return ir.IRString(value)
	case ScopeGlobal:
		return snap.Globals[name]
	case ScopeView:
		inst := snap.View(viewID)
		if inst == nil {
			return nil
		}
		return inst.Variables[name]
	case ScopeLocal:
		if data == nil || data.Local == nil {
			return ir.IRNull{}
		}
		value, ok := data.Local[name]
		if !ok {
			return ir.IRNull{}
		}
		return value
	default:
		slog.Warn("unknown selector scope, leaving placeholder unresolved",
			"scope", ir.String(sel["scope"]),
			"select", name,
			"view_id", viewID,
		)
		return nil
	}
}

// FlattenRouteParams merges the params of every node of the active route
// tree into one map. Parents are applied first, then children in order,
// so the deepest and last-declared value wins.
func FlattenRouteParams(root *state.RouteNode) map[string]string {
	out := map[string]string{}
	var walk func(n *state.RouteNode)
	walk = func(n *state.RouteNode) {
		if n == nil {
			return
		}
		for k, v := range n.Params {
			out[k] = v
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}
