package selector

import (
	"strings"

	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/state"
)

// RewriteURL resolves the selector segments of a navigation target.
//
// A segment is a selector when it contains ':'. Its parts are the
// non-empty pieces between colons. A single part without '=' is a bare
// selector string, so ":$me" becomes the user id and ":users" becomes
// "users". Otherwise every part is a key=value pair and the parts form one
// selector object, so ":scope=route:select=id" reads the route param id.
//
// Segments whose selector stays unresolved are kept verbatim. The second
// result reports whether any segment changed.
func RewriteURL(snap *state.Snapshot, url string) (string, bool) {
	fragments := strings.Split(url, "/")
	changed := false
	for i, fragment := range fragments {
		if !strings.Contains(fragment, ":") {
			continue
		}
		sel := parseSegment(fragment)
		if sel == nil {
			continue
		}
		resolved := Resolve(snap, NoView, nil, sel)
		if ir.IsNullish(resolved) || IsUnresolved(resolved) {
			continue
		}
		if _, isObj := resolved.(ir.IRObject); isObj {
			continue
		}
		rendered := ir.String(resolved)
		if rendered != fragment {
			fragments[i] = rendered
			changed = true
		}
	}
	return strings.Join(fragments, "/"), changed
}

func parseSegment(fragment string) ir.IRValue {
	var parts []string
	for _, p := range strings.Split(fragment, ":") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	switch {
	case len(parts) == 0:
		return nil
	case len(parts) == 1 && !strings.Contains(parts[0], "="):
		return ir.IRString(parts[0])
	}

	sel := make(ir.IRObject, len(parts))
	for _, p := range parts {
		key, value, found := strings.Cut(p, "=")
		if !found {
			sel[key] = ir.IRNull{}
			continue
		}
		sel[key] = ir.IRString(value)
	}
	return sel
}
