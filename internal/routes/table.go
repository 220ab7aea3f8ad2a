// Package routes builds the navigable route table from view configuration
// and matches URLs against it.
//
// Every view whose layout (or any nested component) declares a route
// contributes a subtree. A view with a nil base route is mounted at the top
// level, an empty base route mounts it under the home route, and a named
// base route mounts it under that child of the home route.
package routes

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/state"
)

var (
	// ErrNoRoute is returned when a URL matches no configured route.
	ErrNoRoute = errors.New("no route matches url")

	// ErrBaseRouteNotFound is returned when a view names a base route the
	// table does not contain.
	ErrBaseRouteNotFound = errors.New("base route not found")
)

// Route is one entry of the route table.
type Route struct {
	Path string
	// View is the configuration the route renders.
	View string
	// ViewRoot marks the route of a view's root layout; nested component
	// routes render only their slice of the view.
	ViewRoot bool
	Children []*Route
	// Data is the response slice for this route, set after each
	// successful synchronization.
	Data *ir.ComponentData
}

// Table is the route table. Safe for concurrent use.
type Table struct {
	mu   sync.RWMutex
	home *Route
	top  []*Route
}

// NewTable returns a table holding only the home route "".
func NewTable() *Table {
	home := &Route{Path: ""}
	return &Table{home: home, top: []*Route{home}}
}

// Configure adds the routes of every view. Top-level views go first, then
// views under the home route, then views under a named base route, each
// group in name order. Each view's routes are placed ahead of earlier ones.
func (t *Table) Configure(configs map[string]*ir.ViewConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := baseRank(configs[names[i]]), baseRank(configs[names[j]])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		cfg := configs[name]
		if cfg == nil || cfg.Layout == nil {
			continue
		}
		routes := buildTree(name, cfg.Layout, cfg.Layout)
		if len(routes) == 0 {
			continue
		}

		switch {
		case cfg.BaseRoute == nil:
			t.top = append(routes, t.top...)
		case *cfg.BaseRoute == "":
			t.home.Children = append(routes, t.home.Children...)
		default:
			base := findByPath(t.home.Children, *cfg.BaseRoute)
			if base == nil {
				return fmt.Errorf("view %q: %w: %q", name, ErrBaseRouteNotFound, *cfg.BaseRoute)
			}
			base.Children = append(routes, base.Children...)
		}
	}
	return nil
}

func baseRank(cfg *ir.ViewConfig) int {
	switch {
	case cfg == nil || cfg.BaseRoute == nil:
		return 0
	case *cfg.BaseRoute == "":
		return 1
	}
	return 2
}

// buildTree collects the routes declared under node. A node with a route
// becomes one Route whose children are the routes found below it; a node
// without one passes its descendants' routes through.
func buildTree(view string, root, node *ir.ComponentConfig) []*Route {
	var children []*Route
	if node.Children != nil {
		keys := make([]string, 0, len(node.Children))
		for key := range node.Children {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if child := node.Children[key]; child != nil {
				children = append(children, buildTree(view, root, child)...)
			}
		}
	}

	if node.Route == "" {
		return children
	}
	return []*Route{{
		Path:     node.Route,
		View:     view,
		ViewRoot: node == root,
		Children: children,
	}}
}

func findByPath(routes []*Route, path string) *Route {
	for _, r := range routes {
		if r.Path == path {
			return r
		}
	}
	return nil
}

// Match resolves url to the chain of matched routes. Query strings and
// fragments are ignored; ":name" route segments capture params.
func (t *Table) Match(url string) (*state.RouteNode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node, ok := matchRoutes(t.top, splitPath(url))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoRoute, url)
	}
	return node, nil
}

func splitPath(url string) []string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	var segs []string
	for _, s := range strings.Split(url, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func matchRoutes(routes []*Route, segs []string) (*state.RouteNode, bool) {
	for _, r := range routes {
		if node, ok := matchRoute(r, segs); ok {
			return node, true
		}
	}
	return nil, false
}

func matchRoute(r *Route, segs []string) (*state.RouteNode, bool) {
	pattern := splitPath(r.Path)
	if len(pattern) > len(segs) {
		return nil, false
	}
	params := map[string]string{}
	for i, p := range pattern {
		if name, ok := strings.CutPrefix(p, ":"); ok {
			params[name] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}

	node := &state.RouteNode{Path: r.Path, Params: params}
	rest := segs[len(pattern):]
	if len(r.Children) > 0 {
		if child, ok := matchRoutes(r.Children, rest); ok {
			node.Children = []*state.RouteNode{child}
			return node, true
		}
	}
	if len(rest) == 0 {
		return node, true
	}
	return nil, false
}

// ConfigureRouteData attaches each returned view's child data to the
// child routes it declares.
func (t *Table) ConfigureRouteData(views map[ir.ViewID]*ir.ComponentData) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]ir.ViewID, 0, len(views))
	for id := range views {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		data := views[id]
		if data == nil || data.Route == "" {
			continue
		}
		configureChildren(data, findViewRoute(t.top, data.Route))
	}
}

func findViewRoute(routes []*Route, path string) *Route {
	for _, r := range routes {
		if r.ViewRoot && r.Path == path {
			return r
		}
		if found := findViewRoute(r.Children, path); found != nil {
			return found
		}
	}
	return nil
}

func configureChildren(data *ir.ComponentData, route *Route) {
	if route == nil || len(route.Children) == 0 || len(data.Children) == 0 {
		return
	}
	for _, child := range data.Children {
		if child == nil {
			continue
		}
		childRoute := route
		if child.Route != "" {
			childRoute = findByPath(route.Children, child.Route)
			if childRoute == nil {
				continue
			}
			childRoute.Data = child
		}
		if child.Children != nil {
			configureChildren(child, childRoute)
		}
	}
}

// DataFor returns the response slice of the deepest route matching url
// that has one.
func (t *Table) DataFor(url string) *ir.ComponentData {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var data *ir.ComponentData
	routes := t.top
	segs := splitPath(url)
	for {
		var next *Route
		for _, r := range routes {
			if _, ok := matchRoute(r, segs); ok {
				next = r
				break
			}
		}
		if next == nil {
			return data
		}
		if next.Data != nil {
			data = next.Data
		}
		segs = segs[len(splitPath(next.Path)):]
		routes = next.Children
	}
}

// Routes returns the top-level routes. Callers must not modify them.
func (t *Table) Routes() []*Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.top)
}
