package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/state"
)

func testSnapshot() *state.Snapshot {
	return &state.Snapshot{
		Views: map[ir.ViewID]*state.ViewInstance{
			3: {ID: 3, View: "profile", Variables: ir.IRObject{"tab": ir.IRString("posts")}},
		},
		Models: ir.ModelState{
			"user": ir.IRObject{
				"7": ir.Obj(
					ir.O("name", ir.IRString("Alice")),
					ir.O("address", ir.Obj(ir.O("city", ir.IRString("Lyon")))),
					ir.O("tags", ir.Arr(ir.IRString("admin"), ir.IRString("ops"))),
				),
			},
		},
		LoggedUser: &state.User{ID: 7},
		Globals:    ir.IRObject{"theme": ir.IRString("dark"), "cleared": ir.IRNull{}},
		Route: &state.RouteNode{
			Path:   "users",
			Params: map[string]string{"id": "1", "section": "root"},
			Children: []*state.RouteNode{
				{Path: ":id", Params: map[string]string{"id": "42"}},
			},
		},
	}
}

func modelSelect(model string, id ir.IRValue, attribute string) ir.IRObject {
	return ir.Obj(ir.O("model", ir.IRString(model)), ir.O("id", id), ir.O("attribute", ir.IRString(attribute)))
}

func scopeSelect(scope, name string) ir.IRObject {
	return ir.Obj(ir.O("scope", ir.IRString(scope)), ir.O("select", ir.IRString(name)))
}

func TestResolveModelSelect(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name string
		sel  ir.IRObject
		want ir.IRValue
	}{
		{"plain attribute", modelSelect("user", ir.IRString("7"), "name"), ir.IRString("Alice")},
		{"numeric id", modelSelect("user", ir.IRInt(7), "name"), ir.IRString("Alice")},
		{"dotted path", modelSelect("user", ir.IRString("7"), "address.city"), ir.IRString("Lyon")},
		{"bracket path", modelSelect("user", ir.IRString("7"), "tags[1]"), ir.IRString("ops")},
		{"missing attribute", modelSelect("user", ir.IRString("7"), "email"), nil},
		{"missing record", modelSelect("user", ir.IRString("8"), "name"), nil},
		{"missing model", modelSelect("post", ir.IRString("1"), "title"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(snap, NoView, nil, tt.sel)
			assert.True(t, ir.Equal(tt.want, got), "got %s", ir.String(got))
		})
	}
}

func TestResolveMe(t *testing.T) {
	snap := testSnapshot()
	assert.Equal(t, ir.IRInt(7), Resolve(snap, NoView, nil, ir.IRString(Me)))

	snap.LoggedUser = nil
	assert.Equal(t, ir.IRNull{}, Resolve(snap, NoView, nil, ir.IRString(Me)))
}

func TestResolveScopes(t *testing.T) {
	snap := testSnapshot()
	data := &ir.ComponentData{Local: ir.IRObject{"row": ir.IRInt(5)}}

	tests := []struct {
		name   string
		viewID ir.ViewID
		sel    ir.IRObject
		want   ir.IRValue
	}{
		{"route deepest wins", NoView, scopeSelect(ScopeRoute, "id"), ir.IRString("42")},
		{"route from parent", NoView, scopeSelect(ScopeRoute, "section"), ir.IRString("root")},
		{"global", NoView, scopeSelect(ScopeGlobal, "theme"), ir.IRString("dark")},
		{"view", 3, scopeSelect(ScopeView, "tab"), ir.IRString("posts")},
		{"local", NoView, scopeSelect(ScopeLocal, "row"), ir.IRInt(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(snap, tt.viewID, data, tt.sel))
		})
	}
}

func TestResolveUnresolvedScopeKeepsPlaceholder(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name   string
		viewID ir.ViewID
		sel    ir.IRObject
	}{
		{"missing route param", NoView, scopeSelect(ScopeRoute, "slug")},
		{"null global", NoView, scopeSelect(ScopeGlobal, "cleared")},
		{"destroyed view", 99, scopeSelect(ScopeView, "tab")},
		{"no local scope", NoView, scopeSelect(ScopeLocal, "row")},
		{"unknown scope", NoView, scopeSelect("session", "token")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(snap, tt.viewID, nil, tt.sel)
			assert.Equal(t, tt.sel, got)
			assert.True(t, IsUnresolved(got))
		})
	}
}

func TestResolveDefaultAndLiterals(t *testing.T) {
	snap := testSnapshot()

	assert.Equal(t, ir.IRInt(10), Resolve(snap, NoView, nil, ir.Obj(ir.O("default", ir.IRInt(10)))))
	assert.Equal(t, ir.IRString("hello"), Resolve(snap, NoView, nil, ir.IRString("hello")))
	assert.Equal(t, ir.IRBool(true), Resolve(snap, NoView, nil, ir.IRBool(true)))
	assert.Nil(t, Resolve(snap, NoView, nil, nil))

	plain := ir.Obj(ir.O("label", ir.IRString("x")))
	assert.Equal(t, plain, Resolve(snap, NoView, nil, plain))
}

func TestResolveIsIdempotent(t *testing.T) {
	snap := testSnapshot()
	inputs := []ir.IRValue{
		ir.IRString(Me),
		modelSelect("user", ir.IRString("7"), "name"),
		scopeSelect(ScopeRoute, "id"),
		scopeSelect(ScopeRoute, "slug"),
		ir.Obj(ir.O("default", ir.IRString("x"))),
	}
	for _, in := range inputs {
		first := Resolve(snap, NoView, nil, in)
		second := Resolve(snap, NoView, nil, first)
		assert.True(t, ir.Equal(first, second), "input %s", ir.String(in))
	}
}

func TestResolveNilSnapshot(t *testing.T) {
	assert.Equal(t, ir.IRNull{}, Resolve(nil, NoView, nil, ir.IRString(Me)))
	sel := scopeSelect(ScopeGlobal, "theme")
	assert.Equal(t, sel, Resolve(nil, NoView, nil, sel))
	assert.Nil(t, Resolve(nil, NoView, nil, modelSelect("user", ir.IRString("7"), "name")))
}

func TestFlattenRouteParams(t *testing.T) {
	root := &state.RouteNode{
		Params: map[string]string{"a": "root", "b": "root"},
		Children: []*state.RouteNode{
			{Params: map[string]string{"a": "first"}},
			{Params: map[string]string{"a": "second", "c": "second"}, Children: []*state.RouteNode{
				{Params: map[string]string{"c": "leaf"}},
			}},
		},
	}
	got := FlattenRouteParams(root)
	require.Len(t, got, 3)
	assert.Equal(t, map[string]string{"a": "second", "b": "root", "c": "leaf"}, got)
	assert.Empty(t, FlattenRouteParams(nil))
}
