package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/presenter/internal/ir"
)

func TestResolveTree(t *testing.T) {
	snap := testSnapshot()
	data := &ir.ComponentData{
		Values: ir.IRObject{
			"title":  modelSelect("user", ir.IRString("7"), "name"),
			"labels": ir.Arr(scopeSelect(ScopeGlobal, "theme"), ir.IRString("fixed")),
		},
		Events: map[string][]ir.EventData{
			"click": {{
				Action: "update",
				Params: ir.IRObject{
					"model":  ir.IRString("user"),
					"params": ir.IRObject{"ownerId": ir.IRString(Me)},
					"where":  ir.IRObject{"id": scopeSelect(ScopeRoute, "id")},
				},
			}},
		},
		Children: map[string]*ir.ComponentData{
			"body": {Values: ir.IRObject{"city": modelSelect("user", ir.IRString("7"), "address.city")}},
		},
	}
	original := data.Clone()

	out := ResolveTree(snap, NoView, data)
	require.NotNil(t, out)

	assert.Equal(t, ir.IRString("Alice"), out.Values["title"])
	assert.Equal(t, ir.Arr(ir.IRString("dark"), ir.IRString("fixed")), out.Values["labels"])
	assert.Equal(t, ir.IRInt(7), out.Values[Me])

	params := out.Events["click"][0].Params
	assert.Equal(t, ir.IRObject{"ownerId": ir.IRInt(7)}, params["params"])
	assert.Equal(t, ir.IRObject{"id": ir.IRString("42")}, params["where"])
	assert.Equal(t, ir.IRString("user"), params["model"])

	assert.Equal(t, ir.IRString("Lyon"), out.Children["body"].Values["city"])
	assert.Equal(t, ir.IRInt(7), out.Children["body"].Values[Me])

	assert.True(t, ir.Equal(original.ToIR(), data.ToIR()), "input tree must not be modified")
}

func TestResolveTreeScalarParams(t *testing.T) {
	snap := testSnapshot()
	data := &ir.ComponentData{
		Events: map[string][]ir.EventData{
			"select": {{Action: "set-variable", Params: ir.IRObject{"params": scopeSelect(ScopeRoute, "id")}}},
			"noop":   {{Action: "navigate"}},
		},
	}

	out := ResolveTree(snap, NoView, data)
	assert.Equal(t, ir.IRString("42"), out.Events["select"][0].Params["params"])
	assert.Nil(t, out.Events["noop"][0].Params)
}

func TestResolveTreeKeepsUnresolvedNestedParams(t *testing.T) {
	snap := testSnapshot()
	unresolved := scopeSelect(ScopeRoute, "slug")
	data := &ir.ComponentData{
		Events: map[string][]ir.EventData{
			"go": {{Action: "update", Params: ir.IRObject{"where": unresolved}}},
		},
	}

	out := ResolveTree(snap, NoView, data)
	assert.Equal(t, unresolved, out.Events["go"][0].Params["where"])
}

func TestResolveTreeNil(t *testing.T) {
	assert.Nil(t, ResolveTree(testSnapshot(), NoView, nil))
}

func TestResolveTreeMeWithoutSession(t *testing.T) {
	snap := testSnapshot()
	snap.LoggedUser = nil
	out := ResolveTree(snap, NoView, &ir.ComponentData{})
	assert.Equal(t, ir.IRNull{}, out.Values[Me])
}
