package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dashboardConfigJSON = `{
  "view": "dashboard",
  "capabilities": [1],
  "layout": {
    "type": "column",
    "values": {"title": "Dashboard"},
    "children": {
      "header": {
        "type": "text",
        "values": {
          "label": {"default": "Welcome"},
          "user": {"scope": "global", "select": "currentUser"}
        }
      },
      "orders": {
        "type": "table",
        "route": "orders",
        "values": {
          "rows": {"query": {
            "model": "order",
            "function": "list",
            "inputs": [
              {"name": "owner", "op": "eq", "selectFrom": "$me"},
              {"name": "status", "op": "eq", "selectFrom": {"scope": "route", "select": "status"}}
            ],
            "build": {"orderBy": "createdAt", "take": 20}
          }}
        },
        "events": {"select": [{"action": "navigate", "params": {"route": "/orders"}}]}
      }
    }
  }
}`

func TestViewConfigUnmarshal(t *testing.T) {
	var cfg ViewConfig
	require.NoError(t, json.Unmarshal([]byte(dashboardConfigJSON), &cfg))

	assert.Equal(t, "dashboard", cfg.View)
	assert.True(t, cfg.IsPrivate())
	assert.Nil(t, cfg.BaseRoute)
	require.True(t, cfg.Layout.IsLayout())

	header := cfg.Layout.Children["header"]
	assert.False(t, header.IsLayout())
	assert.Equal(t, ValueDefault, header.Values["label"].Kind)
	assert.Equal(t, ValueScopeSelect, header.Values["user"].Kind)
	assert.Equal(t, ValueLiteral, cfg.Layout.Values["title"].Kind)

	orders := cfg.Layout.Children["orders"]
	rows := orders.Values["rows"]
	require.Equal(t, ValueQuery, rows.Kind)
	require.True(t, rows.Query.HasInputs())
	assert.Equal(t, "order", rows.Query.Model)
	assert.Equal(t, IRString("$me"), rows.Query.Inputs[0].SelectFrom)
	assert.Equal(t, IRObject{"scope": IRString("route"), "select": IRString("status")}, rows.Query.Inputs[1].SelectFrom)
	assert.Equal(t, int64(20), rows.Query.Build.Take)
	assert.Equal(t, "navigate", orders.Events["select"][0].Action)
}

func TestViewConfigRoundTrip(t *testing.T) {
	var cfg ViewConfig
	require.NoError(t, json.Unmarshal([]byte(dashboardConfigJSON), &cfg))

	data, err := json.Marshal(&cfg)
	require.NoError(t, err)

	var again ViewConfig
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, cfg.Layout.Children["orders"].Values["rows"].Query, again.Layout.Children["orders"].Values["rows"].Query)
}

func TestQueryInputsEmptyVersusAbsent(t *testing.T) {
	var empty, absent ValueConfig
	require.NoError(t, json.Unmarshal([]byte(`{"query": {"model": "x", "inputs": []}}`), &empty))
	require.NoError(t, json.Unmarshal([]byte(`{"query": {"model": "x"}}`), &absent))

	assert.True(t, empty.Query.HasInputs())
	assert.False(t, absent.Query.HasInputs())
}

func TestClassifyValue(t *testing.T) {
	assert.Equal(t, ValueLiteral, ClassifyValue(IRString("x")))
	assert.Equal(t, ValueLiteral, ClassifyValue(IRInt(1)))
	assert.Equal(t, ValueModelSelect, ClassifyValue(IRObject{"model": IRString("u"), "id": IRString("1"), "attribute": IRString("n")}))
	assert.Equal(t, ValueOther, ClassifyValue(IRObject{"unknown": IRInt(1)}))
}

func TestCapabilityNames(t *testing.T) {
	var caps []Capability
	require.NoError(t, json.Unmarshal([]byte(`["public", 1, "PRIVATE"]`), &caps))
	assert.Equal(t, []Capability{CapabilityPublic, CapabilityPrivate, CapabilityPrivate}, caps)

	var bad Capability
	assert.Error(t, json.Unmarshal([]byte(`"admin"`), &bad))
}

func TestStateRequestJSON(t *testing.T) {
	req := &StateRequest{
		Views: map[ViewID]*ViewRequest{
			3: {View: "dashboard", Layout: &ComponentRequest{Params: map[string]IRObject{"rows": {"owner": IRInt(7)}}}},
		},
		Actions: []*ActionRequest{},
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"views":{"3":{"view":"dashboard","layout":{"params":{"rows":{"owner":7}}}}},"actions":[]}`, string(data))
}

func TestStateResponseJSON(t *testing.T) {
	var resp StateResponse
	err := json.Unmarshal([]byte(`{
		"views": {"0": {"values": {"title": "Hi"}, "children": {"a": {"values": {}}}}},
		"models": {"user": {"7": {"name": "Alice"}}}
	}`), &resp)
	require.NoError(t, err)

	require.Contains(t, resp.Views, ViewID(0))
	assert.Equal(t, IRString("Hi"), resp.Views[0].Values["title"])
	assert.NotNil(t, resp.Views[0].Child("a"))
	assert.Equal(t, IRObject{"name": IRString("Alice")}, resp.Models["user"]["7"])
}

func TestActionRequestClone(t *testing.T) {
	orig := &ActionRequest{
		Action:         ActionUpdate,
		Model:          "todo",
		Params:         IRObject{"done": IRBool(true)},
		SuccessActions: []EventData{{Action: "navigate", Params: IRObject{"route": IRString("/")}}},
	}
	cp := orig.Clone()
	cp.Params["done"] = IRBool(false)
	cp.SuccessActions[0].Params["route"] = IRString("/x")

	assert.Equal(t, IRBool(true), orig.Params["done"])
	assert.Equal(t, IRString("/"), orig.SuccessActions[0].Params["route"])
}

func TestActionKindValidate(t *testing.T) {
	assert.NoError(t, ActionCreate.Validate())
	assert.Error(t, ActionKind("upsert").Validate())
}
