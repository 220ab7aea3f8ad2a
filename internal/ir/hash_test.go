package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() *StateRequest {
	return &StateRequest{
		Views: map[ViewID]*ViewRequest{
			0: {View: "dashboard", Layout: &ComponentRequest{Params: map[string]IRObject{}}},
		},
		Actions: []*ActionRequest{},
	}
}

func TestRequestHashDeterminism(t *testing.T) {
	h1, err := RequestHash(sampleRequest())
	require.NoError(t, err)
	h2, err := RequestHash(sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestRequestHashChangesWithContent(t *testing.T) {
	base := sampleRequest()
	other := sampleRequest()
	other.Actions = append(other.Actions, &ActionRequest{Action: ActionCreate, Model: "todo"})

	h1, err := RequestHash(base)
	require.NoError(t, err)
	h2, err := RequestHash(other)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainRequest, data), hashWithDomain(DomainResponse, data))
}

func TestResponseHash(t *testing.T) {
	resp := &StateResponse{
		Views:  map[ViewID]*ComponentData{0: {Values: IRObject{"title": IRString("Hi")}}},
		Models: ModelState{"user": IRObject{"7": IRObject{"name": IRString("Alice")}}},
	}
	h, err := ResponseHash(resp)
	require.NoError(t, err)
	assert.Len(t, h, 64)
}
