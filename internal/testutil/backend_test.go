package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/presenter/internal/ir"
)

func TestScriptedBackend_RepliesInOrder(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	first := &ir.StateResponse{Views: map[ir.ViewID]*ir.ComponentData{0: {Values: ir.IRObject{"n": ir.IRInt(1)}}}}
	be := NewScriptedBackend(nil, Reply{Response: first}, Reply{Err: boom})

	req := &ir.StateRequest{Views: map[ir.ViewID]*ir.ViewRequest{0: {View: "home"}}}

	got, err := be.RequestState(ctx, req)
	require.NoError(t, err)
	assert.Same(t, first, got)

	_, err = be.RequestState(ctx, req)
	assert.ErrorIs(t, err, boom)

	got, err = be.RequestState(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{}, got.Views[0].Values, "exhausted script answers with empty views")

	assert.Len(t, be.Requests(), 3)
	assert.Equal(t, 0, be.Remaining())
}

func TestScriptedBackend_Login(t *testing.T) {
	ctx := context.Background()
	be := NewScriptedBackend(nil)
	be.LoginResponse = &ir.LoginResponse{AccessToken: "tok"}
	be.MeID = 5

	resp, err := be.Login(ctx, ir.LoginRequest{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)

	id, err := be.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, []ir.LoginRequest{{Username: "alice"}}, be.Logins())
}

func TestScriptedBackend_Config(t *testing.T) {
	cfg := map[string]*ir.ViewConfig{"home": {View: "home"}}
	be := NewScriptedBackend(cfg)

	got, err := be.LoadViewConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	be.ConfigErr = errors.New("down")
	_, err = be.LoadViewConfig(context.Background())
	assert.Error(t, err)
}
