// Package testutil holds fakes shared by package tests and the scenario
// harness.
package testutil

import (
	"context"
	"sync"

	"github.com/roach88/presenter/internal/ir"
)

// Reply is one scripted answer to a state request.
type Reply struct {
	Response *ir.StateResponse
	Err      error
}

// ScriptedBackend answers state requests from a script, in order. Once the
// script runs out every requested view gets an empty response.
//
// Thread-safety: ScriptedBackend is safe for concurrent use.
type ScriptedBackend struct {
	mu sync.Mutex

	Config    map[string]*ir.ViewConfig
	ConfigErr error

	LoginResponse *ir.LoginResponse
	LoginErr      error
	MeID          int64

	replies  []Reply
	requests []*ir.StateRequest
	logins   []ir.LoginRequest
}

// NewScriptedBackend creates a backend serving config and replying with
// replies in order.
func NewScriptedBackend(config map[string]*ir.ViewConfig, replies ...Reply) *ScriptedBackend {
	return &ScriptedBackend{Config: config, replies: replies}
}

// Script appends replies to the script.
func (b *ScriptedBackend) Script(replies ...Reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies = append(b.replies, replies...)
}

func (b *ScriptedBackend) Login(_ context.Context, req ir.LoginRequest) (*ir.LoginResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logins = append(b.logins, req)
	if b.LoginErr != nil {
		return nil, b.LoginErr
	}
	return b.LoginResponse, nil
}

func (b *ScriptedBackend) Me(context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.MeID, nil
}

func (b *ScriptedBackend) LoadViewConfig(context.Context) (map[string]*ir.ViewConfig, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ConfigErr != nil {
		return nil, b.ConfigErr
	}
	return b.Config, nil
}

func (b *ScriptedBackend) RequestState(_ context.Context, req *ir.StateRequest) (*ir.StateResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)

	if len(b.replies) == 0 {
		return EmptyResponse(req), nil
	}
	reply := b.replies[0]
	b.replies = b.replies[1:]
	return reply.Response, reply.Err
}

// Requests returns every state request received, in order.
func (b *ScriptedBackend) Requests() []*ir.StateRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*ir.StateRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// Logins returns every login request received, in order.
func (b *ScriptedBackend) Logins() []ir.LoginRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ir.LoginRequest, len(b.logins))
	copy(out, b.logins)
	return out
}

// Remaining reports how many scripted replies are unused.
func (b *ScriptedBackend) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.replies)
}

// EmptyResponse answers every view of req with empty values.
func EmptyResponse(req *ir.StateRequest) *ir.StateResponse {
	resp := &ir.StateResponse{Views: make(map[ir.ViewID]*ir.ComponentData, len(req.Views))}
	for id := range req.Views {
		resp.Views[id] = &ir.ComponentData{Values: ir.IRObject{}}
	}
	return resp
}
