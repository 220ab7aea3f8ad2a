package request

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/selector"
	"github.com/roach88/presenter/internal/state"
)

var (
	// ErrConfigNotLoaded is returned when no view configuration has been
	// received yet.
	ErrConfigNotLoaded = errors.New("view configuration not loaded")

	// ErrViewNotFound is returned for an id with no live instance.
	ErrViewNotFound = errors.New("view instance not found")

	// ErrViewConfigNotFound is returned when the instance names a view the
	// configuration does not declare.
	ErrViewConfigNotFound = errors.New("view config not found")
)

// BuildRequest builds the request for view instance viewID. data is the
// instance's current response, or nil on first load; its children are
// passed down alongside the matching config children.
func BuildRequest(snap *state.Snapshot, viewID ir.ViewID, data *ir.ComponentData) (*ir.ViewRequest, error) {
	if !snap.ConfigLoaded() {
		return nil, ErrConfigNotLoaded
	}
	inst := snap.View(viewID)
	if inst == nil {
		return nil, fmt.Errorf("view %d: %w", viewID, ErrViewNotFound)
	}
	cfg := snap.Config[inst.View]
	if cfg == nil {
		return nil, fmt.Errorf("view %q: %w", inst.View, ErrViewConfigNotFound)
	}
	return &ir.ViewRequest{
		View:   inst.View,
		Layout: BuildComponentRequest(snap, viewID, cfg.Layout, data),
	}, nil
}

// BuildComponentRequest mirrors one config node. A layout node (non-nil
// Children) yields a request with a child for every config child, at every
// depth, whether or not data has a matching child.
func BuildComponentRequest(snap *state.Snapshot, viewID ir.ViewID, cfg *ir.ComponentConfig, data *ir.ComponentData) *ir.ComponentRequest {
	req := &ir.ComponentRequest{Params: map[string]ir.IRObject{}}
	if cfg == nil {
		return req
	}

	for name, value := range cfg.Values {
		if value.Kind != ir.ValueQuery || !value.Query.HasInputs() {
			continue
		}
		params := make(ir.IRObject, len(value.Query.Inputs))
		for _, input := range value.Query.Inputs {
			params[input.Name] = selector.Resolve(snap, viewID, data, input.SelectFrom)
		}
		req.Params[name] = params
	}

	if cfg.Children != nil {
		req.Children = make(map[string]*ir.ComponentRequest, len(cfg.Children))
		for key, child := range cfg.Children {
			req.Children[key] = BuildComponentRequest(snap, viewID, child, data.Child(key))
		}
	}
	return req
}

// Batch is one synchronization cycle's request together with the side
// effects lifted out of its actions.
type Batch struct {
	Request *ir.StateRequest
	// ViewIDs lists the views included in Request, ascending.
	ViewIDs []ir.ViewID
	// SuccessActions are dispatched, in order, once the batch succeeds.
	SuccessActions []ir.EventData
	// ErrorMessages are shown, in order, if the batch fails.
	ErrorMessages []string
}

// BuildViewsRequest assembles the combined request from every live view's
// last built request and the drained actions. Views that have not built a
// request yet are left out. The wire copies of the actions carry no
// success actions or error message; those are returned on the Batch so
// they fire at most once. drained itself is not modified.
func BuildViewsRequest(snap *state.Snapshot, drained []*ir.ActionRequest) *Batch {
	batch := &Batch{
		Request: &ir.StateRequest{
			Views:   map[ir.ViewID]*ir.ViewRequest{},
			Actions: make([]*ir.ActionRequest, 0, len(drained)),
		},
	}

	for _, inst := range snap.LiveViews() {
		if inst.Request == nil {
			continue
		}
		batch.Request.Views[inst.ID] = inst.Request
		batch.ViewIDs = append(batch.ViewIDs, inst.ID)
	}
	slices.Sort(batch.ViewIDs)

	for _, action := range drained {
		wire := action.Clone()
		batch.SuccessActions = append(batch.SuccessActions, wire.SuccessActions...)
		if wire.ErrorMessage != "" {
			batch.ErrorMessages = append(batch.ErrorMessages, wire.ErrorMessage)
		}
		wire.SuccessActions = nil
		wire.ErrorMessage = ""
		batch.Request.Actions = append(batch.Request.Actions, wire)
	}
	return batch
}
