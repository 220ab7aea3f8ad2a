package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/notify"
)

func newLoginAction(params ir.IRObject) (Action, error) {
	username, ok := stringParam(params, "username")
	if !ok {
		username, ok = stringParam(params, "name")
	}
	if !ok || username == "" {
		return nil, errors.New("username is required")
	}
	password, _ := stringParam(params, "password")
	redirect, _ := stringParam(params, "redirectUrl")
	return LoginAction{Request: ir.LoginRequest{
		Username:    username,
		Password:    password,
		RedirectURL: redirect,
	}}, nil
}

func newLogoutAction(ir.IRObject) (Action, error) {
	return LogoutAction{}, nil
}

func newModelAction(params ir.IRObject) (Action, error) {
	req, err := ParseActionRequest(params)
	if err != nil {
		return nil, err
	}
	return ModelAction{Request: req}, nil
}

func newSetVariable(params ir.IRObject) (Action, error) {
	name, ok := stringParam(params, "name")
	if !ok || name == "" {
		return nil, errors.New("name is required")
	}
	value, ok := params["value"]
	if !ok || value == nil {
		value = ir.IRNull{}
	}
	action := SetVariable{Name: name, Value: value}
	for _, key := range []string{"viewName", "viewId"} {
		raw, present := params[key]
		if !present || ir.IsNullish(raw) {
			continue
		}
		id, err := intValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		viewID := ir.ViewID(id)
		action.ViewID = &viewID
		break
	}
	return action, nil
}

func newNavigateRoute(params ir.IRObject) (Action, error) {
	route, ok := stringParam(params, "route")
	if !ok {
		route, ok = stringParam(params, "url")
	}
	if !ok || route == "" {
		return nil, errors.New("route is required")
	}
	return NavigateRoute{Route: route}, nil
}

func newShowNotification(params ir.IRObject) (Action, error) {
	message, ok := stringParam(params, "message")
	if !ok || message == "" {
		return nil, errors.New("message is required")
	}
	n := notify.Notification{Message: message}

	if raw, present := params["duration"]; present && !ir.IsNullish(raw) {
		ms, err := intValue(raw)
		if err != nil {
			return nil, fmt.Errorf("duration: %w", err)
		}
		n.Duration = time.Duration(ms) * time.Millisecond
	}

	if raw, present := params["action"]; present && !ir.IsNullish(raw) {
		obj, ok := raw.(ir.IRObject)
		if !ok {
			return nil, errors.New("action must be an object")
		}
		title, _ := stringParam(obj, "title")
		event, err := parseEvent(obj["event"])
		if err != nil {
			return nil, fmt.Errorf("action.event: %w", err)
		}
		n.Action = &notify.Action{Title: title, Event: event}
	}
	return ShowNotification{Notification: n}, nil
}

// ParseActionRequest reads a model mutation from backend-declared params.
// action and model are required; params, where and condition must be
// objects when present.
func ParseActionRequest(params ir.IRObject) (*ir.ActionRequest, error) {
	kind, _ := stringParam(params, "action")
	if err := ir.ActionKind(kind).Validate(); err != nil {
		return nil, err
	}
	model, ok := stringParam(params, "model")
	if !ok || model == "" {
		return nil, errors.New("model is required")
	}

	req := &ir.ActionRequest{Action: ir.ActionKind(kind), Model: model}
	var err error
	if req.Params, err = objectParam(params, "params"); err != nil {
		return nil, err
	}
	if req.Where, err = objectParam(params, "where"); err != nil {
		return nil, err
	}
	if req.Condition, err = objectParam(params, "condition"); err != nil {
		return nil, err
	}
	if req.Params == nil {
		req.Params = ir.IRObject{}
	}
	if req.Where == nil {
		req.Where = ir.IRObject{}
	}
	req.ErrorMessage, _ = stringParam(params, "errorMessage")

	if raw, present := params["successActions"]; present && !ir.IsNullish(raw) {
		list, ok := raw.(ir.IRArray)
		if !ok {
			return nil, errors.New("successActions must be a list")
		}
		for i, item := range list {
			ev, err := parseEvent(item)
			if err != nil {
				return nil, fmt.Errorf("successActions[%d]: %w", i, err)
			}
			req.SuccessActions = append(req.SuccessActions, ev)
		}
	}
	return req, nil
}

func parseEvent(raw ir.IRValue) (ir.EventData, error) {
	obj, ok := raw.(ir.IRObject)
	if !ok {
		return ir.EventData{}, errors.New("must be an object")
	}
	name, ok := stringParam(obj, "action")
	if !ok || name == "" {
		return ir.EventData{}, errors.New("action is required")
	}
	params, err := objectParam(obj, "params")
	if err != nil {
		return ir.EventData{}, err
	}
	bubble, _ := stringParam(obj, "bubble")
	return ir.EventData{Action: name, Params: params, Bubble: bubble}, nil
}

func stringParam(params ir.IRObject, key string) (string, bool) {
	s, ok := params[key].(ir.IRString)
	return string(s), ok
}

func objectParam(params ir.IRObject, key string) (ir.IRObject, error) {
	raw, present := params[key]
	if !present || ir.IsNullish(raw) {
		return nil, nil
	}
	obj, ok := raw.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("%s must be an object", key)
	}
	return obj, nil
}

func intValue(v ir.IRValue) (int64, error) {
	switch val := v.(type) {
	case ir.IRInt:
		return int64(val), nil
	case ir.IRFloat:
		f := float64(val)
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("expected an integer, got %v", f)
		}
		return int64(f), nil
	case ir.IRString:
		n, err := strconv.ParseInt(string(val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", string(val))
		}
		return n, nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}
