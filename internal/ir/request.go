package ir

import "fmt"

// ViewID identifies a live view instance. IDs are allocated from a
// monotonic counter and never reused.
type ViewID int64

// ComponentRequest mirrors one ComponentConfig node in a request. Children
// is non-nil exactly when the config node is a layout.
type ComponentRequest struct {
	Params   map[string]IRObject          `json:"params"`
	Children map[string]*ComponentRequest `json:"children,omitempty"`
}

// ToIR converts the request node into its IRObject form.
func (r *ComponentRequest) ToIR() IRValue {
	if r == nil {
		return IRNull{}
	}
	params := make(IRObject, len(r.Params))
	for k, v := range r.Params {
		params[k] = v
	}
	obj := IRObject{"params": params}
	if r.Children != nil {
		children := make(IRObject, len(r.Children))
		for k, child := range r.Children {
			children[k] = child.ToIR()
		}
		obj["children"] = children
	}
	return obj
}

// ViewRequest is the request for one view instance.
type ViewRequest struct {
	View   string            `json:"view"`
	Layout *ComponentRequest `json:"layout"`
}

// ToIR converts the view request into its IRObject form.
func (r *ViewRequest) ToIR() IRValue {
	if r == nil {
		return IRNull{}
	}
	return IRObject{"view": IRString(r.View), "layout": r.Layout.ToIR()}
}

// ActionKind is the mutation verb of an ActionRequest.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionDelete ActionKind = "delete"
)

// Validate checks that the kind is one of create, update or delete.
func (k ActionKind) Validate() error {
	switch k {
	case ActionCreate, ActionUpdate, ActionDelete:
		return nil
	}
	return fmt.Errorf("invalid action %q: must be create, update, or delete", string(k))
}

// ActionRequest is a queued model mutation.
type ActionRequest struct {
	Action         ActionKind  `json:"action"`
	Model          string      `json:"model"`
	Params         IRObject    `json:"params"`
	Where          IRObject    `json:"where"`
	Condition      IRObject    `json:"condition,omitempty"`
	SuccessActions []EventData `json:"successActions,omitempty"`
	ErrorMessage   string      `json:"errorMessage,omitempty"`
}

// Clone returns a deep copy of the action.
func (a *ActionRequest) Clone() *ActionRequest {
	if a == nil {
		return nil
	}
	out := *a
	out.Params = a.Params.Clone()
	out.Where = a.Where.Clone()
	out.Condition = a.Condition.Clone()
	if a.SuccessActions != nil {
		out.SuccessActions = make([]EventData, len(a.SuccessActions))
		for i, ev := range a.SuccessActions {
			out.SuccessActions[i] = ev.Clone()
		}
	}
	return &out
}

// ToIR converts the action into its IRObject form.
func (a *ActionRequest) ToIR() IRObject {
	obj := IRObject{
		"action": IRString(a.Action),
		"model":  IRString(a.Model),
		"params": orEmpty(a.Params),
		"where":  orEmpty(a.Where),
	}
	if a.Condition != nil {
		obj["condition"] = a.Condition
	}
	if len(a.SuccessActions) > 0 {
		arr := make(IRArray, len(a.SuccessActions))
		for i, ev := range a.SuccessActions {
			arr[i] = ev.ToIR()
		}
		obj["successActions"] = arr
	}
	if a.ErrorMessage != "" {
		obj["errorMessage"] = IRString(a.ErrorMessage)
	}
	return obj
}

// StateRequest is one synchronization batch: every mounted view's last
// built request plus the drained mutation queue.
type StateRequest struct {
	Views   map[ViewID]*ViewRequest `json:"views"`
	Actions []*ActionRequest        `json:"actions"`
}

// ToIR converts the request into its IRObject form.
func (r *StateRequest) ToIR() IRObject {
	views := make(IRObject, len(r.Views))
	for id, vr := range r.Views {
		views[fmt.Sprint(int64(id))] = vr.ToIR()
	}
	actions := make(IRArray, len(r.Actions))
	for i, a := range r.Actions {
		actions[i] = a.ToIR()
	}
	return IRObject{"views": views, "actions": actions}
}

// StateResponse is the backend's answer to a StateRequest.
type StateResponse struct {
	Views  map[ViewID]*ComponentData `json:"views"`
	Models ModelState                `json:"models"`
}

// ToIR converts the response into its IRObject form.
func (r *StateResponse) ToIR() IRObject {
	views := make(IRObject, len(r.Views))
	for id, data := range r.Views {
		views[fmt.Sprint(int64(id))] = data.ToIR()
	}
	return IRObject{"views": views, "models": r.Models.ToIR()}
}

// LoginRequest carries credentials plus an optional post-login redirect.
type LoginRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

// LoginResponse is the backend's answer to a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      int64  `json:"id"`
}

func orEmpty(obj IRObject) IRObject {
	if obj == nil {
		return IRObject{}
	}
	return obj
}
