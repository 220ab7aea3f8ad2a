package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted session against the engine: a view configuration,
// the backend replies to serve, the steps a user takes and what must hold
// afterwards.
type Scenario struct {
	// Name identifies the scenario and names its golden trace.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Views is the view configuration file, relative to the scenario.
	Views string `yaml:"views"`

	// User, when set, starts the run with a restored session.
	User int64 `yaml:"user,omitempty"`

	// Route is navigated to once the configuration has loaded.
	Route string `yaml:"route,omitempty"`

	// Models seeds the model cache.
	Models map[string]any `yaml:"models,omitempty"`

	// Responses are served to state requests in order. Once they run out
	// every view gets an empty response.
	Responses []Response `yaml:"responses,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions"`
}

// Response is one scripted backend reply: either view data and models,
// or an error.
type Response struct {
	Views  map[int64]any  `yaml:"views,omitempty"`
	Models map[string]any `yaml:"models,omitempty"`
	Error  *ErrorReply    `yaml:"error,omitempty"`
}

// ErrorReply is a failed state request.
type ErrorReply struct {
	Status  int    `yaml:"status"`
	Message string `yaml:"message"`
}

// Step is one user interaction. Exactly one field is set.
type Step struct {
	// Mount mounts the named view.
	Mount string `yaml:"mount,omitempty"`

	// Unmount unmounts the named view.
	Unmount string `yaml:"unmount,omitempty"`

	// Dispatch sends an action by name.
	Dispatch *DispatchStep `yaml:"dispatch,omitempty"`

	// Event fires a component event of a mounted view.
	Event *EventStep `yaml:"event,omitempty"`

	// Sync requests a synchronization.
	Sync bool `yaml:"sync,omitempty"`
}

// DispatchStep names an action and its params.
type DispatchStep struct {
	Action string         `yaml:"action"`
	Params map[string]any `yaml:"params,omitempty"`
}

// EventStep fires the named event of a view's root component.
type EventStep struct {
	View string `yaml:"view"`
	Name string `yaml:"name"`
}

func (s Step) kind() string {
	var kinds []string
	if s.Mount != "" {
		kinds = append(kinds, "mount")
	}
	if s.Unmount != "" {
		kinds = append(kinds, "unmount")
	}
	if s.Dispatch != nil {
		kinds = append(kinds, "dispatch")
	}
	if s.Event != nil {
		kinds = append(kinds, "event")
	}
	if s.Sync {
		kinds = append(kinds, "sync")
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Assertion checks the final state of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// View names the view (view_status, resolved_value).
	View string `yaml:"view,omitempty"`

	// Path is the value path inside the resolved data (resolved_value).
	Path string `yaml:"path,omitempty"`

	// Model, ID and Attribute address a cached record (model_value).
	Model     string `yaml:"model,omitempty"`
	ID        string `yaml:"id,omitempty"`
	Attribute string `yaml:"attribute,omitempty"`

	// Expect is the expected value: a status, a value, a notification
	// message or a URL.
	Expect any `yaml:"expect,omitempty"`

	// Count is the expected number of state requests (request_count).
	Count *int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertViewStatus    = "view_status"
	AssertResolvedValue = "resolved_value"
	AssertModelValue    = "model_value"
	AssertNotification  = "notification"
	AssertRequestCount  = "request_count"
	AssertRoute         = "route"
)

// LoadScenario reads a scenario file. The views path is resolved relative
// to the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario file, resolving a relative
// views path against basePath. Unknown fields are rejected.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Views != "" && !filepath.IsAbs(scenario.Views) && basePath != "" {
		scenario.Views = filepath.Join(basePath, scenario.Views)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Views == "" {
		return fmt.Errorf("views is required")
	}
	if _, err := os.Stat(s.Views); err != nil {
		return fmt.Errorf("views file: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, r := range s.Responses {
		if r.Error != nil && (len(r.Views) > 0 || len(r.Models) > 0) {
			return fmt.Errorf("responses[%d]: error excludes views and models", i)
		}
	}

	for i, step := range s.Steps {
		switch step.kind() {
		case "":
			return fmt.Errorf("steps[%d]: exactly one of mount, unmount, dispatch, event, sync is required", i)
		case "dispatch":
			if step.Dispatch.Action == "" {
				return fmt.Errorf("steps[%d].dispatch: action is required", i)
			}
		case "event":
			if step.Event.View == "" || step.Event.Name == "" {
				return fmt.Errorf("steps[%d].event: view and name are required", i)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertViewStatus:
		if a.View == "" || a.Expect == nil {
			return fmt.Errorf("assertions[%d]: view and expect are required for view_status", index)
		}
	case AssertResolvedValue:
		if a.View == "" || a.Path == "" {
			return fmt.Errorf("assertions[%d]: view and path are required for resolved_value", index)
		}
	case AssertModelValue:
		if a.Model == "" || a.ID == "" || a.Attribute == "" {
			return fmt.Errorf("assertions[%d]: model, id and attribute are required for model_value", index)
		}
	case AssertNotification, AssertRoute:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
		}
	case AssertRequestCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for request_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
