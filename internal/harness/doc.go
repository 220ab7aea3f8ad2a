// Package harness runs scripted sessions against the presenter engine and
// checks the outcome.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: dashboard_initial_load
//	description: "first load of the dashboard"
//	views: views.yaml            # relative to the scenario file
//	user: 7                      # optional restored session
//	route: /users/:$me           # optional initial navigation
//	models: {}                   # optional model cache seed
//	responses:                   # served to state requests in order
//	  - views: {0: {values: {title: Hello}}}
//	    models: {user: {"7": {name: Alice}}}
//	  - error: {status: 500, message: boom}
//	steps:
//	  - mount: dashboard
//	  - dispatch: {action: mutate-model, params: {...}}
//	  - event: {view: dashboard, name: open}
//	  - sync: true
//	  - unmount: dashboard
//	assertions:
//	  - {type: view_status, view: dashboard, expect: response}
//	  - {type: resolved_value, view: dashboard, path: values.title, expect: Hello}
//	  - {type: model_value, model: user, id: "7", attribute: name, expect: Alice}
//	  - {type: notification, expect: CORE.globals.connection-error}
//	  - {type: request_count, count: 1}
//	  - {type: route, expect: /login}
//
// # Deterministic Runs
//
// Every run uses inline effects, sequential cycle tokens (cycle-0001, ...)
// and a fresh in-memory database holding the session and the cycle
// journal. The engine settles after each step, so the recorded trace of
// requests, responses, cycles, notifications and navigations is the same
// on every run and can be compared against a golden file.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/mutation_failure.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
