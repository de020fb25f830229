// Package harness runs index scenarios as executable contract tests.
//
// A scenario declares a schema inline, writes records, looks keys up and
// asserts on the diagnostic trace and on the final contents of every index.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema:
//	  location:
//	    indexes:
//	      - name: byName
//	        fields: [name]
//	        options: { lowercase: true }
//	config:
//	  tx_mode: per-index
//	steps:
//	  - put:
//	      noun: location
//	      fields: { id: abc123, name: Paris }
//	    expect: { id: abc123 }
//	  - get: { noun: location, index: byName, key: paris }
//	    expect: { id: abc123 }
//	assertions:
//	  - type: trace_contains
//	    kind: index_inserted
//	    key: paris
//	  - type: final_state
//	    noun: location
//	    index: byName
//	    entries: { paris: abc123 }
//
// # Assertion Types
//
//   - trace_contains: an event of the kind with matching fields is in the trace
//   - trace_order: events of the kinds appear in the given order
//   - trace_count: events of the kind appear exactly N times
//   - final_state: an index holds exactly the given entries
//
// # Deterministic Testing
//
// Records without an id get one from testutil.SequenceGenerator, and each
// run uses a fresh index environment in a temporary directory, so the trace
// and state of a scenario are identical across runs and can be compared
// against golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/paris.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
