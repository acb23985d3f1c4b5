// Package harness runs scripted scenarios against an environment.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: busy_clear_is_all_or_nothing
//	description: "A busy environment refuses to clear"
//	fixture: fixtures/zoo        # optional CUE fixture directory
//	steps:
//	  - op: register_teardown
//	    name: A
//	  - op: set_busy
//	    busy: true
//	  - op: clear
//	    expect: clear_busy
//	assertions:
//	  - type: trace_count
//	    label: teardown:A
//	    count: 0
//	  - type: routers_balanced
//
// # Steps
//
//   - define_class: class, superclasses
//   - make_instance: class, instance
//   - delete_instance: instance
//   - reclaim
//   - iterate: class, optional instances (expected) and delete_during
//   - register_teardown: name, env_aware, nested, panic
//   - set_busy: busy
//   - clear
//
// Each step may set expect to one of ok, clear_busy, reentrant_clear,
// invalid_class, invalid_instance or duplicate.
//
// # Assertion Types
//
//   - trace_contains: an event with the label ("op" or "op:name") occurred
//   - trace_order: first occurrences of labels appear in order
//   - trace_count: a label occurred exactly count times
//   - instances: iterating class in the final hierarchy yields exactly instances
//   - journal_count: the journal holds count events with outcome
//     (ok, busy, reentrant, panicked)
//   - routers_balanced: the clear trace router is inactive
//
// # Deterministic Testing
//
// Every run uses a fixed environment ID, a deterministic clock for trace
// sequence numbers and an in-memory journal, so traces can be compared with
// golden files under testdata/golden.
package harness
