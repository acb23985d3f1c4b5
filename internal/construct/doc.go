// Package construct implements the environment of the object engine and the
// global clear protocol that resets it.
//
// An Environment owns the class hierarchy, the router chain, the teardown
// registry and the readiness checks. Subsystems register a teardown callback
// at initialization time. Reset runs every callback, in registration order,
// once all readiness checks agree that nothing is in use.
//
// PROTOCOL:
//
//  1. Reject a nested Reset on the same environment (ReentrantClear).
//  2. Mark clear-ready in progress and activate the trace router so that
//     diagnostics produced by readiness checks are captured, not shown.
//  3. Run the readiness checks. If any fails, report [CONSTRCT1] on werror,
//     deactivate the trace router and return ClearBusy. Nothing was touched.
//  4. Otherwise mark clear in progress and run every teardown. A panicking
//     teardown is logged and the sequence continues.
//  5. Deactivate the trace router and clear the in-progress flag.
//
// The trace router is activated and deactivated exactly once per Reset that
// gets past step 1, on both the success and the ClearBusy path.
//
// The coordinator never touches construct data itself. What an environment
// looks like after Reset is entirely up to its teardown callbacks; New
// registers one that clears the class hierarchy.
//
// Concurrency: an Environment is single-threaded. Separate environments
// share nothing and may run on separate goroutines.
package construct
