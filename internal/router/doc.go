// Package router implements the router chain: a stack-like registry of named
// output sinks that an environment prints diagnostics through.
//
// Every piece of output is addressed to a logical name ("wdisplay", "werror",
// "wtrace", ...). The chain offers it to the active routers, innermost
// activation first, and the first router whose Query accepts the logical name
// consumes it. Output nobody accepts goes to the chain's fallback writer, if
// one is configured.
//
// Activation is a stack discipline. Every Activate must be paired with a
// Deactivate, unwound in reverse order. Nested activation of the same router
// is counted but not reentrant-safe: the first Deactivate takes the router off
// the active stack.
//
// A Chain is not safe for concurrent use. Callers sharing one across
// goroutines must serialize access themselves.
package router
