// Package objsys holds the class hierarchy of an environment and the cursor
// used to stream instances out of it.
//
// # Storage
//
// Classes and instances live in arenas owned by a Hierarchy and are addressed
// by stable integer handles (ClassID, InstanceID). Handle zero means "none".
// Each class keeps its instances as a singly linked list threaded through the
// instance arena by handle, in insertion order.
//
// Deleting an instance only marks it garbage. The node stays linked so that a
// cursor parked on it can still follow its next handle. Reclaim unlinks
// garbage nodes from their class lists but keeps their next handles intact,
// which is what keeps outstanding cursors valid across reclamation.
//
// # Cursor
//
// Start(class) captures the class's transitive subclasses once, depth-first
// in registration order, each class at most once even when the hierarchy is
// a DAG reachable through several paths. Advance walks the class's own list
// first and then each snapshot class in turn, skipping garbage. Subclasses
// defined after Start are not seen by that cursor. Instances added to a class
// the cursor already left are not seen either.
//
// A Cursor is a plain value. Advance returns the updated cursor instead of
// mutating its argument, so an old copy can be discarded or kept without
// cleanup. Clear invalidates every outstanding cursor: Advance on a cursor
// from a previous generation reports exhaustion.
//
// Names are NFC-normalized before they are stored or looked up.
package objsys
