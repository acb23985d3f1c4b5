// Package journal persists environment lifecycle events in SQLite.
//
// Each clear attempt and each contained teardown failure becomes one row
// keyed by environment ID and sequence number. Writes are idempotent on that
// key, so replaying a recorder into the same database is harmless. Reads are
// always ordered by sequence number.
package journal
