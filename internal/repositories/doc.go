// Package repositories implements SQLite persistence for the run journal.
//
// [RunRepository] handles CRUD operations with atomic sequence generation for human-readable ordering
// (run #1, run #2, ...). Deletes are soft: a deleted_at timestamp is set and deleted records are excluded
// from queries by default.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
