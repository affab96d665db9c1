// Package models defines the run journal entity and the persistence interfaces.
//
// A [Run] records one execution of the reshuffle pipeline: the target, the sources, the final
// status and the track counts. Runs are written for auditing only; the pipeline never reads them.
//
// [Run] implements the [Model] interface providing ID, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
