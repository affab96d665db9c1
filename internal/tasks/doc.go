// Package tasks runs the reshuffle pipeline with real-time progress reporting.
//
// # Pipeline
//
// [ShuffleEngine.Run] wires the stages together:
//
//  1. [Aggregator.Collect] : drains every source playlist, then the saved tracks
//     - Entries without a track id are skipped silently
//     - URIs failing validation are counted per source and reported as warnings
//  2. Deduplication (unordered) and a final validation filter
//  3. Shuffle into a uniformly random order
//  4. [Reconciler.Reconcile] : finds the target owned by the current user or creates it
//     - Exact, case-sensitive name match within one bounded search window
//     - A found target is cleared in batches of at most 100 ids
//  5. [BatchWriter.Write] : appends the shuffled tracks in batches of at most 100 ids
//
// Every remote call is sequential and nothing is retried. A failure stops the run and
// leaves the target in whatever state the completed calls produced.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, a warning flag and optional data.
// Updates use select with default to prevent blocking.
package tasks
