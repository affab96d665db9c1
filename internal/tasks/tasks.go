package tasks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/desertthunder/reshuffle/internal/services"
	"github.com/desertthunder/reshuffle/internal/shared"
	"github.com/desertthunder/reshuffle/internal/tracks"
)

const (
	DefaultTargetName = "Reshuffle"
	DefaultMarket     = "US"
	DefaultBatchSize  = services.MaxBatchSize

	// NoLink replaces the target link when the service reports none.
	NoLink = "N/A"
)

// RunOptions holds the parameters of a single run.
type RunOptions struct {
	Sources     SourceSet
	TargetName  string
	Market      string // market for source listings; empty lets the service decide
	Description string // description of a created target
	SearchLimit int    // search window, 1..50
	BatchSize   int    // ids per mutation call, 1..100
}

// DefaultRunOptions returns options with every tunable set to its default and no sources.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		TargetName:  DefaultTargetName,
		Market:      DefaultMarket,
		Description: DefaultDescription,
		SearchLimit: DefaultSearchLimit,
		BatchSize:   DefaultBatchSize,
	}
}

// Validate checks the options before any remote call. Errors wrap [shared.ErrInvalidConfig].
func (o RunOptions) Validate() error {
	switch {
	case o.Sources.Empty():
		return fmt.Errorf("%w: %w", shared.ErrInvalidConfig, shared.ErrNoSources)
	case strings.TrimSpace(o.TargetName) == "":
		return fmt.Errorf("%w: %w", shared.ErrInvalidConfig, shared.ErrEmptyTarget)
	case o.BatchSize < 1 || o.BatchSize > services.MaxBatchSize:
		return fmt.Errorf("%w: batch size must be between 1 and %d, got %d", shared.ErrInvalidConfig, services.MaxBatchSize, o.BatchSize)
	case o.SearchLimit < 1 || o.SearchLimit > MaxSearchLimit:
		return fmt.Errorf("%w: search limit must be between 1 and %d, got %d", shared.ErrInvalidConfig, MaxSearchLimit, o.SearchLimit)
	}
	return nil
}

// RunResult contains the counts and target of a run.
type RunResult struct {
	Retrieved           int  `json:"retrieved"`
	RejectedPlaylists   int  `json:"rejected_playlists"`
	RejectedSaved       int  `json:"rejected_saved"`
	Unique              int  `json:"unique"`
	RemovedInValidation int  `json:"removed_in_validation"`
	Removed             int  `json:"removed"`
	Written             int  `json:"written"`
	Empty               bool `json:"empty"`

	Target        *services.Collection `json:"target,omitempty"`
	TargetCreated bool                 `json:"target_created"`
	TargetURL     string               `json:"target_url"`
}

// Rejected returns the number of tracks rejected while collecting.
func (r *RunResult) Rejected() int {
	return r.RejectedPlaylists + r.RejectedSaved
}

// EngineOption configures a [ShuffleEngine].
type EngineOption func(*ShuffleEngine)

// WithRand makes shuffling use r instead of the process-wide source.
func WithRand(r *rand.Rand) EngineOption {
	return func(e *ShuffleEngine) {
		e.shuffle = func(items []string) []string { return tracks.ShuffleWith(r, items) }
	}
}

// ShuffleEngine runs the reshuffle pipeline against a [services.Catalog].
type ShuffleEngine struct {
	catalog services.Catalog
	shuffle func([]string) []string
}

// NewShuffleEngine creates a new ShuffleEngine with the provided catalog.
func NewShuffleEngine(catalog services.Catalog, opts ...EngineOption) *ShuffleEngine {
	e := &ShuffleEngine{catalog: catalog, shuffle: tracks.Shuffle[string]}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run collects, deduplicates, validates and shuffles the tracks of opts.Sources, then replaces
// the contents of the target playlist with them.
//
// Options are validated before any remote call. When no valid track remains the run ends early
// with Empty set and no error, and the target is left untouched. On failure the partial result
// is returned along with the error.
func (e *ShuffleEngine) Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &RunResult{TargetURL: NoLink}

	collected, err := NewAggregator(e.catalog, opts.Market, progress).Collect(ctx, opts.Sources)
	if err != nil {
		return result, err
	}
	result.Retrieved = len(collected.Tracks)
	result.RejectedPlaylists = collected.RejectedPlaylists
	result.RejectedSaved = collected.RejectedSaved

	unique := tracks.DedupeUnordered(collected.Tracks)
	result.Unique = len(unique)
	reportProgress(ctx, progress, dedupeUpdate(result.Retrieved, result.Unique))

	valid := tracks.FilterValid(unique)
	if removed := len(unique) - len(valid); removed > 0 {
		result.RemovedInValidation = removed
		reportProgress(ctx, progress, validateUpdate(removed))
	}

	if len(valid) == 0 {
		result.Empty = true
		reportProgress(ctx, progress, noTracksUpdate())
		return result, nil
	}

	// Sorted so that a seeded shuffle is reproducible.
	slices.Sort(valid)
	shuffled := e.shuffle(valid)
	reportProgress(ctx, progress, shuffleUpdate(len(shuffled)))

	reconciler := NewReconciler(e.catalog, ReconcilerOpts{
		SearchLimit: opts.SearchLimit,
		BatchSize:   opts.BatchSize,
		Description: opts.Description,
	}, progress)

	target, err := reconciler.Reconcile(ctx, opts.TargetName)
	if err != nil {
		return result, err
	}
	result.Target = target.Collection
	result.TargetCreated = target.Created
	result.Removed = target.Removed
	if target.Collection.ExternalURL != "" {
		result.TargetURL = target.Collection.ExternalURL
	}

	written, err := NewBatchWriter(e.catalog, opts.BatchSize, progress).Write(ctx, target.Collection.ID, shuffled)
	result.Written = written
	if err != nil {
		return result, err
	}

	reportProgress(ctx, progress, completeUpdate(result))
	return result, nil
}
