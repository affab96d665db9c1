package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/desertthunder/reshuffle/internal/services"
	"github.com/desertthunder/reshuffle/internal/tracks"
)

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 50
	DefaultDescription = "Automatically generated shuffled playlist"

	nearMissThreshold = 0.9
)

// ReconcileState is a state of the target reconciliation.
type ReconcileState int

const (
	Searching ReconcileState = iota
	Found
	NotFound
	Ready
)

func (s ReconcileState) String() string {
	switch s {
	case Searching:
		return "searching"
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Ready:
		return "ready"
	default:
		return ""
	}
}

// Target is a reconciled target collection, empty and ready for writing.
type Target struct {
	Collection *services.Collection
	Created    bool
	Removed    int              // distinct tracks removed while clearing
	States     []ReconcileState // visited states, ending in Ready
}

// ReconcilerOpts configures a [Reconciler].
type ReconcilerOpts struct {
	SearchLimit int    // search window, 1..50
	BatchSize   int    // ids per removal call, 1..100
	Description string // description of a created collection
}

// Reconciler locates the target collection owned by the current user, or creates it, and clears it.
type Reconciler struct {
	catalog  services.Catalog
	opts     ReconcilerOpts
	progress chan<- ProgressUpdate
}

// NewReconciler creates a Reconciler. Zero or out-of-range options fall back to the defaults.
func NewReconciler(catalog services.Catalog, opts ReconcilerOpts, progress chan<- ProgressUpdate) *Reconciler {
	if opts.SearchLimit <= 0 || opts.SearchLimit > MaxSearchLimit {
		opts.SearchLimit = DefaultSearchLimit
	}
	if opts.BatchSize <= 0 || opts.BatchSize > services.MaxBatchSize {
		opts.BatchSize = services.MaxBatchSize
	}
	if opts.Description == "" {
		opts.Description = DefaultDescription
	}
	return &Reconciler{catalog: catalog, opts: opts, progress: progress}
}

// Reconcile runs Searching → {Found, NotFound} → Ready for the collection called name.
//
// Only the first search window is considered. A found collection is cleared; a created one is not.
// Any failure is fatal and earlier removals are not undone.
func (r *Reconciler) Reconcile(ctx context.Context, name string) (*Target, error) {
	target := &Target{States: []ReconcileState{Searching}}
	reportProgress(ctx, r.progress, searchTargetUpdate(name))

	user, err := r.catalog.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	res, err := r.catalog.SearchCollections(ctx, name, r.opts.SearchLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to search for playlist '%s': %w", name, err)
	}

	match, nearMisses := MatchTarget(Candidates(res), name, user.ID)
	for _, c := range nearMisses {
		reportProgress(ctx, r.progress, nearMissUpdate(name, c))
	}

	if match != nil {
		target.States = append(target.States, Found)

		full, err := r.catalog.Collection(ctx, match.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get playlist %s: %w", match.ID, err)
		}
		reportProgress(ctx, r.progress, foundTargetUpdate(full))

		removed, err := r.clear(ctx, full.ID)
		if err != nil {
			return nil, err
		}

		target.Collection = full
		target.Removed = removed
		target.States = append(target.States, Ready)
		return target, nil
	}

	target.States = append(target.States, NotFound)
	created, err := r.catalog.CreateCollection(ctx, services.CreateCollectionOpts{
		OwnerID:     user.ID,
		Name:        name,
		Description: r.opts.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist '%s': %w", name, err)
	}
	reportProgress(ctx, r.progress, createPlaylistUpdate(created))

	target.Collection = created
	target.Created = true
	target.States = append(target.States, Ready)
	return target, nil
}

// clear removes every track of a collection in batches and returns how many distinct tracks were removed.
//
// Removal drops all occurrences of an id, so each id is sent once.
func (r *Reconciler) clear(ctx context.Context, id string) (int, error) {
	var ids []tracks.TrackID
	for item, err := range r.catalog.CollectionItems(ctx, id, "") {
		if err != nil {
			return 0, fmt.Errorf("failed to list tracks of playlist %s: %w", id, err)
		}
		if item.Track != nil && item.Track.ID != "" {
			ids = append(ids, item.Track.ID)
		}
	}

	ids = tracks.DedupePreservingOrder(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	batches := tracks.Chunk(ids, r.opts.BatchSize)
	removed := 0
	for i, batch := range batches {
		reportProgress(ctx, r.progress, clearTargetUpdate(i+1, len(batches), len(batch)))
		if err := r.catalog.RemoveItems(ctx, id, batch); err != nil {
			return removed, fmt.Errorf("failed to clear batch %d/%d of playlist %s: %w", i+1, len(batches), id, err)
		}
		removed += len(batch)
	}
	return removed, nil
}

// Candidates returns the playlists of a search result. Any other result kind has none.
func Candidates(res services.SearchResult) []services.Collection {
	switch res := res.(type) {
	case services.PlaylistResults:
		return res.Collections
	case *services.PlaylistResults:
		if res != nil {
			return res.Collections
		}
	}
	return nil
}

// MatchTarget returns the first candidate named exactly name (case-sensitive) and owned by ownerID.
//
// nearMisses lists the owner's candidates whose names are nearly but not exactly equal to name.
// They never match.
func MatchTarget(candidates []services.Collection, name, ownerID string) (match *services.Collection, nearMisses []services.Collection) {
	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false

	for i := range candidates {
		c := candidates[i]
		if c.OwnerID != ownerID {
			continue
		}
		if c.Name == name {
			if match == nil {
				match = &c
			}
			continue
		}
		if strings.EqualFold(c.Name, name) || strutil.Similarity(c.Name, name, jw) >= nearMissThreshold {
			nearMisses = append(nearMisses, c)
		}
	}
	return match, nearMisses
}
