package tasks

import (
	"context"
	"fmt"
	"iter"

	"github.com/desertthunder/reshuffle/internal/services"
	"github.com/desertthunder/reshuffle/internal/shared"
	"github.com/desertthunder/reshuffle/internal/tracks"
)

// SourceSet names the collections a run reads from. It is not modified during a run.
type SourceSet struct {
	PlaylistIDs  []string
	IncludeSaved bool
}

// Empty reports whether the set names no source at all.
func (s SourceSet) Empty() bool {
	return len(s.PlaylistIDs) == 0 && !s.IncludeSaved
}

// Collected is the flat output of [Aggregator.Collect].
type Collected struct {
	Tracks            []string // valid URIs in source order, duplicates included
	RejectedPlaylists int
	RejectedSaved     int
}

// Rejected returns the total number of rejected tracks.
func (c *Collected) Rejected() int {
	return c.RejectedPlaylists + c.RejectedSaved
}

// Aggregator reads every source of a [SourceSet] into one flat sequence of track URIs.
type Aggregator struct {
	catalog  services.Catalog
	market   string
	progress chan<- ProgressUpdate
}

// NewAggregator creates an Aggregator requesting items for market. A nil progress channel disables reporting.
func NewAggregator(catalog services.Catalog, market string, progress chan<- ProgressUpdate) *Aggregator {
	return &Aggregator{catalog: catalog, market: market, progress: progress}
}

// Collect drains every source playlist in order, then the saved tracks when requested.
//
// Entries without a track id (removed tracks, local files, episodes) are skipped without being counted.
// URIs failing [tracks.IsValidTrackURI] are counted and reported, never returned.
// Any catalog failure aborts the collection.
func (a *Aggregator) Collect(ctx context.Context, sources SourceSet) (*Collected, error) {
	if sources.Empty() {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidConfig, shared.ErrNoSources)
	}

	out := &Collected{}
	total := len(sources.PlaylistIDs)

	for i, id := range sources.PlaylistIDs {
		c, err := a.catalog.Collection(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve playlist %s: %w", id, err)
		}
		reportProgress(ctx, a.progress, fetchSourceUpdate(i+1, total, c.Name))

		before := len(out.Tracks)
		if err := a.drain(a.catalog.CollectionItems(ctx, id, a.market), c.Name, &out.Tracks, &out.RejectedPlaylists); err != nil {
			return nil, fmt.Errorf("failed to list tracks of playlist %s: %w", id, err)
		}
		reportProgress(ctx, a.progress, fetchedSourceUpdate(i+1, total, c.Name, len(out.Tracks)-before))
	}

	if out.RejectedPlaylists > 0 {
		reportProgress(ctx, a.progress, rejectedSummaryUpdate("playlists", out.RejectedPlaylists))
	}

	if sources.IncludeSaved {
		before := len(out.Tracks)
		if err := a.drain(a.catalog.SavedTracks(ctx, a.market), "Liked Songs", &out.Tracks, &out.RejectedSaved); err != nil {
			return nil, fmt.Errorf("failed to list saved tracks: %w", err)
		}
		reportProgress(ctx, a.progress, fetchSavedUpdate(len(out.Tracks)-before))

		if out.RejectedSaved > 0 {
			reportProgress(ctx, a.progress, rejectedSummaryUpdate("Liked Songs", out.RejectedSaved))
		}
	}

	return out, nil
}

func (a *Aggregator) drain(items iter.Seq2[services.Item, error], source string, dst *[]string, rejected *int) error {
	for item, err := range items {
		if err != nil {
			return err
		}
		if item.Track == nil || item.Track.ID == "" {
			continue
		}

		uri := item.Track.ID.URI()
		if !tracks.IsValidTrackURI(uri) {
			*rejected++
			sendProgress(a.progress, rejectTrackUpdate(source, uri))
			continue
		}
		*dst = append(*dst, uri)
	}
	return nil
}
