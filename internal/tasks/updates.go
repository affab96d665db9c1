package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/reshuffle/internal/services"
)

// ProgressUpdate represents a progress event during a reshuffle run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Warning bool   // Set for rejected tracks and other non-fatal anomalies
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	FetchSaved
	RejectTrack
	Dedupe
	Validate
	Shuffle
	FindTarget
	ClearTarget
	CreatePlaylist
	AddTracks
	Complete
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchSaved:
		return "fetch_saved"
	case RejectTrack:
		return "reject_track"
	case Dedupe:
		return "dedupe"
	case Validate:
		return "validate"
	case Shuffle:
		return "shuffle"
	case FindTarget:
		return "find_target"
	case ClearTarget:
		return "clear_target"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Used for per-track updates, which are dropped while the consumer is behind.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// reportProgress delivers a phase or count update, waiting for the consumer until ctx is done.
func reportProgress(ctx context.Context, progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	case <-ctx.Done():
	}
}

func fetchSourceUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Processing playlist %d: '%s'", step, name),
	}
}

func fetchedSourceUpdate(step, total int, name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Retrieved %d tracks from '%s'", count, name),
		Data:    count,
	}
}

func fetchSavedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSaved,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Retrieved %d tracks from Liked Songs", count),
		Data:    count,
	}
}

func rejectTrackUpdate(source, uri string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RejectTrack,
		Message: fmt.Sprintf("Invalid URI ignored (%s): %s", source, uri),
		Warning: true,
		Data:    uri,
	}
}

func rejectedSummaryUpdate(source string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RejectTrack,
		Total:   count,
		Message: fmt.Sprintf("%d invalid tracks ignored from %s", count, source),
		Warning: true,
		Data:    count,
	}
}

func dedupeUpdate(retrieved, unique int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Dedupe,
		Step:    unique,
		Total:   retrieved,
		Message: fmt.Sprintf("After deduplication: %d unique tracks (%d retrieved)", unique, retrieved),
	}
}

func validateUpdate(removed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Validate,
		Total:   removed,
		Message: fmt.Sprintf("%d invalid URIs removed during final validation", removed),
		Warning: true,
	}
}

func noTracksUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Validate,
		Message: "No valid tracks found",
		Warning: true,
	}
}

func shuffleUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Shuffle,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Tracks shuffled: %d tracks ready", count),
	}
}

func searchTargetUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FindTarget,
		Message: fmt.Sprintf("Searching for playlist '%s'...", name),
	}
}

func foundTargetUpdate(c *services.Collection) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FindTarget,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found existing playlist: '%s'", c.Name),
		Data:    c,
	}
}

func nearMissUpdate(name string, candidate services.Collection) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FindTarget,
		Message: fmt.Sprintf("Playlist '%s' (ID: %s) has a similar name but does not match '%s' exactly", candidate.Name, candidate.ID, name),
		Warning: true,
		Data:    candidate,
	}
}

func clearTargetUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClearTarget,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Clearing batch %d: %d tracks", step, count),
	}
}

func createPlaylistUpdate(c *services.Collection) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Created new playlist: '%s' (ID: %s)", c.Name, c.ID),
		Data:    c,
	}
}

func addTracksUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Adding batch %d: %d tracks", step, count),
	}
}

func completeUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist updated successfully: %s", result.TargetURL),
		Data:    result,
	}
}
