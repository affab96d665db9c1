package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/reshuffle/internal/shared"
	"github.com/desertthunder/reshuffle/internal/tasks"
)

// PhaseLabel describes phase for progress displays.
func PhaseLabel(phase tasks.Phase) string {
	switch phase {
	case tasks.FetchSource:
		return "Fetching source playlists"
	case tasks.FetchSaved:
		return "Fetching Liked Songs"
	case tasks.RejectTrack, tasks.Validate:
		return "Validating tracks"
	case tasks.Dedupe:
		return "Removing duplicates"
	case tasks.Shuffle:
		return "Shuffling"
	case tasks.FindTarget:
		return "Looking for the target playlist"
	case tasks.ClearTarget:
		return "Clearing the target playlist"
	case tasks.CreatePlaylist:
		return "Creating the target playlist"
	case tasks.AddTracks:
		return "Adding tracks"
	case tasks.Complete:
		return "Done"
	default:
		return "Processing"
	}
}

// Summary renders the outcome of a run.
//
// result may be partial when err is set; counts gathered before the failure are still shown.
func Summary(p *Palette, targetName string, result *tasks.RunResult, err error) string {
	var b strings.Builder

	switch {
	case err != nil:
		b.WriteString(p.Err("✗ Reshuffle failed"))
		b.WriteString("\n")
		b.WriteString(p.Err(err.Error()))
		b.WriteString("\n")
	case result == nil:
		b.WriteString(p.Err("✗ No result available"))
		b.WriteString("\n")
		return b.String()
	case result.Empty:
		b.WriteString(p.Warn("⚠ No valid tracks found; the target playlist was not modified"))
		b.WriteString("\n")
	default:
		b.WriteString(p.OK("✓ Playlist updated successfully"))
		b.WriteString("\n")
	}

	if result == nil {
		return b.String()
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Retrieved: %d tracks\n", result.Retrieved)
	if result.Rejected() > 0 {
		fmt.Fprintf(&b, "Rejected:  %s\n", p.Warn(fmt.Sprintf("%d from playlists, %d from Liked Songs",
			result.RejectedPlaylists, result.RejectedSaved)))
	}
	fmt.Fprintf(&b, "Unique:    %d tracks\n", result.Unique)
	if result.RemovedInValidation > 0 {
		fmt.Fprintf(&b, "Invalid:   %s\n", p.Warn(fmt.Sprintf("%d removed", result.RemovedInValidation)))
	}

	if result.Target != nil {
		state := "existing"
		if result.TargetCreated {
			state = "created, " + strings.ToLower(shared.VisibilityString(result.Target.Public))
		}
		fmt.Fprintf(&b, "Target:    %s (%s)\n", result.Target.Name, state)
		fmt.Fprintf(&b, "Cleared:   %d tracks\n", result.Removed)
		fmt.Fprintf(&b, "Written:   %d tracks\n", result.Written)
	} else if !result.Empty {
		fmt.Fprintf(&b, "Target:    %s\n", targetName)
	}

	link := result.TargetURL
	if link == "" {
		link = tasks.NoLink
	}
	fmt.Fprintf(&b, "Link:      %s\n", link)

	return b.String()
}
