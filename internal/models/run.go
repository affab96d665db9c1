package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunStatus is the lifecycle state of a journaled run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunEmpty     RunStatus = "empty" // finished without any valid track, target untouched
	RunFailed    RunStatus = "failed"
)

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunRunning, RunCompleted, RunEmpty, RunFailed:
		return true
	}
	return false
}

// RunCounts are the track counts recorded for a run.
type RunCounts struct {
	Retrieved         int `json:"retrieved"`
	RejectedPlaylists int `json:"rejected_playlists"`
	RejectedSaved     int `json:"rejected_saved"`
	Unique            int `json:"unique"`
	Removed           int `json:"removed"`
	Written           int `json:"written"`
}

// Rejected returns the rejects of both source kinds.
func (c RunCounts) Rejected() int {
	return c.RejectedPlaylists + c.RejectedSaved
}

// Run is one journaled execution of the reshuffle pipeline.
type Run struct {
	id               string
	sequence         int
	targetName       string
	targetPlaylistID string
	targetURL        string
	targetCreated    bool
	sources          []string
	includeLiked     bool
	status           RunStatus
	counts           RunCounts
	errorMessage     string
	startedAt        time.Time
	completedAt      *time.Time
	createdAt        time.Time
	updatedAt        time.Time
	deletedAt        *time.Time
}

// NewRun creates a running [Run] started now.
func NewRun(sequence int, targetName string, sources []string, includeLiked bool) *Run {
	now := time.Now()
	return &Run{
		sequence:     sequence,
		targetName:   targetName,
		sources:      append([]string(nil), sources...),
		includeLiked: includeLiked,
		status:       RunRunning,
		startedAt:    now,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (r *Run) ID() string               { return r.id }
func (r *Run) Sequence() int            { return r.sequence }
func (r *Run) TargetName() string       { return r.targetName }
func (r *Run) TargetPlaylistID() string { return r.targetPlaylistID }
func (r *Run) TargetURL() string        { return r.targetURL }
func (r *Run) TargetCreated() bool      { return r.targetCreated }
func (r *Run) Sources() []string        { return r.sources }
func (r *Run) IncludeLiked() bool       { return r.includeLiked }
func (r *Run) Status() RunStatus        { return r.status }
func (r *Run) Counts() RunCounts        { return r.counts }
func (r *Run) ErrorMessage() string     { return r.errorMessage }
func (r *Run) StartedAt() time.Time     { return r.startedAt }
func (r *Run) CompletedAt() *time.Time  { return r.completedAt }
func (r *Run) CreatedAt() time.Time     { return r.createdAt }
func (r *Run) UpdatedAt() time.Time     { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time    { return r.deletedAt }

func (r *Run) SetID(id string)             { r.id = id }
func (r *Run) SetSequence(seq int)         { r.sequence = seq }
func (r *Run) SetStatus(s RunStatus)       { r.status = s }
func (r *Run) SetCounts(c RunCounts)       { r.counts = c }
func (r *Run) SetStartedAt(t time.Time)    { r.startedAt = t }
func (r *Run) SetCompletedAt(t *time.Time) { r.completedAt = t }
func (r *Run) SetCreatedAt(t time.Time)    { r.createdAt = t }
func (r *Run) SetUpdatedAt(t time.Time)    { r.updatedAt = t }
func (r *Run) SetDeletedAt(t *time.Time)   { r.deletedAt = t }
func (r *Run) SetErrorMessage(msg string)  { r.errorMessage = msg }

// SetTarget records the reconciled target playlist.
func (r *Run) SetTarget(playlistID, url string, created bool) {
	r.targetPlaylistID = playlistID
	r.targetURL = url
	r.targetCreated = created
}

// SourcesString joins the source ids with commas for storage.
func (r *Run) SourcesString() string {
	return strings.Join(r.sources, ",")
}

// SplitSources is the inverse of [Run.SourcesString].
func SplitSources(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

// Finish moves the run to a terminal status. A non-nil err marks the run failed regardless of empty.
func (r *Run) Finish(counts RunCounts, empty bool, err error) {
	now := time.Now()
	r.counts = counts
	r.completedAt = &now
	r.updatedAt = now

	switch {
	case err != nil:
		r.status = RunFailed
		r.errorMessage = err.Error()
	case empty:
		r.status = RunEmpty
	default:
		r.status = RunCompleted
	}
}

// Duration returns the elapsed time of a finished run, or zero while running.
func (r *Run) Duration() time.Duration {
	if r.completedAt == nil {
		return 0
	}
	return r.completedAt.Sub(r.startedAt)
}

// Validate checks required fields and count invariants.
func (r *Run) Validate() error {
	var errs []error
	if strings.TrimSpace(r.targetName) == "" {
		errs = append(errs, errors.New("target name is required"))
	}
	if !r.status.Valid() {
		errs = append(errs, fmt.Errorf("unknown status %q", r.status))
	}
	c := r.counts
	if c.Retrieved < 0 || c.RejectedPlaylists < 0 || c.RejectedSaved < 0 || c.Unique < 0 || c.Removed < 0 || c.Written < 0 {
		errs = append(errs, errors.New("counts must not be negative"))
	}
	if c.Unique > c.Retrieved {
		errs = append(errs, fmt.Errorf("unique count %d exceeds retrieved count %d", c.Unique, c.Retrieved))
	}
	if c.Written > c.Unique {
		errs = append(errs, fmt.Errorf("written count %d exceeds unique count %d", c.Written, c.Unique))
	}
	return errors.Join(errs...)
}
