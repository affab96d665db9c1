package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/reshuffle/internal/models"
	"github.com/desertthunder/reshuffle/internal/shared"
)

// ErrRunNotFound is returned when no live run matches an id.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `
	id, sequence, target_name, target_playlist_id, target_url, target_created,
	sources, include_liked, status, tracks_retrieved, tracks_rejected_playlists,
	tracks_rejected_saved, tracks_unique, tracks_removed, tracks_written, error_message,
	started_at, completed_at, created_at, updated_at, deleted_at
`

// RunRepository implements models.Repository[*models.Run] for the run journal.
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Run] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	c := run.Counts()
	_, err = r.db.Exec(query,
		id,
		sequence,
		run.TargetName(),
		nullable(run.TargetPlaylistID()),
		nullable(run.TargetURL()),
		run.TargetCreated(),
		run.SourcesString(),
		run.IncludeLiked(),
		string(run.Status()),
		c.Retrieved, c.RejectedPlaylists, c.RejectedSaved, c.Unique, c.Removed, c.Written,
		nullable(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Update writes the target, status, counts and completion time of an existing run
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET target_playlist_id = ?, target_url = ?, target_created = ?, status = ?,
			tracks_retrieved = ?, tracks_rejected_playlists = ?, tracks_rejected_saved = ?, tracks_unique = ?,
			tracks_removed = ?, tracks_written = ?, error_message = ?,
			completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	c := run.Counts()
	result, err := r.db.Exec(query,
		nullable(run.TargetPlaylistID()),
		nullable(run.TargetURL()),
		run.TargetCreated(),
		string(run.Status()),
		c.Retrieved, c.RejectedPlaylists, c.RejectedSaved, c.Unique, c.Removed, c.Written,
		nullable(run.ErrorMessage()),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w or already deleted: %s", ErrRunNotFound, run.ID())
	}

	return nil
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	query := `
		UPDATE runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w or already deleted: %s", ErrRunNotFound, id)
	}

	return nil
}

// List retrieves runs matching the given criteria, newest first, excluding soft-deleted runs.
//
// Supported criteria: "status" (string or [models.RunStatus]), "target_name" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	switch status := criteria["status"].(type) {
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	case models.RunStatus:
		if status != "" {
			query += " AND status = ?"
			args = append(args, string(status))
		}
	}

	if target, ok := criteria["target_name"].(string); ok && target != "" {
		query += " AND target_name = ?"
		args = append(args, target)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans either a [sql.Row] or the current row of [sql.Rows] into a [models.Run]
func scanRun(row rowScanner) (*models.Run, error) {
	var (
		id               string
		sequence         int
		targetName       string
		targetPlaylistID sql.NullString
		targetURL        sql.NullString
		targetCreated    int
		sources          string
		includeLiked     int
		status           string
		counts           models.RunCounts
		errorMessage     sql.NullString
		startedAt        time.Time
		completedAt      sql.NullTime
		createdAt        time.Time
		updatedAt        time.Time
		deletedAt        sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &targetName, &targetPlaylistID, &targetURL, &targetCreated,
		&sources, &includeLiked, &status, &counts.Retrieved, &counts.RejectedPlaylists,
		&counts.RejectedSaved, &counts.Unique, &counts.Removed, &counts.Written, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewRun(sequence, targetName, models.SplitSources(sources), includeLiked != 0)
	run.SetID(id)
	run.SetTarget(targetPlaylistID.String, targetURL.String, targetCreated != 0)
	run.SetStatus(models.RunStatus(status))
	run.SetCounts(counts)
	run.SetErrorMessage(errorMessage.String)
	run.SetStartedAt(startedAt)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

// nullable stores empty strings as NULL
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
