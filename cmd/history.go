package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/reshuffle/internal/formatter"
	"github.com/desertthunder/reshuffle/internal/models"
	"github.com/desertthunder/reshuffle/internal/repositories"
	"github.com/desertthunder/reshuffle/internal/shared"
)

// History lists journaled runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if status := models.RunStatus(cmd.String("status")); status != "" {
		if !status.Valid() {
			return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidArgument, status)
		}
		criteria["status"] = status
	}

	db, err := shared.OpenJournal(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open run journal: %w", err)
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).List(criteria)
	if err != nil {
		return err
	}
	r.logger.Debug("loaded runs", "count", len(runs))

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(runs, format, path)
		if err != nil {
			return err
		}
		return r.writePlain("✓ %d runs written to %s\n", len(runs), written)
	}

	data, err := formatter.Export(runs, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if format == formatter.FormatJSON {
		return r.writePlain("\n")
	}
	return nil
}

// HistoryDelete soft-deletes one run from the journal.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	db, err := shared.OpenJournal(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open run journal: %w", err)
	}
	defer db.Close()

	if err := repositories.NewRunRepository(db).Delete(id); err != nil {
		return err
	}

	return r.writePlain("✓ Run %s deleted\n", id)
}
