package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/reshuffle/internal/models"
	"github.com/desertthunder/reshuffle/internal/repositories"
	"github.com/desertthunder/reshuffle/internal/shared"
	"github.com/desertthunder/reshuffle/internal/tasks"
	"github.com/desertthunder/reshuffle/internal/ui"
)

// runOutput is the JSON document printed by run --json.
type runOutput struct {
	RunID  string           `json:"run_id,omitempty"`
	Target string           `json:"target"`
	Status models.RunStatus `json:"status"`
	Result *tasks.RunResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Run executes the reshuffle pipeline with options from the config and flags.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	opts := r.runOptions(cmd)
	if err := opts.Validate(); err != nil {
		return err
	}

	catalog := r.catalog
	if catalog == nil {
		svc, err := r.connect(ctx, r.cachePath(cmd), false)
		if err != nil {
			return err
		}
		catalog = svc
	}

	journal, err := r.startJournal(opts)
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.close()
	}

	logger := r.logger
	if journal != nil {
		logger = shared.WithLogger(r.logger, "run", journal.run.Sequence())
	}

	engine := tasks.NewShuffleEngine(catalog)

	var (
		result  *tasks.RunResult
		runErr  error
		started = true
	)
	if cmd.Bool("tui") {
		result, started, runErr = r.runInteractive(ctx, engine, opts, !cmd.Bool("yes"))
	} else {
		result, runErr = runWithProgress(ctx, engine, opts, logger)
	}

	if !started {
		journal.discard(logger)
		return r.writePlain("Cancelled\n")
	}

	journal.finish(logger, result, runErr)

	if cmd.Bool("json") {
		out := runOutput{Target: opts.TargetName, Status: runStatus(result, runErr), Result: result}
		if journal != nil {
			out.RunID = journal.run.ID()
		}
		if runErr != nil {
			out.Error = runErr.Error()
		}
		if err := r.writeJSON(out, true); err != nil {
			return err
		}
	} else if !cmd.Bool("tui") {
		if err := r.writePlain("\n%s", ui.Summary(r.palette(), opts.TargetName, result, runErr)); err != nil {
			return err
		}
	}

	return runErr
}

// runOptions merges the [reshuffle] config section with the run flags. Flags win when set.
func (r *Runner) runOptions(cmd *cli.Command) tasks.RunOptions {
	cfg := r.config.Reshuffle
	opts := tasks.DefaultRunOptions()

	sources := cfg.Sources
	if cmd.IsSet("source-playlists") {
		sources = strings.Split(cmd.String("source-playlists"), ",")
	}
	opts.Sources = tasks.SourceSet{PlaylistIDs: parseSources(sources), IncludeSaved: cfg.IncludeLiked}
	if cmd.IsSet("include-liked") {
		opts.Sources.IncludeSaved = cmd.Bool("include-liked")
	}

	if cfg.Target != "" {
		opts.TargetName = cfg.Target
	}
	if cmd.IsSet("target-playlist-name") {
		opts.TargetName = cmd.String("target-playlist-name")
	}

	if cfg.Market != "" {
		opts.Market = cfg.Market
	}
	if cmd.IsSet("market") {
		opts.Market = cmd.String("market")
	}

	if cfg.Description != "" {
		opts.Description = cfg.Description
	}
	if cfg.SearchLimit != 0 {
		opts.SearchLimit = cfg.SearchLimit
	}
	if cfg.BatchSize != 0 {
		opts.BatchSize = cfg.BatchSize
	}

	return opts
}

// parseSources accepts playlist ids, spotify:playlist: URIs and open.spotify.com links.
// Blank entries and repeated playlists are dropped.
func parseSources(raw []string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, s := range raw {
		id := playlistID(strings.TrimSpace(s))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func playlistID(s string) string {
	if rest, ok := strings.CutPrefix(s, "spotify:playlist:"); ok {
		return rest
	}
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i+1 < len(parts); i++ {
			if parts[i] == "playlist" {
				return parts[i+1]
			}
		}
		return ""
	}
	return s
}

// runWithProgress runs engine while a consumer goroutine logs every progress update.
func runWithProgress(ctx context.Context, engine *tasks.ShuffleEngine, opts tasks.RunOptions, logger *log.Logger) (*tasks.RunResult, error) {
	progress := make(chan tasks.ProgressUpdate, 100)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			logProgress(logger, update)
		}
	}()

	result, err := engine.Run(ctx, opts, progress)
	close(progress)
	<-done

	return result, err
}

func logProgress(logger *log.Logger, update tasks.ProgressUpdate) {
	kv := []any{"phase", update.Phase}
	if update.Total > 0 {
		kv = append(kv, "step", update.Step, "total", update.Total)
	}

	switch {
	case update.Phase == tasks.RejectTrack && update.Total == 0:
		logger.Debug(update.Message, kv...)
	case update.Warning:
		logger.Warn(update.Message, kv...)
	default:
		logger.Info(update.Message, kv...)
	}
}

// runInteractive runs engine inside the bubbletea view, which takes the place of progress logging.
func (r *Runner) runInteractive(ctx context.Context, engine *tasks.ShuffleEngine, opts tasks.RunOptions, confirm bool) (*tasks.RunResult, bool, error) {
	model := ui.NewModel(ctx, engine, opts, confirm)
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, false, fmt.Errorf("error running TUI: %w", err)
	}

	// a killed program leaves the engine running until it sees the cancelled context
	return model.Wait()
}

func runStatus(result *tasks.RunResult, err error) models.RunStatus {
	switch {
	case err != nil:
		return models.RunFailed
	case result != nil && result.Empty:
		return models.RunEmpty
	default:
		return models.RunCompleted
	}
}

// runJournal records one run when [history] is enabled. Methods are no-ops on a nil journal.
type runJournal struct {
	repo  *repositories.RunRepository
	run   *models.Run
	close func() error
}

func (r *Runner) startJournal(opts tasks.RunOptions) (*runJournal, error) {
	if !r.config.History.Enabled {
		return nil, nil
	}

	db, err := shared.OpenJournal(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open run journal: %w", err)
	}

	repo := repositories.NewRunRepository(db)
	run := models.NewRun(0, opts.TargetName, opts.Sources.PlaylistIDs, opts.Sources.IncludeSaved)
	if err := repo.Create(run); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	r.logger.Debug("run recorded", "id", run.ID(), "sequence", run.Sequence())
	return &runJournal{repo: repo, run: run, close: db.Close}, nil
}

func (j *runJournal) finish(logger *log.Logger, result *tasks.RunResult, err error) {
	if j == nil {
		return
	}

	var counts models.RunCounts
	empty := false
	if result != nil {
		counts = models.RunCounts{
			Retrieved:         result.Retrieved,
			RejectedPlaylists: result.RejectedPlaylists,
			RejectedSaved:     result.RejectedSaved,
			Unique:            result.Unique,
			Removed:           result.Removed,
			Written:           result.Written,
		}
		empty = result.Empty
		if result.Target != nil {
			j.run.SetTarget(result.Target.ID, result.Target.ExternalURL, result.TargetCreated)
		}
	}
	j.run.Finish(counts, empty, err)

	if err := j.repo.Update(j.run); err != nil {
		logger.Warn("failed to update run journal", "error", err)
	}
}

// discard removes the row of a run that never started.
func (j *runJournal) discard(logger *log.Logger) {
	if j == nil {
		return
	}
	if err := j.repo.Delete(j.run.ID()); err != nil {
		logger.Warn("failed to discard run", "error", err)
	}
}
