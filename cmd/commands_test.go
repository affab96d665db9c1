package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/reshuffle/internal/formatter"
	"github.com/desertthunder/reshuffle/internal/services"
	"github.com/desertthunder/reshuffle/internal/shared"
	tu "github.com/desertthunder/reshuffle/internal/testing"
	"github.com/desertthunder/reshuffle/internal/tracks"
)

type cliHarness struct {
	runner  *Runner
	catalog *tu.FakeCatalog
	output  *bytes.Buffer
	dbPath  string
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	dbPath := filepath.Join(dir, "data", "reshuffle.db")
	t.Setenv("RESHUFFLE_DB_PATH", dbPath)

	config := shared.DefaultConfig()
	config.History.Enabled = true

	catalog := tu.NewFakeCatalog("user1")
	catalog.AddCollection(services.Collection{ID: "p1", Name: "Morning", OwnerID: "user1"}, tu.TrackItems("a", "b", "c")...)
	catalog.AddCollection(services.Collection{ID: "p2", Name: "Evening", OwnerID: "other"}, tu.TrackItems("c", "d")...)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: catalog,
		Logger:  shared.NewLogger(&bytes.Buffer{}),
		Output:  output,
	})

	return &cliHarness{runner: runner, catalog: catalog, output: output, dbPath: dbPath}
}

func (h *cliHarness) run(args ...string) error {
	h.output.Reset()
	return rootCommand(h.runner).Run(context.Background(), append([]string{"reshuffle"}, args...))
}

func TestRunCommand(t *testing.T) {
	t.Run("writes the target and prints JSON", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("run", "-s", "p1,spotify:playlist:p2", "-t", "Mix", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var out struct {
			RunID  string `json:"run_id"`
			Status string `json:"status"`
			Result struct {
				Retrieved     int    `json:"retrieved"`
				Unique        int    `json:"unique"`
				Written       int    `json:"written"`
				TargetCreated bool   `json:"target_created"`
				TargetURL     string `json:"target_url"`
			} `json:"result"`
		}
		if err := json.Unmarshal(h.output.Bytes(), &out); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", h.output.String(), err)
		}

		if out.Status != "completed" {
			t.Errorf("expected status completed, got %s", out.Status)
		}
		if out.RunID == "" {
			t.Error("expected the journal id in the output")
		}
		if out.Result.Retrieved != 5 || out.Result.Unique != 4 || out.Result.Written != 4 {
			t.Errorf("unexpected counts %+v", out.Result)
		}
		if !out.Result.TargetCreated {
			t.Error("expected a new target playlist")
		}

		written := h.catalog.TrackIDs("created-1")
		slices.Sort(written)
		if !slices.Equal(written, []tracks.TrackID{"a", "b", "c", "d"}) {
			t.Errorf("unexpected target contents %v", written)
		}
	})

	t.Run("root command runs the pipeline", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("-s", "p1", "-t", "Mix"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Written:") {
			t.Errorf("expected the run summary, got %q", h.output.String())
		}
		if len(h.catalog.CallsTo("CreateCollection")) != 1 {
			t.Errorf("expected one created playlist, got %v", h.catalog.CallsTo("CreateCollection"))
		}
	})

	t.Run("flags override the config", func(t *testing.T) {
		h := newHarness(t)
		h.runner.config.Reshuffle.Sources = []string{"p2"}
		h.runner.config.Reshuffle.Target = "Configured"

		if err := h.run("run", "-s", "p1", "--market", "DE", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if calls := h.catalog.CallsTo("CollectionItems"); len(calls) != 1 || !strings.Contains(calls[0], "p1") {
			t.Errorf("expected only p1 to be read, got %v", calls)
		}
		if !slices.Contains(h.catalog.Markets, "DE") {
			t.Errorf("expected market DE, got %v", h.catalog.Markets)
		}
		if calls := h.catalog.CallsTo("CreateCollection"); len(calls) != 1 || !strings.Contains(calls[0], "Configured") {
			t.Errorf("expected the configured target name, got %v", calls)
		}
	})

	t.Run("no sources", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("run", "-t", "Mix")
		if !errors.Is(err, shared.ErrNoSources) {
			t.Errorf("expected ErrNoSources, got %v", err)
		}
		if len(h.catalog.Calls) != 0 {
			t.Errorf("expected no catalog calls, got %v", h.catalog.Calls)
		}
	})

	t.Run("failed runs are journaled", func(t *testing.T) {
		h := newHarness(t)
		h.catalog.FailAfter("AppendItems", 0, shared.ErrServiceUnavailable)

		err := h.run("run", "-s", "p1", "-t", "Mix")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}

		if err := h.run("history", "--status", "failed", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var records []formatter.RunRecord
		if err := json.Unmarshal(h.output.Bytes(), &records); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", h.output.String(), err)
		}
		if len(records) != 1 || records[0].Error == "" {
			t.Errorf("expected one failed run with its error, got %+v", records)
		}
	})

	t.Run("missing explicit config", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("--config", "missing.toml", "run", "-s", "p1")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestHistoryCommand(t *testing.T) {
	t.Run("lists and deletes runs", func(t *testing.T) {
		h := newHarness(t)

		for range 2 {
			if err := h.run("run", "-s", "p1", "-t", "Mix"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}

		if err := h.run("history", "-f", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var records []formatter.RunRecord
		if err := json.Unmarshal(h.output.Bytes(), &records); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", h.output.String(), err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(records))
		}
		if records[0].Sequence != 2 || records[1].Sequence != 1 {
			t.Errorf("expected newest first, got %d then %d", records[0].Sequence, records[1].Sequence)
		}
		if records[1].Counts.Written != 3 || !records[1].TargetCreated {
			t.Errorf("unexpected first run %+v", records[1])
		}
		if records[0].TargetCreated {
			t.Error("expected the second run to reuse the target")
		}

		if err := h.run("history", "delete", records[0].ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := h.run("history", "-n", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "#1 ") || strings.Contains(h.output.String(), "#2 ") {
			t.Errorf("expected only the first run, got %q", h.output.String())
		}
	})

	t.Run("writes an export file", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("run", "-s", "p1", "-t", "Mix"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		path := filepath.Join(t.TempDir(), "exports", "history.md")
		if err := h.run("history", "-f", "markdown", "-o", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileContains(t, path, "# Reshuffle History", "**Runs**: 1", "Mix")
	})

	t.Run("empty journal", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("history"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "No runs recorded") {
			t.Errorf("expected empty message, got %q", h.output.String())
		}
	})

	t.Run("invalid arguments", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("history", "--status", "bogus"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := h.run("history", "--format", "yaml"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := h.run("history", "delete"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestSetupCommand(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		h := newHarness(t)
		path := filepath.Join(t.TempDir(), "conf", "config.toml")

		if err := h.run("--config", path, "setup", "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		if err := h.run("--config", path, "setup", "config"); err == nil {
			t.Error("expected an error when the config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := os.Stat(h.dbPath); err != nil {
			t.Fatalf("expected database file, got %v", err)
		}
		if !strings.Contains(h.output.String(), "schema version 1") {
			t.Errorf("unexpected output %q", h.output.String())
		}

		if err := h.run("setup", "database", "--rollback"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "schema version 0") {
			t.Errorf("unexpected output %q", h.output.String())
		}

		if err := h.run("setup", "database", "--rollback"); err == nil {
			t.Error("expected an error with nothing left to roll back")
		}
	})
}
