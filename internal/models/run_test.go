package models

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	t.Run("NewRun", func(t *testing.T) {
		sources := []string{"a", "b"}
		run := NewRun(0, "Reshuffle", sources, true)
		sources[0] = "changed"

		if run.Status() != RunRunning {
			t.Errorf("expected running status, got %s", run.Status())
		}
		if run.Sources()[0] != "a" {
			t.Error("run should keep its own copy of the sources")
		}
		if run.Duration() != 0 {
			t.Error("running run should have no duration")
		}
		if err := run.Validate(); err != nil {
			t.Errorf("expected valid run, got %v", err)
		}
	})

	t.Run("Finish", func(t *testing.T) {
		tc := []struct {
			name  string
			empty bool
			err   error
			want  RunStatus
		}{
			{"completed", false, nil, RunCompleted},
			{"empty", true, nil, RunEmpty},
			{"failed", false, errors.New("boom"), RunFailed},
			{"failure wins over empty", true, errors.New("boom"), RunFailed},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				run := NewRun(0, "Reshuffle", nil, false)
				run.Finish(RunCounts{Retrieved: 2, Unique: 2, Written: 2}, tt.empty, tt.err)

				if run.Status() != tt.want {
					t.Errorf("expected %s, got %s", tt.want, run.Status())
				}
				if run.CompletedAt() == nil {
					t.Error("expected completion time")
				}
				if tt.err != nil && run.ErrorMessage() != "boom" {
					t.Errorf("expected error message, got %q", run.ErrorMessage())
				}
			})
		}
	})

	t.Run("Validate", func(t *testing.T) {
		run := NewRun(0, " ", nil, false)
		run.SetStatus("paused")
		run.SetCounts(RunCounts{Retrieved: 1, Unique: 2, Written: 3, Removed: -1})

		err := run.Validate()
		if err == nil {
			t.Fatal("expected validation errors")
		}
		for _, want := range []string{"target name", "unknown status", "negative", "unique count", "written count"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("expected %q in %v", want, err)
			}
		}
	})

	t.Run("Sources", func(t *testing.T) {
		run := NewRun(0, "Reshuffle", []string{"a", "b", "c"}, false)
		if run.SourcesString() != "a,b,c" {
			t.Errorf("unexpected joined sources %q", run.SourcesString())
		}
		if got := SplitSources(run.SourcesString()); !slices.Equal(got, []string{"a", "b", "c"}) {
			t.Errorf("unexpected split sources %v", got)
		}
		if got := SplitSources(""); got != nil {
			t.Errorf("expected nil for empty sources, got %v", got)
		}
	})

	t.Run("Rejected Counts Both Source Kinds", func(t *testing.T) {
		c := RunCounts{Retrieved: 5, RejectedPlaylists: 2, RejectedSaved: 3}
		if c.Rejected() != 5 {
			t.Errorf("expected 5 rejected, got %d", c.Rejected())
		}

		c.RejectedSaved = -1
		run := NewRun(1, "Mix", nil, true)
		run.SetCounts(c)
		if err := run.Validate(); err == nil {
			t.Error("expected negative rejects to fail validation")
		}
	})
}
