package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/reshuffle/internal/models"
	"github.com/desertthunder/reshuffle/internal/shared"
	th "github.com/desertthunder/reshuffle/internal/testing"
)

func testRuns() []*models.Run {
	completed := models.NewRun(2, "Morning | Mix", []string{"p1", "p2"}, true)
	completed.SetID("run-2")
	completed.SetTarget("pl1", "https://open.spotify.com/playlist/pl1", true)
	completed.Finish(models.RunCounts{Retrieved: 12, RejectedPlaylists: 1, RejectedSaved: 2, Unique: 10, Removed: 4, Written: 10}, false, nil)

	failed := models.NewRun(1, "Reshuffle", nil, true)
	failed.SetID("run-1")
	failed.Finish(models.RunCounts{Retrieved: 3, Unique: 3}, false, errors.New("token expired"))

	return []*models.Run{completed, failed}
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"txt", FormatText},
		{"CSV", FormatCSV},
		{".json", FormatJSON},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
	}

	for _, tt := range tc {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	runs := testRuns()

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(runs)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}
		if records[0][0] != "Sequence" || records[0][len(records[0])-1] != "Error" {
			t.Errorf("unexpected headers %v", records[0])
		}

		row := records[1]
		if row[1] != "run-2" || row[2] != "completed" || row[3] != "Morning | Mix" {
			t.Errorf("unexpected first row %v", row)
		}
		if row[6] != "p1;p2" {
			t.Errorf("expected joined sources, got %s", row[6])
		}
		if row[9] != "1" || row[10] != "2" {
			t.Errorf("expected rejects per source kind, got %s and %s", row[9], row[10])
		}
		if row[13] != "10" {
			t.Errorf("expected written count 10, got %s", row[13])
		}
		if records[2][16] != "token expired" {
			t.Errorf("expected error column, got %v", records[2])
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(runs)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var records []RunRecord
		if err := json.Unmarshal(data, &records); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].Counts.Written != 10 || !records[0].TargetCreated {
			t.Errorf("unexpected first record %+v", records[0])
		}
		if records[1].Status != models.RunFailed || records[1].Error != "token expired" {
			t.Errorf("unexpected second record %+v", records[1])
		}
		if records[1].Sources == nil {
			t.Error("sources should encode as an empty array")
		}

		empty, err := ExportToJSON(nil)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		if string(empty) != "[]" {
			t.Errorf("expected empty array, got %s", empty)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(runs)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Reshuffle History") {
			t.Error("Markdown missing title")
		}
		if !strings.Contains(output, "**Runs**: 2") {
			t.Error("Markdown missing run count")
		}
		if !strings.Contains(output, `[Morning \| Mix](https://open.spotify.com/playlist/pl1)`) {
			t.Errorf("Markdown should link and escape the target, got:\n%s", output)
		}
		if !strings.Contains(output, "| 1 | failed | Reshuffle |") {
			t.Errorf("Markdown missing failed run, got:\n%s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(runs)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "#2 ") || !strings.Contains(output, "(completed)") {
			t.Errorf("Text missing first run header, got:\n%s", output)
		}
		if !strings.Contains(output, "retrieved 12, rejected 1 from playlists and 2 from Liked Songs, unique 10, removed 4, written 10") {
			t.Error("Text missing counts")
		}
		if !strings.Contains(output, "error: token expired") {
			t.Error("Text missing error line")
		}

		empty, _ := ExportToText(nil)
		if string(empty) != "No runs recorded\n" {
			t.Errorf("unexpected empty output %q", empty)
		}
	})

	t.Run("Export Unknown Format", func(t *testing.T) {
		if _, err := Export(runs, Format("yaml")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	runs := testRuns()

	t.Run("Explicit Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "history.csv")

		written, err := WriteExport(runs, FormatCSV, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != path {
			t.Errorf("expected %s, got %s", path, written)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "Sequence,ID,Status") {
			t.Errorf("unexpected file content %q", content)
		}
	})

	t.Run("Default Path", func(t *testing.T) {
		t.Chdir(t.TempDir())

		written, err := WriteExport(runs, FormatMarkdown, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != "reshuffle_history.md" {
			t.Errorf("expected default filename, got %s", written)
		}
		th.AssertFileExists(t, written)
	})
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		in   time.Duration
		want string
	}{
		{0, "-"},
		{300 * time.Millisecond, "<1s"},
		{1500 * time.Millisecond, "2s"},
		{90 * time.Second, "1m30s"},
	}

	for _, tt := range tc {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
