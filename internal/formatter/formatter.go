// package formatter renders the run journal in various formats (CSV, JSON, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/reshuffle/internal/models"
	"github.com/desertthunder/reshuffle/internal/shared"
)

// Format names an output format for the run journal.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts a format name or its usual file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, s)
}

// Extension returns the file extension used when writing f.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// RunRecord is the flat, serializable view of a [models.Run].
type RunRecord struct {
	ID            string           `json:"id"`
	Sequence      int              `json:"sequence"`
	Status        models.RunStatus `json:"status"`
	Target        string           `json:"target"`
	TargetID      string           `json:"target_id,omitempty"`
	TargetURL     string           `json:"target_url,omitempty"`
	TargetCreated bool             `json:"target_created"`
	Sources       []string         `json:"sources"`
	IncludeLiked  bool             `json:"include_liked"`
	Counts        models.RunCounts `json:"counts"`
	Error         string           `json:"error,omitempty"`
	StartedAt     time.Time        `json:"started_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}

// ToRecord flattens run for serialization.
func ToRecord(run *models.Run) RunRecord {
	sources := run.Sources()
	if sources == nil {
		sources = []string{}
	}
	return RunRecord{
		ID:            run.ID(),
		Sequence:      run.Sequence(),
		Status:        run.Status(),
		Target:        run.TargetName(),
		TargetID:      run.TargetPlaylistID(),
		TargetURL:     run.TargetURL(),
		TargetCreated: run.TargetCreated(),
		Sources:       sources,
		IncludeLiked:  run.IncludeLiked(),
		Counts:        run.Counts(),
		Error:         run.ErrorMessage(),
		StartedAt:     run.StartedAt(),
		CompletedAt:   run.CompletedAt(),
	}
}

// Export renders runs in the given format.
func Export(runs []*models.Run, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(runs)
	case FormatJSON:
		return ExportToJSON(runs)
	case FormatMarkdown:
		return ExportToMarkdown(runs)
	case FormatText, "":
		return ExportToText(runs)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, format)
}

// ExportToCSV converts runs to CSV format with one row per run
func ExportToCSV(runs []*models.Run) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{
		"Sequence", "ID", "Status", "Target", "Target URL", "Created",
		"Sources", "Liked", "Retrieved", "Rejected Playlists", "Rejected Liked", "Unique", "Removed", "Written",
		"Started", "Duration", "Error",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, run := range runs {
		c := run.Counts()
		record := []string{
			strconv.Itoa(run.Sequence()),
			run.ID(),
			string(run.Status()),
			run.TargetName(),
			run.TargetURL(),
			strconv.FormatBool(run.TargetCreated()),
			strings.Join(run.Sources(), ";"),
			strconv.FormatBool(run.IncludeLiked()),
			strconv.Itoa(c.Retrieved),
			strconv.Itoa(c.RejectedPlaylists),
			strconv.Itoa(c.RejectedSaved),
			strconv.Itoa(c.Unique),
			strconv.Itoa(c.Removed),
			strconv.Itoa(c.Written),
			run.StartedAt().UTC().Format(time.RFC3339),
			FormatDuration(run.Duration()),
			run.ErrorMessage(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts runs to an indented JSON array of [RunRecord]
func ExportToJSON(runs []*models.Run) ([]byte, error) {
	records := make([]RunRecord, 0, len(runs))
	for _, run := range runs {
		records = append(records, ToRecord(run))
	}
	return shared.MarshalJSON(records, true)
}

// ExportToMarkdown converts runs to a Markdown table
func ExportToMarkdown(runs []*models.Run) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Reshuffle History\n\n")
	buf.WriteString(fmt.Sprintf("**Runs**: %d\n\n", len(runs)))

	if len(runs) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Status | Target | Written | Removed | Started | Duration |\n")
	buf.WriteString("|---|--------|--------|---------|---------|---------|----------|\n")
	for _, run := range runs {
		target := escapeCell(run.TargetName())
		if url := run.TargetURL(); url != "" {
			target = fmt.Sprintf("[%s](%s)", target, url)
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %d | %s | %s |\n",
			run.Sequence(), run.Status(), target, run.Counts().Written, run.Counts().Removed,
			run.StartedAt().UTC().Format(time.DateTime), FormatDuration(run.Duration())))
	}

	return buf.Bytes(), nil
}

// ExportToText converts runs to plain text format
func ExportToText(runs []*models.Run) ([]byte, error) {
	var buf bytes.Buffer

	if len(runs) == 0 {
		buf.WriteString("No runs recorded\n")
		return buf.Bytes(), nil
	}

	for _, run := range runs {
		c := run.Counts()
		buf.WriteString(fmt.Sprintf("#%d %s %s (%s)\n",
			run.Sequence(), run.StartedAt().Local().Format(time.DateTime), run.TargetName(), run.Status()))
		buf.WriteString(fmt.Sprintf("    retrieved %d, rejected %d from playlists and %d from Liked Songs, unique %d, removed %d, written %d\n",
			c.Retrieved, c.RejectedPlaylists, c.RejectedSaved, c.Unique, c.Removed, c.Written))
		if url := run.TargetURL(); url != "" {
			buf.WriteString(fmt.Sprintf("    %s\n", url))
		}
		if msg := run.ErrorMessage(); msg != "" {
			buf.WriteString(fmt.Sprintf("    error: %s\n", msg))
		}
	}

	return buf.Bytes(), nil
}

// WriteExport renders runs and writes them to path.
//
// An empty path defaults to reshuffle_history with the format's extension.
func WriteExport(runs []*models.Run, format Format, path string) (string, error) {
	if path == "" {
		path = "reshuffle_history" + format.Extension()
	}

	data, err := Export(runs, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// FormatDuration renders d rounded to the second, or "-" for an unfinished run.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return "<1s"
	}
	return d.Round(time.Second).String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
