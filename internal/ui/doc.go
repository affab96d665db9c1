// Package ui renders reshuffle runs in the terminal.
//
// [Summary] formats a [tasks.RunResult] with the lipgloss styles of a [Palette]; the plain CLI output uses it
// directly.
//
// [Model] is an optional bubbletea interface for a run: a confirmation view, a progress view fed by the
// engine's progress channel (spinner, batch progress bar and recent warnings), and a result view.
// Quitting during a run cancels the engine's context and waits for it to return its partial result.
package ui
