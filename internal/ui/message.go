package ui

import (
	"github.com/desertthunder/reshuffle/internal/tasks"
)

// progressUpdateMsg carries one [tasks.ProgressUpdate] into the update loop.
type progressUpdateMsg tasks.ProgressUpdate

// runCompleteMsg is sent once after the progress channel closes.
type runCompleteMsg struct {
	result *tasks.RunResult
	err    error
}
