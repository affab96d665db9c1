package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/reshuffle/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConfirmView ViewState = iota
	RunView
	ResultView
)

// maxWarnings is the number of recent warnings kept on screen.
const maxWarnings = 5

// Runner runs the pipeline; [tasks.ShuffleEngine] implements it.
type Runner interface {
	Run(ctx context.Context, opts tasks.RunOptions, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)
}

// Model is the bubbletea model for an interactive run.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	engine       Runner
	opts         tasks.RunOptions
	palette      *Palette
	progressChan chan tasks.ProgressUpdate
	done         chan runCompleteMsg
	finished     chan struct{}
	outcome      runCompleteMsg
	progress     tasks.ProgressUpdate
	warnings     []string
	warnCount    int
	result       *tasks.RunResult
	err          error
	started      bool
	cancelled    bool
	quitting     bool
	spinner      spinner.Model
	bar          progress.Model
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI for one run of engine with opts. With confirm unset the run starts immediately.
func NewModel(ctx context.Context, engine Runner, opts tasks.RunOptions, confirm bool) *Model {
	ctx, cancel := context.WithCancel(ctx)
	m := &Model{
		ctx:     ctx,
		cancel:  cancel,
		view:    ConfirmView,
		engine:  engine,
		opts:    opts,
		palette: DefaultPalette,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
	if !confirm {
		m.view = RunView
	}
	return m
}

// Result returns the outcome once the program has exited. started is false when the user declined.
func (m *Model) Result() (result *tasks.RunResult, started bool, err error) {
	return m.result, m.started, m.err
}

// Wait blocks until a started run has returned and reports its outcome.
//
// It does not depend on the update loop, so it also serves a program that was killed mid-run.
func (m *Model) Wait() (result *tasks.RunResult, started bool, err error) {
	if !m.started {
		return nil, false, nil
	}
	<-m.finished
	return m.outcome.result, true, m.outcome.err
}

// Init starts the spinner, and the run itself when no confirmation is needed.
func (m *Model) Init() tea.Cmd {
	if m.view == RunView {
		return tea.Batch(m.spinner.Tick, m.startRun())
	}
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if w := msg.Width - 8; w > 10 && w < 60 {
			m.bar.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != RunView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		update := tasks.ProgressUpdate(msg)
		if update.Warning {
			m.warnCount++
			m.warnings = append(m.warnings, update.Message)
			if len(m.warnings) > maxWarnings {
				m.warnings = m.warnings[len(m.warnings)-maxWarnings:]
			}
		} else {
			m.progress = update
		}
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case ConfirmView:
		switch {
		case key.Matches(msg, m.keys.yes):
			m.view = RunView
			return m, tea.Batch(m.spinner.Tick, m.startRun())
		case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
			m.cancel()
			return m, tea.Quit
		}
	case RunView:
		if key.Matches(msg, m.keys.quit) {
			// quit once runCompleteMsg arrives with the partial result
			m.cancelled = true
			m.quitting = true
			m.cancel()
		}
	case ResultView:
		if key.Matches(msg, m.keys.quit) || key.Matches(msg, m.keys.no) {
			m.cancel()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) startRun() tea.Cmd {
	m.started = true
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan runCompleteMsg, 1)
	m.finished = make(chan struct{})

	progressChan, done, finished := m.progressChan, m.done, m.finished
	go func() {
		defer close(finished)
		result, err := m.engine.Run(m.ctx, m.opts, progressChan)
		m.outcome = runCompleteMsg{result: result, err: err}
		done <- m.outcome
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, done := m.progressChan, m.done
	return func() tea.Msg {
		update, ok := <-progressChan
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	}
	return ""
}

func (m *Model) renderConfirm() string {
	title := m.palette.Title(fmt.Sprintf("Reshuffle into '%s'?", m.opts.TargetName))

	var sources []string
	if n := len(m.opts.Sources.PlaylistIDs); n > 0 {
		sources = append(sources, fmt.Sprintf("%d playlists", n))
	}
	if m.opts.Sources.IncludeSaved {
		sources = append(sources, "Liked Songs")
	}
	info := fmt.Sprintf("Sources: %s\nThe target playlist will be cleared and refilled.\n", strings.Join(sources, " + "))

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s\n", title, info, helpView)
}

func (m *Model) renderRun() string {
	var b strings.Builder
	b.WriteString(m.palette.Title("Reshuffling " + m.opts.TargetName))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), PhaseLabel(m.progress.Phase))
	if m.progress.Message != "" {
		fmt.Fprintf(&b, "  %s\n", m.progress.Message)
	}

	switch m.progress.Phase {
	case tasks.FetchSource, tasks.ClearTarget, tasks.AddTracks:
		if m.progress.Total > 0 {
			fmt.Fprintf(&b, "  %s\n", m.bar.ViewAs(float64(m.progress.Step)/float64(m.progress.Total)))
		}
	}

	if m.warnCount > 0 {
		fmt.Fprintf(&b, "\n%s\n", m.palette.Warn(fmt.Sprintf("%d warnings", m.warnCount)))
		for _, w := range m.warnings {
			fmt.Fprintf(&b, "  %s\n", m.palette.Help(w))
		}
	}

	if m.cancelled {
		fmt.Fprintf(&b, "\n%s\n", m.palette.Warn("Cancelling..."))
	} else {
		fmt.Fprintf(&b, "\n%s\n", m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	}
	return b.String()
}

func (m *Model) renderResult() string {
	summary := Summary(m.palette, m.opts.TargetName, m.result, m.err)
	return fmt.Sprintf("%s\n%s\n", summary, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}
