package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	spotifyGreen = lipgloss.AdaptiveColor{Light: "#138A3E", Dark: "#1DB954"}
	accent       = lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#7D56F4"}
	failure      = lipgloss.AdaptiveColor{Light: "#C41E3A", Dark: "#FF4D4D"}
	caution      = lipgloss.AdaptiveColor{Light: "#B36B00", Dark: "#FFA500"}
	muted        = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#626262"}
)

// DefaultPalette styles the run summary and the interactive view.
var DefaultPalette = &Palette{
	TitleStyle: lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1),
	OKStyle:    lipgloss.NewStyle().Bold(true).Foreground(spotifyGreen),
	ErrStyle:   lipgloss.NewStyle().Bold(true).Foreground(failure),
	WarnStyle:  lipgloss.NewStyle().Foreground(caution),
	HelpStyle:  lipgloss.NewStyle().Italic(true).Foreground(muted),
}

// PlainPalette renders text unchanged.
var PlainPalette = &Palette{}

// Palette groups the styles used for terminal output. A zero style renders its input unchanged.
type Palette struct {
	TitleStyle lipgloss.Style
	OKStyle    lipgloss.Style
	ErrStyle   lipgloss.Style
	WarnStyle  lipgloss.Style
	HelpStyle  lipgloss.Style
}

func (p *Palette) Title(s string) string { return p.TitleStyle.Render(s) }
func (p *Palette) OK(s string) string    { return p.OKStyle.Render(s) }
func (p *Palette) Err(s string) string   { return p.ErrStyle.Render(s) }
func (p *Palette) Warn(s string) string  { return p.WarnStyle.Render(s) }
func (p *Palette) Help(s string) string  { return p.HelpStyle.Render(s) }
