package monitor

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/s22625/jobctl/internal/model"
	"github.com/s22625/jobctl/internal/panel"
)

// Color palette
var (
	colorGreen   = lipgloss.Color("42")
	colorYellow  = lipgloss.Color("214")
	colorRed     = lipgloss.Color("196")
	colorBlue    = lipgloss.Color("39")
	colorGray    = lipgloss.Color("245")
	colorMagenta = lipgloss.Color("165")
	colorWhite   = lipgloss.Color("255")
	colorBorder  = lipgloss.Color("240")
	colorDim     = lipgloss.Color("238")
)

// Styles defines the visual styles for the monitor dashboard
type Styles struct {
	FullBox  lipgloss.Style
	AlertBox lipgloss.Style

	// Text styles
	Title   lipgloss.Style
	Header  lipgloss.Style
	Normal  lipgloss.Style
	Muted   lipgloss.Style
	Faint   lipgloss.Style
	Notice  lipgloss.Style
	Alert   lipgloss.Style
	Control lipgloss.Style
	Dimmed  lipgloss.Style

	// Job and thread states
	StateIdle     lipgloss.Style
	StateRunning  lipgloss.Style
	StatePaused   lipgloss.Style
	ThreadActive  lipgloss.Style
	ThreadPaused  lipgloss.Style
	ThreadStopped lipgloss.Style
	ThreadUnknown lipgloss.Style

	Indicator string
}

// DefaultStyles returns the default style configuration
func DefaultStyles() Styles {
	return Styles{
		FullBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder),

		AlertBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Padding(1, 3),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGray),

		Normal: lipgloss.NewStyle().
			Foreground(colorWhite),

		Muted: lipgloss.NewStyle().
			Foreground(colorGray),

		Faint: lipgloss.NewStyle().
			Faint(true),

		Notice: lipgloss.NewStyle().
			Foreground(colorYellow),

		Alert: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorRed),

		Control: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite),

		Dimmed: lipgloss.NewStyle().
			Foreground(colorDim),

		StateIdle: lipgloss.NewStyle().
			Foreground(colorGray),

		StateRunning: lipgloss.NewStyle().
			Foreground(colorGreen),

		StatePaused: lipgloss.NewStyle().
			Foreground(colorYellow),

		ThreadActive: lipgloss.NewStyle().
			Foreground(colorGreen),

		ThreadPaused: lipgloss.NewStyle().
			Foreground(colorYellow),

		ThreadStopped: lipgloss.NewStyle().
			Foreground(colorBlue),

		ThreadUnknown: lipgloss.NewStyle().
			Foreground(colorMagenta),

		Indicator: "●",
	}
}

// StyleState returns styled job state text
func (s Styles) StyleState(state panel.State) string {
	switch state {
	case panel.StateRunning:
		return s.StateRunning.Render(string(state))
	case panel.StatePaused:
		return s.StatePaused.Render(string(state))
	default:
		return s.StateIdle.Render(string(state))
	}
}

// ThreadStyle returns the style for a reported thread state.
func (s Styles) ThreadStyle(state model.ThreadState) lipgloss.Style {
	switch state {
	case model.ThreadActive:
		return s.ThreadActive
	case model.ThreadPaused:
		return s.ThreadPaused
	case model.ThreadStopped:
		return s.ThreadStopped
	default:
		return s.ThreadUnknown
	}
}

// threadColor is the bar fill for a thread state.
func threadColor(state model.ThreadState) lipgloss.Color {
	switch state {
	case model.ThreadActive:
		return colorGreen
	case model.ThreadPaused:
		return colorYellow
	case model.ThreadStopped:
		return colorBlue
	default:
		return colorMagenta
	}
}
