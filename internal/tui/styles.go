package tui

import "github.com/charmbracelet/lipgloss"

// Row statuses.
const (
	StatusPending    = "pending"
	StatusFetching   = "fetching"
	StatusInstalling = "installing"
	StatusFetched    = "fetched"
	StatusInstalled  = "installed"
	StatusFailed     = "failed"
)

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	// SummaryStyle styles the closing summary line.
	SummaryStyle = lipgloss.NewStyle().Faint(true)

	statusStyles = map[string]lipgloss.Style{
		StatusFetched:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StatusInstalled: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"ready":         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		StatusFetching:   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusInstalling: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		"missing": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),

		StatusFailed: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		StatusPending: lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// terminal reports whether a row in this status has finished.
func terminal(status string) bool {
	switch status {
	case StatusFetched, StatusInstalled, StatusFailed:
		return true
	}
	return false
}
