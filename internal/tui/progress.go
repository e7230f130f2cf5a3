package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	tickInterval = 150 * time.Millisecond
	marqueeGap   = "   "

	artifactWidth = 48
	kindWidth     = 8
	statusWidth   = 10
	detailWidth   = 40
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var headers = [...]string{"ARTIFACT", "KIND", "STATUS", "DETAIL"}

// tickMsg drives animation (spinner, marquee).
type tickMsg time.Time

// Row is one artifact in the fetch table.
type Row struct {
	Key    string
	Kind   string
	Status string
	Detail string
}

// FetchModel is a bubbletea model rendering one row per requested artifact
// while the fetch interceptor works through them.
type FetchModel struct {
	rows     []Row
	rowIndex map[string]int
	title    string
	done     bool
	err      error

	// Animation state.
	tick int
}

// NewFetchModel creates an empty model with the given title.
func NewFetchModel(title string) FetchModel {
	return FetchModel{
		rowIndex: make(map[string]int),
		title:    title,
	}
}

// AddRow pre-populates a pending row. Call this before the program starts.
func (m *FetchModel) AddRow(key, kind string) {
	m.rowIndex[key] = len(m.rows)
	m.rows = append(m.rows, Row{Key: key, Kind: kind, Status: StatusPending})
}

// Rows returns a copy of the current rows.
func (m FetchModel) Rows() []Row {
	out := make([]Row, len(m.rows))
	copy(out, m.rows)
	return out
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init satisfies the tea.Model interface.
func (m FetchModel) Init() tea.Cmd {
	return scheduleTick()
}

// Update satisfies the tea.Model interface.
func (m FetchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		if m.done {
			return m, nil
		}
		return m, scheduleTick()

	case RowUpdateMsg:
		if idx, ok := m.rowIndex[msg.Key]; ok {
			m.rows[idx].Status = msg.Status
			m.rows[idx].Detail = msg.Detail
		}
		return m, nil

	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View satisfies the tea.Model interface.
func (m FetchModel) View() string {
	if m.done && m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	return RenderTable(m.title, m.rows, m.done, m.tick)
}

// RenderTable draws rows as a table. While work is in progress long values
// scroll and a spinner footer is shown; once done a summary line follows.
func RenderTable(title string, rows []Row, done bool, tick int) string {
	widths := [...]int{artifactWidth, kindWidth, statusWidth, detailWidth}
	var b strings.Builder

	if title != "" {
		b.WriteString(HeaderStyle.Render(title))
		b.WriteString("\n\n")
	}

	headerParts := make([]string, len(headers))
	for i, h := range headers {
		headerParts[i] = HeaderStyle.Render(pad(h, widths[i]))
	}
	b.WriteString(strings.Join(headerParts, "  "))
	b.WriteByte('\n')

	for _, row := range rows {
		fields := [...]string{row.Key, row.Kind, row.Status, NonEmptyOrDash(row.Detail)}
		parts := make([]string, len(fields))
		for i, val := range fields {
			if !done && len(strings.TrimSpace(val)) > widths[i] {
				val = marqueeText(val, widths[i], tick)
			} else {
				val = TruncateWithEllipsis(val, widths[i])
			}
			if i == 2 {
				parts[i] = StatusStyle(val).Render(pad(val, widths[i]))
			} else {
				parts[i] = pad(val, widths[i])
			}
		}
		b.WriteString(strings.Join(parts, "  "))
		b.WriteByte('\n')
	}

	processed, failed := counts(rows)
	if !done {
		spinner := spinnerFrames[tick%len(spinnerFrames)]
		fmt.Fprintf(&b, "\n%s Fetching %d/%d...\n", spinner, processed, len(rows))
	} else {
		b.WriteByte('\n')
		b.WriteString(SummaryStyle.Render(fmt.Sprintf("%d artifacts, %d failed", len(rows), failed)))
		b.WriteByte('\n')
	}
	return b.String()
}

// counts returns how many rows have finished and how many of those failed.
func counts(rows []Row) (processed, failed int) {
	for _, row := range rows {
		if terminal(row.Status) {
			processed++
		}
		if row.Status == StatusFailed {
			failed++
		}
	}
	return processed, failed
}

// Done returns whether the model has finished (work done or error).
func (m FetchModel) Done() bool {
	return m.done
}

// Err returns any fatal error that occurred.
func (m FetchModel) Err() error {
	return m.err
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// marqueeText renders a scrolling window over text that exceeds the given width.
// The text slides left on each tick, with a gap between cycles.
func marqueeText(text string, width, tick int) string {
	text = strings.TrimSpace(text)
	if width <= 0 {
		return ""
	}
	if len(text) <= width {
		return text
	}
	cycle := text + marqueeGap
	cycleLen := len(cycle)
	offset := tick % cycleLen
	var result strings.Builder
	result.Grow(width)
	for i := 0; i < width; i++ {
		result.WriteByte(cycle[(offset+i)%cycleLen])
	}
	return result.String()
}

// NonEmptyOrDash returns "-" for empty/whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis truncates a string and adds "..." if it exceeds max length.
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
