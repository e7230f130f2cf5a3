package tui

// RowUpdateMsg updates a single artifact row.
type RowUpdateMsg struct {
	Key    string
	Status string
	Detail string
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
