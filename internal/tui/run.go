package tui

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork creates a bubbletea program, launches workFn in a goroutine,
// and blocks until the program exits. workFn receives a send callback that
// wraps tea.Program.Send with a small yield to give the renderer time to
// draw between updates. The final model is returned so callers can print
// a static copy of the table.
func RunWithWork(out io.Writer, model FetchModel, workFn func(send func(tea.Msg))) (FetchModel, error) {
	p := tea.NewProgram(model, tea.WithOutput(out))

	go func() {
		// Let bubbletea start its event loop and render the initial frame.
		time.Sleep(50 * time.Millisecond)

		workFn(func(msg tea.Msg) {
			p.Send(msg)
			time.Sleep(5 * time.Millisecond)
		})

		p.Send(WorkDoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return model, err
	}
	m, ok := finalModel.(FetchModel)
	if !ok {
		return model, nil
	}
	return m, m.Err()
}

// Collect applies updates to rows without a terminal program, for plain and
// JSON output. The returned send function is safe to call from one goroutine.
func Collect(rows []Row) (send func(tea.Msg), result func() []Row) {
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		index[row.Key] = i
	}
	send = func(msg tea.Msg) {
		update, ok := msg.(RowUpdateMsg)
		if !ok {
			return
		}
		if i, ok := index[update.Key]; ok {
			rows[i].Status = update.Status
			rows[i].Detail = update.Detail
		}
	}
	return send, func() []Row { return rows }
}
