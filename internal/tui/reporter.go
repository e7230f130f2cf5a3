package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"haxeboot/internal/artifact"
	"haxeboot/internal/fetch"
)

// Artifact kinds shown in the KIND column.
const (
	KindArchive = "archive"
	KindHybrid  = "hybrid"
	KindHaxelib = "haxelib"
)

// Kind classifies an artifact the way the fetch interceptor routes it.
func Kind(id artifact.Identity) string {
	switch {
	case id.Type == artifact.TypePomHaxelib:
		return KindHybrid
	case id.IsManaged():
		return KindHaxelib
	default:
		return KindArchive
	}
}

// FetchReporter adapts bubbletea message sending to fetch.Reporter. Rows are
// keyed by the artifact as first seen, since hybrid downloads are rewritten
// to their archive form mid-flight.
type FetchReporter struct {
	send func(tea.Msg)

	mu      sync.Mutex
	started map[*fetch.Download]Row
}

// NewFetchReporter returns a reporter delivering row updates through send.
func NewFetchReporter(send func(tea.Msg)) *FetchReporter {
	return &FetchReporter{send: send, started: map[*fetch.Download]Row{}}
}

// Start implements fetch.Reporter.
func (r *FetchReporter) Start(d *fetch.Download) {
	row := Row{Key: d.Artifact.String(), Kind: Kind(d.Artifact), Status: StatusFetching}
	if row.Kind != KindArchive {
		row.Status = StatusInstalling
	}
	r.mu.Lock()
	r.started[d] = row
	r.mu.Unlock()

	r.send(RowUpdateMsg{Key: row.Key, Status: row.Status})
}

// Complete implements fetch.Reporter.
func (r *FetchReporter) Complete(d *fetch.Download) {
	r.mu.Lock()
	row, ok := r.started[d]
	delete(r.started, d)
	r.mu.Unlock()
	if !ok {
		row = Row{Key: d.Artifact.String(), Kind: Kind(d.Artifact)}
	}

	msg := RowUpdateMsg{Key: row.Key, Status: CompletedStatus(row.Kind, d.Err), Detail: d.File}
	if d.Err != nil {
		msg.Detail = d.Err.Error()
	}
	r.send(msg)
}

// CompletedStatus is the final row status for a download of the given kind.
func CompletedStatus(kind string, err error) string {
	switch {
	case err != nil:
		return StatusFailed
	case kind == KindArchive:
		return StatusFetched
	default:
		return StatusInstalled
	}
}
