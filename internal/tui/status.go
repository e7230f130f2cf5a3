package tui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// PhaseTiming records how long a bootstrap phase took.
type PhaseTiming struct {
	Name    string        `json:"name"`
	Elapsed time.Duration `json:"elapsed"`
}

// StatusWriter prints a spinning status line to a writer while the
// toolchain bootstraps. Each Update starts a new phase; finished phases are
// kept with their durations.
type StatusWriter struct {
	w          io.Writer
	mu         sync.Mutex
	message    string
	phaseStart time.Time
	phases     []PhaseTiming
	done       chan struct{}
	stopped    bool
}

// NewStatusWriter starts a background spinner that renders the current
// status message to w every 100ms.
func NewStatusWriter(w io.Writer) *StatusWriter {
	sw := &StatusWriter{
		w:          w,
		phaseStart: time.Now(),
		done:       make(chan struct{}),
	}
	go sw.loop()
	return sw
}

// Update closes the current phase and starts a new one named msg.
func (sw *StatusWriter) Update(msg string) {
	sw.mu.Lock()
	sw.closePhase()
	sw.message = msg
	sw.phaseStart = time.Now()
	sw.mu.Unlock()
}

// Stop clears the status line and stops the spinner.
func (sw *StatusWriter) Stop() {
	sw.mu.Lock()
	if sw.stopped {
		sw.mu.Unlock()
		return
	}
	sw.stopped = true
	sw.closePhase()
	sw.message = ""
	sw.mu.Unlock()
	close(sw.done)
	fmt.Fprintf(sw.w, "\r\033[K")
}

// Phases returns the finished phases in order.
func (sw *StatusWriter) Phases() []PhaseTiming {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	out := make([]PhaseTiming, len(sw.phases))
	copy(out, sw.phases)
	return out
}

// closePhase must be called with mu held.
func (sw *StatusWriter) closePhase() {
	if sw.message == "" {
		return
	}
	sw.phases = append(sw.phases, PhaseTiming{Name: sw.message, Elapsed: time.Since(sw.phaseStart)})
}

func (sw *StatusWriter) loop() {
	tick := 0
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sw.done:
			return
		case <-ticker.C:
			sw.mu.Lock()
			msg := sw.message
			start := sw.phaseStart
			sw.mu.Unlock()
			if msg == "" {
				continue
			}

			spinner := spinnerFrames[tick%len(spinnerFrames)]
			tick++
			fmt.Fprintf(sw.w, "\r\033[K%s %s (%s)", spinner, msg, FormatElapsed(time.Since(start)))
		}
	}
}

// FormatElapsed formats a duration for display in status lines.
func FormatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < 10*time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
