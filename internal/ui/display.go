package ui

import "github.com/DedFishy/WikiSpeedrun/internal/session"

// Display adapts the session's rendering boundary onto a channel the
// bubbletea program drains. The session loop is the only producer.
type Display struct {
	updates chan session.Update
}

func NewDisplay(buffer int) *Display {
	if buffer <= 0 {
		buffer = 64
	}
	return &Display{updates: make(chan session.Update, buffer)}
}

func (d *Display) Apply(u session.Update) {
	d.updates <- u
}

func (d *Display) Updates() <-chan session.Update {
	return d.updates
}

// Drain discards updates until Close. Once the program stops reading, the
// session loop can still be flushing a burst; draining keeps its Apply calls
// from blocking while it winds down.
func (d *Display) Drain() {
	go func() {
		for range d.updates {
		}
	}()
}

// Close releases the program's listen command and any drainer; call only
// after the session loop has stopped.
func (d *Display) Close() {
	close(d.updates)
}
