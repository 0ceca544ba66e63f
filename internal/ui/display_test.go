package ui

import (
	"testing"
	"time"

	"github.com/DedFishy/WikiSpeedrun/internal/session"
)

func TestDisplayDeliversUpdatesInOrder(t *testing.T) {
	t.Parallel()

	d := NewDisplay(4)
	d.Apply(session.NotificationUpdate{Text: "first", Visible: true})
	d.Apply(session.NotificationUpdate{Text: "second", Visible: true})

	first := (<-d.Updates()).(session.NotificationUpdate)
	second := (<-d.Updates()).(session.NotificationUpdate)
	if first.Text != "first" || second.Text != "second" {
		t.Fatalf("updates out of order: %q, %q", first.Text, second.Text)
	}
}

func TestDrainUnblocksApplyDuringShutdown(t *testing.T) {
	t.Parallel()

	d := NewDisplay(1)
	d.Drain()

	// A burst far past the buffer must not block once nothing else reads.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 256; i++ {
			d.Apply(session.NotificationUpdate{Visible: true})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Apply blocked during drained shutdown")
	}
	d.Close()
}

func TestCloseEndsUpdatesStream(t *testing.T) {
	t.Parallel()

	d := NewDisplay(1)
	d.Close()
	if _, ok := <-d.Updates(); ok {
		t.Fatalf("updates channel still open after Close")
	}
}
