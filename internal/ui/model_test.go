package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DedFishy/WikiSpeedrun/internal/links"
	"github.com/DedFishy/WikiSpeedrun/internal/protocol"
	"github.com/DedFishy/WikiSpeedrun/internal/session"
)

type emitRecord struct {
	event   string
	payload any
}

type fakeTransport struct {
	events chan protocol.Inbound
	emits  chan emitRecord
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events: make(chan protocol.Inbound, 8),
		emits:  make(chan emitRecord, 8),
	}
}

func (f *fakeTransport) Emit(event string, payload any) error {
	f.emits <- emitRecord{event: event, payload: payload}
	return nil
}

func (f *fakeTransport) Events() <-chan protocol.Inbound {
	return f.events
}

func newTestModel(t *testing.T) (Model, *fakeTransport) {
	t.Helper()
	transport := newFakeTransport()
	sess := session.New(session.Config{Transport: transport})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return New(sess, nil), transport
}

func expectEmit(t *testing.T, transport *fakeTransport, event string) emitRecord {
	t.Helper()
	select {
	case rec := <-transport.emits:
		if rec.event != event {
			t.Fatalf("expected emit %q, got %q", event, rec.event)
		}
		return rec
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for emit %q", event)
		return emitRecord{}
	}
}

func TestApplyRoomSettingsKeepsInvalidFieldValue(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m.startSearch.SetValue("Rom")

	m = m.applyUpdate(session.RoomSettingsUpdate{
		Start: session.FieldUpdate{Invalid: true},
		End:   session.FieldUpdate{Title: "Paris"},
	})

	if m.startSearch.Value() != "Rom" {
		t.Fatalf("invalid field clobbered the typed value: %q", m.startSearch.Value())
	}
	if !m.startInvalid {
		t.Fatalf("invalid marker not set")
	}
	if m.endSearch.Value() != "Paris" {
		t.Fatalf("valid field not applied: %q", m.endSearch.Value())
	}

	m = m.applyUpdate(session.RoomSettingsUpdate{
		Start: session.FieldUpdate{Title: "Rome"},
		End:   session.FieldUpdate{Title: "Paris"},
	})
	if m.startSearch.Value() != "Rome" || m.startInvalid {
		t.Fatalf("valid update did not replace the field: %q invalid=%v", m.startSearch.Value(), m.startInvalid)
	}
}

func TestApplyRoomSettingsResetClearsInputs(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m.startSearch.SetValue("stale")
	m.endSearch.SetValue("stale")

	m = m.applyUpdate(session.RoomSettingsUpdate{
		ResetInputs: true,
		Start:       session.FieldUpdate{Invalid: true},
		End:         session.FieldUpdate{Invalid: true},
	})

	if m.startSearch.Value() != "" || m.endSearch.Value() != "" {
		t.Fatalf("reset did not clear inputs: %q %q", m.startSearch.Value(), m.endSearch.Value())
	}
}

func TestChatClearedEmptiesTranscript(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m = m.applyUpdate(session.ChatUpdate{Message: session.ChatMessage{Sender: "bob", Text: "hi"}})
	if len(m.chatLines) != 1 {
		t.Fatalf("chat line not recorded: %v", m.chatLines)
	}

	m = m.applyUpdate(session.ChatClearedUpdate{})
	if len(m.chatLines) != 0 {
		t.Fatalf("transcript not cleared: %v", m.chatLines)
	}
}

func TestFollowLinkDispatchesNavigationIntent(t *testing.T) {
	t.Parallel()

	m, transport := newTestModel(t)
	article, err := links.Process(`<p><a href="https://en.wikipedia.org/wiki/Tiber">Tiber</a></p>`)
	if err != nil {
		t.Fatalf("building article: %v", err)
	}
	m = m.applyUpdate(session.ArticleUpdate{Title: "Rome", Article: article})

	m = m.followLink("1")

	rec := expectEmit(t, transport, protocol.EventGameModeEvent)
	req := rec.payload.(protocol.GameModeRequest)
	if req.PageID != "Tiber" {
		t.Fatalf("navigation target mismatch: %+v", req)
	}
}

func TestFollowLinkOutOfRangeDoesNothing(t *testing.T) {
	t.Parallel()

	m, transport := newTestModel(t)
	m = m.followLink("9")

	select {
	case rec := <-transport.emits:
		t.Fatalf("unexpected emit %+v", rec)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWikiKeysBuildNavBuffer(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m.scene = session.SceneWikiWindow

	next, _ := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1")})
	m = next.(Model)
	next, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	m = next.(Model)
	if m.navBuffer != "12" {
		t.Fatalf("nav buffer mismatch: %q", m.navBuffer)
	}

	next, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.navBuffer != "" {
		t.Fatalf("escape did not clear the buffer: %q", m.navBuffer)
	}
}

func TestViewRendersEachScene(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	cases := []struct {
		scene  session.Scene
		marker string
	}{
		{session.SceneLoading, "Loading"},
		{session.SceneRoomEntry, "Join or create a room"},
		{session.SceneRoomSettings, "Players"},
		{session.SceneWikiWindow, "link number"},
		{session.SceneVictory, "wins!"},
		{session.SceneConnectFailed, "Couldn't reach the server"},
	}
	for _, tc := range cases {
		m.scene = tc.scene
		if view := m.View(); !strings.Contains(view, tc.marker) {
			t.Fatalf("scene %v view missing %q:\n%s", tc.scene, tc.marker, view)
		}
	}
}

func TestViewShowsBannedNotice(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m = m.applyUpdate(session.BannedUpdate{})
	if !strings.Contains(m.View(), "banned") {
		t.Fatalf("banned notice missing:\n%s", m.View())
	}
}
