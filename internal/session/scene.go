package session

import (
	"time"

	"github.com/DedFishy/WikiSpeedrun/logging"
)

// Scene is the single top-level UI mode. Exactly one is active at any time.
type Scene int

const (
	SceneLoading Scene = iota
	SceneRoomEntry
	SceneRoomSettings
	SceneWikiWindow
	SceneVictory
	SceneConnectFailed
)

func (s Scene) String() string {
	switch s {
	case SceneLoading:
		return "loading"
	case SceneRoomEntry:
		return "room-entry"
	case SceneRoomSettings:
		return "room-settings"
	case SceneWikiWindow:
		return "wiki-window"
	case SceneVictory:
		return "victory"
	case SceneConnectFailed:
		return "connect-failed"
	default:
		return "unknown"
	}
}

// parseScene maps the scene names the server puts on the wire.
func parseScene(name string) (Scene, bool) {
	switch name {
	case "loading":
		return SceneLoading, true
	case "room":
		return SceneRoomEntry, true
	case "roomSettings":
		return SceneRoomSettings, true
	case "wikiWindow":
		return SceneWikiWindow, true
	case "victory":
		return SceneVictory, true
	case "connectFailed":
		return SceneConnectFailed, true
	default:
		return SceneLoading, false
	}
}

// setScene unconditionally activates the target scene. Any pending
// connection timeout is cancelled unless the target is the terminal
// connect-failed scene, which the timeout itself produces.
func (s *Session) setScene(target Scene) {
	s.scene = target
	if target != SceneConnectFailed {
		s.connTimer.cancel()
	}
	s.display.Apply(SceneUpdate{Scene: target, LoadingMessage: s.loadingMessage})
	s.publish("scene_transition", logging.SeverityDebug, map[string]any{"scene": target.String()})
}

// setLoading snapshots the active scene for the later setNotLoading and
// shows the loading overlay. The snapshot slot never holds SceneLoading:
// back-to-back setLoading calls keep the first snapshot.
func (s *Session) setLoading(message string) {
	if s.scene != SceneLoading {
		s.sceneBeforeLoading = s.scene
	}
	s.loadingMessage = message
	s.setScene(SceneLoading)
}

// setNotLoading restores the scene that was active before the loading
// overlay. Callers must pair it with a preceding setLoading.
func (s *Session) setNotLoading() {
	s.loadingMessage = ""
	s.setScene(s.sceneBeforeLoading)
}

// setLoadTimeout arms the single connection timeout; expiry forces the
// connect-failed scene regardless of what is on screen. Re-arming replaces
// any previous timer.
func (s *Session) setLoadTimeout() {
	s.connTimer.arm(s.connectTimeout, func() {
		s.do(func() {
			s.setScene(SceneConnectFailed)
		})
	})
}

// timerSlot holds at most one live timer. Arming replaces and cancels any
// prior one. Only the session loop touches a slot, so there is no lock.
type timerSlot struct {
	timer *time.Timer
}

func (t *timerSlot) arm(d time.Duration, fn func()) {
	t.cancel()
	t.timer = time.AfterFunc(d, fn)
}

func (t *timerSlot) cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *timerSlot) pending() bool {
	return t.timer != nil
}
