package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DedFishy/WikiSpeedrun/internal/protocol"
)

const waitTimeout = 5 * time.Second

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// newWSServer runs handle for every websocket connection the server accepts.
func newWSServer(t *testing.T, handle func(ws *websocket.Conn)) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		handle(ws)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func nextEvent(t *testing.T, conn *Conn) protocol.Inbound {
	t.Helper()
	select {
	case ev, ok := <-conn.Events():
		if !ok {
			t.Fatalf("events channel closed unexpectedly")
		}
		return ev
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for inbound event")
		return nil
	}
}

func TestDialDeliversConnectedThenDecodedEvents(t *testing.T) {
	t.Parallel()

	url := newWSServer(t, func(ws *websocket.Conn) {
		ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"navpage","data":{"status":"success","page_id":"Rome"}}`))
		ws.ReadMessage()
	})

	conn := Dial(context.Background(), url, nil)
	defer conn.Close()

	if _, ok := nextEvent(t, conn).(protocol.Connected); !ok {
		t.Fatalf("expected Connected first")
	}
	nav, ok := nextEvent(t, conn).(protocol.NavResult)
	if !ok {
		t.Fatalf("expected NavResult")
	}
	if nav.PageID != "Rome" || nav.Status != protocol.StatusSuccess {
		t.Fatalf("payload mismatch: %+v", nav)
	}
}

func TestEmitWritesEventFrame(t *testing.T) {
	t.Parallel()

	frames := make(chan []byte, 1)
	url := newWSServer(t, func(ws *websocket.Conn) {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			return
		}
		frames <- payload
		ws.ReadMessage()
	})

	conn := Dial(context.Background(), url, nil)
	defer conn.Close()

	if _, ok := nextEvent(t, conn).(protocol.Connected); !ok {
		t.Fatalf("expected Connected first")
	}
	if err := conn.Emit(protocol.EventTryJoinRoom, protocol.RoomRequest{Room: "speedrunners", Code: "1234"}); err != nil {
		t.Fatalf("emitting: %v", err)
	}

	select {
	case payload := <-frames:
		var f struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(payload, &f); err != nil {
			t.Fatalf("decoding frame: %v", err)
		}
		if f.Event != protocol.EventTryJoinRoom {
			t.Fatalf("frame event mismatch: %q", f.Event)
		}
		var req protocol.RoomRequest
		if err := json.Unmarshal(f.Data, &req); err != nil {
			t.Fatalf("decoding frame data: %v", err)
		}
		if req.Room != "speedrunners" || req.Code != "1234" {
			t.Fatalf("frame data mismatch: %+v", req)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("server never received the frame")
	}
}

func TestMalformedAndUnknownFramesAreSkipped(t *testing.T) {
	t.Parallel()

	url := newWSServer(t, func(ws *websocket.Conn) {
		ws.WriteMessage(websocket.TextMessage, []byte(`not json`))
		ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"spectate","data":{}}`))
		ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"force_disconnect"}`))
		ws.ReadMessage()
	})

	conn := Dial(context.Background(), url, nil)
	defer conn.Close()

	if _, ok := nextEvent(t, conn).(protocol.Connected); !ok {
		t.Fatalf("expected Connected first")
	}
	// The garbage and the unknown event are dropped; the next delivery is the
	// valid frame behind them.
	if _, ok := nextEvent(t, conn).(protocol.ForceDisconnected); !ok {
		t.Fatalf("expected ForceDisconnected after skipped frames")
	}
}

func TestEmitWithoutConnectionFails(t *testing.T) {
	t.Parallel()

	// Nothing listens on this port; the dial loop keeps retrying.
	conn := Dial(context.Background(), "ws://127.0.0.1:1/ws", nil)
	defer conn.Close()

	if err := conn.Emit(protocol.EventClientConnect, nil); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestServerDropTriggersDisconnectedAndReconnect(t *testing.T) {
	t.Parallel()

	url := newWSServer(t, func(ws *websocket.Conn) {
		// Drop every connection immediately; the client should come back.
	})

	conn := Dial(context.Background(), url, nil)
	defer conn.Close()

	if _, ok := nextEvent(t, conn).(protocol.Connected); !ok {
		t.Fatalf("expected Connected first")
	}
	if _, ok := nextEvent(t, conn).(protocol.Disconnected); !ok {
		t.Fatalf("expected Disconnected after server drop")
	}
	if _, ok := nextEvent(t, conn).(protocol.Connected); !ok {
		t.Fatalf("expected reconnect after backoff")
	}
}

func TestCloseClosesEventsChannel(t *testing.T) {
	t.Parallel()

	url := newWSServer(t, func(ws *websocket.Conn) {
		ws.ReadMessage()
	})

	conn := Dial(context.Background(), url, nil)
	if _, ok := nextEvent(t, conn).(protocol.Connected); !ok {
		t.Fatalf("expected Connected first")
	}
	conn.Close()

	deadline := time.After(waitTimeout)
	for {
		select {
		case _, ok := <-conn.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("events channel never closed")
		}
	}
}
