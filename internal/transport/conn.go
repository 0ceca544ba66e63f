// Package transport maintains the persistent event channel to the room
// server: one websocket carrying JSON frames of {"event", "data"}. Inbound
// frames are decoded into the protocol union and delivered in arrival order
// on a single channel, with synthetic Connected/Disconnected markers around
// each connection's lifetime. Reconnection is automatic with capped backoff.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/DedFishy/WikiSpeedrun/internal/protocol"
	"github.com/DedFishy/WikiSpeedrun/logging"
)

const (
	writeWait      = 10 * time.Second
	initialBackoff = time.Second
	maxBackoff     = 10 * time.Second
)

// ErrNotConnected reports an Emit while no connection is up. Callers treat
// it as a skipped send; the next connect re-announces presence anyway.
var ErrNotConnected = errors.New("not connected")

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Conn struct {
	url string
	id  string
	pub logging.Publisher

	dialer *websocket.Dialer
	events chan protocol.Inbound

	mu sync.Mutex
	ws *websocket.Conn

	cancel context.CancelFunc
	done   chan struct{}
}

// Dial starts the connection loop and returns immediately; the first
// Connected event arrives on Events once the socket is up.
func Dial(ctx context.Context, url string, pub logging.Publisher) *Conn {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	runCtx, cancel := context.WithCancel(ctx)
	c := &Conn{
		url:    url,
		id:     uuid.NewString(),
		pub:    pub,
		dialer: websocket.DefaultDialer,
		events: make(chan protocol.Inbound, 32),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run(runCtx)
	return c
}

// Events delivers decoded inbound events in arrival order. The channel
// closes after Close or context cancellation.
func (c *Conn) Events() <-chan protocol.Inbound {
	return c.events
}

// Emit sends one event frame. Payload nil means an empty data object.
func (c *Conn) Emit(event string, payload any) error {
	f := frame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		f.Data = data
	}
	buf, err := json.Marshal(f)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return ErrNotConnected
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, buf)
}

// Close tears the connection down and stops the reconnect loop.
func (c *Conn) Close() {
	c.cancel()
	c.mu.Lock()
	if c.ws != nil {
		c.ws.Close()
	}
	c.mu.Unlock()
	<-c.done
}

func (c *Conn) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return
		}
		ws, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.log("dial_failed", logging.SeverityWarn, map[string]any{"error": err.Error()})
			if !sleep(ctx, backoff) {
				return
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initialBackoff

		c.setConn(ws)
		if !c.deliver(ctx, protocol.Connected{}) {
			c.setConn(nil)
			ws.Close()
			return
		}
		c.readLoop(ctx, ws)
		c.setConn(nil)
		ws.Close()

		if ctx.Err() != nil {
			return
		}
		if !c.deliver(ctx, protocol.Disconnected{}) {
			return
		}
		if !sleep(ctx, initialBackoff) {
			return
		}
	}
}

func (c *Conn) readLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.log("read_failed", logging.SeverityInfo, map[string]any{"error": err.Error()})
			}
			return
		}

		var f frame
		if err := json.Unmarshal(payload, &f); err != nil {
			c.log("malformed_frame", logging.SeverityWarn, map[string]any{"error": err.Error()})
			continue
		}

		ev, err := protocol.Decode(f.Event, f.Data)
		if err != nil {
			c.log("rejected_event", logging.SeverityWarn, map[string]any{"event": f.Event, "error": err.Error()})
			continue
		}
		if !c.deliver(ctx, ev) {
			return
		}
	}
}

func (c *Conn) setConn(ws *websocket.Conn) {
	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()
}

func (c *Conn) deliver(ctx context.Context, ev protocol.Inbound) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Conn) log(eventType logging.EventType, sev logging.Severity, payload map[string]any) {
	c.pub.Publish(context.Background(), logging.Event{
		Type:     eventType,
		Actor:    logging.EntityRef{ID: c.id, Kind: logging.EntityKindTransport},
		Severity: sev,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}
