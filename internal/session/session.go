// Package session owns the client's game state: the active scene, the
// identity and room mirrors, the chat transcript and the notification slot.
// Every inbound server event and every user intent is serialized through a
// single event loop, so handlers never run concurrently and no state needs
// locking.
package session

import (
	"context"
	"time"

	"github.com/DedFishy/WikiSpeedrun/internal/links"
	"github.com/DedFishy/WikiSpeedrun/internal/protocol"
	"github.com/DedFishy/WikiSpeedrun/internal/wiki"
	"github.com/DedFishy/WikiSpeedrun/logging"
)

const (
	defaultNotificationTimeout = 5 * time.Second
	defaultConnectTimeout      = 10 * time.Second
)

// Transport is the bidirectional event channel to the room server.
type Transport interface {
	Emit(event string, payload any) error
	Events() <-chan protocol.Inbound
}

// Fetcher resolves article content; wiki.Client is the production
// implementation.
type Fetcher interface {
	GetPageHTML(ctx context.Context, pageID string) (wiki.Page, error)
}

// Identity mirrors who the server says we are. Mutated only by confirmed
// server responses, never speculatively.
type Identity struct {
	Name string
	Room string
}

// RoomState mirrors the room configuration. Rebuilt wholesale on every
// room_update-class event.
type RoomState struct {
	StartArticleTitle string
	EndArticleTitle   string
	Owner             string
	Members           []string
	WaitingForPlayers bool
	Code              string
	RequiresCode      bool
	Mode              string
}

// ChatMessage is one transcript line. The transcript is append-only in
// arrival order.
type ChatMessage struct {
	Sender string
	Text   string
}

type Config struct {
	Transport Transport
	Fetcher   Fetcher
	Display   Display
	Publisher logging.Publisher

	// Zero values take the production defaults of 5s and 10s.
	NotificationTimeout time.Duration
	ConnectTimeout      time.Duration
}

// Session is the client-side state machine. All fields below the command
// channel are owned by the event loop.
type Session struct {
	transport Transport
	fetcher   Fetcher
	display   Display
	pub       logging.Publisher

	notificationTimeout time.Duration
	connectTimeout      time.Duration

	commands chan func()

	scene              Scene
	sceneBeforeLoading Scene
	loadingMessage     string
	identity           Identity
	room               RoomState
	chat               []ChatMessage
	everConnected      bool
	banned             bool
	loadGen            uint64
	connTimer          timerSlot
	noteTimer          timerSlot
}

func New(cfg Config) *Session {
	display := cfg.Display
	if display == nil {
		display = nopDisplay{}
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	notificationTimeout := cfg.NotificationTimeout
	if notificationTimeout <= 0 {
		notificationTimeout = defaultNotificationTimeout
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	return &Session{
		transport:           cfg.Transport,
		fetcher:             cfg.Fetcher,
		display:             display,
		pub:                 pub,
		notificationTimeout: notificationTimeout,
		connectTimeout:      connectTimeout,
		commands:            make(chan func(), 64),
		scene:               SceneLoading,
		sceneBeforeLoading:  SceneRoomEntry,
	}
}

// Run drives the event loop until the context is cancelled or the transport
// channel closes. The connection timeout is armed immediately: a client that
// never manages a first connect lands on the connect-failed scene.
func (s *Session) Run(ctx context.Context) {
	s.setLoadTimeout()
	defer func() {
		s.connTimer.cancel()
		s.noteTimer.cancel()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.commands:
			fn()
		case ev, ok := <-s.transport.Events():
			if !ok {
				return
			}
			s.handleInbound(ctx, ev)
		}
	}
}

// do posts work onto the event loop. Once banned the session ignores
// everything.
func (s *Session) do(fn func()) {
	s.commands <- func() {
		if s.banned {
			return
		}
		fn()
	}
}

func (s *Session) emit(event string, payload any) {
	if err := s.transport.Emit(event, payload); err != nil {
		s.pub.Publish(context.Background(), logging.Event{
			Type:     "emit_failed",
			Actor:    logging.EntityRef{Kind: logging.EntityKindTransport},
			Severity: logging.SeverityWarn,
			Category: logging.CategoryNetwork,
			Payload:  map[string]any{"event": event, "error": err.Error()},
		})
	}
}

func (s *Session) publish(eventType logging.EventType, sev logging.Severity, payload any) {
	s.pub.Publish(context.Background(), logging.Event{
		Type:     eventType,
		Actor:    logging.EntityRef{ID: s.identity.Name, Kind: logging.EntityKindClient},
		Severity: sev,
		Category: logging.CategorySession,
		Payload:  payload,
	})
}

// handleInbound reconciles one server event. The switch is exhaustive over
// the protocol's closed inbound union.
func (s *Session) handleInbound(ctx context.Context, ev protocol.Inbound) {
	if s.banned {
		return
	}
	switch ev := ev.(type) {
	case protocol.Connected:
		s.handleConnected()
	case protocol.Disconnected:
		s.setLoading("Disconnected! Reconnecting to the server...")
		s.setLoadTimeout()
	case protocol.RoomJoined:
		s.connectToRoom(ev.Info)
	case protocol.RoomUpdated:
		s.reconcileRoomSettings(ev.Info, false)
	case protocol.GameStarted:
		s.handleGameStarted(ctx, ev)
	case protocol.NavResult:
		if ev.Status == protocol.StatusSuccess {
			s.loadPage(ctx, ev.PageID)
		} else {
			s.notify("Couldn't load that page")
			s.navigateByDirection(protocol.DirectionBack)
		}
	case protocol.Victory:
		s.handleVictory(ev)
	case protocol.SceneForced:
		s.forceScene(ev.Scene)
	case protocol.ForceDisconnected:
		s.banned = true
		s.connTimer.cancel()
		s.noteTimer.cancel()
		s.display.Apply(BannedUpdate{})
		s.publish("force_disconnected", logging.SeverityWarn, nil)
	case protocol.UsernameChanged:
		s.fallible(ev.Status, ev.Error, func() {
			s.identity.Name = ev.Username
			s.notify("Changed username")
		}, nil)
	case protocol.SearchResult:
		s.fallible(ev.Status, ev.Error, nil, func() {
			s.notify("Couldn't find that page")
		})
	case protocol.StartGameAck:
		s.fallible(ev.Status, ev.Error, nil, func() {
			s.setScene(SceneRoomSettings)
		})
	case protocol.ChatReceived:
		s.fallible(ev.Status, ev.Error, func() {
			s.appendChat(ev.Sender, ev.Message)
		}, nil)
	default:
		s.publish("unhandled_event", logging.SeverityWarn, map[string]any{"event": ev})
	}
}

// fallible is the uniform request/response correlation applied to every
// status-bearing server response: failures share one error-notification path
// before the event-specific hook runs.
func (s *Session) fallible(status, errText string, onSuccess, onFailure func()) {
	if status == protocol.StatusFailure {
		s.notify(errText)
		if onFailure != nil {
			onFailure()
		}
		return
	}
	if onSuccess != nil {
		onSuccess()
	}
}

func (s *Session) handleConnected() {
	s.setScene(SceneRoomEntry)
	if s.everConnected {
		s.notify("Reconnected to the server")
	}
	s.emit(protocol.EventClientConnect, nil)
	s.everConnected = true
}

// connectToRoom applies a join_room/create_room response. Identity only
// moves on a confirmed success.
func (s *Session) connectToRoom(info protocol.RoomInfo) {
	if info.Status != protocol.StatusSuccess {
		s.setScene(SceneRoomEntry)
		s.notify(info.Error)
		return
	}
	s.identity.Name = info.Username
	s.identity.Room = info.Name
	s.room = RoomState{Code: info.Code}
	s.chat = nil
	s.display.Apply(ChatClearedUpdate{})
	s.setScene(SceneRoomSettings)
	s.reconcileRoomSettings(info, true)
	s.publish("room_entered", logging.SeverityInfo, map[string]any{"room": info.Name})
}

// reconcileRoomSettings rebuilds the room mirror and the settings view from
// a full server snapshot. Start/end titles only overwrite the mirror when
// non-empty; an empty title marks the input invalid and keeps the prior
// value on screen.
func (s *Session) reconcileRoomSettings(info protocol.RoomInfo, reset bool) {
	players := make([]PlayerEntry, 0, len(info.Players))
	for _, name := range info.Players {
		players = append(players, PlayerEntry{
			Name:  name,
			You:   name == s.identity.Name,
			Owner: name == info.Owner,
		})
	}

	s.room.Owner = info.Owner
	s.room.Members = append([]string(nil), info.Players...)
	s.room.RequiresCode = info.RequiresCode
	s.room.Mode = info.Mode
	if info.Code != "" {
		s.room.Code = info.Code
	}

	update := RoomSettingsUpdate{
		RoomName:      s.identity.Room,
		Code:          s.room.Code,
		Players:       players,
		SearchEnabled: s.identity.Name == info.Owner,
		ResetInputs:   reset,
	}

	if title := info.StartArticle.Title; title != "" {
		s.room.StartArticleTitle = title
		update.Start = FieldUpdate{Title: title}
	} else {
		update.Start = FieldUpdate{Invalid: true}
	}
	if title := info.EndArticle.Title; title != "" {
		s.room.EndArticleTitle = title
		update.End = FieldUpdate{Title: title}
	} else {
		update.End = FieldUpdate{Invalid: true}
	}

	s.display.Apply(update)

	s.room.WaitingForPlayers = info.WaitingForPlayers
	if !info.WaitingForPlayers {
		s.setScene(SceneRoomSettings)
	}
}

func (s *Session) handleGameStarted(ctx context.Context, ev protocol.GameStarted) {
	s.forceScene(ev.Scene)
	s.loadPage(ctx, ev.StartTitle)
	s.setLoading("Loading start page...")
}

func (s *Session) handleVictory(ev protocol.Victory) {
	path := append([]string(nil), ev.PagePath...)
	path = append(path, s.room.EndArticleTitle)
	s.display.Apply(VictoryUpdate{Winner: ev.WinnerName, PagePath: path})
	s.forceScene(ev.Scene)
}

func (s *Session) forceScene(wire string) {
	scene, ok := parseScene(wire)
	if !ok {
		s.publish("unknown_scene", logging.SeverityWarn, map[string]any{"scene": wire})
		return
	}
	s.setScene(scene)
}

// loadPage runs the page-load pipeline: fetch, classify, render. The
// generation token discards results that complete after a newer load
// started; without it a slow fetch could clobber a fresher scene.
func (s *Session) loadPage(ctx context.Context, pageID string) {
	s.loadGen++
	gen := s.loadGen
	s.display.Apply(ArticleClearedUpdate{})
	go func() {
		page, err := s.fetcher.GetPageHTML(ctx, pageID)
		s.commands <- func() {
			s.finishLoad(gen, pageID, page, err)
		}
	}()
}

func (s *Session) finishLoad(gen uint64, pageID string, page wiki.Page, err error) {
	if s.banned {
		return
	}
	if gen != s.loadGen {
		s.publish("stale_page_load", logging.SeverityDebug, map[string]any{"page": pageID})
		return
	}
	if err != nil {
		s.publish("page_load_failed", logging.SeverityWarn, map[string]any{"page": pageID, "error": err.Error()})
		s.navigateByDirection(protocol.DirectionBack)
		return
	}
	article, err := links.Process(page.HTML)
	if err != nil {
		s.publish("page_parse_failed", logging.SeverityWarn, map[string]any{"page": pageID, "error": err.Error()})
		s.navigateByDirection(protocol.DirectionBack)
		return
	}
	s.display.Apply(ArticleUpdate{Title: page.Title, Article: article})
	s.setScene(SceneWikiWindow)
}

// CreateRoom asks the server to create and join a room.
func (s *Session) CreateRoom(room, code string) {
	s.do(func() {
		s.setLoading("Creating room...")
		s.emit(protocol.EventTryCreateRoom, protocol.RoomRequest{Room: room, Code: code})
	})
}

// JoinRoom asks the server to join an existing room.
func (s *Session) JoinRoom(room, code string) {
	s.do(func() {
		s.setLoading("Joining room...")
		s.emit(protocol.EventTryJoinRoom, protocol.RoomRequest{Room: room, Code: code})
	})
}

// LeaveRoom departs the current room.
func (s *Session) LeaveRoom() {
	s.do(func() {
		s.emit(protocol.EventLeaveRoom, nil)
	})
}

// ReturnToRoomSettings signals readiness to go back to the lobby after a
// race.
func (s *Session) ReturnToRoomSettings() {
	s.do(func() {
		s.setLoading("Waiting for other players...")
		s.emit(protocol.EventReturnToRoomSettings, nil)
	})
}

// ChangeUsername requests a rename; identity moves only on the confirmed
// response.
func (s *Session) ChangeUsername(username string) {
	s.do(func() {
		s.emit(protocol.EventTryChangeUsername, protocol.ChangeUsernameRequest{Username: username})
	})
}

// SearchStartArticle asks the server to resolve a query into the start slot.
func (s *Session) SearchStartArticle(query string) {
	s.do(func() {
		s.emit(protocol.EventSearchPages, protocol.SearchRequest{Query: query, Element: protocol.ElementStartArticle})
	})
}

// SearchEndArticle asks the server to resolve a query into the end slot.
func (s *Session) SearchEndArticle(query string) {
	s.do(func() {
		s.emit(protocol.EventSearchPages, protocol.SearchRequest{Query: query, Element: protocol.ElementEndArticle})
	})
}

// StartGame asks the server to start the race; only the owner succeeds.
func (s *Session) StartGame() {
	s.do(func() {
		s.emit(protocol.EventTryStartGame, nil)
		s.setLoading("Starting game...")
	})
}

// SendChat submits a chat line. Empty input is ignored.
func (s *Session) SendChat(text string) {
	if text == "" {
		return
	}
	s.do(func() {
		s.emit(protocol.EventSendChatMessage, protocol.ChatRequest{Text: text})
	})
}
