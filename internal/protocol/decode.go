package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEvent reports an inbound event name outside the closed set the
// client understands. Callers log and skip these rather than guessing.
var ErrUnknownEvent = errors.New("unknown event")

// Inbound is the closed union of everything the client can receive. Session
// code switches over it exhaustively; Decode never returns a type outside
// this file.
type Inbound interface {
	inboundEvent()
}

// Connected and Disconnected are synthesized by the transport, not carried
// on the wire.
type Connected struct{}

// Disconnected marks a dropped connection; the transport keeps retrying
// after delivering it.
type Disconnected struct{}

// RoomJoined is the response to try_join_room or try_create_room.
type RoomJoined struct {
	Info RoomInfo
}

// RoomUpdated is a room_update broadcast.
type RoomUpdated struct {
	Info RoomInfo
}

// GameStarted is the start broadcast.
type GameStarted StartPayload

// NavResult is the navpage response.
type NavResult NavPagePayload

// Victory is the victory_race broadcast.
type Victory VictoryPayload

// SceneForced is a change_user_scene or change_all_scenes push.
type SceneForced ScenePayload

// ForceDisconnected is a moderation kick; terminal for the client.
type ForceDisconnected struct{}

// UsernameChanged is the change_username response.
type UsernameChanged UsernamePayload

// SearchResult is the search_pages response.
type SearchResult AckPayload

// StartGameAck is the start_game_response response.
type StartGameAck AckPayload

// ChatReceived is a send_chat_message broadcast.
type ChatReceived ChatPayload

func (Connected) inboundEvent()         {}
func (Disconnected) inboundEvent()      {}
func (RoomJoined) inboundEvent()        {}
func (RoomUpdated) inboundEvent()       {}
func (GameStarted) inboundEvent()       {}
func (NavResult) inboundEvent()         {}
func (Victory) inboundEvent()           {}
func (SceneForced) inboundEvent()       {}
func (ForceDisconnected) inboundEvent() {}
func (UsernameChanged) inboundEvent()   {}
func (SearchResult) inboundEvent()      {}
func (StartGameAck) inboundEvent()      {}
func (ChatReceived) inboundEvent()      {}

// Decode maps a wire event name and raw payload onto the inbound union.
// Unknown names return ErrUnknownEvent wrapped with the offending name.
func Decode(event string, data json.RawMessage) (Inbound, error) {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	switch event {
	case EventJoinRoom, EventCreateRoom:
		var info RoomInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", event, err)
		}
		return RoomJoined{Info: info}, nil
	case EventRoomUpdate:
		var info RoomInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", event, err)
		}
		return RoomUpdated{Info: info}, nil
	case EventStart:
		return decodeAs[GameStarted](event, data)
	case EventNavPage:
		return decodeAs[NavResult](event, data)
	case EventVictoryRace:
		return decodeAs[Victory](event, data)
	case EventChangeUserScene, EventChangeAllScenes:
		return decodeAs[SceneForced](event, data)
	case EventForceDisconnect:
		return ForceDisconnected{}, nil
	case EventChangeUsername:
		return decodeAs[UsernameChanged](event, data)
	case EventSearchPages:
		return decodeAs[SearchResult](event, data)
	case EventStartGameResponse:
		return decodeAs[StartGameAck](event, data)
	case EventSendChatMessage:
		return decodeAs[ChatReceived](event, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
}

func decodeAs[T Inbound](event string, data json.RawMessage) (Inbound, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", event, err)
	}
	return payload, nil
}
