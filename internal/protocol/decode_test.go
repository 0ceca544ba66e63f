package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeRoomSnapshotEvents(t *testing.T) {
	t.Parallel()

	data := json.RawMessage(`{
		"status": "success",
		"name": "speedrunners",
		"code": "1234",
		"requires_code": true,
		"players": ["alice", "bob"],
		"owner": "alice",
		"mode": "race",
		"start_article": {"title": "Rome", "page_id": "Rome"},
		"end_article": {"title": "Paris", "page_id": "Paris"},
		"waiting_for_players": false,
		"state": "lobby",
		"username": "bob"
	}`)

	joined, err := Decode(EventJoinRoom, data)
	if err != nil {
		t.Fatalf("decoding join_room: %v", err)
	}
	info := joined.(RoomJoined).Info
	if info.Status != StatusSuccess {
		t.Fatalf("status mismatch: %q", info.Status)
	}
	if info.Name != "speedrunners" || info.Owner != "alice" || info.Username != "bob" {
		t.Fatalf("room identity mismatch: %+v", info)
	}
	if len(info.Players) != 2 || info.Players[1] != "bob" {
		t.Fatalf("players mismatch: %v", info.Players)
	}
	if info.StartArticle.Title != "Rome" || info.EndArticle.PageID != "Paris" {
		t.Fatalf("article slots mismatch: %+v", info)
	}
	if !info.RequiresCode || info.WaitingForPlayers {
		t.Fatalf("flags mismatch: %+v", info)
	}

	updated, err := Decode(EventRoomUpdate, data)
	if err != nil {
		t.Fatalf("decoding room_update: %v", err)
	}
	if updated.(RoomUpdated).Info.Name != "speedrunners" {
		t.Fatalf("room_update carried wrong snapshot: %+v", updated)
	}
}

func TestDecodeMapsEveryKnownEvent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		event string
		data  string
		check func(t *testing.T, ev Inbound)
	}{
		{
			event: EventStart,
			data:  `{"status": "success", "scene": "wikiWindow", "start_title": "Rome"}`,
			check: func(t *testing.T, ev Inbound) {
				started := ev.(GameStarted)
				if started.Scene != "wikiWindow" || started.StartTitle != "Rome" {
					t.Fatalf("start payload mismatch: %+v", started)
				}
			},
		},
		{
			event: EventNavPage,
			data:  `{"status": "success", "page_id": "Paris"}`,
			check: func(t *testing.T, ev Inbound) {
				if nav := ev.(NavResult); nav.PageID != "Paris" {
					t.Fatalf("nav payload mismatch: %+v", nav)
				}
			},
		},
		{
			event: EventVictoryRace,
			data:  `{"status": "success", "scene": "victory", "winner_name": "alice", "page_path": ["Rome", "Italy"]}`,
			check: func(t *testing.T, ev Inbound) {
				victory := ev.(Victory)
				if victory.WinnerName != "alice" || len(victory.PagePath) != 2 {
					t.Fatalf("victory payload mismatch: %+v", victory)
				}
			},
		},
		{
			event: EventChangeUserScene,
			data:  `{"status": "success", "scene": "roomSettings"}`,
			check: func(t *testing.T, ev Inbound) {
				if forced := ev.(SceneForced); forced.Scene != "roomSettings" {
					t.Fatalf("scene payload mismatch: %+v", forced)
				}
			},
		},
		{
			event: EventChangeAllScenes,
			data:  `{"status": "success", "scene": "victory"}`,
			check: func(t *testing.T, ev Inbound) {
				if forced := ev.(SceneForced); forced.Scene != "victory" {
					t.Fatalf("scene payload mismatch: %+v", forced)
				}
			},
		},
		{
			event: EventChangeUsername,
			data:  `{"status": "success", "username": "carol"}`,
			check: func(t *testing.T, ev Inbound) {
				if changed := ev.(UsernameChanged); changed.Username != "carol" {
					t.Fatalf("username payload mismatch: %+v", changed)
				}
			},
		},
		{
			event: EventSearchPages,
			data:  `{"status": "failure", "error": "no such page"}`,
			check: func(t *testing.T, ev Inbound) {
				result := ev.(SearchResult)
				if result.Status != StatusFailure || result.Error != "no such page" {
					t.Fatalf("search payload mismatch: %+v", result)
				}
			},
		},
		{
			event: EventStartGameResponse,
			data:  `{"status": "failure", "error": "articles not set"}`,
			check: func(t *testing.T, ev Inbound) {
				if ack := ev.(StartGameAck); ack.Error != "articles not set" {
					t.Fatalf("ack payload mismatch: %+v", ack)
				}
			},
		},
		{
			event: EventSendChatMessage,
			data:  `{"status": "success", "sender": "bob", "message": "hi"}`,
			check: func(t *testing.T, ev Inbound) {
				chat := ev.(ChatReceived)
				if chat.Sender != "bob" || chat.Message != "hi" {
					t.Fatalf("chat payload mismatch: %+v", chat)
				}
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.event, func(t *testing.T) {
			t.Parallel()
			ev, err := Decode(tc.event, json.RawMessage(tc.data))
			if err != nil {
				t.Fatalf("decoding %s: %v", tc.event, err)
			}
			tc.check(t, ev)
		})
	}
}

func TestDecodeForceDisconnectIgnoresPayload(t *testing.T) {
	t.Parallel()

	ev, err := Decode(EventForceDisconnect, nil)
	if err != nil {
		t.Fatalf("decoding force_disconnect: %v", err)
	}
	if _, ok := ev.(ForceDisconnected); !ok {
		t.Fatalf("expected ForceDisconnected, got %T", ev)
	}
}

func TestDecodeEmptyDataDefaultsToEmptyObject(t *testing.T) {
	t.Parallel()

	ev, err := Decode(EventNavPage, nil)
	if err != nil {
		t.Fatalf("decoding navpage without data: %v", err)
	}
	if nav := ev.(NavResult); nav.Status != "" || nav.PageID != "" {
		t.Fatalf("expected zero payload, got %+v", nav)
	}
}

func TestDecodeRejectsUnknownEvent(t *testing.T) {
	t.Parallel()

	if _, err := Decode("spectate", json.RawMessage(`{}`)); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	t.Parallel()

	if _, err := Decode(EventNavPage, json.RawMessage(`{"page_id": 7}`)); err == nil {
		t.Fatalf("expected decode error for mistyped payload")
	}
	if _, err := Decode(EventJoinRoom, json.RawMessage(`[]`)); err == nil {
		t.Fatalf("expected decode error for non-object snapshot")
	}
}
