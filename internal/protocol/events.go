package protocol

// Event names the client emits to the room server.
const (
	EventClientConnect        = "client_connect"
	EventTryChangeUsername    = "try_change_username"
	EventSearchPages          = "search_pages"
	EventTryStartGame         = "try_start_game"
	EventTryCreateRoom        = "try_create_room"
	EventTryJoinRoom          = "try_join_room"
	EventLeaveRoom            = "leave_room"
	EventReturnToRoomSettings = "return_to_room_settings"
	EventSendChatMessage      = "send_chat_message"
	EventGameModeEvent        = "game_mode_event"
)

// Event names the room server pushes to the client. EventSearchPages and
// EventSendChatMessage double as response names for their requests.
const (
	EventJoinRoom          = "join_room"
	EventCreateRoom        = "create_room"
	EventRoomUpdate        = "room_update"
	EventStart             = "start"
	EventNavPage           = "navpage"
	EventVictoryRace       = "victory_race"
	EventChangeUserScene   = "change_user_scene"
	EventChangeAllScenes   = "change_all_scenes"
	EventForceDisconnect   = "force_disconnect"
	EventChangeUsername    = "change_username"
	EventStartGameResponse = "start_game_response"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Payload members of game_mode_event.
const (
	GameModeNavPage  = "navpage"
	DirectionBack    = "back"
	DirectionForward = "forward"
)

// Search target element names understood by the server.
const (
	ElementStartArticle = "start_article"
	ElementEndArticle   = "end_article"
)

// ChangeUsernameRequest is the payload of try_change_username.
type ChangeUsernameRequest struct {
	Username string `json:"username"`
}

// SearchRequest is the payload of search_pages.
type SearchRequest struct {
	Query   string `json:"query"`
	Element string `json:"element"`
}

// RoomRequest is the payload of try_create_room and try_join_room.
type RoomRequest struct {
	Room string `json:"room"`
	Code string `json:"code"`
}

// ChatRequest is the payload of send_chat_message.
type ChatRequest struct {
	Text string `json:"text"`
}

// GameModeRequest is the payload of game_mode_event. Exactly one of PageID
// and Direction is set for a navpage intent.
type GameModeRequest struct {
	Event     string `json:"event"`
	PageID    string `json:"page_id,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// ArticleMeta mirrors the serialized start/end article slots in room info.
type ArticleMeta struct {
	Title  string `json:"title"`
	PageID string `json:"page_id"`
}

// RoomInfo is the full room snapshot carried by join_room, create_room and
// room_update. The server rebuilds it wholesale on every change; there is no
// delta form.
type RoomInfo struct {
	Status            string      `json:"status"`
	Error             string      `json:"error,omitempty"`
	Name              string      `json:"name"`
	Code              string      `json:"code"`
	RequiresCode      bool        `json:"requires_code"`
	Players           []string    `json:"players"`
	Owner             string      `json:"owner"`
	Mode              string      `json:"mode"`
	StartArticle      ArticleMeta `json:"start_article"`
	EndArticle        ArticleMeta `json:"end_article"`
	WaitingForPlayers bool        `json:"waiting_for_players"`
	State             string      `json:"state"`
	Username          string      `json:"username,omitempty"`
}

// StartPayload announces a game start. StartTitle carries the page id of the
// start article despite its name; the client fetches it verbatim.
type StartPayload struct {
	Status     string `json:"status"`
	Scene      string `json:"scene"`
	StartTitle string `json:"start_title"`
}

// NavPagePayload is the server's verdict on a navigation intent.
type NavPagePayload struct {
	Status string `json:"status"`
	PageID string `json:"page_id"`
}

// VictoryPayload announces a finished race. PagePath holds the winner's
// traversal, excluding the end article.
type VictoryPayload struct {
	Status     string   `json:"status"`
	Scene      string   `json:"scene"`
	WinnerName string   `json:"winner_name"`
	PagePath   []string `json:"page_path"`
}

// ScenePayload carries a server-forced scene change.
type ScenePayload struct {
	Status string `json:"status"`
	Scene  string `json:"scene"`
}

// UsernamePayload is the response to try_change_username.
type UsernamePayload struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Username string `json:"username"`
}

// AckPayload is the bare status response shared by search_pages and
// start_game_response.
type AckPayload struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ChatPayload is a broadcast chat line.
type ChatPayload struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
}
