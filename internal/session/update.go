package session

import "github.com/DedFishy/WikiSpeedrun/internal/links"

// Display is the rendering boundary. The session pushes every user-visible
// change through it as an Update; implementations translate updates into
// whatever they draw with. Apply is always called from the session's event
// loop goroutine.
type Display interface {
	Apply(Update)
}

type DisplayFunc func(Update)

func (f DisplayFunc) Apply(u Update) {
	if f == nil {
		return
	}
	f(u)
}

type nopDisplay struct{}

func (nopDisplay) Apply(Update) {}

// Update is the closed set of render instructions.
type Update interface {
	sessionUpdate()
}

// SceneUpdate activates a scene. LoadingMessage is only meaningful when the
// scene is SceneLoading.
type SceneUpdate struct {
	Scene          Scene
	LoadingMessage string
}

// NotificationUpdate shows or clears the single transient notification slot.
type NotificationUpdate struct {
	Text    string
	Visible bool
}

// ChatUpdate appends one message to the transcript.
type ChatUpdate struct {
	Message ChatMessage
}

// ChatClearedUpdate empties the transcript.
type ChatClearedUpdate struct{}

// FieldUpdate carries one article search input. Invalid means mark the
// input invalid and leave its previous value alone; otherwise Title replaces
// the value and any invalid marker is cleared.
type FieldUpdate struct {
	Title   string
	Invalid bool
}

// PlayerEntry is one row of the member list. You and Owner may both be set
// on the same entry.
type PlayerEntry struct {
	Name  string
	You   bool
	Owner bool
}

// RoomSettingsUpdate rebuilds the room-settings view wholesale. ResetInputs
// clears both search inputs before the field updates are applied, which
// happens when entering a room.
type RoomSettingsUpdate struct {
	RoomName      string
	Code          string
	Players       []PlayerEntry
	SearchEnabled bool
	Start         FieldUpdate
	End           FieldUpdate
	ResetInputs   bool
}

// ArticleClearedUpdate blanks the article render target ahead of a load.
type ArticleClearedUpdate struct{}

// ArticleUpdate hands a resolved, rewritten article to the render target.
type ArticleUpdate struct {
	Title   string
	Article links.Article
}

// VictoryUpdate shows the race result. PagePath already includes the end
// article.
type VictoryUpdate struct {
	Winner   string
	PagePath []string
}

// BannedUpdate replaces the interface with a terminal notice; nothing
// follows it.
type BannedUpdate struct{}

func (SceneUpdate) sessionUpdate()          {}
func (NotificationUpdate) sessionUpdate()   {}
func (ChatUpdate) sessionUpdate()           {}
func (ChatClearedUpdate) sessionUpdate()    {}
func (RoomSettingsUpdate) sessionUpdate()   {}
func (ArticleClearedUpdate) sessionUpdate() {}
func (ArticleUpdate) sessionUpdate()        {}
func (VictoryUpdate) sessionUpdate()        {}
func (BannedUpdate) sessionUpdate()         {}
