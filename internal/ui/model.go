// Package ui is the terminal rendering boundary. It draws whatever scene
// the session says is active and forwards user intents back into the
// session; no game rules live here.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DedFishy/WikiSpeedrun/internal/links"
	"github.com/DedFishy/WikiSpeedrun/internal/session"
)

// entry-scene focus targets
const (
	focusRoomName = iota
	focusRoomCode
)

// settings-scene focus targets
const (
	focusStartSearch = iota
	focusEndSearch
	focusUsername
	focusChat
	settingsFocusCount
)

type updateMsg struct {
	update session.Update
}

type updatesClosedMsg struct{}

type Model struct {
	sess    *session.Session
	updates <-chan session.Update

	scene          session.Scene
	loadingMessage string
	notification   string
	width          int
	height         int
	banned         bool

	roomName   textinput.Model
	roomCode   textinput.Model
	entryFocus int

	settings      session.RoomSettingsUpdate
	startSearch   textinput.Model
	endSearch     textinput.Model
	username      textinput.Model
	chatInput     textinput.Model
	startInvalid  bool
	endInvalid    bool
	settingsFocus int
	chatView      viewport.Model
	chatLines     []string

	articleTitle string
	article      links.Article
	articleView  viewport.Model
	navBuffer    string

	victory session.VictoryUpdate
}

func New(sess *session.Session, updates <-chan session.Update) Model {
	name := textinput.New()
	name.Placeholder = "Room name"
	name.CharLimit = 64
	name.Focus()

	code := textinput.New()
	code.Placeholder = "Room code"
	code.CharLimit = 32

	start := textinput.New()
	start.Placeholder = "Start article"
	end := textinput.New()
	end.Placeholder = "End article"
	username := textinput.New()
	username.Placeholder = "Name"
	chat := textinput.New()
	chat.Placeholder = "Say something..."

	return Model{
		sess:        sess,
		updates:     updates,
		scene:       session.SceneLoading,
		roomName:    name,
		roomCode:    code,
		startSearch: start,
		endSearch:   end,
		username:    username,
		chatInput:   chat,
		chatView:    viewport.New(40, 10),
		articleView: viewport.New(80, 20),
	}
}

func (m Model) Init() tea.Cmd {
	return listen(m.updates)
}

func listen(ch <-chan session.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return updateMsg{update: u}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.articleView.Width = msg.Width
		m.articleView.Height = max(msg.Height-6, 4)
		m.chatView.Width = max(msg.Width/2, 20)
		m.chatView.Height = max(msg.Height-14, 4)
		return m, nil
	case updatesClosedMsg:
		return m, tea.Quit
	case updateMsg:
		m = m.applyUpdate(msg.update)
		return m, listen(m.updates)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) applyUpdate(u session.Update) Model {
	switch u := u.(type) {
	case session.SceneUpdate:
		entering := u.Scene != m.scene
		m.scene = u.Scene
		m.loadingMessage = u.LoadingMessage
		if entering && u.Scene == session.SceneRoomSettings {
			m = m.focusSettings(m.settingsFocus)
		}
	case session.NotificationUpdate:
		if u.Visible {
			m.notification = u.Text
		} else {
			m.notification = ""
		}
	case session.ChatUpdate:
		pinned := m.chatView.AtBottom()
		m.chatLines = append(m.chatLines, u.Message.Sender+": "+u.Message.Text)
		m.chatView.SetContent(strings.Join(m.chatLines, "\n"))
		if pinned {
			m.chatView.GotoBottom()
		}
	case session.ChatClearedUpdate:
		m.chatLines = nil
		m.chatView.SetContent("")
	case session.RoomSettingsUpdate:
		m = m.applyRoomSettings(u)
	case session.ArticleClearedUpdate:
		m.articleTitle = ""
		m.article = links.Article{}
		m.articleView.SetContent("")
		m.navBuffer = ""
	case session.ArticleUpdate:
		m.articleTitle = u.Title
		m.article = u.Article
		m.articleView.SetContent(u.Article.Text)
		m.articleView.GotoTop()
		m.navBuffer = ""
	case session.VictoryUpdate:
		m.victory = u
	case session.BannedUpdate:
		m.banned = true
	}
	return m
}

func (m Model) applyRoomSettings(u session.RoomSettingsUpdate) Model {
	m.settings = u
	if u.ResetInputs {
		m.startSearch.SetValue("")
		m.endSearch.SetValue("")
	}
	// An invalid field keeps whatever the input already shows.
	m.startInvalid = u.Start.Invalid
	if !u.Start.Invalid {
		m.startSearch.SetValue(u.Start.Title)
	}
	m.endInvalid = u.End.Invalid
	if !u.End.Invalid {
		m.endSearch.SetValue(u.End.Title)
	}
	for _, p := range u.Players {
		if p.You && !m.username.Focused() {
			m.username.SetValue(p.Name)
		}
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.banned {
		return m, nil
	}
	switch m.scene {
	case session.SceneRoomEntry:
		return m.handleEntryKey(msg)
	case session.SceneRoomSettings:
		return m.handleSettingsKey(msg)
	case session.SceneWikiWindow:
		return m.handleWikiKey(msg)
	case session.SceneVictory:
		return m.handleVictoryKey(msg)
	case session.SceneConnectFailed:
		if msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleEntryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab:
		if m.entryFocus == focusRoomName {
			m.entryFocus = focusRoomCode
			m.roomName.Blur()
			m.roomCode.Focus()
		} else {
			m.entryFocus = focusRoomName
			m.roomCode.Blur()
			m.roomName.Focus()
		}
		return m, nil
	case tea.KeyEnter:
		m.sess.JoinRoom(m.roomName.Value(), m.roomCode.Value())
		return m, nil
	case tea.KeyCtrlN:
		m.sess.CreateRoom(m.roomName.Value(), m.roomCode.Value())
		return m, nil
	}
	var cmd tea.Cmd
	if m.entryFocus == focusRoomName {
		m.roomName, cmd = m.roomName.Update(msg)
	} else {
		m.roomCode, cmd = m.roomCode.Update(msg)
	}
	return m, cmd
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab:
		m = m.focusSettings((m.settingsFocus + 1) % settingsFocusCount)
		return m, nil
	case tea.KeyShiftTab:
		m = m.focusSettings((m.settingsFocus + settingsFocusCount - 1) % settingsFocusCount)
		return m, nil
	case tea.KeyEnter:
		switch m.settingsFocus {
		case focusStartSearch:
			if m.settings.SearchEnabled {
				m.sess.SearchStartArticle(m.startSearch.Value())
			}
		case focusEndSearch:
			if m.settings.SearchEnabled {
				m.sess.SearchEndArticle(m.endSearch.Value())
			}
		case focusUsername:
			m.sess.ChangeUsername(m.username.Value())
		case focusChat:
			m.sess.SendChat(m.chatInput.Value())
			m.chatInput.SetValue("")
		}
		return m, nil
	case tea.KeyCtrlG:
		m.sess.StartGame()
		return m, nil
	case tea.KeyCtrlL:
		m.sess.LeaveRoom()
		return m, nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.settingsFocus {
	case focusStartSearch:
		if m.settings.SearchEnabled {
			m.startSearch, cmd = m.startSearch.Update(msg)
		}
	case focusEndSearch:
		if m.settings.SearchEnabled {
			m.endSearch, cmd = m.endSearch.Update(msg)
		}
	case focusUsername:
		m.username, cmd = m.username.Update(msg)
	case focusChat:
		m.chatInput, cmd = m.chatInput.Update(msg)
	}
	return m, cmd
}

func (m Model) focusSettings(target int) Model {
	m.settingsFocus = target
	inputs := []*textinput.Model{&m.startSearch, &m.endSearch, &m.username, &m.chatInput}
	for i, input := range inputs {
		if i == target {
			input.Focus()
		} else {
			input.Blur()
		}
	}
	return m
}

func (m Model) handleWikiKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case key >= "0" && key <= "9":
		m.navBuffer += key
		return m, nil
	case msg.Type == tea.KeyEsc:
		m.navBuffer = ""
		return m, nil
	case msg.Type == tea.KeyEnter && m.navBuffer != "":
		m = m.followLink(m.navBuffer)
		m.navBuffer = ""
		return m, nil
	case key == "b":
		m.sess.NavigateBack()
		return m, nil
	case key == "f":
		m.sess.NavigateForward()
		return m, nil
	}
	var cmd tea.Cmd
	m.articleView, cmd = m.articleView.Update(msg)
	return m, cmd
}

// followLink resolves a typed link number. Navigable links become
// navigation intents; excluded ones surface the blocked-link feedback just
// like a click on a neutralized anchor.
func (m Model) followLink(buffer string) Model {
	n := 0
	for _, r := range buffer {
		n = n*10 + int(r-'0')
	}
	for _, link := range m.article.Links {
		if link.Nav != n {
			continue
		}
		if link.Verdict.Navigable {
			m.sess.NavigateTo(link.Verdict.Target)
		} else {
			m.sess.ReportBlockedLink(link.Verdict)
		}
		return m
	}
	return m
}

func (m Model) handleVictoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.sess.ReturnToRoomSettings()
	case "l":
		m.sess.LeaveRoom()
	}
	return m, nil
}
