package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DedFishy/WikiSpeedrun/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	notificationStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("63")).
				Padding(0, 1)

	invalidStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	youStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	ownerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	chipStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("57")).
			Foreground(lipgloss.Color("231")).
			Padding(0, 1).
			MarginRight(1)
)

func (m Model) View() string {
	if m.banned {
		return "You have been banned from using this service. Have a nice day!\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Wikipedia Speedrun"))
	b.WriteByte('\n')
	if m.notification != "" {
		b.WriteString(notificationStyle.Render(m.notification))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	switch m.scene {
	case session.SceneLoading:
		message := m.loadingMessage
		if message == "" {
			message = "Loading..."
		}
		b.WriteString(message + "\n")
	case session.SceneRoomEntry:
		b.WriteString(m.entryView())
	case session.SceneRoomSettings:
		b.WriteString(m.settingsView())
	case session.SceneWikiWindow:
		b.WriteString(m.wikiView())
	case session.SceneVictory:
		b.WriteString(m.victoryView())
	case session.SceneConnectFailed:
		b.WriteString("Couldn't reach the server. Check your connection and restart.\n")
		b.WriteString(dimStyle.Render("press q to quit") + "\n")
	}
	return b.String()
}

func (m Model) entryView() string {
	var b strings.Builder
	b.WriteString("Join or create a room\n\n")
	b.WriteString(m.roomName.View() + "\n")
	b.WriteString(m.roomCode.View() + "\n\n")
	b.WriteString(dimStyle.Render("enter: join  ctrl+n: create  tab: switch field") + "\n")
	return b.String()
}

func (m Model) settingsView() string {
	var b strings.Builder
	b.WriteString("Room: " + m.settings.RoomName)
	if m.settings.Code != "" {
		b.WriteString(dimStyle.Render("  (code " + m.settings.Code + ")"))
	}
	b.WriteString("\n\nPlayers\n")
	for _, p := range m.settings.Players {
		line := "  " + p.Name
		if p.You {
			line += " " + youStyle.Render("YOU")
		}
		if p.Owner {
			line += " " + ownerStyle.Render("OWNER")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(fieldLabel("Start article", m.startInvalid) + "\n")
	b.WriteString(m.startSearch.View() + "\n")
	b.WriteString(fieldLabel("End article", m.endInvalid) + "\n")
	b.WriteString(m.endSearch.View() + "\n")
	if !m.settings.SearchEnabled {
		b.WriteString(dimStyle.Render("only the room owner can pick articles") + "\n")
	}

	b.WriteString("\nUsername\n")
	b.WriteString(m.username.View() + "\n")

	b.WriteString("\nChat\n")
	b.WriteString(m.chatView.View() + "\n")
	b.WriteString(m.chatInput.View() + "\n\n")
	b.WriteString(dimStyle.Render("tab: next field  enter: submit  ctrl+g: start game  ctrl+l: leave") + "\n")
	return b.String()
}

func fieldLabel(label string, invalid bool) string {
	if invalid {
		return invalidStyle.Render(label + " (not set)")
	}
	return label
}

func (m Model) wikiView() string {
	var b strings.Builder
	if m.articleTitle != "" {
		b.WriteString(titleStyle.Render(m.articleTitle) + "\n")
	}
	b.WriteString(m.articleView.View() + "\n")
	hint := "type a link number + enter to follow it  b: back  f: forward"
	if m.navBuffer != "" {
		hint = "go to link [" + m.navBuffer + "]  (enter to follow, esc to cancel)"
	}
	b.WriteString(dimStyle.Render(hint) + "\n")
	return b.String()
}

func (m Model) victoryView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.victory.Winner+" wins!") + "\n\n")
	if len(m.victory.PagePath) > 0 {
		chips := make([]string, 0, len(m.victory.PagePath))
		for _, page := range m.victory.PagePath {
			chips = append(chips, chipStyle.Render(page))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, chips...) + "\n\n")
	}
	b.WriteString(dimStyle.Render("enter: back to room settings  l: leave room") + "\n")
	return b.String()
}
