package session

// appendChat records one transcript line and forwards it to the render
// target. Arrival order is transcript order; there is no deduplication.
func (s *Session) appendChat(sender, text string) {
	message := ChatMessage{Sender: sender, Text: text}
	s.chat = append(s.chat, message)
	s.display.Apply(ChatUpdate{Message: message})
}

// notify shows a transient notification. There is one slot: a new text
// replaces whatever is showing and restarts the visibility timer, and expiry
// clears the slot.
func (s *Session) notify(text string) {
	s.display.Apply(NotificationUpdate{Text: text, Visible: true})
	s.noteTimer.arm(s.notificationTimeout, func() {
		s.do(func() {
			s.display.Apply(NotificationUpdate{})
		})
	})
}
