package session

import (
	"github.com/DedFishy/WikiSpeedrun/internal/links"
	"github.com/DedFishy/WikiSpeedrun/internal/protocol"
)

// NavigateTo reports a click on a navigable link. The server validates the
// move; the page only renders once a navpage success comes back.
func (s *Session) NavigateTo(pageID string) {
	s.do(func() {
		s.navigateTo(pageID)
	})
}

// NavigateBack traverses server-side history one step back.
func (s *Session) NavigateBack() {
	s.do(func() {
		s.navigateByDirection(protocol.DirectionBack)
	})
}

// NavigateForward traverses server-side history one step forward.
func (s *Session) NavigateForward() {
	s.do(func() {
		s.navigateByDirection(protocol.DirectionForward)
	})
}

// ReportBlockedLink surfaces the feedback for a click on an excluded link.
func (s *Session) ReportBlockedLink(v links.Verdict) {
	s.do(func() {
		s.notify(links.BlockedMessage(v))
	})
}

func (s *Session) navigateTo(pageID string) {
	s.emit(protocol.EventGameModeEvent, protocol.GameModeRequest{
		Event:  protocol.GameModeNavPage,
		PageID: pageID,
	})
	s.setLoading("Loading page...")
}

func (s *Session) navigateByDirection(direction string) {
	s.emit(protocol.EventGameModeEvent, protocol.GameModeRequest{
		Event:     protocol.GameModeNavPage,
		Direction: direction,
	})
	s.setLoading("Loading page...")
}
