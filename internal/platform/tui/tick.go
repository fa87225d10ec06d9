// Package tui provides the Bubble Tea front-end for the platformer, both
// locally and over SSH.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/platformer/internal/clock"
)

// clockMsg carries one frame driver event. Round identifies the driver
// that produced it so events from a stopped round are ignored.
type clockMsg struct {
	Round int
	Event clock.Event
}

// clockStoppedMsg is sent when a driver's event channel closes.
type clockStoppedMsg struct {
	Round int
}

// waitForClock returns a command that waits for the next driver event.
func waitForClock(round int, events <-chan clock.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return clockStoppedMsg{Round: round}
		}
		return clockMsg{Round: round, Event: evt}
	}
}
