package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/platformer/internal/core"
)

func TestActionFor(t *testing.T) {
	testCases := []struct {
		name     string
		msg      tea.KeyMsg
		expected core.Action
	}{
		{"left arrow", tea.KeyMsg{Type: tea.KeyLeft}, core.ActionMoveLeft},
		{"right arrow", tea.KeyMsg{Type: tea.KeyRight}, core.ActionMoveRight},
		{"a", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}}, core.ActionMoveLeft},
		{"d", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}}, core.ActionMoveRight},
		{"down", tea.KeyMsg{Type: tea.KeyDown}, core.ActionStop},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, core.ActionConfirm},
		{"space", tea.KeyMsg{Type: tea.KeySpace}, core.ActionConfirm},
		{"s is not movement", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}}, core.ActionUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := actionFor(tc.msg); got != tc.expected {
				t.Errorf("actionFor(%q) = %v, expected %v", tc.msg.String(), got, tc.expected)
			}
		})
	}
}

func TestPlatformKeysDoNotShadowMovement(t *testing.T) {
	keys := DefaultKeyMap()
	platform := []key.Binding{keys.Push, keys.Share, keys.Screenshot, keys.Help, keys.Quit}

	for _, b := range platform {
		for _, k := range b.Keys() {
			if a := core.MapKey(k); a != core.ActionUnknown {
				t.Errorf("key %q is bound to %q and also maps to %v", k, b.Help().Desc, a)
			}
		}
	}
}
