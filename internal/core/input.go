package core

import "time"

// Action is a semantic game action, abstracted from physical key presses.
type Action int

const (
	ActionUnknown   Action = iota
	ActionMoveLeft         // Left arrow, A
	ActionMoveRight        // Right arrow, D
	ActionStop             // Down arrow, X
	ActionConfirm          // Enter, Space
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionMoveLeft:
		return "MoveLeft"
	case ActionMoveRight:
		return "MoveRight"
	case ActionStop:
		return "Stop"
	case ActionConfirm:
		return "Confirm"
	default:
		return "Unknown"
	}
}

// IsMovement reports whether the action sets horizontal velocity.
func (a Action) IsMovement() bool {
	return a == ActionMoveLeft || a == ActionMoveRight
}

// MapKey translates a raw key identifier to an Action.
// Codes are accepted both in terminal form ("left", "enter", " ") and in
// browser KeyboardEvent.key form ("ArrowLeft", "Enter").
// Anything else maps to ActionUnknown.
func MapKey(code string) Action {
	switch code {
	case "left", "a", "A", "ArrowLeft":
		return ActionMoveLeft
	case "right", "d", "D", "ArrowRight":
		return ActionMoveRight
	case "down", "x", "X", "ArrowDown":
		return ActionStop
	case "enter", " ", "space", "Enter":
		return ActionConfirm
	}
	return ActionUnknown
}

// KeyEventKind distinguishes key presses from releases.
type KeyEventKind int

const (
	KeyDown KeyEventKind = iota
	KeyUp
)

// KeyEvent is a mapped key press or release.
type KeyEvent struct {
	Kind   KeyEventKind
	Action Action
}

// HoldTracker turns a stream of key presses into press/release pairs.
//
// Terminals report only presses (auto-repeated while a key is held), so a
// movement key counts as released once it has not repeated for releaseAfter.
// Pressing the opposite direction releases the previous one immediately.
type HoldTracker struct {
	releaseAfter time.Duration
	held         Action
	lastSeen     time.Time
}

// NewHoldTracker creates a tracker with the given release window.
func NewHoldTracker(releaseAfter time.Duration) *HoldTracker {
	if releaseAfter <= 0 {
		releaseAfter = 500 * time.Millisecond
	}
	return &HoldTracker{releaseAfter: releaseAfter}
}

// Press records a key press at the given time and returns the events it causes.
// Repeats of the held key produce no events.
func (h *HoldTracker) Press(a Action, now time.Time) []KeyEvent {
	if !a.IsMovement() {
		if a == ActionUnknown {
			return nil
		}
		return []KeyEvent{{Kind: KeyDown, Action: a}}
	}

	if h.held == a {
		h.lastSeen = now
		return nil
	}

	var events []KeyEvent
	if h.held != ActionUnknown {
		events = append(events, KeyEvent{Kind: KeyUp, Action: h.held})
	}
	h.held = a
	h.lastSeen = now
	return append(events, KeyEvent{Kind: KeyDown, Action: a})
}

// Expire returns a release event if the held key has gone quiet.
func (h *HoldTracker) Expire(now time.Time) (KeyEvent, bool) {
	if h.held == ActionUnknown {
		return KeyEvent{}, false
	}
	if now.Sub(h.lastSeen) < h.releaseAfter {
		return KeyEvent{}, false
	}
	released := h.held
	h.held = ActionUnknown
	return KeyEvent{Kind: KeyUp, Action: released}, true
}

// Held returns the movement key currently considered held.
func (h *HoldTracker) Held() (Action, bool) {
	return h.held, h.held != ActionUnknown
}

// Reset forgets any held key.
func (h *HoldTracker) Reset() {
	h.held = ActionUnknown
	h.lastSeen = time.Time{}
}
