package core

import (
	"testing"
	"time"
)

func TestMapKey(t *testing.T) {
	tests := []struct {
		code     string
		expected Action
	}{
		{"left", ActionMoveLeft},
		{"ArrowLeft", ActionMoveLeft},
		{"a", ActionMoveLeft},
		{"right", ActionMoveRight},
		{"ArrowRight", ActionMoveRight},
		{"d", ActionMoveRight},
		{"down", ActionStop},
		{"x", ActionStop},
		{"enter", ActionConfirm},
		{" ", ActionConfirm},
		{"Enter", ActionConfirm},
		{"F13", ActionUnknown},
		{"", ActionUnknown},
		{"ctrl+z", ActionUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			if got := MapKey(tc.code); got != tc.expected {
				t.Errorf("MapKey(%q) = %v, expected %v", tc.code, got, tc.expected)
			}
		})
	}
}

func TestHoldTrackerRepeatsAreSilent(t *testing.T) {
	h := NewHoldTracker(100 * time.Millisecond)
	start := time.Unix(0, 0)

	events := h.Press(ActionMoveRight, start)
	if len(events) != 1 || events[0] != (KeyEvent{Kind: KeyDown, Action: ActionMoveRight}) {
		t.Fatalf("first press = %v, expected single KeyDown", events)
	}

	for i := 1; i <= 5; i++ {
		now := start.Add(time.Duration(i) * 50 * time.Millisecond)
		if events := h.Press(ActionMoveRight, now); len(events) != 0 {
			t.Fatalf("repeat %d produced events %v", i, events)
		}
		if _, ok := h.Expire(now); ok {
			t.Fatalf("repeat %d should keep the key held", i)
		}
	}
}

func TestHoldTrackerExpire(t *testing.T) {
	h := NewHoldTracker(100 * time.Millisecond)
	start := time.Unix(0, 0)
	h.Press(ActionMoveLeft, start)

	if _, ok := h.Expire(start.Add(99 * time.Millisecond)); ok {
		t.Error("key released before the window elapsed")
	}

	evt, ok := h.Expire(start.Add(100 * time.Millisecond))
	if !ok || evt != (KeyEvent{Kind: KeyUp, Action: ActionMoveLeft}) {
		t.Errorf("Expire = %v, %v, expected KeyUp MoveLeft", evt, ok)
	}
	if _, held := h.Held(); held {
		t.Error("nothing should be held after release")
	}
	if _, ok := h.Expire(start.Add(time.Second)); ok {
		t.Error("release must be reported once")
	}
}

func TestHoldTrackerOppositeKeyReleasesPrevious(t *testing.T) {
	h := NewHoldTracker(time.Second)
	now := time.Unix(0, 0)
	h.Press(ActionMoveLeft, now)

	events := h.Press(ActionMoveRight, now.Add(10*time.Millisecond))
	expected := []KeyEvent{
		{Kind: KeyUp, Action: ActionMoveLeft},
		{Kind: KeyDown, Action: ActionMoveRight},
	}
	if len(events) != len(expected) {
		t.Fatalf("events = %v, expected %v", events, expected)
	}
	for i := range expected {
		if events[i] != expected[i] {
			t.Errorf("events[%d] = %v, expected %v", i, events[i], expected[i])
		}
	}
}

func TestHoldTrackerNonMovement(t *testing.T) {
	h := NewHoldTracker(time.Second)
	now := time.Unix(0, 0)

	if events := h.Press(ActionUnknown, now); events != nil {
		t.Errorf("unknown action produced %v", events)
	}
	events := h.Press(ActionConfirm, now)
	if len(events) != 1 || events[0].Action != ActionConfirm || events[0].Kind != KeyDown {
		t.Errorf("confirm press = %v", events)
	}
	if _, held := h.Held(); held {
		t.Error("confirm must not be tracked as held")
	}
}
