package game

import (
	"math"

	"github.com/vovakirdan/platformer/internal/config"
	"github.com/vovakirdan/platformer/internal/core"
)

// Session owns the state of one running game. It is not safe for
// concurrent use; callers feed it from a single event loop.
type Session struct {
	level config.LevelConfig
	state State
}

// NewSession creates a session in the Start phase.
func NewSession(level config.LevelConfig) *Session {
	s := &Session{level: level}
	s.reset()
	s.state.Phase = PhaseStart
	return s
}

// Level returns the level the session plays.
func (s *Session) Level() config.LevelConfig {
	return s.level
}

// State returns a copy of the current state.
func (s *Session) State() State {
	return s.state
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.state.Phase
}

func (s *Session) reset() {
	s.state = State{
		Phase:         PhasePlaying,
		CharacterX:    s.level.StartX,
		CharacterY:    s.level.StartY,
		Direction:     DirectionRight,
		TimeRemaining: s.level.StartingTime,
		TargetItems:   s.level.TargetItems,
	}
	s.placeItem()
}

// placeItem moves the item to the spawn point for the current capture count.
func (s *Session) placeItem() {
	i := s.state.ItemsCollected
	if i < len(s.level.ItemPositions) && i < s.level.TargetItems {
		p := s.level.ItemPositions[i]
		s.state.ItemX, s.state.ItemY = p.X, p.Y
		return
	}
	s.state.ItemX = offscreenX
	s.state.ItemY = int(s.level.StartY)
}

// Confirm starts a round from Start and returns to Start from a finished
// round. It does nothing while Playing. The new phase is returned.
func (s *Session) Confirm() Phase {
	switch s.state.Phase {
	case PhaseStart:
		s.reset()
	case PhaseSuccess, PhaseGameOver:
		s.state.Phase = PhaseStart
		s.state.VelocityX = 0
	}
	return s.state.Phase
}

// KeyDown applies a pressed action.
func (s *Session) KeyDown(a core.Action) {
	switch a {
	case core.ActionConfirm:
		s.Confirm()
	case core.ActionStop:
		s.Stop()
	case core.ActionMoveLeft:
		s.setVelocity(-s.level.Speed)
	case core.ActionMoveRight:
		s.setVelocity(s.level.Speed)
	}
}

// KeyUp applies a released action. Releasing a direction only stops the
// character when it is moving that way.
func (s *Session) KeyUp(a core.Action) {
	if s.state.Phase != PhasePlaying {
		return
	}
	v := s.state.VelocityX
	if (a == core.ActionMoveLeft && v < 0) || (a == core.ActionMoveRight && v > 0) {
		s.state.VelocityX = 0
	}
}

// Apply dispatches a key event.
func (s *Session) Apply(evt core.KeyEvent) {
	if evt.Kind == core.KeyUp {
		s.KeyUp(evt.Action)
		return
	}
	s.KeyDown(evt.Action)
}

// Stop halts horizontal movement.
func (s *Session) Stop() {
	if s.state.Phase != PhasePlaying {
		return
	}
	s.state.VelocityX = 0
}

func (s *Session) setVelocity(v float64) {
	if s.state.Phase != PhasePlaying {
		return
	}
	s.state.VelocityX = v
	// Zero velocity keeps the last facing.
	switch {
	case v > 0:
		s.state.Direction = DirectionRight
	case v < 0:
		s.state.Direction = DirectionLeft
	}
}

// Frame advances the simulation by deltaMillis. Non-positive deltas move
// nothing. Long deltas are split into steps no wider than the capture
// band, so a late frame cannot carry the character past an item.
// It reports whether an item was captured.
func (s *Session) Frame(deltaMillis float64) bool {
	if s.state.Phase != PhasePlaying || deltaMillis <= 0 {
		return false
	}

	steps := 1
	if speed := math.Abs(s.state.VelocityX); speed > 0 && s.level.CaptureTolerance > 0 {
		// Past one world width the character is pinned to a wall anyway.
		deltaMillis = min(deltaMillis, s.level.WorldWidth/speed)
		steps = max(int(math.Ceil(deltaMillis*speed/float64(s.level.CaptureTolerance))), 1)
	}
	dt := deltaMillis / float64(steps)

	captured := false
	for i := 0; i < steps && s.state.Phase == PhasePlaying; i++ {
		if s.step(dt) {
			captured = true
		}
	}
	return captured
}

// step moves the character once and resolves a capture.
func (s *Session) step(dt float64) bool {
	x := s.state.CharacterX + s.state.VelocityX*dt
	s.state.CharacterX = core.ClampF(x, 0, s.level.WorldWidth)

	if !s.inCaptureBand() {
		return false
	}

	s.state.ItemsCollected++
	s.state.PlayerScore += s.level.ScorePerItem
	s.placeItem()
	if s.state.ItemsCollected >= s.level.TargetItems {
		s.state.Phase = PhaseSuccess
		s.state.VelocityX = 0
	}
	return true
}

func (s *Session) inCaptureBand() bool {
	item := float64(s.state.ItemX)
	lo := item - float64(s.level.CaptureTolerance)
	return s.state.CharacterX >= lo && s.state.CharacterX <= item
}

// Countdown takes one second off the timer. When it runs out before the
// target is reached the round is lost.
func (s *Session) Countdown() {
	if s.state.Phase != PhasePlaying {
		return
	}
	if s.state.TimeRemaining > 0 {
		s.state.TimeRemaining--
	}
	if s.state.TimeRemaining == 0 && s.state.ItemsCollected < s.level.TargetItems {
		s.state.Phase = PhaseGameOver
		s.state.VelocityX = 0
	}
}
