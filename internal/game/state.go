// Package game implements the minigame session: a character walks left and
// right along the ground collecting items against a countdown.
package game

// Phase is the coarse lifecycle state of a session.
type Phase int

const (
	PhaseStart Phase = iota
	PhasePlaying
	PhaseSuccess
	PhaseGameOver
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "Start"
	case PhasePlaying:
		return "Playing"
	case PhaseSuccess:
		return "Success"
	case PhaseGameOver:
		return "GameOver"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether the phase ends a round.
func (p Phase) IsTerminal() bool {
	return p == PhaseSuccess || p == PhaseGameOver
}

// Direction is the way the character faces.
type Direction int

const (
	DirectionRight Direction = iota
	DirectionLeft
)

func (d Direction) String() string {
	if d == DirectionLeft {
		return "Left"
	}
	return "Right"
}

// State is a snapshot of a session.
type State struct {
	Phase          Phase
	CharacterX     float64
	CharacterY     float64
	VelocityX      float64
	Direction      Direction
	ItemX          int
	ItemY          int
	ItemsCollected int
	PlayerScore    int
	TimeRemaining  int
	TargetItems    int
}

// offscreenX parks the item where no character position can reach it.
const offscreenX = -1000
