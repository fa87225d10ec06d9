package game

import (
	"fmt"

	"github.com/vovakirdan/platformer/internal/config"
	"github.com/vovakirdan/platformer/internal/core"
)

// Visual characters for rendering
const (
	HeadChar       = 'O'
	FacingRight    = '►'
	FacingLeft     = '◄'
	ItemChar       = '◆'
	GroundChar     = '═'
	minRenderWidth = 20
	minRenderRows  = 6
)

// Render draws st into dst. It only reads the state.
func Render(st State, level config.LevelConfig, dst *core.Screen) {
	dst.Clear()
	w, h := dst.Width(), dst.Height()
	if w < minRenderWidth || h < minRenderRows {
		dst.DrawText(0, 0, "too small")
		return
	}

	groundY := h - 2
	dst.DrawHLine(0, groundY, w, GroundChar, core.ColorGreen)

	hud := fmt.Sprintf(" Score: %d  Items: %d/%d  Time: %d ",
		st.PlayerScore, st.ItemsCollected, st.TargetItems, st.TimeRemaining)
	dst.DrawText(0, 0, hud)

	if st.Phase == PhasePlaying || st.Phase.IsTerminal() {
		if st.ItemX >= 0 {
			ix := core.Scale(float64(st.ItemX), level.WorldWidth, w)
			dst.SetColored(ix, groundY-1, ItemChar, core.ColorYellow)
		}
		cx := core.Scale(st.CharacterX, level.WorldWidth, w)
		facing := FacingRight
		if st.Direction == DirectionLeft {
			facing = FacingLeft
		}
		dst.SetColored(cx, groundY-2, HeadChar, core.ColorCyan)
		dst.SetColored(cx, groundY-1, facing, core.ColorCyan)
	}

	switch st.Phase {
	case PhaseStart:
		drawBanner(dst, "COLLECT THE ITEMS", "Press Enter to start")
	case PhaseSuccess:
		drawBanner(dst, "SUCCESS!", fmt.Sprintf("Score: %d  Press Enter", st.PlayerScore))
	case PhaseGameOver:
		drawBanner(dst, "TIME'S UP", fmt.Sprintf("Score: %d  Press Enter", st.PlayerScore))
	}
}

// Render draws the session's current state.
func (s *Session) Render(dst *core.Screen) {
	Render(s.state, s.level, dst)
}

func drawBanner(dst *core.Screen, title, hint string) {
	width := max(len([]rune(title)), len([]rune(hint))) + 4
	width = min(width, dst.Width())
	x := (dst.Width() - width) / 2
	y := dst.Height()/2 - 2
	dst.DrawBox(core.NewRect(x, y, width, 4))
	dst.DrawTextCentered(y+1, title)
	dst.DrawTextCentered(y+2, hint)
}
