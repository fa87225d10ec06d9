// Package core provides the fundamental types shared by the game engine and
// its front-ends: semantic input actions, key mapping and the character
// screen buffer. It has no dependency on Bubble Tea so game logic stays pure.
package core

// Rect is an axis-aligned rectangle in screen cells.
type Rect struct {
	X, Y int // Top-left corner
	W, H int
}

// NewRect creates a rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate one past the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate one past the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Contains returns true if the point (x, y) is inside this rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// ClampF restricts a float64 value to be within [lo, hi].
func ClampF(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Scale maps a world coordinate in [0, worldSize] onto [0, cells-1].
// Coordinates outside the world map outside the cell range, so callers can
// rely on Screen clipping to hide them.
func Scale(v, worldSize float64, cells int) int {
	if worldSize <= 0 || cells <= 1 {
		return 0
	}
	return int(v * float64(cells-1) / worldSize)
}
