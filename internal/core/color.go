package core

// Color is a foreground color for a screen cell.
type Color uint8

// Colors used by the scene.
const (
	ColorDefault Color = iota
	ColorYellow
	ColorGreen
	ColorCyan
	ColorRed
	ColorGray
)
