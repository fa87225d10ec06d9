package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/platformer/internal/core"
	"github.com/vovakirdan/platformer/internal/protocol"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault: lipgloss.NewStyle(),
	core.ColorYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGray:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// syncStyles colors the sync indicator.
var syncStyles = map[SyncStatus]lipgloss.Style{
	SyncOffline:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	SyncConnecting: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	SyncUnsynced:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	SyncPushing:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	SyncSynced:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
	SyncFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
}

var (
	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	feedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// RenderScreen converts a Screen buffer to a styled string for display.
// Adjacent cells with the same color share one style run.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// renderSyncLine renders the sync indicator shown under the playfield.
func renderSyncLine(status SyncStatus, topic string, synced int, detail string) string {
	label := status.String()
	switch status {
	case SyncSynced:
		label = fmt.Sprintf("synced %d", synced)
	case SyncFailed:
		if detail != "" {
			label = "failed: " + detail
		}
	}

	style, ok := syncStyles[status]
	if !ok {
		style = syncStyles[SyncOffline]
	}

	line := "sync " + style.Render("["+label+"]")
	if topic != "" {
		line += " " + topic
	}
	return statusBarStyle.Render(line)
}

// renderFeed renders the most recent score broadcasts, newest first.
func renderFeed(feed []remoteScoreMsg) string {
	if len(feed) == 0 {
		return ""
	}
	parts := make([]string, 0, len(feed))
	for i := len(feed) - 1; i >= 0; i-- {
		f := feed[i]
		verb := "saved"
		if f.Event == protocol.EventBroadcastScore {
			verb = "shared"
		}
		parts = append(parts, fmt.Sprintf("player %d %s %d", f.Score.PlayerID, verb, f.Score.PlayerScore))
	}
	return feedStyle.Render(strings.Join(parts, " · "))
}

// centerText centers text within the given width.
func centerText(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	return strings.Repeat(" ", (width-textWidth)/2) + text
}
