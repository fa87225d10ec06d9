package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/platformer/internal/storage"
)

const leaderboardSize = 100

// Leaderboard is the read side of the gameplay store.
type Leaderboard interface {
	ListGames(ctx context.Context) ([]storage.Game, error)
	TopGameplays(ctx context.Context, gameID int64, limit int) ([]storage.Gameplay, error)
	GameStats(ctx context.Context, gameID int64) (storage.GameStats, error)
}

// ScoreboardKeyMap defines the key bindings for the scoreboard.
type ScoreboardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextGame key.Binding
	PrevGame key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ScoreboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextGame, k.PrevGame, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ScoreboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// DefaultScoreboardKeyMap returns default key bindings.
func DefaultScoreboardKeyMap() ScoreboardKeyMap {
	return ScoreboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextGame: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next game"),
		),
		PrevGame: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev game"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "close"),
		),
	}
}

// leaderboardMsg carries one game's gameplays and stats.
type leaderboardMsg struct {
	GameID int64
	Plays  []storage.Gameplay
	Stats  storage.GameStats
	Err    error
}

func loadLeaderboard(board Leaderboard, gameID int64) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		plays, err := board.TopGameplays(ctx, gameID, leaderboardSize)
		if err != nil {
			return leaderboardMsg{GameID: gameID, Err: err}
		}
		stats, err := board.GameStats(ctx, gameID)
		return leaderboardMsg{GameID: gameID, Plays: plays, Stats: stats, Err: err}
	}
}

var (
	boardTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	activeTabStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
	tabStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
	frameStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	statsLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// ScoreboardModel browses the leaderboard of every registered game.
type ScoreboardModel struct {
	board  Leaderboard
	games  []storage.Game
	cursor int

	plays   []storage.Gameplay
	stats   storage.GameStats
	loading bool
	err     error

	table table.Model
	help  help.Model
	keys  ScoreboardKeyMap

	width    int
	height   int
	quitting bool
}

// NewScoreboardModel creates a scoreboard opened on the game with the given
// slug, or on the first game when the slug is unknown.
func NewScoreboardModel(board Leaderboard, slug string, width, height int) ScoreboardModel {
	m := ScoreboardModel{
		board:  board,
		keys:   DefaultScoreboardKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.help.Width = width
	m.table = newScoreTable(width, height)

	m.games, m.err = board.ListGames(context.Background())
	for i, g := range m.games {
		if g.Slug == slug {
			m.cursor = i
			break
		}
	}
	m.loading = len(m.games) > 0
	return m
}

func newScoreTable(width, height int) table.Model {
	playerWidth := 16
	if width > 70 {
		playerWidth = min(width-50, 28)
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Rank", Width: 5},
			{Title: "Player", Width: playerWidth},
			{Title: "Score", Width: 8},
			{Title: "Date", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(max(height-10, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func (m ScoreboardModel) current() (storage.Game, bool) {
	if len(m.games) == 0 {
		return storage.Game{}, false
	}
	return m.games[m.cursor], true
}

// reload starts loading the selected game.
func (m *ScoreboardModel) reload() tea.Cmd {
	g, ok := m.current()
	if !ok {
		return nil
	}
	m.loading = true
	return loadLeaderboard(m.board, g.ID)
}

func (m *ScoreboardModel) setRows() {
	rows := make([]table.Row, 0, len(m.plays))
	for i, p := range m.plays {
		rows = append(rows, table.Row{
			fmt.Sprintf("#%d", i+1),
			p.Username,
			fmt.Sprintf("%d", p.PlayerScore),
			p.CreatedAt.Local().Format("Jan 02 15:04"),
		})
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init loads the selected game.
func (m ScoreboardModel) Init() tea.Cmd {
	g, ok := m.current()
	if !ok {
		return nil
	}
	return loadLeaderboard(m.board, g.ID)
}

// Update handles messages for the scoreboard.
func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case leaderboardMsg:
		if g, ok := m.current(); !ok || g.ID != msg.GameID {
			return m, nil
		}
		m.loading = false
		m.err = msg.Err
		m.plays = msg.Plays
		m.stats = msg.Stats
		m.setRows()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table = newScoreTable(msg.Width, msg.Height)
		m.setRows()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextGame):
			if len(m.games) > 1 {
				m.cursor = (m.cursor + 1) % len(m.games)
				return m, m.reload()
			}
			return m, nil
		case key.Matches(msg, m.keys.PrevGame):
			if len(m.games) > 1 {
				m.cursor = (m.cursor + len(m.games) - 1) % len(m.games)
				return m, m.reload()
			}
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, m.reload()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the scoreboard.
func (m ScoreboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(centerText(boardTitleStyle.Render("HIGH SCORES"), m.width))
	b.WriteString("\n\n")

	if len(m.games) > 0 {
		b.WriteString(centerText(m.renderTabs(), m.width))
		b.WriteString("\n\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("could not load scores: " + m.err.Error()))
	case len(m.games) == 0:
		b.WriteString(mutedStyle.Render("No games registered."))
	case m.loading && len(m.plays) == 0:
		b.WriteString(mutedStyle.Render("Loading..."))
	case len(m.plays) == 0:
		b.WriteString(frameStyle.Render(mutedStyle.Italic(true).Render(
			"No gameplays recorded yet.\nSave a score to claim the top spot!")))
	default:
		b.WriteString(frameStyle.Render(m.table.View()))
		b.WriteString("\n")
		b.WriteString(m.renderStats())
	}

	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m ScoreboardModel) renderTabs() string {
	tabs := make([]string, len(m.games))
	for i, g := range m.games {
		if i == m.cursor {
			tabs[i] = activeTabStyle.Render(g.Title)
		} else {
			tabs[i] = tabStyle.Render(g.Title)
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if lipgloss.Width(line) <= m.width-4 {
		return line
	}
	return fmt.Sprintf("< %s >", activeTabStyle.Render(m.games[m.cursor].Title))
}

func (m ScoreboardModel) renderStats() string {
	s := m.stats
	parts := []string{
		statsLabelStyle.Render("best ") + fmt.Sprint(s.HighScore),
		statsLabelStyle.Render("plays ") + fmt.Sprint(s.Plays),
		statsLabelStyle.Render("players ") + fmt.Sprint(s.Players),
		statsLabelStyle.Render("avg ") + fmt.Sprintf("%.1f", s.AvgScore),
	}
	if !s.LastPlayed.IsZero() {
		parts = append(parts, statsLabelStyle.Render("last ")+s.LastPlayed.Local().Format("Jan 02 15:04"))
	}
	return strings.Join(parts, "  ")
}

// RunScoreboard runs the scoreboard screen.
func RunScoreboard(board Leaderboard, slug string, width, height int) error {
	p := tea.NewProgram(
		NewScoreboardModel(board, slug, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
