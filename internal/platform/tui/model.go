package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/platformer/internal/clock"
	"github.com/vovakirdan/platformer/internal/config"
	"github.com/vovakirdan/platformer/internal/core"
	"github.com/vovakirdan/platformer/internal/game"
	"github.com/vovakirdan/platformer/internal/scoresync"
)

const (
	statusLines = 3 // Sync line, feed line and help bar under the playfield
	maxFeed     = 4
)

// Options configures a game model.
type Options struct {
	Level        config.LevelConfig
	FPS          int
	ReleaseAfter time.Duration
	Width        int
	Height       int

	// Client syncs scores to a broadcast server. Nil plays offline.
	Client      *scoresync.Client
	Topic       string
	JoinTimeout time.Duration

	// Now is used for key release timing. Defaults to time.Now.
	Now func() time.Time
}

// disconnectedMsg is sent once the sync client's transport goes away.
type disconnectedMsg struct{}

// Model is the Bubble Tea model for one player's game session.
type Model struct {
	session *game.Session
	screen  *core.Screen
	hold    *core.HoldTracker
	keys    KeyMap
	help    help.Model
	opts    Options

	// round changes whenever the session changes phase through Confirm.
	// Clock events and push results from an older round are dropped.
	round     int
	events    <-chan clock.Event
	stopClock context.CancelFunc

	client     *scoresync.Client
	feed       remoteFeed
	recent     []remoteScoreMsg
	syncStatus SyncStatus
	syncDetail string
	synced     int

	width    int
	height   int
	quitting bool
}

// NewModel creates a game model in the Start phase.
func NewModel(opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = 5 * time.Second
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 0 {
		opts.Height = 24
	}

	h := help.New()
	h.Width = opts.Width

	m := Model{
		session:    game.NewSession(opts.Level),
		screen:     core.NewScreen(opts.Width, playfieldHeight(opts.Height)),
		hold:       core.NewHoldTracker(opts.ReleaseAfter),
		keys:       DefaultKeyMap(),
		help:       h,
		opts:       opts,
		client:     opts.Client,
		syncStatus: SyncOffline,
		width:      opts.Width,
		height:     opts.Height,
	}
	if m.client != nil {
		m.feed = newRemoteFeed(m.client)
		m.syncStatus = SyncConnecting
	}
	return m
}

func playfieldHeight(total int) int {
	return max(total-statusLines, 1)
}

// Init joins the score topic when a sync client is configured.
func (m Model) Init() tea.Cmd {
	if m.client == nil {
		return nil
	}
	return tea.Batch(
		joinCmd(m.client, m.opts.Topic, m.opts.JoinTimeout),
		m.feed.wait(),
		waitForDisconnect(m.client),
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.screen.Resize(msg.Width, playfieldHeight(msg.Height))
		m.help.Width = msg.Width
		return m, nil

	case clockMsg:
		return m.handleClock(msg)

	case clockStoppedMsg:
		if msg.Round == m.round {
			m.events = nil
		}
		return m, nil

	case joinResultMsg:
		if msg.err != nil {
			m.syncStatus = SyncFailed
			m.syncDetail = describeSyncError(msg.err)
			return m, nil
		}
		m.syncStatus = SyncUnsynced
		m.syncDetail = ""
		return m, nil

	case pushResultMsg:
		return m.handlePushResult(msg)

	case remoteScoreMsg:
		m.recent = append(m.recent, msg)
		if len(m.recent) > maxFeed {
			m.recent = m.recent[len(m.recent)-maxFeed:]
		}
		if m.client == nil {
			return m, nil
		}
		return m, m.feed.wait()

	case disconnectedMsg:
		m.syncStatus = SyncFailed
		m.syncDetail = "connection closed"
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.haltClock()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Screenshot):
		m.saveScreenshot()
		return m, nil

	case key.Matches(msg, m.keys.Push):
		return m.push(false)

	case key.Matches(msg, m.keys.Share):
		return m.push(true)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	action := actionFor(msg)
	switch action {
	case core.ActionUnknown:
		return m, nil
	case core.ActionConfirm:
		return m.confirm()
	case core.ActionStop:
		m.session.Stop()
		m.hold.Reset()
		return m, nil
	}

	for _, evt := range m.hold.Press(action, m.opts.Now()) {
		m.session.Apply(evt)
	}
	return m, nil
}

// confirm advances the session and starts or stops the frame clock.
func (m Model) confirm() (tea.Model, tea.Cmd) {
	before := m.session.Phase()
	after := m.session.Confirm()
	if before == after {
		return m, nil
	}

	m.round++
	m.hold.Reset()
	m.haltClock()
	if m.syncStatus == SyncSynced || m.syncStatus == SyncPushing {
		m.syncStatus = SyncUnsynced
	}

	if after != game.PhasePlaying {
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	driver := clock.NewDriver(m.opts.FPS)
	driver.Start(ctx)
	m.stopClock = cancel
	m.events = driver.Events()
	return m, waitForClock(m.round, m.events)
}

// handleClock feeds one driver event into the session.
func (m Model) handleClock(msg clockMsg) (tea.Model, tea.Cmd) {
	if msg.Round != m.round || m.events == nil {
		return m, nil
	}

	switch msg.Event.Kind {
	case clock.KindFrame:
		if evt, ok := m.hold.Expire(m.opts.Now()); ok {
			m.session.Apply(evt)
		}
		m.session.Frame(msg.Event.DeltaMillis)
	case clock.KindCountdown:
		m.session.Countdown()
	}

	if m.session.Phase().IsTerminal() {
		m.hold.Reset()
		m.haltClock()
		return m, nil
	}
	return m, waitForClock(m.round, m.events)
}

// push sends the current score on an explicit player action.
func (m Model) push(share bool) (tea.Model, tea.Cmd) {
	if m.client == nil {
		return m, nil
	}
	score := m.session.State().PlayerScore
	if !share {
		m.syncStatus = SyncPushing
		m.syncDetail = ""
	}
	return m, pushCmd(m.client, m.round, score, share)
}

func (m Model) handlePushResult(msg pushResultMsg) (tea.Model, tea.Cmd) {
	if msg.Round != m.round {
		return m, nil
	}
	if msg.Err != nil {
		m.syncStatus = SyncFailed
		m.syncDetail = describeSyncError(msg.Err)
		return m, nil
	}
	if !msg.Share {
		m.syncStatus = SyncSynced
		m.synced = msg.Score
	}
	return m, nil
}

// haltClock stops the running frame driver, if any.
func (m *Model) haltClock() {
	if m.stopClock != nil {
		m.stopClock()
		m.stopClock = nil
	}
	m.events = nil
}

func waitForDisconnect(c *scoresync.Client) tea.Cmd {
	return func() tea.Msg {
		<-c.Done()
		return disconnectedMsg{}
	}
}

// saveScreenshot saves the current playfield to a text file.
func (m *Model) saveScreenshot() {
	m.session.Render(m.screen)

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	dir := filepath.Join(home, ".platformer", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	filename := fmt.Sprintf("platformer_%s.txt", time.Now().Format("20060102_150405"))
	//nolint:errcheck // Best-effort save, game continues regardless
	os.WriteFile(filepath.Join(dir, filename), []byte(m.screen.String()), 0o600)
}

// State returns a snapshot of the session state.
func (m Model) State() game.State {
	return m.session.State()
}

// SyncStatus returns what the sync indicator currently shows.
func (m Model) SyncStatus() SyncStatus {
	return m.syncStatus
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.session.Render(m.screen)

	var b strings.Builder
	b.WriteString(RenderScreen(m.screen))
	b.WriteString("\n")
	if m.client != nil {
		b.WriteString(renderSyncLine(m.syncStatus, m.client.Topic(), m.synced, m.syncDetail))
	} else {
		b.WriteString(renderSyncLine(SyncOffline, "", 0, ""))
	}
	b.WriteString("\n")
	b.WriteString(renderFeed(m.recent))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Run starts the Bubble Tea program for a local session.
func Run(opts Options) error {
	p := tea.NewProgram(
		NewModel(opts),
		tea.WithAltScreen(),
	)

	final, err := p.Run()
	if m, ok := final.(Model); ok {
		m.haltClock()
	}
	return err
}
