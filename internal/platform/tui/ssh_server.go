package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/platformer/internal/broadcast"
	"github.com/vovakirdan/platformer/internal/config"
	"github.com/vovakirdan/platformer/internal/scoresync"
	"github.com/vovakirdan/platformer/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.platformer/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	Level        config.LevelConfig
	FPS          int
	ReleaseAfter time.Duration
	Topic        string
	AckTimeout   time.Duration
}

// PlayerLookup finds registered players by SSH username.
type PlayerLookup interface {
	PlayerByUsername(ctx context.Context, username string) (storage.Player, bool, error)
}

// SSHServer serves the game over SSH. Each session syncs scores through an
// in-process connection to the shared hub.
type SSHServer struct {
	config  SSHServerConfig
	server  *ssh.Server
	hub     *broadcast.Hub
	players PlayerLookup
	logger  *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig, hub *broadcast.Hub, players PlayerLookup, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "platformer-ssh",
		})
	}

	srv := &SSHServer{
		config:  cfg,
		hub:     hub,
		players: players,
		logger:  logger,
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("tui: cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".platformer", "host_key")
	} else {
		expanded, err := config.ExpandHome(hostKeyPath)
		if err != nil {
			return nil, err
		}
		hostKeyPath = expanded
	}

	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("tui: cannot create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a game model for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	conn := s.connect(sshSession.Context(), sshSession.User())
	client := scoresync.NewClient(conn.Local(), scoresync.Config{
		AckTimeout: s.config.AckTimeout,
		Logger:     s.logger.With("user", sshSession.User()),
	})
	go func() {
		<-sshSession.Context().Done()
		//nolint:errcheck // Session is gone either way
		client.Close()
	}()

	model := NewModel(Options{
		Level:        s.config.Level,
		FPS:          s.config.FPS,
		ReleaseAfter: s.config.ReleaseAfter,
		Width:        pty.Window.Width,
		Height:       pty.Window.Height,
		Client:       client,
		Topic:        s.config.Topic,
	})

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// connect opens a hub connection for the SSH user. Unregistered users
// connect anonymously and can watch but not save scores.
func (s *SSHServer) connect(ctx context.Context, username string) *broadcast.Conn {
	if s.players != nil {
		p, found, err := s.players.PlayerByUsername(ctx, username)
		switch {
		case err != nil:
			s.logger.Warn("player lookup failed", "user", username, "err", err)
		case found:
			return s.hub.ConnectPlayer(p.Ref())
		}
	}
	return s.hub.ConnectAnonymous()
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	errc := make(chan error, 1)
	go func() {
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("tui: ssh server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down SSH server")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
