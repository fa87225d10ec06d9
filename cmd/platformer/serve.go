package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/platformer/internal/broadcast"
	"github.com/vovakirdan/platformer/internal/config"
	"github.com/vovakirdan/platformer/internal/platform/tui"
	"github.com/vovakirdan/platformer/internal/platform/web"
)

var (
	flagHTTPAddr    string
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the score broadcast server",
	Long: `Start the score server.

The WebSocket endpoint at /socket/websocket speaks the channel protocol used
by 'platformer play --server'. Clients authenticate with ?token=<player token>.
Saved scores are stored in the database and rebroadcast to every client on
the same topic. A JSON leaderboard is served under /api.

With --ssh, players can also play over SSH. SSH users whose username matches
a registered player save scores as that player.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.platformer/host_key

Examples:
  platformer serve                       # WebSocket on :4000
  platformer serve --http :8080          # Listen on port 8080
  platformer serve --ssh :23234          # Also serve the game over SSH

Players connect with:
  platformer play --server ws://localhost:4000/socket/websocket --token <token>
  ssh <username>@localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP/WebSocket address (overrides server.http_addr)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH address, empty disables SSH (overrides server.ssh_addr)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "SSH idle timeout in minutes (overrides server.idle_timeout_min)")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg := loadConfig(func(c *config.Config) {
		if flagHTTPAddr != "" {
			c.Server.HTTPAddr = flagHTTPAddr
		}
		if flagSSHAddr != "" {
			c.Server.SSHAddr = flagSSHAddr
		}
		if flagHostKey != "" {
			c.Server.HostKeyPath = flagHostKey
		}
		if flagIdleTimeout > 0 {
			c.Server.IdleTimeoutMin = flagIdleTimeout
		}
	})

	logger := newLogger(os.Stderr, "platformer")
	store := openStore(cfg)
	defer store.Close()

	hub := broadcast.NewHub(store, store, broadcast.HubConfig{
		MemberBuffer: cfg.Server.MemberBuffer,
		Logger:       logger.WithPrefix("hub"),
	})

	webCfg := web.DefaultConfig()
	if d := cfg.Server.WriteTimeout(); d > 0 {
		webCfg.WriteTimeout = d
	}
	httpServer := web.NewServer(hub, store, logger.WithPrefix("http"), webCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	servers := 1
	errc := make(chan error, 2)
	go func() {
		errc <- httpServer.ListenAndServe(ctx, cfg.Server.HTTPAddr)
	}()

	if cfg.Server.SSHAddr != "" {
		sshServer, err := tui.NewSSHServer(tui.SSHServerConfig{
			Address:      cfg.Server.SSHAddr,
			HostKeyPath:  cfg.Server.HostKeyPath,
			IdleTimeout:  cfg.Server.IdleTimeout(),
			Level:        cfg.Level,
			FPS:          cfg.Input.FPS,
			ReleaseAfter: cfg.Input.ReleaseAfter(),
			Topic:        cfg.Sync.Topic,
			AckTimeout:   cfg.Sync.AckTimeout(),
		}, hub, store, logger.WithPrefix("ssh"))
		if err != nil {
			stop()
			<-errc
			exitf("Error creating SSH server: %v", err)
		}
		servers++
		go func() {
			errc <- sshServer.ListenAndServe(ctx)
		}()
	}

	fmt.Printf("Score server listening on %s\n", cfg.Server.HTTPAddr)
	if cfg.Server.SSHAddr != "" {
		fmt.Printf("SSH play on %s\n", cfg.Server.SSHAddr)
	}
	fmt.Println("Press Ctrl+C to stop")

	// The first server to stop takes the others down with it.
	var firstErr error
	for range servers {
		if err := <-errc; err != nil && firstErr == nil {
			firstErr = err
		}
		stop()
	}
	if firstErr != nil {
		exitf("Server error: %v", firstErr)
	}
}
