package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/platformer/internal/config"
	"github.com/vovakirdan/platformer/internal/platform/tui"
	"github.com/vovakirdan/platformer/internal/scoresync"
)

const heartbeatInterval = 30 * time.Second

var (
	flagDifficulty string
	flagServer     string
	flagToken      string
	flagTopic      string
	flagLogFile    string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the minigame",
	Long: `Start a game session.

Controls:
  Left/A, Right/D  - Walk (hold to keep walking)
  Down/X           - Stop
  Enter/Space      - Start, or return to the title after a round
  S                - Save your score to the server
  P                - Share your score without saving it
  Ctrl+S           - Screenshot to ~/.platformer/screenshots
  Q/Esc/Ctrl+C     - Quit

Score sync is enabled when a server URL is configured (sync.server_url,
PLATFORMER_SERVER_URL or --server). The token can also come from
PLATFORMER_TOKEN, for example in a .env file. Without a token you can
watch other players' scores but your own saves are rejected.

Difficulty options:
  easy   - Longer countdown and faster walking
  normal - Level as configured
  hard   - Shorter countdown and a narrower capture band

Examples:
  platformer play
  platformer play --difficulty hard
  platformer play --server ws://localhost:4000/socket/websocket --token 3f6c...`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard")
	playCmd.Flags().StringVar(&flagServer, "server", "", "Score server URL (overrides sync.server_url)")
	playCmd.Flags().StringVar(&flagToken, "token", "", "Player token (overrides sync.token)")
	playCmd.Flags().StringVar(&flagTopic, "topic", "", "Score topic (overrides sync.topic)")
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file while playing")
}

// playOverrides applies the play flags to the sync section.
func playOverrides(cfg *config.Config) {
	if flagServer != "" {
		cfg.Sync.ServerURL = flagServer
	}
	if flagToken != "" {
		cfg.Sync.Token = flagToken
	}
	if flagTopic != "" {
		cfg.Sync.Topic = flagTopic
	}
}

func runPlay(_ *cobra.Command, _ []string) {
	cfg := loadConfig(playOverrides)

	preset, err := config.ParseDifficulty(flagDifficulty)
	if err != nil {
		exitf("Error: %v", err)
	}
	level := cfg.Level
	config.ApplyDifficultyPreset(&level, preset)

	// The alternate screen owns stdout, so logs only go to an explicit file.
	var logOut io.Writer = io.Discard
	if flagLogFile != "" {
		path, pathErr := config.ExpandHome(flagLogFile)
		if pathErr != nil {
			exitf("Error: %v", pathErr)
		}
		f, openErr := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if openErr != nil {
			exitf("Error opening log file: %v", openErr)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, "platformer")

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	opts := tui.Options{
		Level:        level,
		FPS:          cfg.Input.FPS,
		ReleaseAfter: cfg.Input.ReleaseAfter(),
		Width:        width,
		Height:       height,
		Topic:        cfg.Sync.Topic,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Sync.Enabled() {
		dialCtx, dialCancel := context.WithTimeout(ctx, cfg.Sync.AckTimeout())
		transport, dialErr := scoresync.Dial(dialCtx, cfg.Sync.ServerURL, cfg.Sync.Token, logger)
		dialCancel()
		if dialErr != nil {
			exitf("Error connecting to score server: %v", dialErr)
		}

		client := scoresync.NewClient(transport, scoresync.Config{
			AckTimeout: cfg.Sync.AckTimeout(),
			Logger:     logger,
		})
		defer client.Close()
		go client.KeepAlive(ctx, heartbeatInterval)

		opts.Client = client
		opts.JoinTimeout = cfg.Sync.AckTimeout()
	}

	if err := tui.Run(opts); err != nil {
		exitf("Error running game: %v", err)
	}
}
