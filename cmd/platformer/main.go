// platformer is a terminal minigame with networked score sync.
//
// Usage:
//
//	platformer play                 - Play the minigame
//	platformer serve                - Start the score broadcast server (WebSocket + SSH)
//	platformer scores [game]        - Show the leaderboard for a game
//	platformer players add|list     - Manage players and their tokens
//	platformer games add|list       - Manage games
//
// Global flags:
//
//	--config <path>     - Path to a config YAML (default: ~/.platformer/platformer.yaml)
//	--db <path>         - Set database path (overrides server.db_path)
//	--log-level <level> - debug, info, warn or error
//	--env-file <path>   - Env file with PLATFORMER_* overrides (default: .env)
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/platformer/internal/config"
	"github.com/vovakirdan/platformer/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
	flagEnvFile  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "platformer",
	Short: "Platformer - collect the items before time runs out",
	Long: `Platformer is a small terminal minigame. Walk left and right, collect
every item before the countdown ends, then save your score to a shared
leaderboard.

Available commands:
  play     - Play the minigame
  serve    - Start the score server (WebSocket and SSH)
  scores   - View the leaderboard
  players  - Register players and show their tokens
  games    - Register games

Examples:
  platformer play
  platformer play --server ws://localhost:4000/socket/websocket --token <token>
  platformer serve --ssh :23234
  platformer scores platformer`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Env file with PLATFORMER_* overrides")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(gamesCmd)
}

// loadConfig loads the configuration, applies the env file, global flags
// and the given command overrides, then validates the result.
func loadConfig(overrides ...func(*config.Config)) config.Config {
	cfg, err := buildConfig(overrides...)
	if err != nil {
		exitf("Error: %v", err)
	}
	return cfg
}

func buildConfig(overrides ...func(*config.Config)) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if err := config.LoadEnvFile(flagEnvFile); err != nil {
		return config.Config{}, err
	}
	config.ApplyEnv(&cfg)
	if flagDBPath != "" {
		cfg.Server.DBPath = flagDBPath
	}
	for _, apply := range overrides {
		apply(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger creates the process logger writing to w.
func newLogger(w io.Writer, prefix string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		exitf("Error: %v", err)
	}
	logger.SetLevel(level)
	return logger
}

// openStore opens the database named by the config.
func openStore(cfg config.Config) *storage.Store {
	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		exitf("Error opening database: %v", err)
	}
	return store
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
