package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/platformer/internal/platform/tui"
	"github.com/vovakirdan/platformer/internal/storage"
)

var (
	flagScoresLimit int
	flagScoresTUI   bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores [game]",
	Short: "Show the leaderboard for a game",
	Long: `Display the best gameplays for a game. The game defaults to "platformer".

Examples:
  platformer scores
  platformer scores platformer --limit 25
  platformer scores --tui`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of gameplays to show")
	scoresCmd.Flags().BoolVar(&flagScoresTUI, "tui", false, "Browse all games in an interactive scoreboard")
}

func runScores(_ *cobra.Command, args []string) {
	slug := storage.DefaultGameSlug
	if len(args) == 1 {
		slug = args[0]
	}

	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	if flagScoresTUI {
		width, height := 80, 24
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
			height = h
		}
		if err := tui.RunScoreboard(store, slug, width, height); err != nil {
			exitf("Error running scoreboard: %v", err)
		}
		return
	}

	ctx := context.Background()
	game, found, err := store.GameBySlug(ctx, slug)
	if err != nil {
		exitf("Error looking up game: %v", err)
	}
	if !found {
		fmt.Fprintf(os.Stderr, "Error: unknown game %q\n", slug)
		fmt.Fprintln(os.Stderr, "Run 'platformer games list' to see registered games.")
		os.Exit(1)
	}

	plays, err := store.TopGameplays(ctx, game.ID, flagScoresLimit)
	if err != nil {
		exitf("Error retrieving scores: %v", err)
	}

	fmt.Printf("High Scores - %s\n", game.Title)
	fmt.Println()

	if len(plays) == 0 {
		fmt.Println("No gameplays recorded yet.")
		fmt.Println()
		fmt.Println("Play 'platformer play --server <url> --token <token>' and press S to save a score.")
		return
	}

	fmt.Printf("  %-4s  %-16s  %-8s  %s\n", "Rank", "Player", "Score", "Date")
	fmt.Printf("  %-4s  %-16s  %-8s  %s\n", "----", "------", "-----", "----")
	for i, p := range plays {
		fmt.Printf("  %-4d  %-16s  %-8d  %s\n", i+1, p.Username, p.PlayerScore, p.CreatedAt.Format("2006-01-02 15:04"))
	}

	stats, err := store.GameStats(ctx, game.ID)
	if err == nil {
		fmt.Println()
		fmt.Printf("Best: %d  Plays: %d  Players: %d  Average: %.1f\n",
			stats.HighScore, stats.Plays, stats.Players, stats.AvgScore)
	}
}
