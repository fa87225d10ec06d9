package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/platformer/internal/storage"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Manage games",
	Long: `Register games. Each game has its own score topic, score:<slug>.
The "platformer" game is always present.

Examples:
  platformer games list
  platformer games add night "Night Run"`,
}

var gamesAddCmd = &cobra.Command{
	Use:   "add <slug> [title]",
	Short: "Register a game",
	Args:  cobra.RangeArgs(1, 2),
	Run:   runGamesAdd,
}

var gamesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered games",
	Args:  cobra.NoArgs,
	Run:   runGamesList,
}

func init() {
	gamesCmd.AddCommand(gamesAddCmd)
	gamesCmd.AddCommand(gamesListCmd)
}

func runGamesAdd(_ *cobra.Command, args []string) {
	title := ""
	if len(args) == 2 {
		title = args[1]
	}

	store := openStore(loadConfig())
	defer store.Close()

	g, err := store.AddGame(context.Background(), args[0], title)
	if errors.Is(err, storage.ErrExists) {
		exitf("Error: game %q already exists", args[0])
	}
	if err != nil {
		exitf("Error adding game: %v", err)
	}
	fmt.Printf("Registered game %s (id %d), topic score:%s\n", g.Title, g.ID, g.Slug)
}

func runGamesList(_ *cobra.Command, _ []string) {
	store := openStore(loadConfig())
	defer store.Close()

	games, err := store.ListGames(context.Background())
	if err != nil {
		exitf("Error listing games: %v", err)
	}

	maxSlugLen := len("Slug")
	for _, g := range games {
		maxSlugLen = max(maxSlugLen, len(g.Slug))
	}

	fmt.Println("Registered games:")
	fmt.Println()
	fmt.Printf("  %-*s  %s\n", maxSlugLen, "Slug", "Title")
	fmt.Printf("  %-*s  %s\n", maxSlugLen, "----", "-----")
	for _, g := range games {
		fmt.Printf("  %-*s  %s\n", maxSlugLen, g.Slug, g.Title)
	}

	fmt.Println()
	fmt.Println("Run 'platformer scores <slug>' to see a leaderboard.")
}
