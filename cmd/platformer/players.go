package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/platformer/internal/storage"
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "Manage players",
	Long: `Register players and list their tokens.

A player's token authenticates their WebSocket connection. SSH players are
matched by username instead.

Examples:
  platformer players add ada
  platformer players list`,
}

var playersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Register a player and print their token",
	Args:  cobra.ExactArgs(1),
	Run:   runPlayersAdd,
}

var playersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered players",
	Args:  cobra.NoArgs,
	Run:   runPlayersList,
}

func init() {
	playersCmd.AddCommand(playersAddCmd)
	playersCmd.AddCommand(playersListCmd)
}

func runPlayersAdd(_ *cobra.Command, args []string) {
	store := openStore(loadConfig())
	defer store.Close()

	p, err := store.AddPlayer(context.Background(), args[0])
	if errors.Is(err, storage.ErrExists) {
		exitf("Error: player %q already exists", args[0])
	}
	if err != nil {
		exitf("Error adding player: %v", err)
	}

	fmt.Printf("Registered player %s (id %d)\n", p.Username, p.ID)
	fmt.Printf("Token: %s\n", p.Token)
}

func runPlayersList(_ *cobra.Command, _ []string) {
	store := openStore(loadConfig())
	defer store.Close()

	players, err := store.ListPlayers(context.Background())
	if err != nil {
		exitf("Error listing players: %v", err)
	}
	if len(players) == 0 {
		fmt.Println("No players registered.")
		fmt.Println()
		fmt.Println("Run 'platformer players add <username>' to register one.")
		return
	}

	maxNameLen := len("Username")
	for _, p := range players {
		maxNameLen = max(maxNameLen, len(p.Username))
	}

	fmt.Printf("  %-4s  %-*s  %s\n", "ID", maxNameLen, "Username", "Token")
	fmt.Printf("  %-4s  %-*s  %s\n", "--", maxNameLen, "--------", "-----")
	for _, p := range players {
		fmt.Printf("  %-4d  %-*s  %s\n", p.ID, maxNameLen, p.Username, p.Token)
	}
}
