package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func defaultGame(t *testing.T, store *Store) Game {
	t.Helper()
	g, ok, err := store.GameBySlug(context.Background(), DefaultGameSlug)
	if err != nil || !ok {
		t.Fatalf("GameBySlug(%q) = %v, %v", DefaultGameSlug, ok, err)
	}
	return g
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreReopenKeepsSeed(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		store, err := Open(dbPath)
		if err != nil {
			t.Fatalf("Open() #%d failed: %v", i+1, err)
		}
		games, err := store.ListGames(context.Background())
		store.Close()
		if err != nil {
			t.Fatalf("ListGames() failed: %v", err)
		}
		if len(games) != 1 || games[0].Slug != DefaultGameSlug {
			t.Errorf("open #%d: games = %+v, expected only %q", i+1, games, DefaultGameSlug)
		}
	}
}

func TestStoreNestedPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestStorePlayers(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	ada, err := store.AddPlayer(ctx, "ada")
	if err != nil {
		t.Fatalf("AddPlayer() failed: %v", err)
	}
	if ada.ID == 0 || len(ada.Token) != 36 {
		t.Errorf("AddPlayer() = %+v, expected id and uuid token", ada)
	}

	if _, err := store.AddPlayer(ctx, "ada"); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate AddPlayer() error = %v, expected ErrExists", err)
	}
	if _, err := store.AddPlayer(ctx, "  "); err == nil {
		t.Error("AddPlayer() with blank name should fail")
	}
	if _, err := store.AddPlayer(ctx, "bob"); err != nil {
		t.Fatalf("AddPlayer() failed: %v", err)
	}

	tests := []struct {
		name   string
		lookup func() (Player, bool, error)
		found  bool
	}{
		{"by token", func() (Player, bool, error) { return store.PlayerByToken(ctx, ada.Token) }, true},
		{"by username", func() (Player, bool, error) { return store.PlayerByUsername(ctx, "ada") }, true},
		{"unknown token", func() (Player, bool, error) { return store.PlayerByToken(ctx, "nope") }, false},
		{"unknown username", func() (Player, bool, error) { return store.PlayerByUsername(ctx, "eve") }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, ok, err := tc.lookup()
			if err != nil {
				t.Fatalf("lookup failed: %v", err)
			}
			if ok != tc.found {
				t.Fatalf("found = %v, expected %v", ok, tc.found)
			}
			if ok && p.ID != ada.ID {
				t.Errorf("player = %+v, expected id %d", p, ada.ID)
			}
		})
	}

	players, err := store.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("ListPlayers() failed: %v", err)
	}
	if len(players) != 2 || players[0].Username != "ada" || players[1].Username != "bob" {
		t.Errorf("ListPlayers() = %+v, expected ada, bob", players)
	}
}

func TestStoreGames(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	g, err := store.AddGame(ctx, "dash", "")
	if err != nil {
		t.Fatalf("AddGame() failed: %v", err)
	}
	if g.Title != "dash" {
		t.Errorf("Title = %q, expected slug as default title", g.Title)
	}

	tests := []struct {
		slug string
		err  bool
	}{
		{"dash", true},
		{"", true},
		{"a:b", true},
		{"with space", true},
		{"jump", false},
	}
	for _, tc := range tests {
		_, err := store.AddGame(ctx, tc.slug, "Title")
		if (err != nil) != tc.err {
			t.Errorf("AddGame(%q) error = %v, wantErr %v", tc.slug, err, tc.err)
		}
	}

	games, err := store.ListGames(ctx)
	if err != nil {
		t.Fatalf("ListGames() failed: %v", err)
	}
	if len(games) != 3 {
		t.Errorf("ListGames() returned %d games, expected 3", len(games))
	}

	if _, ok, _ := store.GameBySlug(ctx, "missing"); ok {
		t.Error("GameBySlug() found a missing game")
	}
}

func TestStoreGameplays(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	game := defaultGame(t, store)
	ada, _ := store.AddPlayer(ctx, "ada")
	bob, _ := store.AddPlayer(ctx, "bob")

	plays := []struct {
		player Player
		score  int
	}{
		{ada, 100}, {bob, 300}, {ada, 50}, {bob, 300}, {ada, 200},
	}
	var ids []int64
	for _, p := range plays {
		rec, err := store.CreateGameplayRecord(ctx, game.ID, p.player.ID, p.score)
		if err != nil {
			t.Fatalf("CreateGameplayRecord() failed: %v", err)
		}
		if rec.GameID != game.ID || rec.PlayerID != p.player.ID || rec.Score != p.score {
			t.Errorf("CreateGameplayRecord() = %+v", rec)
		}
		if rec.CreatedAt.IsZero() {
			t.Error("CreatedAt was not set")
		}
		ids = append(ids, rec.ID)
	}

	top, err := store.TopGameplays(ctx, game.ID, 3)
	if err != nil {
		t.Fatalf("TopGameplays() failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("TopGameplays() returned %d rows, expected 3", len(top))
	}
	expected := []struct {
		id    int64
		user  string
		score int
	}{
		{ids[1], "bob", 300}, {ids[3], "bob", 300}, {ids[4], "ada", 200},
	}
	for i, e := range expected {
		if top[i].ID != e.id || top[i].Username != e.user || top[i].PlayerScore != e.score {
			t.Errorf("top[%d] = %+v, expected id=%d %s %d", i, top[i], e.id, e.user, e.score)
		}
	}

	high, err := store.HighScore(ctx, game.ID)
	if err != nil || high != 300 {
		t.Errorf("HighScore() = %d, %v, expected 300", high, err)
	}

	best, ok, err := store.PlayerBest(ctx, game.ID, ada.ID)
	if err != nil || !ok || best != 200 {
		t.Errorf("PlayerBest(ada) = %d, %v, %v, expected 200", best, ok, err)
	}

	stats, err := store.GameStats(ctx, game.ID)
	if err != nil {
		t.Fatalf("GameStats() failed: %v", err)
	}
	if stats.Plays != 5 || stats.Players != 2 || stats.HighScore != 300 || stats.AvgScore != 190 {
		t.Errorf("GameStats() = %+v", stats)
	}
	if stats.LastPlayed.IsZero() {
		t.Error("LastPlayed was not set")
	}
}

func TestStoreEmptyGame(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	game := defaultGame(t, store)

	high, err := store.HighScore(ctx, game.ID)
	if err != nil || high != 0 {
		t.Errorf("HighScore() = %d, %v, expected 0", high, err)
	}
	if _, ok, err := store.PlayerBest(ctx, game.ID, 1); ok || err != nil {
		t.Errorf("PlayerBest() found = %v, err = %v, expected none", ok, err)
	}
	stats, err := store.GameStats(ctx, game.ID)
	if err != nil || stats.Plays != 0 || !stats.LastPlayed.IsZero() {
		t.Errorf("GameStats() = %+v, %v, expected empty", stats, err)
	}
	top, err := store.TopGameplays(ctx, game.ID, 0)
	if err != nil || len(top) != 0 {
		t.Errorf("TopGameplays() = %v, %v, expected none", top, err)
	}
}

func TestStoreRejectsUnknownPlayer(t *testing.T) {
	store := openTestStore(t)
	game := defaultGame(t, store)

	if _, err := store.CreateGameplayRecord(context.Background(), game.ID, 999, 10); err == nil {
		t.Error("CreateGameplayRecord() for unknown player should fail")
	}
}

func TestStoreDirectory(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	ada, _ := store.AddPlayer(ctx, "ada")

	p, ok, err := store.ResolvePlayer(ctx, ada.Token)
	if err != nil || !ok || p.ID != ada.ID || p.Username != "ada" {
		t.Errorf("ResolvePlayer() = %+v, %v, %v", p, ok, err)
	}
	if _, ok, _ := store.ResolvePlayer(ctx, "nope"); ok {
		t.Error("ResolvePlayer() resolved unknown token")
	}

	g, ok, err := store.ResolveGame(ctx, DefaultGameSlug)
	if err != nil || !ok || g.Slug != DefaultGameSlug {
		t.Errorf("ResolveGame() = %+v, %v, %v", g, ok, err)
	}
}
