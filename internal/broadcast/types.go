// Package broadcast implements the score broadcast server: connections join
// per-game topics, push scores, and receive every score recorded on the
// topic. Identity comes only from the connection, never from payloads.
package broadcast

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAuthContextMissing rejects a push from a connection without a
	// resolved player and game.
	ErrAuthContextMissing = errors.New("broadcast: connection has no player or game")
	// ErrWrite wraps persistence failures.
	ErrWrite = errors.New("broadcast: write failed")

	ErrNotJoined      = errors.New("broadcast: topic not joined")
	ErrUnknownTopic   = errors.New("broadcast: unknown topic")
	ErrUnknownGame    = errors.New("broadcast: unknown game")
	ErrUnknownToken   = errors.New("broadcast: unknown player token")
	ErrUnknownEvent   = errors.New("broadcast: unknown event")
	ErrInvalidPayload = errors.New("broadcast: invalid payload")
	ErrConnClosed     = errors.New("broadcast: connection closed")
)

// PlayerRef identifies an authenticated player.
type PlayerRef struct {
	ID       int64
	Username string
}

// GameRef identifies a game a topic belongs to.
type GameRef struct {
	ID    int64
	Slug  string
	Title string
}

// Record is a persisted gameplay.
type Record struct {
	ID        int64
	GameID    int64
	PlayerID  int64
	Score     int
	CreatedAt time.Time
}

// Recorder persists gameplay records.
// This lets the hub save scores without depending on the storage package.
type Recorder interface {
	CreateGameplayRecord(ctx context.Context, gameID, playerID int64, score int) (Record, error)
}

// Directory resolves the identities bound to a connection.
type Directory interface {
	ResolvePlayer(ctx context.Context, token string) (PlayerRef, bool, error)
	ResolveGame(ctx context.Context, slug string) (GameRef, bool, error)
}

// Identity is the resolved (game, player) pair a push is attributed to.
type Identity struct {
	GameID   int64
	PlayerID int64
}

// ConnContext is what the server knows about a connection on one topic.
// Both values are optional until set.
type ConnContext struct {
	player    PlayerRef
	hasPlayer bool
	game      GameRef
	hasGame   bool
}

// WithPlayer returns a copy bound to p.
func (c ConnContext) WithPlayer(p PlayerRef) ConnContext {
	c.player, c.hasPlayer = p, true
	return c
}

// WithGame returns a copy bound to g.
func (c ConnContext) WithGame(g GameRef) ConnContext {
	c.game, c.hasGame = g, true
	return c
}

// Player returns the bound player, if any.
func (c ConnContext) Player() (PlayerRef, bool) {
	return c.player, c.hasPlayer
}

// Game returns the bound game, if any.
func (c ConnContext) Game() (GameRef, bool) {
	return c.game, c.hasGame
}

// Identity returns the pair a push is attributed to. It is only available
// once both the player and the game are known.
func (c ConnContext) Identity() (Identity, bool) {
	if !c.hasPlayer || !c.hasGame {
		return Identity{}, false
	}
	return Identity{GameID: c.game.ID, PlayerID: c.player.ID}, true
}
