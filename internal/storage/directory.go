package storage

import (
	"context"

	"github.com/vovakirdan/platformer/internal/broadcast"
)

// ResolvePlayer implements broadcast.Directory.
func (s *Store) ResolvePlayer(ctx context.Context, token string) (broadcast.PlayerRef, bool, error) {
	p, ok, err := s.PlayerByToken(ctx, token)
	if err != nil || !ok {
		return broadcast.PlayerRef{}, false, err
	}
	return p.Ref(), true, nil
}

// ResolveGame implements broadcast.Directory.
func (s *Store) ResolveGame(ctx context.Context, slug string) (broadcast.GameRef, bool, error) {
	g, ok, err := s.GameBySlug(ctx, slug)
	if err != nil || !ok {
		return broadcast.GameRef{}, false, err
	}
	return g.Ref(), true, nil
}

// Ref returns the identity the hub attaches to connections.
func (p Player) Ref() broadcast.PlayerRef {
	return broadcast.PlayerRef{ID: p.ID, Username: p.Username}
}

// Ref returns the game identity for a topic.
func (g Game) Ref() broadcast.GameRef {
	return broadcast.GameRef{ID: g.ID, Slug: g.Slug, Title: g.Title}
}

var (
	_ broadcast.Recorder  = (*Store)(nil)
	_ broadcast.Directory = (*Store)(nil)
)
