package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AddPlayer registers a player and issues a fresh token.
func (s *Store) AddPlayer(ctx context.Context, username string) (Player, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Player{}, errors.New("storage: username is required")
	}

	token := uuid.NewString()
	var p Player
	var createdAt any
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO players (username, token) VALUES (?, ?)
		 RETURNING id, username, token, created_at`,
		username, token,
	).Scan(&p.ID, &p.Username, &p.Token, &createdAt)
	if isUniqueViolation(err) {
		return Player{}, fmt.Errorf("%w: player %q", ErrExists, username)
	}
	if err != nil {
		return Player{}, fmt.Errorf("storage: cannot add player: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

// ListPlayers returns all players ordered by username.
func (s *Store) ListPlayers(ctx context.Context) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, token, created_at FROM players ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query players: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return players, nil
}

// PlayerByToken looks up a player by connection token.
func (s *Store) PlayerByToken(ctx context.Context, token string) (Player, bool, error) {
	return s.playerWhere(ctx, "token", token)
}

// PlayerByUsername looks up a player by name.
func (s *Store) PlayerByUsername(ctx context.Context, username string) (Player, bool, error) {
	return s.playerWhere(ctx, "username", username)
}

func (s *Store) playerWhere(ctx context.Context, column, value string) (Player, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, token, created_at FROM players WHERE `+column+` = ?`, value)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, false, nil
	}
	if err != nil {
		return Player{}, false, err
	}
	return p, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(sc scanner) (Player, error) {
	var p Player
	var createdAt any
	if err := sc.Scan(&p.ID, &p.Username, &p.Token, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, err
		}
		return Player{}, fmt.Errorf("storage: cannot scan player: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

// AddGame registers a game under a unique slug.
func (s *Store) AddGame(ctx context.Context, slug, title string) (Game, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" || strings.ContainsAny(slug, ": /") {
		return Game{}, fmt.Errorf("storage: invalid game slug %q", slug)
	}
	if title == "" {
		title = slug
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO games (slug, title) VALUES (?, ?)", slug, title)
	if isUniqueViolation(err) {
		return Game{}, fmt.Errorf("%w: game %q", ErrExists, slug)
	}
	if err != nil {
		return Game{}, fmt.Errorf("storage: cannot add game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Game{}, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return Game{ID: id, Slug: slug, Title: title}, nil
}

// ListGames returns all games ordered by slug.
func (s *Store) ListGames(ctx context.Context) ([]Game, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, slug, title FROM games ORDER BY slug")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.ID, &g.Slug, &g.Title); err != nil {
			return nil, fmt.Errorf("storage: cannot scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return games, nil
}

// GameBySlug looks up a game.
func (s *Store) GameBySlug(ctx context.Context, slug string) (Game, bool, error) {
	var g Game
	err := s.db.QueryRowContext(ctx,
		"SELECT id, slug, title FROM games WHERE slug = ?", slug,
	).Scan(&g.ID, &g.Slug, &g.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, false, nil
	}
	if err != nil {
		return Game{}, false, fmt.Errorf("storage: cannot query game: %w", err)
	}
	return g, true, nil
}
