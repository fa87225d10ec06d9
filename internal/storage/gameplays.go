package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vovakirdan/platformer/internal/broadcast"
)

// CreateGameplayRecord appends a gameplay and returns it.
// It implements broadcast.Recorder.
func (s *Store) CreateGameplayRecord(ctx context.Context, gameID, playerID int64, score int) (broadcast.Record, error) {
	rec := broadcast.Record{GameID: gameID, PlayerID: playerID, Score: score}
	var createdAt any
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO gameplays (game_id, player_id, player_score) VALUES (?, ?, ?)
		 RETURNING id, created_at`,
		gameID, playerID, score,
	).Scan(&rec.ID, &createdAt)
	if err != nil {
		return broadcast.Record{}, fmt.Errorf("storage: cannot save gameplay: %w", err)
	}
	rec.CreatedAt = parseTime(createdAt)
	return rec, nil
}

// TopGameplays retrieves the top N gameplays for a game.
// Results are ordered by score descending, earliest first on ties.
func (s *Store) TopGameplays(ctx context.Context, gameID int64, limit int) ([]Gameplay, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.game_id, g.player_id, p.username, g.player_score, g.created_at
		 FROM gameplays g
		 JOIN players p ON p.id = g.player_id
		 WHERE g.game_id = ?
		 ORDER BY g.player_score DESC, g.id ASC
		 LIMIT ?`,
		gameID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query gameplays: %w", err)
	}
	defer rows.Close()

	var entries []Gameplay
	for rows.Next() {
		var e Gameplay
		var createdAt any
		if err := rows.Scan(&e.ID, &e.GameID, &e.PlayerID, &e.Username, &e.PlayerScore, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest score for a game, or 0 if none exist.
func (s *Store) HighScore(ctx context.Context, gameID int64) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(player_score) FROM gameplays WHERE game_id = ?",
		gameID,
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}
	return int(score.Int64), nil
}

// PlayerBest returns a player's best score in a game.
func (s *Store) PlayerBest(ctx context.Context, gameID, playerID int64) (int, bool, error) {
	var score sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(player_score) FROM gameplays WHERE game_id = ? AND player_id = ?",
		gameID, playerID,
	).Scan(&score)
	if err != nil {
		return 0, false, fmt.Errorf("storage: cannot query player best: %w", err)
	}
	return int(score.Int64), score.Valid, nil
}

// GameStats retrieves aggregated statistics for a game.
func (s *Store) GameStats(ctx context.Context, gameID int64) (GameStats, error) {
	stats := GameStats{GameID: gameID}

	var lastPlayed any
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT player_id), COALESCE(MAX(player_score), 0),
		        COALESCE(AVG(player_score), 0), MAX(created_at)
		 FROM gameplays WHERE game_id = ?`,
		gameID,
	).Scan(&stats.Plays, &stats.Players, &stats.HighScore, &stats.AvgScore, &lastPlayed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return GameStats{}, fmt.Errorf("storage: cannot get game stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)
	return stats, nil
}
