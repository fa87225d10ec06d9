package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const maxLimit = 100

type gameJSON struct {
	ID    int64  `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type gameplayJSON struct {
	ID          int64     `json:"id"`
	PlayerID    int64     `json:"player_id"`
	Username    string    `json:"username"`
	PlayerScore int       `json:"player_score"`
	CreatedAt   time.Time `json:"created_at"`
}

type statsJSON struct {
	Plays     int     `json:"plays"`
	Players   int     `json:"players"`
	HighScore int     `json:"high_score"`
	AvgScore  float64 `json:"avg_score"`
}

type leaderboardJSON struct {
	Game      gameJSON       `json:"game"`
	Stats     statsJSON      `json:"stats"`
	Gameplays []gameplayJSON `json:"gameplays"`
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.board.ListGames(r.Context())
	if err != nil {
		s.logger.Error("failed to list games", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list games")
		return
	}

	out := make([]gameJSON, 0, len(games))
	for _, g := range games {
		out = append(out, gameJSON{ID: g.ID, Slug: g.Slug, Title: g.Title})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGameplays(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	ctx := r.Context()
	game, ok, err := s.board.GameBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		s.logger.Error("failed to look up game", "err", err)
		s.writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "game not found")
		return
	}

	plays, err := s.board.TopGameplays(ctx, game.ID, limit)
	if err != nil {
		s.logger.Error("failed to query gameplays", "game", game.Slug, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query gameplays")
		return
	}
	stats, err := s.board.GameStats(ctx, game.ID)
	if err != nil {
		s.logger.Error("failed to query stats", "game", game.Slug, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query stats")
		return
	}

	resp := leaderboardJSON{
		Game: gameJSON{ID: game.ID, Slug: game.Slug, Title: game.Title},
		Stats: statsJSON{
			Plays:     stats.Plays,
			Players:   stats.Players,
			HighScore: stats.HighScore,
			AvgScore:  stats.AvgScore,
		},
		Gameplays: make([]gameplayJSON, 0, len(plays)),
	}
	for _, p := range plays {
		resp.Gameplays = append(resp.Gameplays, gameplayJSON{
			ID:          p.ID,
			PlayerID:    p.PlayerID,
			Username:    p.Username,
			PlayerScore: p.PlayerScore,
			CreatedAt:   p.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}
