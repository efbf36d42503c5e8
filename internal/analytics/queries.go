package analytics

import (
	"fmt"
	"time"

	"github.com/arogoat/dubmaster-server/internal/db"
)

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

type LeaderboardEntry struct {
	Username    string  `json:"username"`
	GamesPlayed int     `json:"gamesPlayed"`
	TotalScore  int     `json:"totalScore"`
	BestGame    int     `json:"bestGame"`
	Wins        int     `json:"wins"`
	AvgScore    float64 `json:"avgScore"`
}

type RecentGame struct {
	GameID       string    `json:"gameId"`
	LobbyID      string    `json:"lobbyId"`
	GameMode     string    `json:"gameMode"`
	RoundsPlayed int       `json:"roundsPlayed"`
	Players      int       `json:"players"`
	Winner       string    `json:"winner"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// GetLeaderboard returns the all-time top scorers across archived games.
func (q *Queries) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := q.DB.Query(`
		SELECT
			username,
			COUNT(*) as games_played,
			COALESCE(SUM(score), 0) as total_score,
			COALESCE(MAX(score), 0) as best_game,
			COUNT(*) FILTER (WHERE rank = 1) as wins
		FROM game_results
		GROUP BY username
		ORDER BY total_score DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.GamesPlayed, &e.TotalScore, &e.BestGame, &e.Wins); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		if e.GamesPlayed > 0 {
			e.AvgScore = float64(e.TotalScore) / float64(e.GamesPlayed)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetRecentGames returns the latest archived games, newest first.
func (q *Queries) GetRecentGames(limit int) ([]RecentGame, error) {
	rows, err := q.DB.Query(`
		SELECT
			g.id, g.lobby_id, g.game_mode, g.rounds_played, g.finished_at,
			COUNT(r.id) as players,
			COALESCE(MAX(r.username) FILTER (WHERE r.rank = 1), '') as winner
		FROM games g
		LEFT JOIN game_results r ON r.game_id = g.id
		GROUP BY g.id
		ORDER BY g.finished_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent games: %w", err)
	}
	defer rows.Close()

	var games []RecentGame
	for rows.Next() {
		var g RecentGame
		if err := rows.Scan(&g.GameID, &g.LobbyID, &g.GameMode, &g.RoundsPlayed, &g.FinishedAt, &g.Players, &g.Winner); err != nil {
			return nil, fmt.Errorf("scanning game row: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
