package db

import (
	"fmt"
	"sort"
	"time"

	"github.com/arogoat/dubmaster-server/internal/lobbies"
)

type GameRecord struct {
	ID           string
	LobbyID      string
	GameMode     string
	RoundsPlayed int
	FinishedAt   time.Time
}

// RecordGame archives a finished game and its final standings. Implements
// lobbies.Archiver.
func (d *DB) RecordGame(lobbyID, mode string, rounds int, standings []lobbies.FinalScore) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var gameID string
	err = tx.QueryRow(`
		INSERT INTO games (lobby_id, game_mode, rounds_played)
		VALUES ($1, $2, $3)
		RETURNING id
	`, lobbyID, mode, rounds).Scan(&gameID)
	if err != nil {
		return fmt.Errorf("creating game: %w", err)
	}

	ranked := append([]lobbies.FinalScore(nil), standings...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	stmt, err := tx.Prepare(`
		INSERT INTO game_results (game_id, username, score, rank)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, fs := range ranked {
		if _, err := stmt.Exec(gameID, fs.Username, fs.Score, i+1); err != nil {
			return fmt.Errorf("recording result for %s: %w", fs.Username, err)
		}
	}

	return tx.Commit()
}
