package analytics

import (
	"os"
	"testing"

	"github.com/arogoat/dubmaster-server/internal/db"
	"github.com/arogoat/dubmaster-server/internal/lobbies"
)

func getTestDB(t *testing.T) *db.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := db.Connect(dsn)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		database.Exec("DELETE FROM game_results")
		database.Exec("DELETE FROM games")
		database.Close()
	})
	return database
}

func TestGetLeaderboard(t *testing.T) {
	database := getTestDB(t)

	games := [][]lobbies.FinalScore{
		{{Username: "alice", Score: 5}, {Username: "bob", Score: 2}},
		{{Username: "alice", Score: 3}, {Username: "carol", Score: 4}},
	}
	for i, standings := range games {
		if err := database.RecordGame("L1", "dubbing", 5, standings); err != nil {
			t.Fatalf("RecordGame(%d) error: %v", i, err)
		}
	}

	q := NewQueries(database)
	entries, err := q.GetLeaderboard(10)
	if err != nil {
		t.Fatalf("GetLeaderboard() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	top := entries[0]
	if top.Username != "alice" || top.TotalScore != 8 || top.GamesPlayed != 2 || top.Wins != 1 {
		t.Errorf("top entry = %+v, want alice with total 8, 2 games, 1 win", top)
	}
}

func TestGetRecentGames(t *testing.T) {
	database := getTestDB(t)

	standings := []lobbies.FinalScore{{Username: "alice", Score: 5}, {Username: "bob", Score: 2}}
	if err := database.RecordGame("L9", "classic", 5, standings); err != nil {
		t.Fatalf("RecordGame() error: %v", err)
	}

	q := NewQueries(database)
	games, err := q.GetRecentGames(10)
	if err != nil {
		t.Fatalf("GetRecentGames() error: %v", err)
	}
	if len(games) == 0 {
		t.Fatal("no games returned")
	}
	g := games[0]
	if g.LobbyID != "L9" || g.Players != 2 || g.Winner != "alice" {
		t.Errorf("recent game = %+v, want L9 with 2 players and winner alice", g)
	}
}
