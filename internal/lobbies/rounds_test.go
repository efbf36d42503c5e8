package lobbies

import (
	"errors"
	"testing"
	"time"

	"github.com/arogoat/dubmaster-server/internal/events"
)

func TestEndRound_AliceAndBob(t *testing.T) {
	r, bus := newTestRegistry()

	s, err := r.Create("L1", "alice", "c1")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := r.Join("L1", "bob", "c2"); err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if err := s.SubmitPrompt("a cat", "img-1"); err != nil {
		t.Fatalf("SubmitPrompt() error: %v", err)
	}
	s.SubmitGuess("c1", "a cat")
	s.SubmitGuess("c2", "a dog")
	drain(bus)

	if err := r.EndRound("L1"); err != nil {
		t.Fatalf("EndRound() error: %v", err)
	}

	out := waitEvent(t, bus, events.RoundResults)
	results, ok := out.Data.([]RoundResult)
	if !ok {
		t.Fatalf("round_results payload is %T, want []RoundResult", out.Data)
	}
	want := []RoundResult{
		{Username: "alice", Guess: "a cat", Correct: true, Score: 1},
		{Username: "bob", Guess: "a dog", Correct: false, Score: 0},
	}
	if len(results) != len(want) {
		t.Fatalf("results = %d entries, want %d", len(results), len(want))
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %+v, want %+v", i, results[i], want[i])
		}
	}

	if s.Round() != 2 {
		t.Errorf("Round = %d, want 2", s.Round())
	}
	if s.State() != StateWaiting {
		t.Errorf("State = %q, want %q", s.State(), StateWaiting)
	}
}

func TestEndRound_VoicePointsAfterResults(t *testing.T) {
	s, _ := newTestSession(t)

	if err := s.SubmitPrompt("a cat", "img-1"); err != nil {
		t.Fatalf("SubmitPrompt() error: %v", err)
	}
	s.SubmitGuess("c2", "wrong")
	for i := 0; i < 3; i++ {
		s.VoteVoice("c2")
	}

	results, _, _ := s.endRound()

	// The result record carries guess points only; the 3 voice points are
	// added afterwards and visible in the roster.
	if results[1].Username != "bob" || results[1].Score != 0 {
		t.Errorf("bob's result record = %+v, want score 0", results[1])
	}
	snap := s.Snapshot()
	if snap.Users[1].Score != 3 {
		t.Errorf("bob's roster score = %d, want 3", snap.Users[1].Score)
	}
}

func TestEndRound_ResetsRoundState(t *testing.T) {
	s, _ := newTestSession(t)

	if err := s.SubmitPrompt("a cat", "img-1"); err != nil {
		t.Fatalf("SubmitPrompt() error: %v", err)
	}
	s.SubmitGuess("c1", "stale")
	s.SubmitVoice("c1", "audio://stale")
	s.VoteVoice("c1")
	s.endRound()

	// A new prompt may be submitted (state is back to waiting) and earlier
	// guesses/votes must not leak into the new round.
	if err := s.SubmitPrompt("a dog", "img-2"); err != nil {
		t.Fatalf("SubmitPrompt() after endRound error: %v", err)
	}
	s.SubmitGuess("c1", "a dog")

	results, _, _ := s.endRound()
	if !results[0].Correct || results[0].Guess != "a dog" {
		t.Errorf("guess map not reset: %+v", results[0])
	}
	snap := s.Snapshot()
	// +1 voice vote from round one, +1 correct guess in round two. The
	// round-one vote must not be counted again.
	if snap.Users[0].Score != 2 {
		t.Errorf("alice's score = %d, want 2", snap.Users[0].Score)
	}
	if snap.Round != 3 {
		t.Errorf("Round = %d, want 3", snap.Round)
	}
}

func TestEndRound_NoGuessIsIncorrect(t *testing.T) {
	s, _ := newTestSession(t)

	// No prompt submitted, no guesses. An absent guess never scores, even
	// though both guess and prompt are empty strings.
	results, _, _ := s.endRound()
	for _, res := range results {
		if res.Correct || res.Score != 0 {
			t.Errorf("result = %+v, want incorrect with score 0", res)
		}
	}
}

func TestEndRound_UnknownLobby(t *testing.T) {
	r, _ := newTestRegistry()
	err := r.EndRound("missing")
	if !errors.Is(err, ErrLobbyNotFound) {
		t.Errorf("EndRound() error = %v, want ErrLobbyNotFound", err)
	}
}

func TestEndRound_ScoreNeverDecreases(t *testing.T) {
	s, _ := newTestSession(t)

	last := 0
	for i := 0; i < 4; i++ {
		if err := s.SubmitPrompt("p", "img"); err != nil {
			t.Fatalf("SubmitPrompt() error: %v", err)
		}
		if i%2 == 0 {
			s.SubmitGuess("c1", "p")
		}
		s.endRound()
		score := s.Snapshot().Users[0].Score
		if score < last {
			t.Fatalf("score decreased from %d to %d", last, score)
		}
		last = score
	}
}

func TestGameOver_AfterMaxRounds(t *testing.T) {
	r, bus := newTestRegistry()

	s, err := r.Create("L1", "alice", "c1")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := r.Join("L1", "bob", "c2"); err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	for round := 1; round <= 5; round++ {
		if err := s.SubmitPrompt("prompt", "img"); err != nil {
			t.Fatalf("round %d SubmitPrompt() error: %v", round, err)
		}
		s.SubmitGuess("c1", "prompt")
		drain(bus)
		if err := r.EndRound("L1"); err != nil {
			t.Fatalf("round %d EndRound() error: %v", round, err)
		}
		waitEvent(t, bus, events.RoundResults)
	}

	// The 5th end_round pushes round past MaxRounds: game_will_end fires
	// immediately, game_over after the configured delay.
	waitEvent(t, bus, events.GameWillEnd)

	out := waitEvent(t, bus, events.GameOver)
	standings, ok := out.Data.([]FinalScore)
	if !ok {
		t.Fatalf("game_over payload is %T, want []FinalScore", out.Data)
	}
	want := []FinalScore{{Username: "alice", Score: 5}, {Username: "bob", Score: 0}}
	for i := range want {
		if standings[i] != want[i] {
			t.Errorf("standings[%d] = %+v, want %+v", i, standings[i], want[i])
		}
	}

	// Lobby must be unreachable once game_over fired.
	deadline := time.After(1 * time.Second)
	for {
		if _, ok := r.Get("L1"); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("lobby still retrievable after game over")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if err := r.EndRound("L1"); !errors.Is(err, ErrLobbyNotFound) {
		t.Errorf("EndRound() after game over = %v, want ErrLobbyNotFound", err)
	}
}

type fakeArchiver struct {
	ch chan []FinalScore
}

func (f *fakeArchiver) RecordGame(lobbyID, mode string, rounds int, standings []FinalScore) error {
	f.ch <- standings
	return nil
}

func TestGameOver_ArchivesStandings(t *testing.T) {
	r, bus := newTestRegistry()
	arch := &fakeArchiver{ch: make(chan []FinalScore, 1)}
	r.SetArchiver(arch)

	s, err := r.Create("L1", "alice", "c1")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	for round := 1; round <= 5; round++ {
		if err := s.SubmitPrompt("p", "img"); err != nil {
			t.Fatalf("SubmitPrompt() error: %v", err)
		}
		drain(bus)
		if err := r.EndRound("L1"); err != nil {
			t.Fatalf("EndRound() error: %v", err)
		}
	}

	select {
	case standings := <-arch.ch:
		if len(standings) != 1 || standings[0].Username != "alice" {
			t.Errorf("archived standings = %+v", standings)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for archive call")
	}
}
