package lobbies

import (
	"log"
	"time"

	"github.com/arogoat/dubmaster-server/internal/events"
)

// endRound scores the finished round and advances the session. Guess points
// are computed first and captured in the result records; voice-vote points
// land afterwards, so they show up in scores only from the next broadcast on.
// Returns the per-user results plus, when the round limit is now exceeded,
// the final standings.
func (s *Session) endRound() (results []RoundResult, over bool, standings []FinalScore) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateScoring
	prompt := s.currentPrompt

	results = make([]RoundResult, 0, len(s.users))
	for _, u := range s.users {
		guess, ok := s.guesses[u.ConnID]
		correct := ok && guess == prompt
		if correct {
			u.Score++
		}
		results = append(results, RoundResult{
			Username: u.Username,
			Guess:    guess,
			Correct:  correct,
			Score:    u.Score,
		})
	}

	for target, count := range s.voiceVotes {
		for _, u := range s.users {
			if u.ConnID == target {
				u.Score += count
				break
			}
		}
	}

	s.state = StateWaiting
	s.guesses = make(map[string]string)
	s.voiceSubs = make([]VoiceSubmission, 0)
	s.voiceVotes = make(map[string]int)
	s.round++

	over = s.round > s.cfg.MaxRounds
	if over {
		standings = make([]FinalScore, 0, len(s.users))
		for _, u := range s.users {
			standings = append(standings, FinalScore{Username: u.Username, Score: u.Score})
		}
	}
	return results, over, standings
}

// EndRound drives the round transition for a lobby: scoring, the results
// broadcast, and — once the round limit is exceeded — the delayed game-over
// broadcast followed by session teardown.
func (r *Registry) EndRound(lobbyID string) error {
	s, ok := r.Get(lobbyID)
	if !ok {
		return ErrLobbyNotFound
	}

	results, over, standings := s.endRound()
	r.bus.Broadcast(lobbyID, events.RoundResults, results)

	if !over {
		return nil
	}

	mode := s.GameMode()
	r.bus.Broadcast(lobbyID, events.GameWillEnd, struct{}{})

	time.AfterFunc(r.cfg.GameOverDelay, func() {
		r.bus.Broadcast(lobbyID, events.GameOver, standings)
		r.Delete(lobbyID)
		log.Printf("[Lobby:%s] Game over after %d rounds\n", lobbyID, r.cfg.MaxRounds)

		if r.archiver != nil {
			if err := r.archiver.RecordGame(lobbyID, mode, r.cfg.MaxRounds, standings); err != nil {
				log.Printf("[Lobby:%s] RecordGame error: %v\n", lobbyID, err)
			}
		}
	})
	return nil
}
