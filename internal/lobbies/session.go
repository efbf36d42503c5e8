package lobbies

import (
	"log"

	"github.com/arogoat/dubmaster-server/internal/events"
)

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) GameMode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameMode
}

// Snapshot returns a copy of the broadcastable session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	return Snapshot{
		LobbyID:      s.id,
		Users:        users,
		GameMode:     s.gameMode,
		CurrentImage: s.currentImage,
		Round:        s.round,
		State:        s.state,
	}
}

// SelectMode records the chosen game mode and announces it. The mode value
// is an opaque identifier, not validated.
func (s *Session) SelectMode(mode string) {
	s.mu.Lock()
	s.gameMode = mode
	s.mu.Unlock()

	s.bus.Broadcast(s.id, events.ModeSelected, mode)
}

// SubmitPrompt sets the round's prompt and image and opens guessing. Any
// member may submit, but only while the session is waiting for a prompt.
func (s *Session) SubmitPrompt(prompt, image string) error {
	s.mu.Lock()
	if s.state != StateWaiting {
		s.mu.Unlock()
		return ErrWrongState
	}
	s.currentPrompt = prompt
	s.currentImage = image
	s.state = StateGuessing
	s.mu.Unlock()

	s.bus.Broadcast(s.id, events.NewImage, image)
	return nil
}

// SubmitGuess records a guess for the connection. First write wins: repeat
// submissions within the same round are silently ignored. Guesses are not
// broadcast; they stay hidden until scoring.
func (s *Session) SubmitGuess(connID, guess string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.guesses[connID]; exists {
		return
	}
	s.guesses[connID] = guess
}

// SubmitVoice appends a voice answer and reveals it to the lobby right away.
func (s *Session) SubmitVoice(connID, audioURL string) {
	s.mu.Lock()
	username := "Unknown"
	for _, u := range s.users {
		if u.ConnID == connID {
			username = u.Username
			break
		}
	}
	sub := VoiceSubmission{UserID: connID, Username: username, AudioURL: audioURL}
	s.voiceSubs = append(s.voiceSubs, sub)
	s.mu.Unlock()

	if username == "Unknown" {
		log.Printf("[Lobby:%s] Voice submission from unresolved connection %s\n", s.id, connID)
	}
	s.bus.Broadcast(s.id, events.NewVoice, sub)
}

// VoteVoice increments the vote counter for the target connection. Votes are
// not deduplicated per voter and self-votes are allowed.
func (s *Session) VoteVoice(targetConnID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceVotes[targetConnID]++
}

func (s *Session) addUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
}

// removeByConnID drops the user owning connID from the roster. It returns
// the removed user and whether the roster is now empty.
func (s *Session) removeByConnID(connID string) (removed *User, empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.ConnID == connID {
			removed = u
			s.users = append(s.users[:i], s.users[i+1:]...)
			break
		}
	}
	return removed, len(s.users) == 0
}
