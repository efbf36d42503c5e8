package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"time"

	"github.com/arogoat/dubmaster-server/internal/events"
	"github.com/arogoat/dubmaster-server/internal/lobbies"
)

// Dispatch routes one inbound client event to the game core. Errors are
// local to the event: they are logged and answered with a directed error
// event, never fatal.
func (s *Server) Dispatch(connID string, env events.Envelope) {
	switch env.Event {
	case events.CreateLobby:
		var d events.CreateLobbyData
		if !s.decode(connID, env, &d) {
			return
		}
		// Join the group first so the creator receives the initial snapshot.
		s.Hub.Join(d.LobbyID, connID)
		if _, err := s.Registry.Create(d.LobbyID, d.Username, connID); err != nil {
			s.Hub.Leave(d.LobbyID, connID)
			s.sendError(connID, env.Event, err)
		}

	case events.JoinLobby:
		var d events.JoinLobbyData
		if !s.decode(connID, env, &d) {
			return
		}
		s.Hub.Join(d.LobbyID, connID)
		if _, err := s.Registry.Join(d.LobbyID, d.Username, connID); err != nil {
			s.Hub.Leave(d.LobbyID, connID)
			s.sendError(connID, env.Event, err)
		}

	case events.SelectMode:
		var d events.SelectModeData
		if !s.decode(connID, env, &d) {
			return
		}
		session, ok := s.Registry.Get(d.LobbyID)
		if !ok {
			s.sendError(connID, env.Event, lobbies.ErrLobbyNotFound)
			return
		}
		session.SelectMode(d.Mode)

	case events.SubmitPrompt:
		var d events.SubmitPromptData
		if !s.decode(connID, env, &d) {
			return
		}
		session, ok := s.Registry.Get(d.LobbyID)
		if !ok {
			s.sendError(connID, env.Event, lobbies.ErrLobbyNotFound)
			return
		}
		if err := session.SubmitPrompt(d.Prompt, d.Image); err != nil {
			s.sendError(connID, env.Event, err)
		}

	case events.SubmitGuess:
		var d events.SubmitGuessData
		if !s.decode(connID, env, &d) {
			return
		}
		session, ok := s.Registry.Get(d.LobbyID)
		if !ok {
			s.sendError(connID, env.Event, lobbies.ErrLobbyNotFound)
			return
		}
		session.SubmitGuess(d.UserID, d.Guess)

	case events.SubmitVoice:
		var d events.SubmitVoiceData
		if !s.decode(connID, env, &d) {
			return
		}
		session, ok := s.Registry.Get(d.LobbyID)
		if !ok {
			s.sendError(connID, env.Event, lobbies.ErrLobbyNotFound)
			return
		}
		session.SubmitVoice(d.UserID, d.AudioURL)

	case events.VoteVoice:
		var d events.VoteVoiceData
		if !s.decode(connID, env, &d) {
			return
		}
		session, ok := s.Registry.Get(d.LobbyID)
		if !ok {
			s.sendError(connID, env.Event, lobbies.ErrLobbyNotFound)
			return
		}
		session.VoteVoice(d.VotedID)

	case events.GenerateVoice:
		var d events.GenerateVoiceData
		if !s.decode(connID, env, &d) {
			return
		}
		s.generateVoice(d)

	case events.EndRound:
		var d events.EndRoundData
		if !s.decode(connID, env, &d) {
			return
		}
		if err := s.Registry.EndRound(d.LobbyID); err != nil {
			s.sendError(connID, env.Event, err)
		}

	default:
		log.Printf("[Dispatch] Unknown event %q from %s\n", env.Event, connID)
	}
}

// generateVoice runs the synthesis call off the event path. It captures only
// the inputs it needs; on success the audio is delivered as a single
// broadcast, on failure it is logged and nothing is sent.
func (s *Server) generateVoice(d events.GenerateVoiceData) {
	if s.Voice == nil || !s.Voice.Enabled() {
		log.Printf("[Voice] Generation requested for lobby %s but synthesis is disabled\n", d.LobbyID)
		return
	}
	lobbyID, text := d.LobbyID, d.Text

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		audio, err := s.Voice.Synthesize(ctx, text)
		if err != nil {
			log.Printf("[Voice] Generation error: %v\n", err)
			return
		}
		s.Bus.Broadcast(lobbyID, events.AIVoiceReady, events.AIVoiceData{
			Audio: base64.StdEncoding.EncodeToString(audio),
		})
	}()
}

func (s *Server) decode(connID string, env events.Envelope, dst any) bool {
	if err := json.Unmarshal(env.Data, dst); err != nil {
		log.Printf("[Dispatch] Bad %s payload from %s: %v\n", env.Event, connID, err)
		return false
	}
	return true
}

func (s *Server) sendError(connID, event string, err error) {
	log.Printf("[Dispatch] %s failed for %s: %v\n", event, connID, err)
	s.Bus.Send(connID, events.Error, events.ErrorData{Message: err.Error()})
}
