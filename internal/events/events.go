package events

import (
	"encoding/json"
	"log"
)

// Inbound event names, matching the client protocol.
const (
	CreateLobby   = "create_lobby"
	JoinLobby     = "join_lobby"
	SelectMode    = "select_mode"
	SubmitPrompt  = "submit_prompt"
	SubmitGuess   = "submit_guess"
	SubmitVoice   = "submit_voice"
	VoteVoice     = "vote_voice"
	GenerateVoice = "generate_voice"
	EndRound      = "end_round"
)

// Outbound event names.
const (
	LobbyUpdate             = "lobby_update"
	ModeSelected            = "mode_selected"
	NewImage                = "new_image"
	NewVoice                = "new_voice"
	RoundResults            = "round_results"
	GameWillEnd             = "game_will_end"
	GameOver                = "game_over"
	ReconnectTimeoutExpired = "reconnect_timeout_expired"
	AIVoiceReady            = "ai_voice_ready"
	Error                   = "error"
)

// Envelope is the wire format for inbound client messages.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type CreateLobbyData struct {
	LobbyID  string `json:"lobbyId"`
	Username string `json:"username"`
}

type JoinLobbyData struct {
	LobbyID  string `json:"lobbyId"`
	Username string `json:"username"`
}

type SelectModeData struct {
	LobbyID string `json:"lobbyId"`
	Mode    string `json:"mode"`
}

type SubmitPromptData struct {
	LobbyID string `json:"lobbyId"`
	Prompt  string `json:"prompt"`
	Image   string `json:"image"`
}

type SubmitGuessData struct {
	LobbyID string `json:"lobbyId"`
	Guess   string `json:"guess"`
	UserID  string `json:"userId"`
}

type SubmitVoiceData struct {
	LobbyID  string `json:"lobbyId"`
	AudioURL string `json:"audioURL"`
	UserID   string `json:"userId"`
}

type VoteVoiceData struct {
	LobbyID string `json:"lobbyId"`
	VotedID string `json:"votedId"`
}

type GenerateVoiceData struct {
	LobbyID   string `json:"lobbyId"`
	Text      string `json:"text"`
	VoiceType string `json:"voiceType"`
}

type EndRoundData struct {
	LobbyID string `json:"lobbyId"`
}

type ErrorData struct {
	Message string `json:"message"`
}

type AIVoiceData struct {
	Audio string `json:"audio"`
}

// Outbound is a broadcast queued by the game core for delivery through the
// hub. ConnID, when set, addresses a single connection instead of the lobby
// group.
type Outbound struct {
	LobbyID string
	ConnID  string
	Event   string
	Data    any
}

// Bus decouples the game core from the transport. Publishes never block:
// if the buffer is full the message is dropped.
type Bus struct {
	Outbound chan Outbound
}

func NewBus() *Bus {
	return &Bus{
		Outbound: make(chan Outbound, 64),
	}
}

// Broadcast queues an event for every member of a lobby.
func (b *Bus) Broadcast(lobbyID, event string, data any) {
	b.publish(Outbound{LobbyID: lobbyID, Event: event, Data: data})
}

// Send queues a directed event for a single connection.
func (b *Bus) Send(connID, event string, data any) {
	b.publish(Outbound{ConnID: connID, Event: event, Data: data})
}

func (b *Bus) publish(out Outbound) {
	select {
	case b.Outbound <- out:
	default:
		log.Printf("[Events] Outbound buffer full, dropping %s\n", out.Event)
	}
}
