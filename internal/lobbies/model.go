package lobbies

import (
	"sync"
	"time"

	"github.com/arogoat/dubmaster-server/internal/events"
)

type State string

const (
	StateWaiting  = State("waiting")
	StateGuessing = State("guessing")
	StateScoring  = State("scoring")
)

type Config struct {
	MaxRounds        int
	ReconnectTimeout time.Duration
	GameOverDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRounds:        5,
		ReconnectTimeout: 30 * time.Second,
		GameOverDelay:    3 * time.Second,
	}
}

// User is one lobby member. Username is the stable identity that survives
// reconnects; ConnID is reassigned whenever the player reconnects.
type User struct {
	ConnID   string `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type VoiceSubmission struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	AudioURL string `json:"audioURL"`
}

// Session is the state machine for one game instance. All fields are guarded
// by mu; methods snapshot what they need before queueing broadcasts.
type Session struct {
	mu sync.Mutex

	id            string
	users         []*User
	gameMode      string
	currentImage  string
	currentPrompt string
	guesses       map[string]string
	voiceSubs     []VoiceSubmission
	voiceVotes    map[string]int
	round         int
	state         State

	bus *events.Bus
	cfg Config
}

func newSession(id string, bus *events.Bus, cfg Config) *Session {
	return &Session{
		id:         id,
		users:      make([]*User, 0, 4),
		guesses:    make(map[string]string),
		voiceSubs:  make([]VoiceSubmission, 0),
		voiceVotes: make(map[string]int),
		round:      1,
		state:      StateWaiting,
		bus:        bus,
		cfg:        cfg,
	}
}

// Snapshot is the full-state view broadcast on membership and mode changes.
// Guesses and the current prompt stay server-side until scoring.
type Snapshot struct {
	LobbyID      string `json:"lobbyId"`
	Users        []User `json:"users"`
	GameMode     string `json:"gameMode"`
	CurrentImage string `json:"currentImage"`
	Round        int    `json:"round"`
	State        State  `json:"state"`
}

type RoundResult struct {
	Username string `json:"username"`
	Guess    string `json:"guess"`
	Correct  bool   `json:"correct"`
	Score    int    `json:"score"`
}

type FinalScore struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}
