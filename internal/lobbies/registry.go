package lobbies

import (
	"log"
	"sync"

	"github.com/arogoat/dubmaster-server/internal/events"
)

// Archiver records a finished game. Implemented by the db package; nil when
// the server runs without persistence.
type Archiver interface {
	RecordGame(lobbyID, mode string, rounds int, standings []FinalScore) error
}

// TimeoutNotice is the payload of a reconnect_timeout_expired broadcast.
type TimeoutNotice struct {
	Username string `json:"username"`
}

// Registry owns the lobby id → session mapping and the cross-lobby
// reconnect bookkeeping.
type Registry struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	reconnects *ReconnectTracker
	bus        *events.Bus
	cfg        Config
	archiver   Archiver
}

func NewRegistry(bus *events.Bus, cfg Config) *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		reconnects: NewReconnectTracker(),
		bus:        bus,
		cfg:        cfg,
	}
}

// SetArchiver wires an optional finished-game archive.
func (r *Registry) SetArchiver(a Archiver) {
	r.archiver = a
}

// Create starts a new lobby with the creator as its first member.
func (r *Registry) Create(lobbyID, username, connID string) (*Session, error) {
	r.mu.Lock()
	if _, exists := r.sessions[lobbyID]; exists {
		r.mu.Unlock()
		return nil, ErrDuplicateLobby
	}
	s := newSession(lobbyID, r.bus, r.cfg)
	s.addUser(&User{ConnID: connID, Username: username})
	r.sessions[lobbyID] = s
	r.mu.Unlock()

	log.Printf("[Registry] Lobby %s created by %s\n", lobbyID, username)
	r.bus.Broadcast(lobbyID, events.LobbyUpdate, s.Snapshot())
	return s, nil
}

// Join adds a user to an existing lobby. A join that matches an open grace
// window for the same username and lobby is a reconnection: the preserved
// user row returns to the roster with its score intact and a fresh
// connection id.
func (r *Registry) Join(lobbyID, username, connID string) (*Session, error) {
	s, ok := r.Get(lobbyID)
	if !ok {
		return nil, ErrLobbyNotFound
	}

	if u := r.reconnects.Resolve(username, lobbyID); u != nil {
		u.ConnID = connID
		s.addUser(u)
		log.Printf("[Registry] %s reconnected to lobby %s\n", username, lobbyID)
	} else {
		s.addUser(&User{ConnID: connID, Username: username})
		log.Printf("[Registry] %s joined lobby %s\n", username, lobbyID)
	}

	r.bus.Broadcast(lobbyID, events.LobbyUpdate, s.Snapshot())
	return s, nil
}

// Get returns the session for lobbyID, if any.
func (r *Registry) Get(lobbyID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[lobbyID]
	return s, ok
}

// Delete removes a lobby from the registry. Idempotent.
func (r *Registry) Delete(lobbyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, lobbyID)
}

// List returns a snapshot of all live sessions.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	return list
}

// Disconnect handles a dropped connection: the owning user leaves every
// roster immediately, a grace window opens for each departure, and emptied
// lobbies are torn down.
func (r *Registry) Disconnect(connID string) {
	for _, s := range r.List() {
		user, empty := s.removeByConnID(connID)
		if user == nil {
			continue
		}

		lobbyID := s.ID()
		r.reconnects.Track(lobbyID, user, r.cfg.ReconnectTimeout, func(username string) {
			r.bus.Broadcast(lobbyID, events.ReconnectTimeoutExpired, TimeoutNotice{Username: username})
			log.Printf("[Registry] Reconnect window expired for %s in lobby %s\n", username, lobbyID)
		})
		log.Printf("[Registry] %s disconnected from lobby %s, waiting %s for reconnection\n",
			user.Username, lobbyID, r.cfg.ReconnectTimeout)

		if empty {
			r.Delete(lobbyID)
			log.Printf("[Registry] Lobby %s deleted, no active users\n", lobbyID)
		} else {
			r.bus.Broadcast(lobbyID, events.LobbyUpdate, s.Snapshot())
		}
	}
}
