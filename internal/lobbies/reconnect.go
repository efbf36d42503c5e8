package lobbies

import (
	"sync"
	"time"
)

// disconnected holds a recently departed user awaiting a possible rejoin.
// The user row (with its score) is kept here after removal from the roster
// so a rejoin within the grace window restores it intact.
type disconnected struct {
	lobbyID string
	user    *User
	timer   *time.Timer
}

// ReconnectTracker keeps at most one live grace-period record per username.
type ReconnectTracker struct {
	mu      sync.Mutex
	records map[string]*disconnected
}

func NewReconnectTracker() *ReconnectTracker {
	return &ReconnectTracker{
		records: make(map[string]*disconnected),
	}
}

// Track starts the grace window for a departed user. A prior record for the
// same username is cancelled first, so the at-most-one invariant holds.
// onExpire runs once if the window elapses without a matching Resolve.
func (t *ReconnectTracker) Track(lobbyID string, user *User, grace time.Duration, onExpire func(username string)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.records[user.Username]; ok {
		prev.timer.Stop()
	}

	rec := &disconnected{lobbyID: lobbyID, user: user}
	rec.timer = time.AfterFunc(grace, func() {
		t.mu.Lock()
		current, ok := t.records[user.Username]
		if !ok || current != rec {
			// Resolved or superseded between fire and lock acquisition.
			t.mu.Unlock()
			return
		}
		delete(t.records, user.Username)
		t.mu.Unlock()
		onExpire(user.Username)
	})
	t.records[user.Username] = rec
}

// Resolve consumes the record for username if it is bound to lobbyID,
// cancelling its timer. Returns the preserved user row, or nil when no
// matching record exists (in which case the join is a fresh one).
func (t *ReconnectTracker) Resolve(username, lobbyID string) *User {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[username]
	if !ok || rec.lobbyID != lobbyID {
		return nil
	}
	rec.timer.Stop()
	delete(t.records, username)
	return rec.user
}

// Pending reports whether a grace window is currently open for username.
func (t *ReconnectTracker) Pending(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.records[username]
	return ok
}
