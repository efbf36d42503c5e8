package lobbies

import "errors"

var (
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrDuplicateLobby = errors.New("lobby already exists")
	ErrWrongState     = errors.New("operation not allowed in current state")
)
