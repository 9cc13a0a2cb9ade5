package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Store persists sessions by id.
type Store interface {
	// Get returns a copy of the session. Unknown or expired ids yield ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Save stores a copy of the session and refreshes its expiry.
	Save(ctx context.Context, s *Session) error
	// Delete removes the session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	// Close releases background resources.
	Close() error
}
