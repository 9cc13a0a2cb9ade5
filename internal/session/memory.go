package session

import (
	"context"
	"sync"
	"time"

	"avaportal/pkg/logging"
)

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewMemoryStore creates a store whose sessions expire ttl after their last save.
// It starts a background goroutine for periodic cleanup of expired sessions.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	ms := &MemoryStore{
		sessions:        make(map[string]memoryEntry),
		ttl:             ttl,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go ms.cleanupLoop()

	return ms
}

// Get returns a copy of the stored session.
func (ms *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	ms.mu.RLock()
	entry, exists := ms.sessions[id]
	ms.mu.RUnlock()

	if !exists || time.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return entry.session.Clone(), nil
}

// Save stores a copy of s.
func (ms *MemoryStore) Save(_ context.Context, s *Session) error {
	s.UpdatedAt = timestamp()
	copied := s.Clone()

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[s.ID] = memoryEntry{session: copied, expiresAt: time.Now().Add(ms.ttl)}
	return nil
}

// Delete removes a session from the store.
func (ms *MemoryStore) Delete(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, id)
	logging.Debug("Session", "Deleted session=%s", logging.TruncateSessionID(id))
	return nil
}

// Count returns the number of stored sessions, expired ones included.
func (ms *MemoryStore) Count() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.sessions)
}

// Close stops the background cleanup goroutine.
func (ms *MemoryStore) Close() error {
	ms.stopOnce.Do(func() { close(ms.stopCleanup) })
	return nil
}

// cleanupLoop periodically removes expired sessions from the store.
func (ms *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.cleanup()
		case <-ms.stopCleanup:
			return
		}
	}
}

// cleanup removes all expired sessions from the store.
func (ms *MemoryStore) cleanup() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	count := 0
	for id, entry := range ms.sessions {
		if now.After(entry.expiresAt) {
			delete(ms.sessions, id)
			count++
		}
	}

	if count > 0 {
		logging.Debug("Session", "Cleaned up %d expired sessions", count)
	}
}
