package oauth

import (
	"sync"

	"avaportal/pkg/logging"
)

// Registry is the process-wide map from user id to provider handle. A user
// signed in from two browsers keeps only the latest handle.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// Put stores h under h.UserID, replacing any previous handle.
func (r *Registry) Put(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h.UserID] = h
	logging.Debug("OAuth", "Registered provider handle for user=%s session=%s",
		h.UserID, logging.TruncateSessionID(h.SessionID))
}

// Get returns the handle for userID, or nil.
func (r *Registry) Get(userID string) *Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handles[userID]
}

// Release removes the handle for userID when it was created by sessionID.
// A handle owned by a newer login of the same user is left alone.
func (r *Registry) Release(userID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[userID]
	if !ok || h.SessionID != sessionID {
		return false
	}
	delete(r.handles, userID)
	logging.Debug("OAuth", "Released provider handle for user=%s", userID)
	return true
}

// Count returns the number of registered handles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
