package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"avaportal/pkg/logging"

	"github.com/google/uuid"
)

// Manager binds sessions to a browser cookie.
type Manager struct {
	store      Store
	cookieName string
}

// NewManager creates a manager over store using the given cookie name.
func NewManager(store Store, cookieName string) *Manager {
	return &Manager{store: store, cookieName: cookieName}
}

// Load returns the session referenced by the request cookie. A missing,
// malformed or unknown cookie starts a new session and sets its cookie.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if id, ok := m.readCookie(r); ok {
		s, err := m.store.Get(r.Context(), id)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		logging.Debug("Session", "Unknown session=%s, starting a new one", logging.TruncateSessionID(id))
	}

	s := New(uuid.NewString())
	if err := m.store.Save(r.Context(), s); err != nil {
		return nil, err
	}
	m.writeCookie(w, r, s.ID)
	return s, nil
}

// Save persists s.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	return m.store.Save(ctx, s)
}

// Middleware loads the session, stores it in the request context and saves
// it right before the first byte of the response is written, so a redirect
// never races the write of the state it depends on.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Load(w, r)
		if err != nil {
			logging.Error("Session", err, "Failed to load session")
			http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
			return
		}

		sw := &savingWriter{ResponseWriter: w, save: func() {
			if err := m.store.Save(r.Context(), s); err != nil {
				logging.Error("Session", err, "Failed to save session=%s", logging.TruncateSessionID(s.ID))
			}
		}}
		next.ServeHTTP(sw, r.WithContext(WithSession(r.Context(), s)))
		sw.flushSave()
	})
}

func (m *Manager) readCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if _, err := uuid.Parse(value); err != nil {
		return "", false
	}
	return value, true
}

func (m *Manager) writeCookie(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// savingWriter runs save once, before the response header goes out.
type savingWriter struct {
	http.ResponseWriter
	save func()
	once sync.Once
}

func (w *savingWriter) flushSave() {
	w.once.Do(w.save)
}

func (w *savingWriter) WriteHeader(code int) {
	w.flushSave()
	w.ResponseWriter.WriteHeader(code)
}

func (w *savingWriter) Write(b []byte) (int, error) {
	w.flushSave()
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *savingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
