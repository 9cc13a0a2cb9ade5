package session

import (
	"context"
	"encoding/json"
	"time"

	"avaportal/internal/backend"
	"avaportal/pkg/oauth"
)

// Auth states tracked on the session.
const (
	StateUnauthenticated  = "unauthenticated"
	StateAwaitingCallback = "awaiting_callback"
	StateAuthenticated    = "authenticated"
)

// UI-transient keys kept in Session.Values.
const (
	KeyNewFile       = "new_file"
	KeyEditMode      = "edit_mode"
	KeyDeleteConfirm = "delete_confirm"
	KeySelectedFile  = "selected_file"
)

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeInfo    = "info"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is a one-shot banner shown on the next rendered page.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Message is one entry of the chat history.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// PendingAuthorization is a login that was started but whose callback has
// not arrived yet.
type PendingAuthorization struct {
	State        string    `json:"state"`
	SessionID    string    `json:"session_id"`
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is the per-browser state of the portal. It is created empty on the
// first request, gains an access token after a successful login callback and
// loses its auth and tenant data on logout.
type Session struct {
	ID string `json:"id"`

	AccessToken         string             `json:"access_token,omitempty"`
	ProviderHandle      string             `json:"provider_handle,omitempty"`
	AuthState           string             `json:"auth_state,omitempty"`
	AuthenticatedUserID string             `json:"authenticated_user_id,omitempty"`
	Profile             *oauth.UserProfile `json:"profile,omitempty"`

	PendingAuth *PendingAuthorization `json:"pending_auth,omitempty"`

	User             *backend.User    `json:"user,omitempty"`
	Tenants          []backend.Tenant `json:"tenants,omitempty"`
	SelectedTenant   *backend.Tenant  `json:"selected_tenant,omitempty"`
	SelectedTenantID string           `json:"selected_tenant_id,omitempty"`

	Values   map[string]string `json:"values,omitempty"`
	Notices  []Notice          `json:"notices,omitempty"`
	Messages []Message         `json:"messages,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty unauthenticated session.
func New(id string) *Session {
	now := timestamp()
	return &Session{
		ID:        id,
		AuthState: StateUnauthenticated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Authenticated reports whether an access token is stored.
func (s *Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Reset drops everything except the id and creation time, so the next
// request behaves exactly like a fresh visit.
func (s *Session) Reset() {
	*s = Session{
		ID:        s.ID,
		AuthState: StateUnauthenticated,
		CreatedAt: s.CreatedAt,
		UpdatedAt: timestamp(),
	}
}

// Value returns a UI value, "" when absent.
func (s *Session) Value(key string) string {
	return s.Values[key]
}

// SetValue stores a UI value. An empty value removes the key.
func (s *Session) SetValue(key, value string) {
	if value == "" {
		delete(s.Values, key)
		return
	}
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[key] = value
}

// Flag reads a boolean UI value; absent keys are false.
func (s *Session) Flag(key string) bool {
	return s.Values[key] == "true"
}

// SetFlag stores a boolean UI value.
func (s *Session) SetFlag(key string, on bool) {
	if on {
		s.SetValue(key, "true")
		return
	}
	s.SetValue(key, "")
}

// AddNotice queues a banner for the next rendered page.
func (s *Session) AddNotice(kind, message string) {
	s.Notices = append(s.Notices, Notice{Kind: kind, Message: message})
}

// TakeNotices returns and clears the queued banners.
func (s *Session) TakeNotices() []Notice {
	n := s.Notices
	s.Notices = nil
	return n
}

// Clone returns a deep copy, so stores never share memory with callers.
func (s *Session) Clone() *Session {
	data, err := json.Marshal(s)
	if err != nil {
		panic(err) // only plain data types; cannot fail
	}
	var c Session
	if err := json.Unmarshal(data, &c); err != nil {
		panic(err)
	}
	return &c
}

// timestamp is the current time in UTC, which survives a JSON round trip unchanged.
func timestamp() time.Time {
	return time.Now().UTC()
}

type contextKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
