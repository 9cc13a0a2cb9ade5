package oauth

import (
	"crypto/subtle"
	"errors"
	"time"

	"avaportal/internal/session"
	"avaportal/pkg/logging"
	pkgoauth "avaportal/pkg/oauth"
)

// DefaultStateExpiry is how long a started login waits for its callback.
const DefaultStateExpiry = 10 * time.Minute

var (
	// ErrUnknownState is returned for a state that was never issued or was
	// already consumed.
	ErrUnknownState = errors.New("unknown or already used state")
	// ErrStateExpired is returned for a state older than the expiry.
	ErrStateExpired = errors.New("state expired")
	// ErrStateMismatch is returned when a state is presented by a session
	// other than the one that started the login.
	ErrStateMismatch = errors.New("state belongs to another session")
)

// StateStore issues and checks pending authorizations. The pending record
// itself lives on the session, so it is persisted by the session store and
// survives restarts and replica hops.
type StateStore struct {
	expiry time.Duration
	now    func() time.Time
}

// NewStateStore creates a state store.
func NewStateStore(expiry time.Duration) *StateStore {
	if expiry <= 0 {
		expiry = DefaultStateExpiry
	}
	return &StateStore{expiry: expiry, now: time.Now}
}

// Put records a new pending authorization on sess and returns its state
// nonce. Any earlier pending login of the session is replaced.
func (ss *StateStore) Put(sess *session.Session, codeVerifier string) (string, error) {
	state, err := pkgoauth.GenerateState()
	if err != nil {
		return "", err
	}

	sess.PendingAuth = &PendingAuthorization{
		State:        state,
		SessionID:    sess.ID,
		CodeVerifier: codeVerifier,
		CreatedAt:    ss.now().UTC(),
	}

	logging.Debug("OAuth", "Stored pending authorization for session=%s", logging.TruncateSessionID(sess.ID))
	return state, nil
}

// Consume removes and returns the pending authorization of sess matching
// state. The pending record is gone after the first call whatever the
// outcome.
func (ss *StateStore) Consume(sess *session.Session, state string) (*PendingAuthorization, error) {
	p := sess.PendingAuth
	sess.PendingAuth = nil

	if p == nil || state == "" || subtle.ConstantTimeCompare([]byte(p.State), []byte(state)) != 1 {
		return nil, ErrUnknownState
	}
	if ss.now().Sub(p.CreatedAt) > ss.expiry {
		logging.Warn("OAuth", "Pending authorization expired for session=%s", logging.TruncateSessionID(p.SessionID))
		return nil, ErrStateExpired
	}
	if p.SessionID != sess.ID {
		logging.Warn("OAuth", "State presented by session=%s was issued to session=%s",
			logging.TruncateSessionID(sess.ID), logging.TruncateSessionID(p.SessionID))
		return nil, ErrStateMismatch
	}
	return p, nil
}
