package oauth

import (
	"context"
	"net/url"
	"time"

	"avaportal/internal/session"
	"avaportal/internal/telemetry"
	"avaportal/pkg/logging"
	pkgoauth "avaportal/pkg/oauth"
)

// Provider is the identity provider as seen by the state machine.
type Provider interface {
	LoginURL(ctx context.Context, state, verifier string) (string, error)
	RegisterURL(ctx context.Context, state, verifier string) (string, error)
	CallbackURL(query url.Values) string
	Exchange(ctx context.Context, authorizationResponse, verifier string) (*pkgoauth.Token, error)
	FetchUserProfile(ctx context.Context, accessToken string) *pkgoauth.UserProfile
	LogoutURL(ctx context.Context, redirectTo string) string
}

// MachineConfig holds the state machine settings.
type MachineConfig struct {
	// StaticVerifier pins the PKCE verifier. Empty means a fresh verifier
	// for every login.
	StaticVerifier string
	// HomePath is where a refresh lands, "/" when empty.
	HomePath string
	// PostLogoutURL is passed to the provider logout endpoint.
	PostLogoutURL string
	// StateExpiry bounds how long a login waits for its callback.
	StateExpiry time.Duration
}

// Machine drives a session through login, callback and logout.
type Machine struct {
	provider Provider
	cfg      MachineConfig
	states   *StateStore
	handles  *Registry
}

// NewMachine creates a state machine over provider. Machines sharing a
// session store are interchangeable: all login state travels with the
// session.
func NewMachine(provider Provider, cfg MachineConfig) *Machine {
	if cfg.HomePath == "" {
		cfg.HomePath = "/"
	}
	return &Machine{
		provider: provider,
		cfg:      cfg,
		states:   NewStateStore(cfg.StateExpiry),
		handles:  NewRegistry(),
	}
}

// Handles returns the provider handle registry.
func (m *Machine) Handles() *Registry {
	return m.handles
}

// Evaluate runs one step for the current request. query is the request's
// URL query; a code or error parameter in it marks a provider callback.
func (m *Machine) Evaluate(ctx context.Context, sess *session.Session, query url.Values) Result {
	if sess.Authenticated() {
		sess.AuthState = session.StateAuthenticated
		return Result{State: session.StateAuthenticated, Action: ActionNone}
	}
	if query.Get("code") != "" || query.Get("error") != "" {
		return m.complete(ctx, sess, query)
	}
	return m.begin(ctx, sess, m.provider.LoginURL)
}

// Restart discards a failed login and starts a new one.
func (m *Machine) Restart(ctx context.Context, sess *session.Session) Result {
	if sess.Authenticated() {
		return Result{State: session.StateAuthenticated, Action: ActionRefresh, Location: m.cfg.HomePath}
	}
	return m.begin(ctx, sess, m.provider.LoginURL)
}

// Register starts a login that opens on the provider's sign-up form. The
// callback completes it like any other login.
func (m *Machine) Register(ctx context.Context, sess *session.Session) Result {
	if sess.Authenticated() {
		return Result{State: session.StateAuthenticated, Action: ActionRefresh, Location: m.cfg.HomePath}
	}
	return m.begin(ctx, sess, m.provider.RegisterURL)
}

// Logout signs the session out. An authenticated session is sent to the
// provider logout page; any other session is just refreshed.
func (m *Machine) Logout(ctx context.Context, sess *session.Session) Result {
	if !sess.Authenticated() {
		sess.Reset()
		return Result{State: session.StateUnauthenticated, Action: ActionRefresh, Location: m.cfg.HomePath}
	}

	location := m.provider.LogoutURL(ctx, m.cfg.PostLogoutURL)
	if sess.ProviderHandle != "" {
		m.handles.Release(sess.ProviderHandle, sess.ID)
	}
	logging.Info("OAuth", "Logged out session=%s", logging.TruncateSessionID(sess.ID))
	sess.Reset()
	m.transition("logout")
	return Result{State: session.StateUnauthenticated, Action: ActionRedirect, Location: location}
}

func (m *Machine) begin(ctx context.Context, sess *session.Session, authURL func(ctx context.Context, state, verifier string) (string, error)) Result {
	pkce, err := m.newPKCE()
	if err != nil {
		return m.fail(sess, "login_error", err)
	}
	state, err := m.states.Put(sess, pkce.CodeVerifier)
	if err != nil {
		return m.fail(sess, "login_error", err)
	}
	location, err := authURL(ctx, state, pkce.CodeVerifier)
	if err != nil {
		return m.fail(sess, "login_error", err)
	}

	sess.AuthState = session.StateAwaitingCallback
	m.transition("login_redirect")
	logging.Debug("OAuth", "Redirecting session=%s to provider login", logging.TruncateSessionID(sess.ID))
	return Result{State: session.StateAwaitingCallback, Action: ActionRedirect, Location: location}
}

func (m *Machine) complete(ctx context.Context, sess *session.Session, query url.Values) Result {
	pending, err := m.states.Consume(sess, query.Get("state"))
	if err != nil {
		if providerErr := query.Get("error"); providerErr != "" {
			return m.fail(sess, "callback_error", &TokenExchangeError{Code: providerErr, Description: query.Get("error_description")})
		}
		return m.fail(sess, "callback_error", &TokenExchangeError{Code: "invalid_state", Description: err.Error(), Err: err})
	}

	token, err := m.provider.Exchange(ctx, m.provider.CallbackURL(query), pending.CodeVerifier)
	if err != nil {
		return m.fail(sess, "callback_error", err)
	}

	sess.AccessToken = token.AccessToken
	sess.AuthState = session.StateAuthenticated

	userID := "session:" + sess.ID
	if profile := m.provider.FetchUserProfile(ctx, token.AccessToken); profile != nil {
		sess.Profile = profile
		if profile.ID != "" {
			userID = profile.ID
			sess.AuthenticatedUserID = profile.ID
		}
	}
	m.handles.Put(&Handle{UserID: userID, SessionID: sess.ID, Token: token, CreatedAt: time.Now()})
	sess.ProviderHandle = userID

	m.transition("callback_success")
	logging.Info("OAuth", "Session=%s signed in as user=%s", logging.TruncateSessionID(sess.ID), userID)
	return Result{State: session.StateAuthenticated, Action: ActionRefresh, Location: m.cfg.HomePath}
}

func (m *Machine) fail(sess *session.Session, transition string, err error) Result {
	sess.AuthState = session.StateUnauthenticated
	m.transition(transition)
	logging.Warn("OAuth", "Login step failed for session=%s: %v", logging.TruncateSessionID(sess.ID), err)
	return Result{State: session.StateUnauthenticated, Action: ActionNone, Err: err}
}

func (m *Machine) newPKCE() (*pkgoauth.PKCEChallenge, error) {
	if m.cfg.StaticVerifier != "" {
		return pkgoauth.NewPKCEFromVerifier(m.cfg.StaticVerifier)
	}
	return pkgoauth.GeneratePKCE()
}

func (m *Machine) transition(name string) {
	telemetry.AuthTransitions.WithLabelValues(name).Inc()
}
