package oauth

import (
	"fmt"
	"time"

	"avaportal/internal/session"
	pkgoauth "avaportal/pkg/oauth"
)

// Action tells the caller what to do with the response after Evaluate.
type Action int

const (
	// ActionNone means render the page normally.
	ActionNone Action = iota
	// ActionRedirect means send the browser to Location (provider login or
	// logout) and render nothing else.
	ActionRedirect
	// ActionRefresh means reload the app at Location, dropping one-time
	// query parameters.
	ActionRefresh
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionRedirect:
		return "redirect"
	case ActionRefresh:
		return "refresh"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Result is the outcome of one state machine step. State is one of the
// session.State* values.
type Result struct {
	State    string
	Action   Action
	Location string
	Err      error
}

// PendingAuthorization is a login that was started but whose callback has
// not arrived yet. It travels with the session.
type PendingAuthorization = session.PendingAuthorization

// Handle is the record of a user's exchanged provider token.
type Handle struct {
	UserID    string
	SessionID string
	Token     *pkgoauth.Token
	CreatedAt time.Time
}

// TokenExchangeError reports a failed callback: a provider error in the
// authorization response, an unknown or expired state, or a rejected
// token request.
type TokenExchangeError struct {
	Code        string
	Description string
	Err         error
}

func (e *TokenExchangeError) Error() string {
	msg := "token exchange failed"
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Code == "" && e.Description == "" && e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}
