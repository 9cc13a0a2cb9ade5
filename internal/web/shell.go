package web

import (
	"errors"
	"net/http"

	"avaportal/internal/backend"
	"avaportal/internal/oauth"
	"avaportal/internal/session"
	"avaportal/internal/tenancy"
	"avaportal/pkg/logging"
)

// Banner texts shown when a page cannot be rendered.
const (
	msgBackendDown  = "API service is afflicted, please try again later!"
	msgUnknownUser  = "We could not load your profile from the identity provider. Please log out and sign in again."
	msgUserNotFound = "User not found"
	msgBackendError = "The backend could not be reached, please try again later!"
)

// pageState is what a request knows after the shell sequence succeeded.
type pageState struct {
	sess *session.Session
	view *view
}

// prepare runs the shell sequence shared by every page. It writes the
// response and returns false when the sequence stops early.
func (s *Server) prepare(w http.ResponseWriter, r *http.Request, page string) (*pageState, bool) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	if !s.deps.Backend.Health(ctx) {
		s.renderHalt(w, http.StatusServiceUnavailable, page, &banner{Message: msgBackendDown})
		return nil, false
	}

	if s.deps.ConfigErr != nil {
		s.renderHalt(w, http.StatusServiceUnavailable, page, &banner{Message: "Configuration error: " + s.deps.ConfigErr.Error()})
		return nil, false
	}

	res := s.deps.Auth.Evaluate(ctx, sess, r.URL.Query())
	if s.follow(w, r, res) {
		return nil, false
	}

	if sess.Profile == nil || sess.Profile.ID == "" {
		s.renderHalt(w, http.StatusBadGateway, page, &banner{Message: msgUnknownUser, Logout: true})
		return nil, false
	}

	if sess.User == nil {
		user, err := s.deps.Backend.GetUserByExternalID(ctx, s.cfg.Auth.ProviderName, sess.Profile.ID)
		if err != nil {
			if errors.Is(err, backend.ErrUserNotFound) {
				s.renderHalt(w, http.StatusNotFound, page, &banner{Message: msgUserNotFound, Logout: true})
				return nil, false
			}
			logging.Error("Web", err, "Backend user lookup failed")
			s.renderHalt(w, http.StatusBadGateway, page, &banner{Message: msgBackendError})
			return nil, false
		}
		sess.User = user
	}

	resolution, err := s.tenants.Resolve(ctx, sess, sess.User.ID)
	if err != nil {
		var membership *tenancy.MembershipError
		var notFound *tenancy.UserNotFoundError
		switch {
		case errors.As(err, &membership):
			s.renderHalt(w, http.StatusForbidden, page, &banner{Message: membership.Error(), Logout: true})
		case errors.As(err, &notFound):
			s.renderHalt(w, http.StatusNotFound, page, &banner{Message: notFound.Error(), Logout: true})
		default:
			logging.Error("Web", err, "Tenant resolution failed")
			s.renderHalt(w, http.StatusBadGateway, page, &banner{Message: msgBackendError})
		}
		return nil, false
	}

	v := &view{
		Page:             page,
		User:             newUserView(sess),
		Tenants:          resolution.Tenants,
		SelectedTenantID: sess.SelectedTenantID,
		NeedsTenant:      resolution.NeedsSelection,
	}
	return &pageState{sess: sess, view: v}, true
}

// follow applies a redirect or refresh from the state machine, or renders
// a failed login. It returns true when the response was written.
func (s *Server) follow(w http.ResponseWriter, r *http.Request, res oauth.Result) bool {
	switch res.Action {
	case oauth.ActionRedirect:
		http.Redirect(w, r, res.Location, http.StatusFound)
		return true
	case oauth.ActionRefresh:
		http.Redirect(w, r, res.Location, http.StatusSeeOther)
		return true
	}
	if res.Err != nil {
		s.renderHalt(w, http.StatusUnauthorized, "", &banner{Message: "Sign-in failed: " + res.Err.Error(), SignIn: true})
		return true
	}
	return false
}
