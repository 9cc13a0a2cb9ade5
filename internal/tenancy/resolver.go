package tenancy

import (
	"context"
	"errors"
	"fmt"

	"avaportal/internal/backend"
	"avaportal/internal/session"
	"avaportal/pkg/logging"
)

// SingleTenantNotice is shown once when the only tenant is picked for the user.
const SingleTenantNotice = "You are a member of only one tenant, so we selected it for you!"

// ErrUnknownTenant is returned when a selection names a tenant the user is
// not a member of.
var ErrUnknownTenant = errors.New("unknown tenant")

// MembershipError reports a user that belongs to no tenant.
type MembershipError struct {
	Email string
}

func (e *MembershipError) Error() string {
	return fmt.Sprintf("Sorry but %s is not a member of any tenant, please contact your admin to get you access!", e.Email)
}

// UserNotFoundError reports a backend user id that no longer resolves.
type UserNotFoundError struct {
	UserID string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("User %s not found", e.UserID)
}

func (e *UserNotFoundError) Unwrap() error {
	return backend.ErrUserNotFound
}

// Directory is the part of the backend gateway tenant resolution needs.
type Directory interface {
	GetUser(ctx context.Context, id string) (*backend.User, error)
	ListTenantsForUser(ctx context.Context, userID string) ([]backend.Tenant, error)
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Tenants        []backend.Tenant
	Selected       *backend.Tenant
	AutoSelected   bool
	NeedsSelection bool
}

// Resolver loads memberships and maintains the session's tenant selection.
type Resolver struct {
	directory Directory
}

// NewResolver creates a Resolver over directory.
func NewResolver(directory Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve loads the user (when the session has none cached) and their
// tenants, and updates the session's selection.
func (r *Resolver) Resolve(ctx context.Context, sess *session.Session, userID string) (*Resolution, error) {
	if sess.User == nil || sess.User.ID != userID {
		user, err := r.directory.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, backend.ErrUserNotFound) {
				return nil, &UserNotFoundError{UserID: userID}
			}
			return nil, fmt.Errorf("load user %s: %w", userID, err)
		}
		sess.User = user
	}

	tenants, err := r.directory.ListTenantsForUser(ctx, userID)
	if err != nil && !errors.Is(err, backend.ErrNoTenants) {
		return nil, fmt.Errorf("list tenants for user %s: %w", userID, err)
	}
	if len(tenants) == 0 {
		clearSelection(sess)
		sess.Tenants = nil
		return nil, &MembershipError{Email: sess.User.Email}
	}
	sess.Tenants = tenants

	res := &Resolution{Tenants: tenants}
	if len(tenants) == 1 {
		alreadySelected := sess.SelectedTenantID == tenants[0].ID
		setSelection(sess, tenants[0])
		res.Selected = sess.SelectedTenant
		if !alreadySelected {
			res.AutoSelected = true
			sess.AddNotice(session.NoticeInfo, SingleTenantNotice)
			logging.Info("Tenancy", "Auto-selected tenant %s for user %s", tenants[0].ID, userID)
		}
		return res, nil
	}

	if t, ok := find(tenants, sess.SelectedTenantID); ok {
		setSelection(sess, t)
		res.Selected = sess.SelectedTenant
		return res, nil
	}
	clearSelection(sess)
	res.NeedsSelection = true
	return res, nil
}

// Select records an explicit choice among tenants.
func Select(sess *session.Session, tenants []backend.Tenant, id string) error {
	t, ok := find(tenants, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTenant, id)
	}
	setSelection(sess, t)
	return nil
}

// Folder is the document scope for a session: the configured override when
// set, otherwise the selected tenant id.
func Folder(override string, sess *session.Session) string {
	if override != "" {
		return override
	}
	return sess.SelectedTenantID
}

func find(tenants []backend.Tenant, id string) (backend.Tenant, bool) {
	if id == "" {
		return backend.Tenant{}, false
	}
	for _, t := range tenants {
		if t.ID == id {
			return t, true
		}
	}
	return backend.Tenant{}, false
}

func setSelection(sess *session.Session, t backend.Tenant) {
	sess.SelectedTenant = &t
	sess.SelectedTenantID = t.ID
}

func clearSelection(sess *session.Session) {
	sess.SelectedTenant = nil
	sess.SelectedTenantID = ""
}
