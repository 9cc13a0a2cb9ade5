package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned when a user lookup answers 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoTenants is returned when the user belongs to no tenant.
	ErrNoTenants = errors.New("user is not a member of any tenant")
)

// noTenantsDetail is the 404 detail the backend sends for a user without tenants.
const noTenantsDetail = "no tenants not found"

// APIError is a non-success response the gateway does not map to a sentinel.
type APIError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend %s returned %d: %s", e.Endpoint, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend %s returned %d", e.Endpoint, e.StatusCode)
}
