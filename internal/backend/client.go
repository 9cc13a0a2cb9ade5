package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"avaportal/internal/telemetry"
	"avaportal/pkg/logging"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// Client is the REST gateway to the backend API. Service calls authenticate
// with the x-api-key header; user-scoped calls forward the user's bearer token.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its timeout is kept as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a gateway for the API at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health reports whether GET /api/health answered 200. Any other outcome,
// including transport errors, is unhealthy.
func (c *Client) Health(ctx context.Context) bool {
	resp, err := c.do(ctx, "health", http.MethodGet, "/api/health", nil, "")
	if err != nil {
		logging.Warn("Backend", "Health check failed: %v", err)
		return false
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		logging.Warn("Backend", "Health check returned %d", resp.StatusCode)
		return false
	}
	return true
}

// GetUserByExternalID looks a user up by identity provider name and the
// provider's user id.
func (c *Client) GetUserByExternalID(ctx context.Context, provider, externalID string) (*User, error) {
	path := "/api/users/external/" + url.PathEscape(provider) + "/" + url.PathEscape(externalID)
	var user User
	if err := c.getJSON(ctx, "users_external", path, &user); err != nil {
		return nil, mapUserError(err)
	}
	return &user, nil
}

// GetUser fetches a user by backend id.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "users", "/api/users/"+url.PathEscape(id), &user); err != nil {
		return nil, mapUserError(err)
	}
	return &user, nil
}

// ListTenantsForUser lists the tenants the user is a member of. A user with no
// tenants yields ErrNoTenants.
func (c *Client) ListTenantsForUser(ctx context.Context, userID string) ([]Tenant, error) {
	var tenants []Tenant
	err := c.getJSON(ctx, "tenants", "/api/tenants/"+url.PathEscape(userID)+"/tenants", &tenants)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusNotFound && apiErr.Detail == noTenantsDetail {
			return nil, ErrNoTenants
		}
		return nil, err
	}
	return tenants, nil
}

// ReembedTenantDocuments asks the backend to rebuild the tenant's document
// embeddings. It is called on behalf of the signed-in user.
func (c *Client) ReembedTenantDocuments(ctx context.Context, bearerToken, tenantID string) error {
	form := url.Values{"tenant_id": {tenantID}}
	resp, err := c.do(ctx, "reembed", http.MethodPost, "/api/ava/re-embed-tenant-documents",
		strings.NewReader(form.Encode()), bearerToken)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError("reembed", resp)
	}
	logging.Info("Backend", "Requested re-embedding for tenant %s", tenantID)
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, out interface{}) error {
	resp, err := c.do(ctx, endpoint, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return newAPIError(endpoint, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// do sends a request. A non-empty bearerToken switches from the API key to
// user authentication and marks the body as form-encoded.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body io.Reader, bearerToken string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.BackendRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("backend %s request failed: %w", endpoint, err)
	}
	telemetry.BackendRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	logging.Debug("Backend", "%s %s -> %d", method, path, resp.StatusCode)
	return resp, nil
}

func newAPIError(endpoint string, resp *http.Response) *APIError {
	apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil && len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			apiErr.Detail = s
		} else {
			apiErr.Detail = string(payload.Detail)
		}
		return apiErr
	}
	apiErr.Detail = strings.TrimSpace(string(data))
	return apiErr
}

func mapUserError(err error) error {
	if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusNotFound {
		return ErrUserNotFound
	}
	return err
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}
