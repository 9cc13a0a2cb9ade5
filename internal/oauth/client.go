package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"avaportal/internal/config"
	"avaportal/pkg/logging"
	pkgoauth "avaportal/pkg/oauth"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// metadataCacheTTL is how long discovered provider metadata is reused.
const metadataCacheTTL = 30 * time.Minute

// Fixed endpoint layout of the hosted provider, relative to the issuer.
const (
	authorizePath   = "/oauth2/auth"
	tokenPath       = "/oauth2/token"
	userProfilePath = "/oauth2/user_profile"
	logoutPath      = "/logout"
)

// ErrPKCEUnsupported is returned by discovery when the issuer lists code
// challenge methods without S256.
var ErrPKCEUnsupported = errors.New("provider does not support S256 PKCE")

type metadataCacheEntry struct {
	metadata  *pkgoauth.Metadata
	fetchedAt time.Time
}

// Client talks to the identity provider.
type Client struct {
	cfg        config.AuthConfig
	httpClient *http.Client

	metadataMu    sync.RWMutex
	metadataCache *metadataCacheEntry
	metadataGroup singleflight.Group
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a provider client. Provider calls are bounded only by
// the caller's context.
func NewClient(cfg config.AuthConfig, opts ...ClientOption) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoginURL returns the hosted login URL for a new authorization.
func (c *Client) LoginURL(ctx context.Context, state, verifier string) (string, error) {
	return c.authCodeURL(ctx, state, verifier)
}

// RegisterURL returns the hosted sign-up URL. It is a login URL that asks
// the provider to open its account creation form first.
func (c *Client) RegisterURL(ctx context.Context, state, verifier string) (string, error) {
	return c.authCodeURL(ctx, state, verifier, oauth2.SetAuthURLParam("prompt", "create"))
}

func (c *Client) authCodeURL(ctx context.Context, state, verifier string, extra ...oauth2.AuthCodeOption) (string, error) {
	meta, err := c.Metadata(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve provider endpoints: %w", err)
	}

	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}
	if c.cfg.Audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", c.cfg.Audience))
	}
	opts = append(opts, extra...)
	return c.oauth2Config(meta).AuthCodeURL(state, opts...), nil
}

// CallbackURL rebuilds the authorization response from the query received
// on the callback path.
func (c *Client) CallbackURL(query url.Values) string {
	u, err := url.Parse(c.cfg.CallbackURL)
	if err != nil {
		return c.cfg.CallbackURL
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// Exchange validates the authorization response against the configured
// callback URL and trades its code for a token.
func (c *Client) Exchange(ctx context.Context, authorizationResponse, verifier string) (*pkgoauth.Token, error) {
	resp, err := url.Parse(authorizationResponse)
	if err != nil {
		return nil, &TokenExchangeError{Code: "invalid_request", Description: "malformed authorization response", Err: err}
	}
	if !c.matchesCallback(resp) {
		return nil, &TokenExchangeError{Code: "invalid_request", Description: "authorization response does not match the callback URL"}
	}

	query := resp.Query()
	if code := query.Get("error"); code != "" {
		return nil, &TokenExchangeError{Code: code, Description: query.Get("error_description")}
	}
	code := query.Get("code")
	if code == "" {
		return nil, &TokenExchangeError{Code: "invalid_request", Description: "authorization response has no code"}
	}

	meta, err := c.Metadata(ctx)
	if err != nil {
		return nil, &TokenExchangeError{Description: "failed to resolve provider endpoints", Err: err}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth2Config(meta).Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		exchangeErr := &TokenExchangeError{Err: err}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			exchangeErr.Code = retrieveErr.ErrorCode
			exchangeErr.Description = retrieveErr.ErrorDescription
			if exchangeErr.Code == "" && retrieveErr.Response != nil {
				exchangeErr.Code = fmt.Sprintf("http_%d", retrieveErr.Response.StatusCode)
			}
		}
		logging.Warn("OAuth", "Token exchange failed: %v", err)
		return nil, exchangeErr
	}

	token := pkgoauth.FromOAuth2Token(tok, c.cfg.IssuerURL)
	logging.Debug("OAuth", "Exchanged authorization code (expires_at=%v)", token.ExpiresAt)
	return token, nil
}

// FetchUserProfile returns the signed-in user's profile, or nil when the
// call fails for any reason.
func (c *Client) FetchUserProfile(ctx context.Context, accessToken string) *pkgoauth.UserProfile {
	meta, err := c.Metadata(ctx)
	if err != nil {
		logging.Warn("OAuth", "Profile fetch skipped, no provider endpoints: %v", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.UserinfoEndpoint, nil)
	if err != nil {
		logging.Warn("OAuth", "Failed to build profile request: %v", err)
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Warn("OAuth", "Profile request failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logging.Warn("OAuth", "Profile request returned %d", resp.StatusCode)
		return nil
	}

	var profile pkgoauth.UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		logging.Warn("OAuth", "Failed to decode profile: %v", err)
		return nil
	}
	return &profile
}

// LogoutURL returns the provider logout URL that sends the browser on to
// redirectTo afterwards.
func (c *Client) LogoutURL(ctx context.Context, redirectTo string) string {
	endpoint := c.issuer() + logoutPath
	if meta, err := c.Metadata(ctx); err == nil && meta.EndSessionEndpoint != "" {
		endpoint = meta.EndSessionEndpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	if redirectTo != "" {
		q := u.Query()
		q.Set(c.redirectKey(), redirectTo)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Metadata returns the provider endpoints. Without discovery they follow the
// fixed layout under the issuer; with discovery they are fetched once and
// cached, with concurrent fetches sharing one request.
func (c *Client) Metadata(ctx context.Context) (*pkgoauth.Metadata, error) {
	if !c.cfg.Discovery {
		return c.staticMetadata(), nil
	}

	c.metadataMu.RLock()
	if entry := c.metadataCache; entry != nil && time.Since(entry.fetchedAt) < metadataCacheTTL {
		c.metadataMu.RUnlock()
		return entry.metadata, nil
	}
	c.metadataMu.RUnlock()

	result, err, _ := c.metadataGroup.Do(c.cfg.IssuerURL, func() (interface{}, error) {
		c.metadataMu.RLock()
		if entry := c.metadataCache; entry != nil && time.Since(entry.fetchedAt) < metadataCacheTTL {
			c.metadataMu.RUnlock()
			return entry.metadata, nil
		}
		c.metadataMu.RUnlock()

		return c.discover(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*pkgoauth.Metadata), nil
}

func (c *Client) discover(ctx context.Context) (*pkgoauth.Metadata, error) {
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, c.httpClient), c.cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover provider endpoints: %w", err)
	}

	var meta pkgoauth.Metadata
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("failed to read discovery document: %w", err)
	}
	endpoint := provider.Endpoint()
	meta.AuthorizationEndpoint = endpoint.AuthURL
	meta.TokenEndpoint = endpoint.TokenURL
	if meta.UserinfoEndpoint == "" {
		meta.UserinfoEndpoint = provider.UserInfoEndpoint()
	}
	if !meta.SupportsPKCE() {
		return nil, fmt.Errorf("%w: issuer %s advertises %v", ErrPKCEUnsupported, c.cfg.IssuerURL, meta.CodeChallengeMethodsSupported)
	}

	c.metadataMu.Lock()
	c.metadataCache = &metadataCacheEntry{metadata: &meta, fetchedAt: time.Now()}
	c.metadataMu.Unlock()

	logging.Debug("OAuth", "Discovered provider endpoints for issuer=%s (auth=%s, token=%s)",
		c.cfg.IssuerURL, meta.AuthorizationEndpoint, meta.TokenEndpoint)
	return &meta, nil
}

func (c *Client) staticMetadata() *pkgoauth.Metadata {
	issuer := c.issuer()
	return &pkgoauth.Metadata{
		Issuer:                        issuer,
		AuthorizationEndpoint:         issuer + authorizePath,
		TokenEndpoint:                 issuer + tokenPath,
		UserinfoEndpoint:              issuer + userProfilePath,
		EndSessionEndpoint:            issuer + logoutPath,
		CodeChallengeMethodsSupported: []string{pkgoauth.ChallengeMethodS256},
	}
}

func (c *Client) oauth2Config(meta *pkgoauth.Metadata) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RedirectURL:  c.cfg.CallbackURL,
		Scopes:       c.cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   meta.AuthorizationEndpoint,
			TokenURL:  meta.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (c *Client) matchesCallback(resp *url.URL) bool {
	cb, err := url.Parse(c.cfg.CallbackURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(resp.Scheme, cb.Scheme) &&
		strings.EqualFold(resp.Host, cb.Host) &&
		normalizePath(resp.Path) == normalizePath(cb.Path)
}

func (c *Client) issuer() string {
	return strings.TrimSuffix(c.cfg.IssuerURL, "/")
}

func (c *Client) redirectKey() string {
	if c.cfg.LogoutRedirectKey != "" {
		return c.cfg.LogoutRedirectKey
	}
	return config.DefaultLogoutRedirectKey
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
