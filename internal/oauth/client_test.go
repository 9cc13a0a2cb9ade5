package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"avaportal/internal/config"
	pkgoauth "avaportal/pkg/oauth"

	"github.com/oauth2-proxy/mockoidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCallback = "http://portal.test/"
	testVerifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
)

// fakeProvider serves the fixed provider endpoint layout.
type fakeProvider struct {
	server        *httptest.Server
	tokenRequests int32
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	fp := &fakeProvider{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fp.tokenRequests, 1)
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")

		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
			return
		}
		if r.PostForm.Get("code_verifier") != testVerifier ||
			r.PostForm.Get("client_id") != "client-id" ||
			r.PostForm.Get("client_secret") != "client-secret" ||
			r.PostForm.Get("redirect_uri") != testCallback ||
			r.PostForm.Get("grant_type") != "authorization_code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600,"scope":"openid email"}`))
	})
	mux.HandleFunc("GET /oauth2/user_profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":              "kp_1",
			"preferred_email": "ada@example.com",
			"first_name":      "Ada",
			"last_name":       "Lovelace",
		})
	})

	fp.server = httptest.NewServer(mux)
	t.Cleanup(fp.server.Close)
	return fp
}

func (fp *fakeProvider) authConfig() config.AuthConfig {
	return config.AuthConfig{
		IssuerURL:         fp.server.URL,
		CallbackURL:       testCallback,
		ClientID:          "client-id",
		ClientSecret:      "client-secret",
		Audience:          "api.example.com",
		Scopes:            config.DefaultScopes,
		LogoutRedirectKey: config.DefaultLogoutRedirectKey,
	}
}

func TestClient_LoginURL(t *testing.T) {
	fp := newFakeProvider(t)
	c := NewClient(fp.authConfig())

	raw, err := c.LoginURL(context.Background(), "state-1", testVerifier)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, fp.server.URL+"/oauth2/auth", u.Scheme+"://"+u.Host+u.Path)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, testCallback, q.Get("redirect_uri"))
	assert.Equal(t, "openid profile email offline", q.Get("scope"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, pkgoauth.ChallengeFromVerifier(testVerifier), q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "api.example.com", q.Get("audience"))
	assert.Empty(t, q.Get("prompt"))
	assert.Zero(t, atomic.LoadInt32(&fp.tokenRequests), "building the URL has no side effects")
}

func TestClient_RegisterURL(t *testing.T) {
	fp := newFakeProvider(t)
	c := NewClient(fp.authConfig())

	raw, err := c.RegisterURL(context.Background(), "state-2", testVerifier)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "create", q.Get("prompt"))
	assert.Equal(t, "state-2", q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "api.example.com", q.Get("audience"))
}

func TestClient_CallbackURL(t *testing.T) {
	c := NewClient(config.AuthConfig{CallbackURL: "http://portal.test/callback"})
	got := c.CallbackURL(url.Values{"code": {"abc"}, "state": {"xyz"}})
	assert.Equal(t, "http://portal.test/callback?code=abc&state=xyz", got)
}

func TestClient_Exchange(t *testing.T) {
	fp := newFakeProvider(t)
	c := NewClient(fp.authConfig())

	token, err := c.Exchange(context.Background(), testCallback+"?code=good-code&state=s", testVerifier)
	require.NoError(t, err)
	assert.Equal(t, "at-1", token.AccessToken)
	assert.Equal(t, "openid email", token.Scope)
	assert.Equal(t, fp.server.URL, token.Issuer)
	assert.False(t, token.ExpiresAt.IsZero())
}

func TestClient_ExchangeErrors(t *testing.T) {
	fp := newFakeProvider(t)
	c := NewClient(fp.authConfig())

	tests := []struct {
		name     string
		response string
		code     string
		desc     string
		requests int32
	}{
		{name: "rejected code", response: testCallback + "?code=stale&state=s", code: "invalid_grant", desc: "code expired", requests: 1},
		{name: "provider error", response: testCallback + "?error=access_denied&error_description=denied", code: "access_denied", desc: "denied"},
		{name: "foreign host", response: "http://evil.test/?code=good-code", code: "invalid_request"},
		{name: "foreign path", response: "http://portal.test/other?code=good-code", code: "invalid_request"},
		{name: "no code", response: testCallback + "?state=s", code: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := atomic.LoadInt32(&fp.tokenRequests)
			_, err := c.Exchange(context.Background(), tt.response, testVerifier)

			var exchangeErr *TokenExchangeError
			require.ErrorAs(t, err, &exchangeErr)
			assert.Equal(t, tt.code, exchangeErr.Code)
			if tt.desc != "" {
				assert.Equal(t, tt.desc, exchangeErr.Description)
			}
			assert.Equal(t, tt.requests, atomic.LoadInt32(&fp.tokenRequests)-before)
		})
	}
}

func TestClient_FetchUserProfile(t *testing.T) {
	fp := newFakeProvider(t)
	c := NewClient(fp.authConfig())

	profile := c.FetchUserProfile(context.Background(), "at-1")
	require.NotNil(t, profile)
	assert.Equal(t, "kp_1", profile.ID)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "Ada Lovelace", profile.DisplayName())

	assert.Nil(t, c.FetchUserProfile(context.Background(), "wrong"), "401 yields no profile")

	down := NewClient(config.AuthConfig{IssuerURL: "http://127.0.0.1:1"})
	assert.Nil(t, down.FetchUserProfile(context.Background(), "at-1"), "transport error yields no profile")
}

func TestClient_LogoutURL(t *testing.T) {
	c := NewClient(config.AuthConfig{IssuerURL: "https://example.kinde.com/"})
	assert.Equal(t,
		"https://example.kinde.com/logout?redirect_to=http%3A%2F%2Flocalhost%3A8501%2F",
		c.LogoutURL(context.Background(), "http://localhost:8501/"))

	c = NewClient(config.AuthConfig{IssuerURL: "https://example.kinde.com", LogoutRedirectKey: "post_logout_redirect_uri"})
	assert.Equal(t,
		"https://example.kinde.com/logout?post_logout_redirect_uri=https%3A%2F%2Fbye.test",
		c.LogoutURL(context.Background(), "https://bye.test"))
}

func TestClient_DiscoveryIsCached(t *testing.T) {
	var hits int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"userinfo_endpoint":      srv.URL + "/userinfo",
			"end_session_endpoint":   srv.URL + "/end",
			"jwks_uri":               srv.URL + "/jwks",
		})
	}))
	defer srv.Close()

	c := NewClient(config.AuthConfig{IssuerURL: srv.URL, CallbackURL: testCallback, Discovery: true})
	for i := 0; i < 3; i++ {
		meta, err := c.Metadata(context.Background())
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/authorize", meta.AuthorizationEndpoint)
		assert.Equal(t, srv.URL+"/userinfo", meta.UserinfoEndpoint)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.True(t, strings.HasPrefix(c.LogoutURL(context.Background(), ""), srv.URL+"/end"))
}

func TestClient_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(config.AuthConfig{IssuerURL: srv.URL, Discovery: true})
	_, err := c.LoginURL(context.Background(), "s", testVerifier)
	assert.Error(t, err)
}

func TestClient_DiscoveryRejectsIssuerWithoutS256(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                           srv.URL,
			"authorization_endpoint":           srv.URL + "/authorize",
			"token_endpoint":                   srv.URL + "/token",
			"code_challenge_methods_supported": []string{"plain"},
		})
	}))
	defer srv.Close()

	c := NewClient(config.AuthConfig{IssuerURL: srv.URL, CallbackURL: testCallback, Discovery: true})
	_, err := c.Metadata(context.Background())
	assert.ErrorIs(t, err, ErrPKCEUnsupported)

	_, err = c.LoginURL(context.Background(), "s", testVerifier)
	assert.ErrorIs(t, err, ErrPKCEUnsupported)
}

// TestClient_MockOIDCRoundTrip walks discovery, login, code exchange and
// userinfo against a real OpenID Connect server.
func TestClient_MockOIDCRoundTrip(t *testing.T) {
	m, err := mockoidc.Run()
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown() })

	c := NewClient(config.AuthConfig{
		IssuerURL:    m.Issuer(),
		CallbackURL:  testCallback,
		ClientID:     m.ClientID,
		ClientSecret: m.ClientSecret,
		Scopes:       []string{"openid", "email", "profile"},
		Discovery:    true,
	})

	loginURL, err := c.LoginURL(context.Background(), "state-xyz", testVerifier)
	require.NoError(t, err)

	browser := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := browser.Get(loginURL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	callback := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(callback, testCallback), callback)
	cb, err := url.Parse(callback)
	require.NoError(t, err)
	assert.Equal(t, "state-xyz", cb.Query().Get("state"))

	token, err := c.Exchange(context.Background(), callback, testVerifier)
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)

	profile := c.FetchUserProfile(context.Background(), token.AccessToken)
	require.NotNil(t, profile)
	assert.Equal(t, mockoidc.DefaultUser().Email, profile.Email)
}
