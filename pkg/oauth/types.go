package oauth

import (
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Token represents an OAuth access token with associated metadata.
type Token struct {
	// AccessToken is the bearer token used for authorization.
	AccessToken string `json:"access_token"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// RefreshToken is returned when the offline scope was granted. It is kept
	// but never used; sessions end when the browser session ends.
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresIn is the token lifetime in seconds (from token response).
	ExpiresIn int `json:"expires_in,omitempty"`

	// ExpiresAt is the calculated expiration timestamp.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// Scope is the granted scope(s), space-separated.
	Scope string `json:"scope,omitempty"`

	// Issuer is the token issuer (Identity Provider URL).
	Issuer string `json:"issuer,omitempty"`

	// IDToken is the OIDC ID token (if available).
	IDToken string `json:"id_token,omitempty"`
}

// SetExpiresAtFromExpiresIn calculates and sets ExpiresAt from ExpiresIn.
func (t *Token) SetExpiresAtFromExpiresIn() {
	if t.ExpiresIn > 0 && t.ExpiresAt.IsZero() {
		t.ExpiresAt = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
}

// LogValue implements slog.LogValuer so a token passed to a logger never
// prints its secrets.
func (t *Token) LogValue() slog.Value {
	if t == nil {
		return slog.StringValue("<nil>")
	}
	return slog.GroupValue(
		slog.String("token_type", t.TokenType),
		slog.String("scope", t.Scope),
		slog.Time("expires_at", t.ExpiresAt),
		slog.Bool("has_refresh_token", t.RefreshToken != ""),
	)
}

// FromOAuth2Token converts a token returned by golang.org/x/oauth2 into a Token.
func FromOAuth2Token(tok *oauth2.Token, issuer string) *Token {
	if tok == nil {
		return nil
	}
	t := &Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    int(tok.ExpiresIn),
		ExpiresAt:    tok.Expiry,
		Issuer:       issuer,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		t.Scope = scope
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		t.IDToken = idToken
	}
	t.SetExpiresAtFromExpiresIn()
	return t
}

// Metadata holds the provider endpoints read from OpenID Connect discovery.
type Metadata struct {
	// Issuer is the authorization server's issuer identifier.
	Issuer string `json:"issuer"`

	// AuthorizationEndpoint is the URL of the hosted login page.
	AuthorizationEndpoint string `json:"authorization_endpoint"`

	// TokenEndpoint is the URL of the token endpoint.
	TokenEndpoint string `json:"token_endpoint"`

	// UserinfoEndpoint is the URL of the userinfo endpoint (OIDC).
	UserinfoEndpoint string `json:"userinfo_endpoint,omitempty"`

	// EndSessionEndpoint is the provider logout URL (OIDC RP-initiated logout).
	EndSessionEndpoint string `json:"end_session_endpoint,omitempty"`

	// CodeChallengeMethodsSupported lists the PKCE code challenge methods.
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`
}

// SupportsPKCE reports whether the provider accepts S256 code challenges.
// Providers that advertise no methods are assumed to.
func (m *Metadata) SupportsPKCE() bool {
	if len(m.CodeChallengeMethodsSupported) == 0 {
		return true
	}
	return slices.Contains(m.CodeChallengeMethodsSupported, ChallengeMethodS256)
}

// UserProfile is the identity record returned by the provider's profile
// endpoint. It decodes both the Kinde user_profile shape and standard OIDC
// userinfo claims.
type UserProfile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Picture   string `json:"picture,omitempty"`
}

// DisplayName returns "First Last", falling back to the email address.
func (p *UserProfile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}

// UnmarshalJSON accepts either the provider-specific or the OIDC field names.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID             string `json:"id"`
		Sub            string `json:"sub"`
		FirstName      string `json:"first_name"`
		GivenName      string `json:"given_name"`
		LastName       string `json:"last_name"`
		FamilyName     string `json:"family_name"`
		PreferredEmail string `json:"preferred_email"`
		Email          string `json:"email"`
		Picture        string `json:"picture"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = UserProfile{
		ID:        firstNonEmpty(raw.ID, raw.Sub),
		FirstName: firstNonEmpty(raw.FirstName, raw.GivenName),
		LastName:  firstNonEmpty(raw.LastName, raw.FamilyName),
		Email:     firstNonEmpty(raw.PreferredEmail, raw.Email),
		Picture:   raw.Picture,
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
