// Package oauth provides the OAuth 2.0 types and helpers shared by the
// identity provider client, the session store and the CLI.
//
// # Core Components
//
//   - Token: access token with expiry checks and log redaction
//   - Metadata: provider endpoints from OpenID Connect discovery
//   - UserProfile: the signed-in user's identity record
//   - PKCE: Proof Key for Code Exchange generation (RFC 7636)
//
// # Usage
//
//	pkce, err := oauth.GeneratePKCE()
//	state, err := oauth.GenerateState()
//
// The verifier in pkce.CodeVerifier stays server side until the token
// exchange; only pkce.CodeChallenge leaves the process.
package oauth
