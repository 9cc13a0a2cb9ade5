// Package oauth signs portal users in through a hosted OAuth2 identity
// provider using the authorization code grant with PKCE.
//
// # Components
//
//   - Client: builds login and logout URLs, exchanges the authorization
//     response for a token and fetches the user profile. Endpoints follow the
//     provider's fixed layout under the issuer, or OpenID Connect discovery
//     when enabled.
//   - StateStore: pending authorizations keyed by the state nonce. Each entry
//     is bound to the session that started the login, expires after ten
//     minutes and can be consumed once.
//   - Registry: process-wide map from user id to the provider handle created
//     at login, released on logout.
//   - Machine: the per-request login state machine. It never writes to the
//     response itself; callers act on the returned Result.
//
// # Flow
//
//	unauthenticated --(no code)--> awaiting_callback --(code)--> authenticated
//	       ^                                                           |
//	       +------------------------------(logout)---------------------+
//
// A callback is exchanged at most once per session: a session with a token
// ignores any code in the URL, and the state nonce is deleted on first use.
//
// # Logging
//
// Tokens are never logged. Session ids are truncated with
// logging.TruncateSessionID.
package oauth
