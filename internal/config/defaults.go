package config

import "time"

const (
	// DefaultListenAddr matches the port the portal has always been served on.
	DefaultListenAddr = ":8501"

	// DefaultBackendTimeout bounds every backend REST call.
	DefaultBackendTimeout = 30 * time.Second

	// DefaultContainer is the blob container holding knowledge documents.
	DefaultContainer = "product-knowledge"

	// DefaultLocalDir is the folder used when cloud storage is disabled.
	DefaultLocalDir = "knowledgebase"

	// DefaultProviderName is the external auth provider segment in backend user lookups.
	DefaultProviderName = "kinde"

	// DefaultLogoutRedirectKey is the provider's post-logout redirect parameter.
	DefaultLogoutRedirectKey = "redirect_to"

	// DefaultSessionCookie names the cookie carrying the session id.
	DefaultSessionCookie = "avaportal_session"
)

// DefaultScopes are requested on every login.
var DefaultScopes = []string{"openid", "profile", "email", "offline"}

// Default returns the built-in configuration. File and environment values
// are layered on top of it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:         DefaultListenAddr,
			ShutdownTimeout:    15 * time.Second,
			RateLimitPerMinute: 300,
			RateLimitBurst:     60,
			LogLevel:           "info",
			LogFormat:          "text",
		},
		Auth: AuthConfig{
			Scopes:            append([]string(nil), DefaultScopes...),
			LogoutRedirectKey: DefaultLogoutRedirectKey,
			ProviderName:      DefaultProviderName,
		},
		Backend: BackendConfig{
			Timeout: DefaultBackendTimeout,
		},
		Storage: StorageConfig{
			UseCloud:  true,
			Container: DefaultContainer,
			LocalDir:  DefaultLocalDir,
		},
		Session: SessionConfig{
			Backend:    SessionBackendMemory,
			TTL:        24 * time.Hour,
			CookieName: DefaultSessionCookie,
			KeyPrefix:  "avaportal:",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "avaportal",
			Metrics:     true,
		},
	}
}
