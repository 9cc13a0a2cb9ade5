package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

// Config is the top-level configuration structure for avaportal.
// Fields are read from the optional YAML file and then overridden by
// environment variables named in the env tags.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Backend   BackendConfig   `yaml:"backend"`
	Storage   StorageConfig   `yaml:"storage"`
	Session   SessionConfig   `yaml:"session"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	ListenAddr         string        `yaml:"listenAddr,omitempty" env:"AVAPORTAL_LISTEN_ADDR"`
	ShutdownTimeout    time.Duration `yaml:"shutdownTimeout,omitempty" env:"AVAPORTAL_SHUTDOWN_TIMEOUT"`
	RateLimitPerMinute int           `yaml:"rateLimitPerMinute,omitempty" env:"AVAPORTAL_RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int           `yaml:"rateLimitBurst,omitempty" env:"AVAPORTAL_RATE_LIMIT_BURST"`
	LogLevel           string        `yaml:"logLevel,omitempty" env:"AVAPORTAL_LOG_LEVEL"`
	LogFormat          string        `yaml:"logFormat,omitempty" env:"AVAPORTAL_LOG_FORMAT"`
	// TrustedProxies lists the addresses or CIDR ranges whose X-Forwarded-For
	// and X-Real-IP headers are believed. Empty means none.
	TrustedProxies []string `yaml:"trustedProxies,omitempty" env:"AVAPORTAL_TRUSTED_PROXIES" envSeparator:","`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is a single-host
// range.
func (s ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy range %q: %w", raw, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy address %q: %w", raw, err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return prefixes, nil
}

// AuthConfig describes the hosted identity provider.
type AuthConfig struct {
	IssuerURL    string `yaml:"issuerURL,omitempty" env:"KINDE_ISSUER_URL"`
	CallbackURL  string `yaml:"callbackURL,omitempty" env:"KINDE_CALLBACK_URL"`
	ClientID     string `yaml:"clientID,omitempty" env:"KINDE_CLIENT_ID"`
	ClientSecret string `yaml:"clientSecret,omitempty" env:"KINDE_CLIENT_SECRET"`
	// CodeVerifier pins the PKCE verifier. Empty means a fresh verifier per login.
	CodeVerifier string   `yaml:"codeVerifier,omitempty" env:"KINDE_CODE_VERIFIER"`
	Audience     string   `yaml:"audience,omitempty" env:"KINDE_AUDIENCE"`
	Scopes       []string `yaml:"scopes,omitempty" env:"KINDE_SCOPES" envSeparator:","`
	// Discovery switches endpoint resolution from the fixed provider layout to
	// OpenID Connect discovery on the issuer.
	Discovery         bool   `yaml:"discovery,omitempty" env:"KINDE_DISCOVERY"`
	LogoutRedirectURL string `yaml:"logoutRedirectURL,omitempty" env:"LOGOUT_REDIRECT_URL"`
	LogoutRedirectKey string `yaml:"logoutRedirectKey,omitempty" env:"KINDE_LOGOUT_REDIRECT_PARAM"`
	ProviderName      string `yaml:"providerName,omitempty" env:"EXTERNAL_AUTH_PROVIDER_NAME"`
}

// CallbackPath returns the path component of the callback URL, "/" when empty.
func (a AuthConfig) CallbackPath() string {
	u, err := url.Parse(a.CallbackURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// PostLogoutURL is where the provider sends the browser after logout.
func (a AuthConfig) PostLogoutURL() string {
	if a.LogoutRedirectURL != "" {
		return a.LogoutRedirectURL
	}
	return a.CallbackURL
}

// BackendConfig describes the backend REST API.
type BackendConfig struct {
	BaseURL string        `yaml:"baseURL,omitempty" env:"BACKEND_URL"`
	APIKey  string        `yaml:"apiKey,omitempty" env:"BACKEND_API_KEY"`
	Timeout time.Duration `yaml:"timeout,omitempty" env:"BACKEND_TIMEOUT"`
}

// StorageConfig selects and configures the knowledge document store.
type StorageConfig struct {
	UseCloud         bool   `yaml:"useCloud" env:"USE_AZURE_STORAGE_FOR_PRODUCT_KNOWLEDGE"`
	ConnectionString string `yaml:"connectionString,omitempty" env:"AZURE_AVA_POC_APPS_CONNECTION_STRING"`
	Container        string `yaml:"container,omitempty" env:"KNOWLEDGE_CONTAINER"`
	LocalDir         string `yaml:"localDir,omitempty" env:"KNOWLEDGE_DIR"`
	// TenantFolder overrides the tenant-derived folder prefix when set.
	TenantFolder string `yaml:"tenantFolder,omitempty" env:"TENANT_NAME"`
}

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// SessionConfig configures the server-side session store.
type SessionConfig struct {
	Backend       string        `yaml:"backend,omitempty" env:"AVAPORTAL_SESSION_BACKEND"`
	TTL           time.Duration `yaml:"ttl,omitempty" env:"AVAPORTAL_SESSION_TTL"`
	CookieName    string        `yaml:"cookieName,omitempty" env:"AVAPORTAL_SESSION_COOKIE"`
	RedisAddr     string        `yaml:"redisAddr,omitempty" env:"AVAPORTAL_REDIS_ADDR"`
	RedisPassword string        `yaml:"redisPassword,omitempty" env:"AVAPORTAL_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redisDB,omitempty" env:"AVAPORTAL_REDIS_DB"`
	KeyPrefix     string        `yaml:"keyPrefix,omitempty" env:"AVAPORTAL_REDIS_KEY_PREFIX"`
}

// TelemetryConfig configures tracing and metrics.
type TelemetryConfig struct {
	ServiceName  string `yaml:"serviceName,omitempty" env:"OTEL_SERVICE_NAME"`
	OTLPEndpoint string `yaml:"otlpEndpoint,omitempty" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Metrics      bool   `yaml:"metrics" env:"AVAPORTAL_METRICS"`
}

// TracingEnabled reports whether an OTLP endpoint was configured.
func (t TelemetryConfig) TracingEnabled() bool {
	return strings.TrimSpace(t.OTLPEndpoint) != ""
}
