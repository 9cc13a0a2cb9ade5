package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/netip"
	"net/url"

	"avaportal/internal/backend"
	"avaportal/internal/config"
	"avaportal/internal/documents"
	"avaportal/internal/oauth"
	"avaportal/internal/session"
	"avaportal/internal/telemetry"
	"avaportal/internal/tenancy"
	"avaportal/pkg/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// AuthMachine is the login state machine driving each request.
type AuthMachine interface {
	Evaluate(ctx context.Context, sess *session.Session, query url.Values) oauth.Result
	Restart(ctx context.Context, sess *session.Session) oauth.Result
	Logout(ctx context.Context, sess *session.Session) oauth.Result
	Register(ctx context.Context, sess *session.Session) oauth.Result
}

// Backend is the part of the backend gateway the pages call.
type Backend interface {
	tenancy.Directory
	documents.Reembedder
	Health(ctx context.Context) bool
	GetUserByExternalID(ctx context.Context, provider, externalID string) (*backend.User, error)
}

// Deps are the collaborators of the web server. Documents may be nil when
// StorageErr is set.
type Deps struct {
	Sessions  *session.Manager
	Auth      AuthMachine
	Backend   Backend
	Documents documents.Store

	// ConfigErr halts every page; StorageErr halts only the knowledge page.
	ConfigErr  error
	StorageErr error
}

// Server renders the portal.
type Server struct {
	cfg     config.Config
	deps    Deps
	tenants *tenancy.Resolver
	limiter *ipRateLimiter
	proxies []netip.Prefix
}

// NewServer creates the web server.
func NewServer(cfg config.Config, deps Deps) *Server {
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		tenants: tenancy.NewResolver(deps.Backend),
	}
	proxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		logging.Warn("HTTP", "Ignoring trusted proxies: %v", err)
	}
	s.proxies = proxies
	if cfg.Server.RateLimitPerMinute > 0 {
		s.limiter = newIPRateLimiter(cfg.Server.RateLimitPerMinute, cfg.Server.RateLimitBurst)
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, forwardedFor(s.proxies), requestLogger, middleware.Recoverer)

	r.Get("/healthz", handleHealthz)
	if s.cfg.Telemetry.Metrics {
		r.Method(http.MethodGet, "/metrics", telemetry.MetricsHandler())
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}
		r.Use(sameOrigin(), securityHeaders, s.deps.Sessions.Middleware)

		r.Get("/", s.handleIndex)
		if cb := s.cfg.Auth.CallbackPath(); cb != "/" {
			r.Get(cb, s.handleIndex)
		}
		r.Get("/pages/{page}", s.handlePage)
		r.Post("/pages/chat", s.handleChatPost)
		r.Post("/pages/knowledge", s.handleKnowledgeAction)
		r.Post("/tenant", s.handleSelectTenant)
		r.Post("/logout", s.handleLogout)
		r.Get("/login", s.handleLogin)
		r.Get("/register", s.handleRegister)
	})

	return otelhttp.NewHandler(r, "avaportal")
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
