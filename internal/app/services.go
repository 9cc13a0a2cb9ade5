package app

import (
	"context"
	"fmt"

	"avaportal/internal/backend"
	"avaportal/internal/config"
	"avaportal/internal/documents"
	"avaportal/internal/oauth"
	"avaportal/internal/session"
	"avaportal/internal/web"
	"avaportal/pkg/logging"
)

// Services holds all initialized components of the portal.
//
// Service Dependencies:
//  1. Session store (memory or Redis)
//  2. Identity provider client and login state machine
//  3. Backend gateway
//  4. Document store (Azure Blob or local directory)
//  5. Web server over all of the above
type Services struct {
	Sessions  session.Store
	Provider  *oauth.Client
	Machine   *oauth.Machine
	Backend   *backend.Client
	Documents documents.Store
	Web       *web.Server

	// ConfigErr is the result of config validation; StorageErr of storage
	// validation or store creation.
	ConfigErr  error
	StorageErr error
}

// InitializeServices builds every component from cfg. Only a session store
// that cannot be created is fatal; configuration and storage problems are
// recorded on Services and surfaced by the web pages.
func InitializeServices(ctx context.Context, cfg config.Config) (*Services, error) {
	s := &Services{}

	if errs := cfg.Validate(); errs.HasErrors() {
		s.ConfigErr = errs.Err()
		logging.Warn("Bootstrap", "Configuration is invalid, pages will show the error: %v", s.ConfigErr)
	}

	sessions, err := NewSessionStore(ctx, cfg.Session)
	if err != nil {
		return nil, err
	}
	s.Sessions = sessions

	s.Provider = oauth.NewClient(cfg.Auth)
	s.Machine = oauth.NewMachine(s.Provider, oauth.MachineConfig{
		StaticVerifier: cfg.Auth.CodeVerifier,
		HomePath:       cfg.Auth.CallbackPath(),
		PostLogoutURL:  cfg.Auth.PostLogoutURL(),
	})

	s.Backend = backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, backend.WithTimeout(cfg.Backend.Timeout))

	s.Documents, s.StorageErr = NewDocumentStore(cfg.Storage)
	if s.StorageErr != nil {
		logging.Warn("Bootstrap", "Product knowledge storage unavailable: %v", s.StorageErr)
	}

	s.Web = web.NewServer(cfg, web.Deps{
		Sessions:   session.NewManager(s.Sessions, cfg.Session.CookieName),
		Auth:       s.Machine,
		Backend:    s.Backend,
		Documents:  s.Documents,
		ConfigErr:  s.ConfigErr,
		StorageErr: s.StorageErr,
	})

	logging.Info("Bootstrap", "Services initialized (sessions=%s, storage=%s)", cfg.Session.Backend, storageKind(cfg.Storage))
	return s, nil
}

// Close releases connections.
func (s *Services) Close() {
	if s.Sessions != nil {
		if err := s.Sessions.Close(); err != nil {
			logging.Warn("Bootstrap", "Failed to close session store: %v", err)
		}
	}
}

// NewSessionStore creates the configured session store.
func NewSessionStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case config.SessionBackendRedis:
		store, err := session.NewRedisStore(ctx, session.RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
			TTL:       cfg.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis session store: %w", err)
		}
		return store, nil
	default:
		return session.NewMemoryStore(cfg.TTL), nil
	}
}

// NewDocumentStore validates the storage settings and opens the configured
// document store.
func NewDocumentStore(cfg config.StorageConfig) (documents.Store, error) {
	if errs := (config.Config{Storage: cfg}).ValidateStorage(); errs.HasErrors() {
		return nil, errs.Err()
	}
	if cfg.UseCloud {
		store, err := documents.NewBlobStore(cfg.ConnectionString, cfg.Container)
		if err != nil {
			return nil, fmt.Errorf("failed to open blob container %s: %w", cfg.Container, err)
		}
		return store, nil
	}
	store, err := documents.NewLocalStore(cfg.LocalDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func storageKind(cfg config.StorageConfig) string {
	if cfg.UseCloud {
		return "azure-blob"
	}
	return "local"
}
