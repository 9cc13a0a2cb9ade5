package app

import (
	"context"
	"fmt"
	"os"

	"avaportal/internal/config"
	"avaportal/internal/telemetry"
	"avaportal/pkg/logging"
)

// Application represents the main application structure that bootstraps and runs avaportal.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: load configuration, initialize logging, build services
//  2. Execution phase: serve HTTP until shutdown
type Application struct {
	config   *Config
	services *Services
	version  string
}

// NewApplication creates and initializes a new application instance.
//
// Validation errors in the loaded configuration do not fail the bootstrap:
// they are handed to the web server, which renders them on every page. An
// unreadable config file, or a session store that cannot be reached, does.
func NewApplication(cfg *Config) (*Application, error) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, os.Stderr)

	if cfg.Portal == nil {
		portal, err := LoadPortalConfig(cfg)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration")
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg.Portal = &portal
	}

	if !cfg.Debug {
		logging.Init(logging.ParseLevel(cfg.Portal.Server.LogLevel), logging.Format(cfg.Portal.Server.LogFormat), os.Stderr)
	}

	services, err := InitializeServices(context.Background(), *cfg.Portal)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// LoadPortalConfig reads the configuration named by cfg and applies the
// listen address override.
func LoadPortalConfig(cfg *Config) (config.Config, error) {
	portal, err := config.Load(config.Options{ConfigFile: cfg.ConfigFile, EnvFile: cfg.EnvFile})
	if err != nil {
		return config.Config{}, err
	}
	if cfg.ListenAddr != "" {
		portal.Server.ListenAddr = cfg.ListenAddr
	}
	return portal, nil
}

// SetVersion records the build version reported to tracing.
func (a *Application) SetVersion(v string) {
	a.version = v
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Run serves the portal until ctx is cancelled or the process is signalled.
func (a *Application) Run(ctx context.Context) error {
	shutdownTracing, err := telemetry.Setup(ctx, a.config.Portal.Telemetry, a.version)
	if err != nil {
		// Tracing is optional; the portal runs without it.
		logging.Warn("Bootstrap", "Tracing disabled: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), a.config.Portal.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logging.Warn("Bootstrap", "Failed to flush traces: %v", err)
		}
	}()

	defer a.services.Close()
	return runServer(ctx, a.config.Portal.Server, a.services.Web.Handler())
}
