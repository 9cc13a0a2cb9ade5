package app

import (
	"avaportal/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of server.logLevel.
	Debug bool

	// ConfigFile is an optional YAML file.
	ConfigFile string

	// EnvFile is an optional dotenv file.
	EnvFile string

	// ListenAddr overrides server.listenAddr when set.
	ListenAddr string

	// Portal configuration, filled by NewApplication unless preset.
	Portal *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configFile, envFile, listenAddr string) *Config {
	return &Config{
		Debug:      debug,
		ConfigFile: configFile,
		EnvFile:    envFile,
		ListenAddr: listenAddr,
	}
}
