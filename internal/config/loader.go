package config

import (
	"errors"
	"fmt"
	"os"

	"avaportal/pkg/logging"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is read when present in the working directory.
const DefaultEnvFile = ".env"

// Options controls where configuration is read from.
type Options struct {
	// ConfigFile is an optional YAML file. A missing file is not an error.
	ConfigFile string
	// EnvFile is an optional dotenv file. Variables already set in the
	// process environment take precedence over its values.
	EnvFile string
	// Environment replaces the process environment when non-nil. Used by tests.
	Environment map[string]string
}

// Load builds the configuration from defaults, the YAML file, the dotenv file
// and the environment, in that order of increasing precedence. It does not
// validate; call Validate on the result.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.ConfigFile != "" {
		if err := loadFile(opts.ConfigFile, &cfg); err != nil {
			return Config{}, err
		}
	}

	envOpts := env.Options{}
	if opts.Environment != nil {
		envOpts.Environment = opts.Environment
	} else if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, NewConfigurationError(opts.EnvFile, "parse", fmt.Sprintf("failed to read env file: %v", err))
			}
			logging.Debug("Config", "No env file at %s", opts.EnvFile)
		} else {
			logging.Info("Config", "Loaded environment from %s", opts.EnvFile)
		}
	}

	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "No config file found at %s, using defaults and environment", path)
			return nil
		}
		return NewConfigurationError(path, "io", err.Error())
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return NewConfigurationError(path, "parse", err.Error())
	}
	logging.Info("Config", "Loaded configuration from %s", path)
	return nil
}
