package config

import (
	"github.com/systmms/gcptoolkit/internal/logging"
	"github.com/systmms/gcptoolkit/internal/preferences"
	"github.com/systmms/gcptoolkit/internal/providers"
)

// Discover assembles a Config from the environment and saved preferences,
// then loads the config file. It always returns a usable Config. A file that
// fails to load is logged as a warning and treated as empty, so the project
// chain and the environment fallback still work; the load error is returned
// for callers that want to act on it.
func Discover(path string, logger *logging.Logger) (*Config, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	cfg := &Config{Path: path, Logger: logger, File: &File{}}

	env, err := LoadEnv()
	if err != nil {
		logger.Warn("Ignoring environment settings: %v", err)
	}
	cfg.Env = env

	if prefs, err := preferences.Open(preferences.WithLogger(logger)); err != nil {
		logger.Debug("Preferences unavailable: %v", err)
	} else {
		cfg.Preferences = prefs
	}

	if err := cfg.Load(); err != nil {
		logger.Warn("Ignoring configuration file: %v", err)
		cfg.File = &File{}
		return cfg, err
	}
	return cfg, nil
}

// SecretManagerConfig returns the client settings taken from the file.
func (c *Config) SecretManagerConfig() providers.GCPSecretManagerConfig {
	if c.File == nil {
		return providers.GCPSecretManagerConfig{}
	}
	return providers.GCPSecretManagerConfig{
		ServiceAccountKeyPath: c.File.ServiceAccountPath(),
		ImpersonateAccount:    c.File.GCP.ImpersonateServiceAccount,
	}
}

// SecretManager builds a Secret Manager client targeting the project chain
// for explicit. Extra options are applied last.
func (c *Config) SecretManager(explicit string, opts ...providers.Option) *providers.GCPSecretManager {
	logger := c.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	base := []providers.Option{
		providers.WithProjectResolver(providers.ProjectResolver(c.ProjectID(explicit))),
		providers.WithLogger(logger),
	}
	return providers.NewGCPSecretManager(c.SecretManagerConfig(), append(base, opts...)...)
}
