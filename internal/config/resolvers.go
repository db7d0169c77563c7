package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/systmms/gcptoolkit/internal/preferences"
)

// Resolver yields a value and whether it found one. Chains of resolvers are
// tried in order and the first hit wins.
type Resolver func() (string, bool)

// Value returns a Resolver that yields v when it is non-empty.
func Value(v string) Resolver {
	return func() (string, bool) {
		return v, v != ""
	}
}

// FirstOf composes resolvers; the result yields the first hit.
func FirstOf(resolvers ...Resolver) Resolver {
	return func() (string, bool) {
		for _, r := range resolvers {
			if v, ok := r(); ok {
				return v, true
			}
		}
		return "", false
	}
}

// ProjectID builds the project-id chain: explicit override, then
// GCP_PROJECT, GOOGLE_CLOUD_PROJECT, GCLOUD_PROJECT, then the config file.
// The file is read lazily so Load may run after the chain is built.
func (c *Config) ProjectID(explicit string) Resolver {
	return FirstOf(
		Value(explicit),
		Value(c.Env.Project),
		Value(c.Env.GoogleCloudProject),
		Value(c.Env.GcloudProject),
		func() (string, bool) {
			if c.File == nil {
				return "", false
			}
			return c.File.GCP.ProjectID, c.File.GCP.ProjectID != ""
		},
	)
}

// Sources of the config file path, highest priority first.
const (
	SourceFlag       = "flag"
	SourceEnv        = "env"
	SourcePreference = "preference"
	SourceDefault    = "default"
)

// PathSource is a config file location and how it was chosen.
type PathSource struct {
	Path   string
	Source string
}

// DefaultPath returns $XDG_CONFIG_HOME/gcptoolkit/config.yml (or the
// platform equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "gcptoolkit", "config.yml"), nil
}

// ResolvePath picks the config file: --config flag, GCPTOOLKIT_CONFIG,
// the config_path preference, then the default location. Unreadable
// preferences are skipped with a warning.
func (c *Config) ResolvePath() (PathSource, error) {
	if c.Path != "" {
		return PathSource{Path: c.Path, Source: SourceFlag}, nil
	}
	if c.Env.ConfigPath != "" {
		return PathSource{Path: c.Env.ConfigPath, Source: SourceEnv}, nil
	}
	if c.Preferences != nil {
		path, ok, err := c.Preferences.Get(preferences.KeyConfigPath)
		if err != nil && c.Logger != nil {
			c.Logger.Warn("Ignoring saved config path: %v", err)
		}
		if err == nil && ok && path != "" {
			return PathSource{Path: path, Source: SourcePreference}, nil
		}
	}

	path, err := DefaultPath()
	if err != nil {
		return PathSource{}, err
	}
	return PathSource{Path: path, Source: SourceDefault}, nil
}
