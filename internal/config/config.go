package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	dserrors "github.com/systmms/gcptoolkit/internal/errors"
	"github.com/systmms/gcptoolkit/internal/logging"
	"github.com/systmms/gcptoolkit/internal/preferences"
	"gopkg.in/yaml.v3"
)

// AuthTypeServiceAccount is the only supported authentication type.
const AuthTypeServiceAccount = "service_account"

// Config holds the runtime configuration
type Config struct {
	// Path is the --config flag value. Empty means "discover".
	Path        string
	Logger      *logging.Logger
	Preferences *preferences.Store
	Env         Env

	// File is the parsed config file, set by Load. Never nil after a
	// successful Load; an absent default file yields an empty File.
	File *File
	// Source describes where the loaded file came from.
	Source PathSource
}

// File represents the config.yml structure
type File struct {
	Authentication *Authentication `yaml:"authentication,omitempty" json:"authentication,omitempty"`
	GCP            GCP             `yaml:"gcp,omitempty" json:"gcp,omitempty"`
}

// Authentication selects the credentials used for Secret Manager calls.
type Authentication struct {
	Type               string `yaml:"type" json:"type"`
	ServiceAccountPath string `yaml:"service_account_path" json:"service_account_path"`
}

// GCP holds project-level settings.
type GCP struct {
	ProjectID                 string `yaml:"project_id,omitempty" json:"project_id,omitempty"`
	ImpersonateServiceAccount string `yaml:"impersonate_service_account,omitempty" json:"impersonate_service_account,omitempty"`
}

// Load discovers the config file and parses it into c.File.
//
// A missing file at the default location is not an error. A missing file
// anywhere the user pointed us (flag, env, preference) is.
func (c *Config) Load() error {
	if c.Logger == nil {
		c.Logger = logging.Discard()
	}

	src, err := c.ResolvePath()
	if err != nil {
		return err
	}
	c.Source = src

	file, err := LoadFile(src.Path)
	if errors.Is(err, os.ErrNotExist) && src.Source == SourceDefault {
		c.Logger.Debug("No config file at %s, continuing without one", src.Path)
		c.File = &File{}
		return nil
	}
	if err != nil {
		return err
	}

	c.Logger.Debug("Configuration loaded from %s (%s)", src.Path, src.Source)
	c.File = file
	return nil
}

// LoadFile reads, schema-validates and decodes a config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, dserrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Run 'gcptoolkit config init' to create one, or 'gcptoolkit config set-path <path>' to point at an existing file",
				Err:        err,
			}
		}
		return nil, dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	// Generic decode first so the schema sees exactly what the user wrote.
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, dserrors.ConfigError{
			Message:    fmt.Sprintf("invalid YAML syntax in %s", path),
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
			Err:        err,
		}
	}

	file := &File{}
	if doc == nil {
		return file, nil
	}

	if err := validateSchema(doc); err != nil {
		return nil, dserrors.ConfigError{
			Field:      "schema",
			Value:      path,
			Message:    err.Error(),
			Suggestion: exampleConfig,
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(file); err != nil {
		return nil, dserrors.ConfigError{
			Message: fmt.Sprintf("failed to decode %s", path),
			Err:     err,
		}
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

// Validate performs checks the schema can't express, like the service
// account key file existing on disk.
func (f *File) Validate() error {
	if f.Authentication == nil {
		return nil
	}

	keyPath := f.Authentication.ServiceAccountPath
	if strings.HasPrefix(keyPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		keyPath = filepath.Join(home, keyPath[2:])
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		return dserrors.ConfigError{
			Field:      "authentication.service_account_path",
			Value:      f.Authentication.ServiceAccountPath,
			Message:    "service account file not found",
			Suggestion: "Ensure the file exists or update the path in the config file",
			Err:        err,
		}
	}
	if !info.Mode().IsRegular() {
		return dserrors.ConfigError{
			Field:   "authentication.service_account_path",
			Value:   f.Authentication.ServiceAccountPath,
			Message: "service account path is not a file",
		}
	}
	return nil
}

// ServiceAccountPath returns the configured key file, or "" for ambient
// application-default credentials.
func (f *File) ServiceAccountPath() string {
	if f == nil || f.Authentication == nil {
		return ""
	}
	return f.Authentication.ServiceAccountPath
}

const exampleConfig = `Required format:
authentication:
  type: service_account
  service_account_path: /path/to/service-account.json
gcp:
  project_id: your-project-id`
