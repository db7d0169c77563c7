// Package preferences persists small user settings, such as a custom config
// file location, in a JSON file under the user's config directory.
package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/systmms/gcptoolkit/internal/logging"
)

// Well-known preference keys.
const (
	KeyConfigPath = "config_path"
)

// Store reads and writes a preferences file. Every call goes to disk; there
// is no in-memory copy to go stale.
type Store struct {
	path   string
	logger *logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger reports an unreadable preferences file on l.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/gcptoolkit/preferences.json (or the
// platform equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "gcptoolkit", "preferences.json"), nil
}

// New returns a Store backed by path.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a Store at DefaultPath.
func Open(opts ...Option) (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return New(path, opts...), nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// load reads the file. A file that is not valid JSON is reported and read
// as empty, so the next Set or Clear replaces it.
func (s *Store) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences file %s: %w", s.path, err)
	}

	prefs := map[string]string{}
	if len(data) == 0 {
		return prefs, nil
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		s.logger.Warn("Ignoring corrupt preferences file %s: %v", s.path, err)
		return map[string]string{}, nil
	}
	return prefs, nil
}

func (s *Store) save(prefs map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	// Write-then-rename so a crash never leaves a truncated file behind.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to save preferences to %s: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to save preferences to %s: %w", s.path, err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool, error) {
	prefs, err := s.load()
	if err != nil {
		return "", false, err
	}
	value, ok := prefs[key]
	return value, ok, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	prefs, err := s.load()
	if err != nil {
		return err
	}
	prefs[key] = value
	return s.save(prefs)
}

// Clear removes key. It reports whether the key was present.
func (s *Store) Clear(key string) (bool, error) {
	prefs, err := s.load()
	if err != nil {
		return false, err
	}
	if _, ok := prefs[key]; !ok {
		return false, nil
	}
	delete(prefs, key)
	return true, s.save(prefs)
}
