// Package resolve turns a secret name into a value: process cache first,
// then Google Cloud Secret Manager, then an environment variable of the same
// name.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/systmms/gcptoolkit/internal/logging"
	"github.com/systmms/gcptoolkit/internal/metrics"
	"github.com/systmms/gcptoolkit/internal/providers"
	"github.com/systmms/gcptoolkit/internal/validation"
)

// Where a secret value came from.
const (
	SourceGCP = "gcp"
	SourceEnv = "env"
)

// ErrNotFound matches every *NotFoundError via errors.Is.
var ErrNotFound = errors.New("secret not found")

// Secret is a resolved secret.
type Secret struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	ProjectID string `json:"project_id,omitempty"`
	Source    string `json:"source"`
	// Cached is true when the value was served from the process cache
	// rather than looked up during this call.
	Cached bool `json:"-"`
}

// Remote is the read side of the remote secret store.
type Remote interface {
	ProjectID() (string, error)
	Fetch(ctx context.Context, project, name string) (string, error)
}

// Writer is a Remote that can also add secret versions.
type Writer interface {
	Remote
	Store(ctx context.Context, project, name, value string) (string, error)
}

var _ Writer = (*providers.GCPSecretManager)(nil)

// NotFoundError means neither the remote store nor the environment produced
// a value. Remote holds the failure that triggered the fallback.
type NotFoundError struct {
	Name   string
	Remote error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Secret '%s' not found in GCP or env", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return e.Remote
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Resolver runs the lookup workflow and owns the process cache.
type Resolver struct {
	remote    Remote
	cache     *Cache
	logger    *logging.Logger
	metrics   *metrics.Metrics
	lookupEnv func(string) (string, bool)

	group singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets where fallback warnings and debug output go.
func WithLogger(l *logging.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithMetrics records lookups on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithEnvLookup replaces os.LookupEnv for the fallback step.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(r *Resolver) {
		r.lookupEnv = fn
	}
}

// New creates a resolver reading from remote.
func New(remote Remote, opts ...Option) *Resolver {
	r := &Resolver{
		remote:    remote,
		cache:     NewCache(),
		logger:    logging.Discard(),
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the value for name.
//
// An invalid name fails with a usage error before any lookup. A cached name
// is returned without touching the remote store. Otherwise the remote store
// is asked once; any remote failure falls back to the environment variable
// called name, with a warning. Concurrent first lookups of the same name
// share a single remote call, which is not cancelled when the caller that
// started it gives up. Each caller still returns as soon as its own ctx is
// done. Failures are not cached.
func (r *Resolver) Resolve(ctx context.Context, name string) (Secret, error) {
	if err := validation.ValidateName(name); err != nil {
		return Secret{}, err
	}

	if s, ok := r.cached(name); ok {
		r.logger.Debug("Secret '%s' served from cache", name)
		r.metrics.RecordLookup(metrics.SourceCache)
		return s, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(name, func() (interface{}, error) {
		if s, ok := r.cached(name); ok {
			return s, nil
		}
		s, err := r.lookup(shared, name)
		if err != nil {
			return Secret{}, err
		}
		r.cache.Put(s)
		return s, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			r.metrics.RecordLookup(metrics.SourceNone)
			return Secret{}, res.Err
		}
		s := res.Val.(Secret)
		r.metrics.RecordLookup(lookupSource(s))
		return s, nil
	case <-ctx.Done():
		return Secret{}, fmt.Errorf("lookup of '%s' abandoned: %w", name, ctx.Err())
	}
}

func (r *Resolver) cached(name string) (Secret, bool) {
	s, ok := r.cache.Get(name)
	if !ok {
		return Secret{}, false
	}
	s.Cached = true
	return s, true
}

func lookupSource(s Secret) string {
	switch {
	case s.Cached:
		return metrics.SourceCache
	case s.Source == SourceEnv:
		return metrics.SourceEnv
	default:
		return metrics.SourceGCP
	}
}

func (r *Resolver) lookup(ctx context.Context, name string) (Secret, error) {
	project, err := r.remote.ProjectID()
	if err != nil {
		r.metrics.RecordRemoteFailure("access", failureLabel(err))
	} else {
		var value string
		value, err = r.fetch(ctx, project, name)
		if err == nil {
			r.logger.Debug("Resolved '%s' from GCP project %s: %s", name, project, logging.Secret(value))
			return Secret{Name: name, Value: value, ProjectID: project, Source: SourceGCP}, nil
		}
	}

	if value, ok := r.lookupEnv(name); ok && value != "" {
		r.logger.Warn("Secret '%s' unavailable from GCP (%s), using environment variable %s", name, reason(err), name)
		r.logger.Debug("GCP error for '%s': %v", name, err)
		return Secret{Name: name, Value: value, ProjectID: project, Source: SourceEnv}, nil
	}

	r.logger.Debug("No fallback for '%s' after GCP error: %v", name, err)
	return Secret{}, &NotFoundError{Name: name, Remote: err}
}

func (r *Resolver) fetch(ctx context.Context, project, name string) (string, error) {
	start := time.Now()
	value, err := r.remote.Fetch(ctx, project, name)
	r.metrics.RecordRemote("access", failureLabel(err), time.Since(start))
	return value, err
}

// Set writes value as the newest version of name in the remote store and
// caches it. It returns the new version id. There is no environment fallback
// on writes.
func (r *Resolver) Set(ctx context.Context, name, value string) (string, error) {
	if err := validation.ValidateName(name); err != nil {
		return "", err
	}
	if err := validation.ValidateValue(value); err != nil {
		return "", err
	}

	w, ok := r.remote.(Writer)
	if !ok {
		return "", fmt.Errorf("remote store for '%s' is read-only", name)
	}

	project, err := w.ProjectID()
	if err != nil {
		r.metrics.RecordRemoteFailure("add", failureLabel(err))
		r.metrics.RecordWrite(false)
		return "", err
	}

	start := time.Now()
	version, err := w.Store(ctx, project, name, value)
	r.metrics.RecordRemote("add", failureLabel(err), time.Since(start))
	r.metrics.RecordWrite(err == nil)
	if err != nil {
		r.logger.Debug("Write of '%s' failed: %s", name, logging.Redact(err.Error(), []string{value}))
		return "", err
	}

	r.logger.Debug("Stored version %s of '%s' in %s", version, name, project)
	r.cache.Put(Secret{Name: name, Value: value, ProjectID: project, Source: SourceGCP})
	return version, nil
}

// reason names the remote failure in a warning.
func reason(err error) string {
	if kind, ok := providers.KindOf(err); ok {
		return kind.String()
	}
	if err == nil {
		return "unknown"
	}
	return err.Error()
}

func failureLabel(err error) string {
	if err == nil {
		return ""
	}
	if kind, ok := providers.KindOf(err); ok {
		return kind.String()
	}
	return "unknown"
}
