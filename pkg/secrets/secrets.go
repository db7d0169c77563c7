package secrets

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/systmms/gcptoolkit/internal/config"
	"github.com/systmms/gcptoolkit/internal/logging"
	"github.com/systmms/gcptoolkit/internal/metrics"
	"github.com/systmms/gcptoolkit/internal/providers"
	"github.com/systmms/gcptoolkit/internal/resolve"
	"github.com/systmms/gcptoolkit/internal/validation"
)

var (
	// ErrNotFound matches lookups that found no value in Secret Manager or
	// the environment.
	ErrNotFound = resolve.ErrNotFound
	// ErrInvalidName matches lookups rejected for a malformed name.
	ErrInvalidName = validation.ErrInvalidName
)

// Kind says why Secret Manager could not answer.
type Kind = providers.Kind

// Failure kinds.
const (
	KindNotFound           = providers.KindNotFound
	KindPermissionDenied   = providers.KindPermissionDenied
	KindUnavailable        = providers.KindUnavailable
	KindUnauthenticated    = providers.KindUnauthenticated
	KindProjectNotResolved = providers.KindProjectNotResolved
)

// FailureKind extracts the Secret Manager failure behind err.
func FailureKind(err error) (Kind, bool) {
	return providers.KindOf(err)
}

// Secret is a resolved value and where it came from.
type Secret = resolve.Secret

// SecretManagerAPI is the part of the Secret Manager SDK client a Client
// calls. *secretmanager.Client satisfies it.
type SecretManagerAPI = providers.SecretManagerAPI

// Client resolves secrets. The zero value is not usable; call New.
type Client struct {
	configPath  string
	quiet       bool
	diagnostics io.Writer
	registry    *prometheus.Registry
	api         SecretManagerAPI
	lookupEnv   func(string) (string, bool)

	logger  *logging.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	cfg       *config.Config
	stores    []*providers.GCPSecretManager
	resolvers map[string]*resolve.Resolver
}

// Option configures a Client.
type Option func(*Client)

// WithConfigPath reads the config file at path instead of discovering it.
func WithConfigPath(path string) Option {
	return func(c *Client) {
		c.configPath = path
	}
}

// WithQuiet suppresses the warning printed when a value comes from the
// environment instead of Secret Manager.
func WithQuiet(quiet bool) Option {
	return func(c *Client) {
		c.quiet = quiet
	}
}

// WithDiagnostics sends warnings to w instead of stderr. Output to w is never
// colored.
func WithDiagnostics(w io.Writer) Option {
	return func(c *Client) {
		c.diagnostics = w
	}
}

// WithMetricsRegistry records lookup metrics on reg. Each registry can back
// only one Client.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(c *Client) {
		c.registry = reg
	}
}

// WithSecretManagerAPI uses api instead of creating an SDK client.
func WithSecretManagerAPI(api SecretManagerAPI) Option {
	return func(c *Client) {
		c.api = api
	}
}

// WithEnvLookup replaces os.LookupEnv for the fallback step.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(c *Client) {
		c.lookupEnv = fn
	}
}

// New creates a Client. Nothing is read from disk or the network until the
// first lookup. Warnings go to stderr, uncolored when NO_COLOR is set.
func New(opts ...Option) *Client {
	c := &Client{
		resolvers: make(map[string]*resolve.Resolver),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = logging.New(false, os.Getenv("NO_COLOR") != "" || c.diagnostics != nil)
	if c.diagnostics != nil {
		c.logger.SetOutput(c.diagnostics)
	}
	c.logger.SetQuiet(c.quiet)

	if c.registry != nil {
		c.metrics = metrics.NewWithRegistry(c.registry)
	}
	return c
}

// Get returns the value of name. projectID may be empty.
func (c *Client) Get(ctx context.Context, name, projectID string) (string, error) {
	s, err := c.Resolve(ctx, name, projectID)
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

// Resolve is Get with the value's origin.
func (c *Client) Resolve(ctx context.Context, name, projectID string) (Secret, error) {
	return c.resolver(projectID).Resolve(ctx, name)
}

// Set stores value as the newest version of name and returns the version id.
func (c *Client) Set(ctx context.Context, name, value, projectID string) (string, error) {
	return c.resolver(projectID).Set(ctx, name, value)
}

// resolver returns the resolver for a project override, creating it on first
// use. "" selects the discovery chain.
func (c *Client) resolver(projectID string) *resolve.Resolver {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.resolvers[projectID]; ok {
		return r
	}

	if c.cfg == nil {
		// Errors are already logged and leave an empty file behind.
		c.cfg, _ = config.Discover(c.configPath, c.logger)
	}

	var storeOpts []providers.Option
	if c.api != nil {
		storeOpts = append(storeOpts, providers.WithAPI(c.api))
	}
	store := c.cfg.SecretManager(projectID, storeOpts...)
	c.stores = append(c.stores, store)

	opts := []resolve.Option{
		resolve.WithLogger(c.logger),
		resolve.WithMetrics(c.metrics),
	}
	if c.lookupEnv != nil {
		opts = append(opts, resolve.WithEnvLookup(c.lookupEnv))
	}
	r := resolve.New(store, opts...)
	c.resolvers[projectID] = r
	return r
}

// Close releases SDK clients. The Client must not be used afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, s := range c.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.stores = nil
	c.resolvers = make(map[string]*resolve.Resolver)
	return errors.Join(errs...)
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Default returns the process-wide Client used by Get.
func Default() *Client {
	defaultOnce.Do(func() {
		defaultClient = New()
	})
	return defaultClient
}

// Get resolves name with the process-wide Client.
func Get(ctx context.Context, name, projectID string) (string, error) {
	return Default().Get(ctx, name, projectID)
}
