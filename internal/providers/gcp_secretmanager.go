package providers

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/systmms/gcptoolkit/internal/logging"
)

// SecretManagerAPI is the subset of *secretmanager.Client the toolkit uses.
type SecretManagerAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error)
	AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.SecretVersion, error)
	Close() error
}

var _ SecretManagerAPI = (*secretmanager.Client)(nil)

// ProjectResolver returns a project id and whether one was found.
type ProjectResolver func() (string, bool)

// GCPSecretManagerConfig holds GCP Secret Manager-specific configuration
type GCPSecretManagerConfig struct {
	ServiceAccountKeyPath string
	ImpersonateAccount    string
}

// GCPSecretManager reads and writes secrets in Google Cloud Secret Manager.
// The SDK client is created lazily on first use, so constructing one never
// touches the network or credentials.
type GCPSecretManager struct {
	config  GCPSecretManagerConfig
	project ProjectResolver
	logger  *logging.Logger

	mu        sync.Mutex
	client    SecretManagerAPI
	newClient func(ctx context.Context, cfg GCPSecretManagerConfig) (SecretManagerAPI, error)
}

// Option configures a GCPSecretManager.
type Option func(*GCPSecretManager)

// WithAPI injects a ready client, bypassing credential discovery.
func WithAPI(api SecretManagerAPI) Option {
	return func(p *GCPSecretManager) {
		p.client = api
	}
}

// WithProjectResolver sets how the target project is found.
func WithProjectResolver(r ProjectResolver) Option {
	return func(p *GCPSecretManager) {
		p.project = r
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *GCPSecretManager) {
		p.logger = l
	}
}

// NewGCPSecretManager creates a new GCP Secret Manager client wrapper
func NewGCPSecretManager(cfg GCPSecretManagerConfig, opts ...Option) *GCPSecretManager {
	p := &GCPSecretManager{
		config:    cfg,
		project:   func() (string, bool) { return "", false },
		logger:    logging.Discard(),
		newClient: createSecretManagerClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// createSecretManagerClient creates a GCP Secret Manager client
func createSecretManagerClient(ctx context.Context, cfg GCPSecretManagerConfig) (SecretManagerAPI, error) {
	var clientOptions []option.ClientOption

	// Service account key file
	if cfg.ServiceAccountKeyPath != "" {
		keyPath, err := expandHome(cfg.ServiceAccountKeyPath)
		if err != nil {
			return nil, err
		}
		clientOptions = append(clientOptions, option.WithCredentialsFile(keyPath))
	}

	// Service account impersonation
	if cfg.ImpersonateAccount != "" {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: cfg.ImpersonateAccount,
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		}, clientOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to create impersonated credentials: %w", err)
		}
		clientOptions = []option.ClientOption{option.WithTokenSource(ts)}
	}

	return secretmanager.NewClient(ctx, clientOptions...)
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// api returns the SDK client, creating it on first use. A failed creation is
// not remembered; the next call tries again.
func (p *GCPSecretManager) api(ctx context.Context) (SecretManagerAPI, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	client, err := p.newClient(ctx, p.config)
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

// ProjectID resolves the target project. It fails with a RemoteError of kind
// KindProjectNotResolved when no resolver yields a value.
func (p *GCPSecretManager) ProjectID() (string, error) {
	if id, ok := p.project(); ok && id != "" {
		return id, nil
	}
	return "", &RemoteError{
		Kind: KindProjectNotResolved,
		Err:  ErrProjectNotResolved,
	}
}

// Fetch reads the latest version of the named secret in project. It makes
// exactly one request and never retries. Every failure is a *RemoteError.
func (p *GCPSecretManager) Fetch(ctx context.Context, project, name string) (string, error) {
	client, err := p.api(ctx)
	if err != nil {
		return "", &RemoteError{Kind: KindUnauthenticated, Secret: name, Project: project, Err: err}
	}

	resourceName := versionResourceName(project, name, "latest")
	p.logger.Debug("Accessing GCP secret: %s", resourceName)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", &RemoteError{Kind: classify(err), Secret: name, Project: project, Err: err}
	}

	if result.GetPayload() == nil || len(result.GetPayload().GetData()) == 0 {
		return "", &RemoteError{Kind: KindNotFound, Secret: name, Project: project, Err: ErrEmptyPayload}
	}

	data := result.GetPayload().GetData()
	if want := result.GetPayload().DataCrc32C; want != nil && checksum(data) != *want {
		return "", &RemoteError{Kind: KindUnavailable, Secret: name, Project: project, Err: ErrChecksumMismatch}
	}

	return string(data), nil
}

// Store adds a new version holding value to the named secret, creating the
// secret with automatic replication when it does not exist yet. It returns
// the new version id.
func (p *GCPSecretManager) Store(ctx context.Context, project, name, value string) (string, error) {
	client, err := p.api(ctx)
	if err != nil {
		return "", &RemoteError{Kind: KindUnauthenticated, Secret: name, Project: project, Err: err}
	}

	data := []byte(value)
	req := &secretmanagerpb.AddSecretVersionRequest{
		Parent: secretResourceName(project, name),
		Payload: &secretmanagerpb.SecretPayload{
			Data:       data,
			DataCrc32C: proto.Int64(checksum(data)),
		},
	}

	result, err := client.AddSecretVersion(ctx, req)
	if status.Code(err) == codes.NotFound {
		p.logger.Debug("Secret %s does not exist in %s, creating it", name, project)
		if err := p.create(ctx, client, project, name); err != nil {
			return "", err
		}
		result, err = client.AddSecretVersion(ctx, req)
	}
	if err != nil {
		return "", &RemoteError{Kind: classify(err), Secret: name, Project: project, Err: err}
	}

	// Format: projects/PROJECT/secrets/SECRET/versions/VERSION
	parts := strings.Split(result.GetName(), "/")
	if len(parts) >= 6 {
		return parts[5], nil
	}
	return "latest", nil
}

func (p *GCPSecretManager) create(ctx context.Context, client SecretManagerAPI, project, name string) error {
	_, err := client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   "projects/" + project,
		SecretId: name,
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	// Someone else created it between our two calls; that's fine.
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return &RemoteError{Kind: classify(err), Secret: name, Project: project, Err: err}
	}
	return nil
}

// Close releases the SDK client if one was created.
func (p *GCPSecretManager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}

func secretResourceName(project, name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", project, name)
}

func versionResourceName(project, name, version string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, name, version)
}

var crc32c = crc32.MakeTable(crc32.Castagnoli)

func checksum(data []byte) int64 {
	return int64(crc32.Checksum(data, crc32c))
}

// classify maps an SDK error onto a failure kind.
func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindUnavailable
	}

	switch status.Code(err) {
	case codes.NotFound, codes.FailedPrecondition:
		// FailedPrecondition is what a disabled or destroyed latest version returns.
		return KindNotFound
	case codes.PermissionDenied:
		return KindPermissionDenied
	case codes.Unauthenticated:
		return KindUnauthenticated
	default:
		return KindUnavailable
	}
}
