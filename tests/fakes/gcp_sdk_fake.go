package fakes

import (
	"context"
	"fmt"
	"hash/crc32"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// FakeGCPSecretManagerClient is an in-memory stand-in for *secretmanager.Client.
// It is safe for concurrent use and counts every call so tests can assert how
// often the store was hit.
type FakeGCPSecretManagerClient struct {
	mu sync.Mutex

	// Secrets maps full resource names (projects/X/secrets/Y) to their data
	Secrets map[string]*GCPSecretData
	// Versions maps version resource names (projects/X/secrets/Y/versions/Z) to their data
	Versions map[string]*GCPSecretVersionData
	// Errors maps resource names to errors to return
	Errors map[string]error

	// AccessSecretVersionFunc allows custom behavior for AccessSecretVersion
	AccessSecretVersionFunc func(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)

	// Delay is applied to every AccessSecretVersion call before it answers.
	Delay time.Duration

	accessCalls int
	createCalls int
	addCalls    int
	closed      bool
}

// GCPSecretData holds the data for a mock GCP secret
type GCPSecretData struct {
	Name        string
	CreateTime  *timestamppb.Timestamp
	Replication *secretmanagerpb.Replication
}

// GCPSecretVersionData holds version-specific data for a GCP secret
type GCPSecretVersionData struct {
	Name       string
	State      secretmanagerpb.SecretVersion_State
	CreateTime *timestamppb.Timestamp
	Data       []byte
}

// NewFakeGCPSecretManagerClient creates a new mock GCP Secret Manager client
func NewFakeGCPSecretManagerClient() *FakeGCPSecretManagerClient {
	return &FakeGCPSecretManagerClient{
		Secrets:  make(map[string]*GCPSecretData),
		Versions: make(map[string]*GCPSecretVersionData),
		Errors:   make(map[string]error),
	}
}

// AddSecretString adds a string secret reachable as "latest" and "1".
func (f *FakeGCPSecretManagerClient) AddSecretString(projectID, secretName, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	secretFullName := fmt.Sprintf("projects/%s/secrets/%s", projectID, secretName)
	now := timestamppb.New(time.Now())
	if _, exists := f.Secrets[secretFullName]; !exists {
		f.Secrets[secretFullName] = &GCPSecretData{Name: secretFullName, CreateTime: now}
	}
	for _, version := range []string{"latest", "1"} {
		name := secretFullName + "/versions/" + version
		f.Versions[name] = &GCPSecretVersionData{
			Name:       name,
			State:      secretmanagerpb.SecretVersion_ENABLED,
			CreateTime: now,
			Data:       []byte(value),
		}
	}
}

// AddError configures the mock to return an error for a specific resource
func (f *FakeGCPSecretManagerClient) AddError(resourceName string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[resourceName] = err
}

// AccessCalls returns how many times AccessSecretVersion was called.
func (f *FakeGCPSecretManagerClient) AccessCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accessCalls
}

// CreateCalls returns how many times CreateSecret was called.
func (f *FakeGCPSecretManagerClient) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

// AddCalls returns how many times AddSecretVersion was called.
func (f *FakeGCPSecretManagerClient) AddCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCalls
}

// Closed reports whether Close was called.
func (f *FakeGCPSecretManagerClient) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// AccessSecretVersion mocks the AccessSecretVersion operation. Payloads carry
// a CRC32C checksum like the real service.
func (f *FakeGCPSecretManagerClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.mu.Lock()
	f.accessCalls++
	custom := f.AccessSecretVersionFunc
	delay := f.Delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		}
	}

	if custom != nil {
		return custom(ctx, req)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Check for configured errors
	if err, exists := f.Errors[req.Name]; exists {
		return nil, err
	}

	// Check if version exists
	version, exists := f.Versions[req.Name]
	if !exists {
		return nil, status.Errorf(codes.NotFound, "Secret [%s] not found or has no versions", req.Name)
	}
	if version.State != secretmanagerpb.SecretVersion_ENABLED {
		return nil, status.Errorf(codes.FailedPrecondition, "Secret Version [%s] is in %s state", req.Name, version.State)
	}

	return &secretmanagerpb.AccessSecretVersionResponse{
		Name: version.Name,
		Payload: &secretmanagerpb.SecretPayload{
			Data:       version.Data,
			DataCrc32C: proto.Int64(Checksum(version.Data)),
		},
	}, nil
}

// CreateSecret mocks the CreateSecret operation
func (f *FakeGCPSecretManagerClient) CreateSecret(_ context.Context, req *secretmanagerpb.CreateSecretRequest, _ ...gax.CallOption) (*secretmanagerpb.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++

	fullName := req.Parent + "/secrets/" + req.SecretId
	if err, exists := f.Errors[fullName]; exists {
		return nil, err
	}
	if _, exists := f.Secrets[fullName]; exists {
		return nil, status.Errorf(codes.AlreadyExists, "Secret [%s] already exists", fullName)
	}

	data := &GCPSecretData{
		Name:        fullName,
		CreateTime:  timestamppb.New(time.Now()),
		Replication: req.GetSecret().GetReplication(),
	}
	f.Secrets[fullName] = data

	return &secretmanagerpb.Secret{
		Name:        data.Name,
		CreateTime:  data.CreateTime,
		Replication: data.Replication,
	}, nil
}

// AddSecretVersion mocks the AddSecretVersion operation. The new version also
// becomes "latest".
func (f *FakeGCPSecretManagerClient) AddSecretVersion(_ context.Context, req *secretmanagerpb.AddSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.SecretVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++

	// Check for configured errors
	if err, exists := f.Errors[req.Parent]; exists {
		return nil, err
	}

	// Ensure secret exists
	if _, exists := f.Secrets[req.Parent]; !exists {
		return nil, status.Errorf(codes.NotFound, "Secret [%s] not found", req.Parent)
	}

	if sum := req.GetPayload().DataCrc32C; sum != nil && *sum != Checksum(req.GetPayload().GetData()) {
		return nil, status.Error(codes.InvalidArgument, "Data integrity check failed")
	}

	// Generate new version number
	versionNum := 1
	for versionName := range f.Versions {
		if strings.HasPrefix(versionName, req.Parent+"/versions/") && !strings.HasSuffix(versionName, "/latest") {
			versionNum++
		}
	}

	now := timestamppb.New(time.Now())
	versionName := fmt.Sprintf("%s/versions/%d", req.Parent, versionNum)
	for _, name := range []string{versionName, req.Parent + "/versions/latest"} {
		f.Versions[name] = &GCPSecretVersionData{
			Name:       versionName,
			State:      secretmanagerpb.SecretVersion_ENABLED,
			CreateTime: now,
			Data:       append([]byte(nil), req.GetPayload().GetData()...),
		}
	}

	return &secretmanagerpb.SecretVersion{
		Name:       versionName,
		CreateTime: now,
		State:      secretmanagerpb.SecretVersion_ENABLED,
	}, nil
}

// Close records that the client was closed.
func (f *FakeGCPSecretManagerClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

var crc32c = crc32.MakeTable(crc32.Castagnoli)

// Checksum computes the CRC32C value Secret Manager attaches to payloads.
func Checksum(data []byte) int64 {
	return int64(crc32.Checksum(data, crc32c))
}

// GCP error helpers

// GCPNotFoundError creates a mock GCP not found error
func GCPNotFoundError(resourceName string) error {
	return status.Errorf(codes.NotFound, "Resource %s not found", resourceName)
}

// GCPPermissionDeniedError creates a mock GCP permission denied error
func GCPPermissionDeniedError(message string) error {
	return status.Error(codes.PermissionDenied, message)
}

// GCPUnauthenticatedError creates a mock GCP unauthenticated error
func GCPUnauthenticatedError(message string) error {
	return status.Error(codes.Unauthenticated, message)
}

// GCPUnavailableError creates a mock GCP transport failure
func GCPUnavailableError(message string) error {
	return status.Error(codes.Unavailable, message)
}

// GCPResourceExhaustedError creates a mock GCP resource exhausted (throttled) error
func GCPResourceExhaustedError() error {
	return status.Errorf(codes.ResourceExhausted, "Quota exceeded")
}
