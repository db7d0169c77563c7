package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TestGCPSecretManagerResourceNames tests GCP resource name construction.
func TestGCPSecretManagerResourceNames(t *testing.T) {
	tests := []struct {
		name     string
		project  string
		secret   string
		version  string
		expected string
	}{
		{"latest", "my-project-123", "database-password", "latest", "projects/my-project-123/secrets/database-password/versions/latest"},
		{"numeric version", "p", "api_key", "7", "projects/p/secrets/api_key/versions/7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, versionResourceName(tt.project, tt.secret, tt.version))
		})
	}

	assert.Equal(t, "projects/p/secrets/s", secretResourceName("p", "s"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", status.Error(codes.NotFound, "Secret [x] not found"), KindNotFound},
		{"disabled version", status.Error(codes.FailedPrecondition, "is in DISABLED state"), KindNotFound},
		{"permission denied", status.Error(codes.PermissionDenied, "denied"), KindPermissionDenied},
		{"unauthenticated", status.Error(codes.Unauthenticated, "no token"), KindUnauthenticated},
		{"unavailable", status.Error(codes.Unavailable, "connection reset"), KindUnavailable},
		{"throttled", status.Error(codes.ResourceExhausted, "quota"), KindUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "deadline"), KindUnavailable},
		{"context deadline", fmt.Errorf("dial: %w", context.DeadlineExceeded), KindUnavailable},
		{"context canceled", context.Canceled, KindUnavailable},
		{"plain error", errors.New("no such host"), KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "permission_denied", KindPermissionDenied.String())
	assert.Equal(t, "unavailable", KindUnavailable.String())
	assert.Equal(t, "unauthenticated", KindUnauthenticated.String())
	assert.Equal(t, "project_not_resolved", KindProjectNotResolved.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestRemoteErrorFormatting(t *testing.T) {
	cause := errors.New("boom")

	err := &RemoteError{Kind: KindNotFound, Secret: "API_KEY", Project: "p1", Err: cause}
	assert.Equal(t, "gcp not_found for API_KEY in p1: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	err = &RemoteError{Kind: KindProjectNotResolved, Err: ErrProjectNotResolved}
	assert.Contains(t, err.Error(), "gcp project_not_resolved")

	kind, ok := KindOf(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, KindProjectNotResolved, kind)

	_, ok = KindOf(cause)
	assert.False(t, ok)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	got, err := expandHome("~/keys/sa.json")
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/keys/sa.json", got)

	got, err = expandHome("/abs/sa.json")
	require.NoError(t, err)
	assert.Equal(t, "/abs/sa.json", got)
}

func TestLazyClientCreationFailureIsNotCached(t *testing.T) {
	calls := 0
	p := NewGCPSecretManager(GCPSecretManagerConfig{})
	p.newClient = func(context.Context, GCPSecretManagerConfig) (SecretManagerAPI, error) {
		calls++
		return nil, errors.New("google: could not find default credentials")
	}

	_, err := p.Fetch(context.Background(), "p", "NAME")
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindUnauthenticated, kind)

	_, err = p.Fetch(context.Background(), "p", "NAME")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}
