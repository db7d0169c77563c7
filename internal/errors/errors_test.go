package errors_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/gcptoolkit/internal/errors"
	"github.com/systmms/gcptoolkit/internal/providers"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Connection timeout")
	assert.Contains(t, errMsg, "Check network connectivity")
	assert.Contains(t, errMsg, "💡")
}

func TestUserErrorFallsBackToWrapped(t *testing.T) {
	t.Parallel()

	inner := fmt.Errorf("boom")
	err := errors.UserError{Err: inner}

	assert.Equal(t, "boom", err.Error())
	assert.ErrorIs(t, err, inner)
}

// TestConfigErrorFormatting verifies ConfigError displays with context
func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "authentication.type",
		Value:      "oauth",
		Message:    "unsupported authentication type",
		Suggestion: "Use type: service_account",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "authentication.type")
	assert.Contains(t, errMsg, "oauth")
	assert.Contains(t, errMsg, "unsupported authentication type")
	assert.Contains(t, errMsg, "service_account")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	sentinel := stderrors.New("invalid name")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, errors.ExitOK},
		{"plain runtime error", fmt.Errorf("network down"), errors.ExitRuntime},
		{"user error", errors.UserError{Message: "x"}, errors.ExitRuntime},
		{"usage error", errors.UsageError{Message: "bad"}, errors.ExitUsage},
		{"usage error pointer", &errors.UsageError{Message: "bad"}, errors.ExitUsage},
		{"wrapped usage error", fmt.Errorf("get: %w", errors.UsageError{Err: sentinel}), errors.ExitUsage},
		{"config error", errors.ConfigError{Message: "bad yaml"}, errors.ExitRuntime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.ExitCode(tt.err))
		})
	}
}

func TestUsageErrorUnwrap(t *testing.T) {
	t.Parallel()

	sentinel := stderrors.New("invalid secret name")
	err := errors.UsageError{Message: "Invalid secret name 'api.key'", Suggestion: "Use letters", Err: sentinel}

	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "api.key")
	assert.Contains(t, err.Error(), "Use letters")
}

func TestStoreSuggestion(t *testing.T) {
	t.Parallel()

	remote := func(kind providers.Kind, secret string, cause error) error {
		return fmt.Errorf("write: %w", &providers.RemoteError{Kind: kind, Secret: secret, Project: "p", Err: cause})
	}

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"permission denied", remote(providers.KindPermissionDenied, "API_KEY", fmt.Errorf("denied")), "IAM permissions"},
		{"not found", remote(providers.KindNotFound, "API_KEY", fmt.Errorf("missing")), "Verify the secret name"},
		{"unauthenticated", remote(providers.KindUnauthenticated, "API_KEY", fmt.Errorf("no token")), "gcloud auth"},
		{"project not resolved", remote(providers.KindProjectNotResolved, "", providers.ErrProjectNotResolved), "GCP_PROJECT"},
		{"deadline", remote(providers.KindUnavailable, "API_KEY", context.DeadlineExceeded), "timed out"},
		{"unavailable", remote(providers.KindUnavailable, "API_KEY", fmt.Errorf("dial tcp: connection refused")), "Unable to connect"},
		{"bare deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), "timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, errors.StoreSuggestion(tt.err), tt.contains)
		})
	}

	assert.Empty(t, errors.StoreSuggestion(nil))
	assert.Empty(t, errors.StoreSuggestion(fmt.Errorf("something odd")))
}

func TestStoreSuggestionIgnoresSecretNames(t *testing.T) {
	t.Parallel()

	err := remote403("project_x")
	got := errors.StoreSuggestion(err)
	assert.Contains(t, got, "IAM permissions")
	assert.NotContains(t, got, "GCP_PROJECT")

	// Text that merely mentions a kind carries no hint.
	assert.Empty(t, errors.StoreSuggestion(fmt.Errorf("rpc error: code = PermissionDenied for project_x")))
}

func remote403(secret string) error {
	return &providers.RemoteError{Kind: providers.KindPermissionDenied, Secret: secret, Project: "p", Err: fmt.Errorf("denied")}
}

func TestStoreErrorWrapsCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("rpc error: code = PermissionDenied desc = nope")
	err := errors.StoreError("write", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Secret Manager error during write")
	assert.Equal(t, errors.ExitRuntime, errors.ExitCode(err))
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.SimplifyError(nil))

	usage := errors.UsageError{Message: "bad"}
	assert.Equal(t, usage, errors.SimplifyError(usage))

	yamlErr := errors.SimplifyError(fmt.Errorf("load: %w", fmt.Errorf("yaml: line 3: mapping values are not allowed")))
	assert.IsType(t, errors.ConfigError{}, yamlErr)

	missing := errors.SimplifyError(fmt.Errorf("open: %w", &fs.PathError{Op: "open", Path: "/x", Err: syscall.ENOENT}))
	assert.Contains(t, missing.Error(), "not found")

	other := fmt.Errorf("something else")
	assert.Equal(t, other, errors.SimplifyError(other))
}
