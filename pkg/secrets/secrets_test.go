package secrets_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/gcptoolkit/pkg/secrets"
	"github.com/systmms/gcptoolkit/tests/fakes"
	"github.com/systmms/gcptoolkit/tests/testutil"
)

// newClient isolates the user config and sets GCP_PROJECT, so callers
// cannot run in parallel.
func newClient(t *testing.T, fake *fakes.FakeGCPSecretManagerClient, env map[string]string, opts ...secrets.Option) *secrets.Client {
	t.Helper()

	testutil.IsolateConfig(t)
	testutil.SetupTestEnv(t, map[string]string{"GCP_PROJECT": "default-project"})

	base := []secrets.Option{
		secrets.WithQuiet(true),
		secrets.WithSecretManagerAPI(fake),
		secrets.WithEnvLookup(func(name string) (string, bool) {
			v, ok := env[name]
			return v, ok
		}),
	}
	c := secrets.New(append(base, opts...)...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_Get(t *testing.T) {
	fake := fakes.NewFakeGCPSecretManagerClient()
	fake.AddSecretString("default-project", "API_KEY", "abc")
	c := newClient(t, fake, nil)

	value, err := c.Get(context.Background(), "API_KEY", "")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)

	s, err := c.Resolve(context.Background(), "API_KEY", "")
	require.NoError(t, err)
	assert.True(t, s.Cached)
	assert.Equal(t, "default-project", s.ProjectID)
	assert.Equal(t, 1, fake.AccessCalls())
}

func TestClient_ProjectOverrideHasItsOwnCache(t *testing.T) {
	fake := fakes.NewFakeGCPSecretManagerClient()
	fake.AddSecretString("default-project", "DB_PASS", "default")
	fake.AddSecretString("other-project", "DB_PASS", "other")
	c := newClient(t, fake, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		v, err := c.Get(ctx, "DB_PASS", "")
		require.NoError(t, err)
		assert.Equal(t, "default", v)

		v, err = c.Get(ctx, "DB_PASS", "other-project")
		require.NoError(t, err)
		assert.Equal(t, "other", v)
	}

	assert.Equal(t, 2, fake.AccessCalls())
}

func TestClient_EnvFallbackAndNotFound(t *testing.T) {
	fake := fakes.NewFakeGCPSecretManagerClient()
	fake.AddError("projects/default-project/secrets/LOCAL_ONLY/versions/latest", fakes.GCPPermissionDeniedError("denied"))
	c := newClient(t, fake, map[string]string{"LOCAL_ONLY": "from-env"})

	s, err := c.Resolve(context.Background(), "LOCAL_ONLY", "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.Value)
	assert.Equal(t, "env", s.Source)

	_, err = c.Get(context.Background(), "NOWHERE", "")
	require.ErrorIs(t, err, secrets.ErrNotFound)
	kind, ok := secrets.FailureKind(err)
	require.True(t, ok)
	assert.Equal(t, secrets.KindNotFound, kind)
}

func TestClient_InvalidName(t *testing.T) {
	fake := fakes.NewFakeGCPSecretManagerClient()
	c := newClient(t, fake, map[string]string{"api.key": "x"})

	_, err := c.Get(context.Background(), "api.key", "")
	require.ErrorIs(t, err, secrets.ErrInvalidName)
	assert.Zero(t, fake.AccessCalls())
}

func TestClient_SetThenGet(t *testing.T) {
	fake := fakes.NewFakeGCPSecretManagerClient()
	c := newClient(t, fake, nil)

	version, err := c.Set(context.Background(), "FRESH", "value", "")
	require.NoError(t, err)
	assert.Equal(t, "1", version)

	value, err := c.Get(context.Background(), "FRESH", "")
	require.NoError(t, err)
	assert.Equal(t, "value", value)
	assert.Zero(t, fake.AccessCalls())
}

func TestClient_Close(t *testing.T) {
	fake := fakes.NewFakeGCPSecretManagerClient()
	fake.AddSecretString("default-project", "A", "1")
	c := newClient(t, fake, nil)

	_, err := c.Get(context.Background(), "A", "")
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.True(t, fake.Closed())
}

func TestClient_DiscoversConfigFile(t *testing.T) {
	testutil.IsolateConfig(t)

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("gcp:\n  project_id: file-project\n"), 0o600))

	fake := fakes.NewFakeGCPSecretManagerClient()
	fake.AddSecretString("file-project", "FROM_FILE_PROJECT", "yes")

	c := secrets.New(
		secrets.WithConfigPath(path),
		secrets.WithQuiet(true),
		secrets.WithSecretManagerAPI(fake),
	)
	value, err := c.Get(context.Background(), "FROM_FILE_PROJECT", "")
	require.NoError(t, err)
	assert.Equal(t, "yes", value)
}

func TestClient_FallbackWarningGoesToDiagnostics(t *testing.T) {
	var diag bytes.Buffer
	c := newClient(t, fakes.NewFakeGCPSecretManagerClient(), map[string]string{"TEST_SECRET": "value123"},
		secrets.WithQuiet(false),
		secrets.WithDiagnostics(&diag),
	)

	value, err := c.Get(context.Background(), "TEST_SECRET", "")
	require.NoError(t, err)
	assert.Equal(t, "value123", value)
	assert.Contains(t, diag.String(), "Secret 'TEST_SECRET' unavailable from GCP (not_found)")
	assert.NotContains(t, diag.String(), "\x1b[", "diagnostics writer output is uncolored")
}

func TestClient_QuietWritesNothing(t *testing.T) {
	var diag bytes.Buffer
	c := newClient(t, fakes.NewFakeGCPSecretManagerClient(), map[string]string{"TEST_SECRET": "value123"},
		secrets.WithDiagnostics(&diag),
	)

	_, err := c.Get(context.Background(), "TEST_SECRET", "")
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "ABSENT", "")
	require.ErrorIs(t, err, secrets.ErrNotFound)
	assert.Empty(t, diag.String())
}

func TestClient_QuietLeavesStderrAlone(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stderr := os.Stderr
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = stderr })

	c := newClient(t, fakes.NewFakeGCPSecretManagerClient(), map[string]string{"TEST_SECRET": "value123"})
	_, err = c.Get(context.Background(), "TEST_SECRET", "")
	require.NoError(t, err)

	os.Stderr = stderr
	require.NoError(t, w.Close())
	captured, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, string(captured))
}

func TestClient_NoColorEnv(t *testing.T) {
	testutil.IsolateConfig(t)
	t.Setenv("NO_COLOR", "1")

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stderr := os.Stderr
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = stderr })

	c := secrets.New(
		secrets.WithSecretManagerAPI(fakes.NewFakeGCPSecretManagerClient()),
		secrets.WithEnvLookup(func(name string) (string, bool) { return "value123", name == "TEST_SECRET" }),
	)
	_, err = c.Get(context.Background(), "TEST_SECRET", "")
	require.NoError(t, err)

	os.Stderr = stderr
	require.NoError(t, w.Close())
	captured, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(captured), "unavailable from GCP (project_not_resolved)")
	assert.NotContains(t, string(captured), "\x1b[")
}

func TestClient_MetricsRegistry(t *testing.T) {
	fake := fakes.NewFakeGCPSecretManagerClient()
	fake.AddSecretString("default-project", "API_KEY", "abc")
	reg := prometheus.NewRegistry()
	c := newClient(t, fake, nil, secrets.WithMetricsRegistry(reg))

	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), "API_KEY", "")
		require.NoError(t, err)
	}

	expected := `
# HELP gcptoolkit_secret_lookups_total Secret lookups by the source that answered them
# TYPE gcptoolkit_secret_lookups_total counter
gcptoolkit_secret_lookups_total{source="cache"} 2
gcptoolkit_secret_lookups_total{source="env"} 0
gcptoolkit_secret_lookups_total{source="gcp"} 1
gcptoolkit_secret_lookups_total{source="none"} 0
`
	assert.NoError(t, promtestutil.GatherAndCompare(reg, strings.NewReader(expected), "gcptoolkit_secret_lookups_total"))
}
