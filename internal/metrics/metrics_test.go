package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordLookup(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordLookup(SourceGCP)
	m.RecordLookup(SourceCache)
	m.RecordLookup(SourceCache)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookupsTotal.WithLabelValues(SourceGCP)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.lookupsTotal.WithLabelValues(SourceCache)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.lookupsTotal.WithLabelValues(SourceEnv)))
}

func TestMetrics_RecordRemote(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordRemote("access", "", 20*time.Millisecond)
	m.RecordRemote("access", "permission_denied", 30*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.remoteFailuresTotal.WithLabelValues("access", "permission_denied")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.remoteFailuresTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.fetchDuration))
}

func TestMetrics_RecordRemoteFailure(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordRemoteFailure("access", "project_not_resolved")
	m.RecordRemoteFailure("access", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.remoteFailuresTotal.WithLabelValues("access", "project_not_resolved")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.remoteFailuresTotal))
	assert.Equal(t, 0, testutil.CollectAndCount(m.fetchDuration), "no call was made, so no duration")
}

func TestMetrics_RecordWrite(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordWrite(true)
	m.RecordWrite(false)
	m.RecordWrite(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.writesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.writesTotal.WithLabelValues("failure")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordLookup(SourceEnv)
		m.RecordRemote("access", "unavailable", time.Second)
		m.RecordWrite(true)
		m.RecordRemoteFailure("add", "unauthenticated")
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordLookup(SourceEnv)

	path := filepath.Join(t.TempDir(), "gcptoolkit.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `gcptoolkit_secret_lookups_total{source="env"} 1`))
	assert.True(t, strings.Contains(string(data), `gcptoolkit_secret_lookups_total{source="gcp"} 0`))
}

func TestMetrics_WriteTextfileBadPath(t *testing.T) {
	t.Parallel()

	err := New().WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write metrics")
}

func TestMetrics_Gather(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordLookup(SourceNone)

	count, err := testutil.GatherAndCount(m.Registry(), "gcptoolkit_secret_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count, "one series per source")
}
