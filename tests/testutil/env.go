package testutil

import (
	"testing"
)

// gcptoolkitEnv lists every variable gcptoolkit reads for its own settings.
var gcptoolkitEnv = []string{
	"GCP_PROJECT",
	"GOOGLE_CLOUD_PROJECT",
	"GCLOUD_PROJECT",
	"GCPTOOLKIT_CONFIG",
}

// SetupTestEnv sets environment variables for the duration of a test.
//
// Values are restored when the test completes. Tests that call this cannot
// run in parallel.
//
// Example usage:
//
//	SetupTestEnv(t, map[string]string{
//	    "GCP_PROJECT": "my-project",
//	})
func SetupTestEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for key, value := range vars {
		t.Setenv(key, value)
	}
}

// IsolateConfig points the user config directory at a fresh temp dir and
// blanks the project and config-path variables, so a test sees no saved
// preferences, no config file and no ambient project. It returns the
// config directory.
func IsolateConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	vars := map[string]string{"XDG_CONFIG_HOME": dir}
	for _, key := range gcptoolkitEnv {
		vars[key] = ""
	}
	SetupTestEnv(t, vars)
	return dir
}
