// Package secrets is the library entry point to gcptoolkit's secret lookup.
//
// A lookup takes a secret name and an optional project id and returns the
// secret's value. Values come from Google Cloud Secret Manager; when Secret
// Manager cannot answer (missing secret, denied access, no credentials, no
// network, no project configured) the environment variable with the same name
// is used instead and a warning is logged.
//
// # Usage
//
//	value, err := secrets.Get(ctx, "DATABASE_PASSWORD", "")
//	if err != nil {
//	    return err
//	}
//
// Pass a project id to target a specific project; leave it empty to use the
// usual discovery order:
//
//  1. GCP_PROJECT
//  2. GOOGLE_CLOUD_PROJECT
//  3. GCLOUD_PROJECT
//  4. gcp.project_id in the gcptoolkit config file
//
// # Caching
//
// Every successful lookup is cached for the life of the Client (for Get, the
// life of the process). A cached name never reaches Secret Manager again.
// Failed lookups are not cached. Concurrent first lookups of one name share a
// single Secret Manager call. Each distinct project id gets its own cache.
//
// # Errors
//
// Invalid names (anything outside [A-Za-z0-9_-]) fail with an error matching
// ErrInvalidName before any lookup happens. When neither source has a value
// the error matches ErrNotFound, and FailureKind reports why Secret Manager
// could not answer.
//
// # Diagnostics
//
// The fallback warning goes to stderr, colored unless NO_COLOR is set.
// WithQuiet(true) silences it and WithDiagnostics sends it elsewhere:
//
//	client := secrets.New(secrets.WithQuiet(true))
//	defer client.Close()
//
// WithMetricsRegistry records lookup counts and Secret Manager latencies on a
// caller-owned Prometheus registry.
//
// # Configuration
//
// The config file is found the same way as the CLI finds it:
// GCPTOOLKIT_CONFIG, then the path saved with "gcptoolkit config set-path",
// then $XDG_CONFIG_HOME/gcptoolkit/config.yml. A broken file is logged and
// ignored.
package secrets
