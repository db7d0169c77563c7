package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Env holds the environment variables gcptoolkit reads for its own settings.
// Secret fallback values are looked up separately, by secret name.
type Env struct {
	// Project is the primary project override.
	Project string `envconfig:"GCP_PROJECT"`

	// GoogleCloudProject and GcloudProject are the names other Google
	// tooling sets; they are consulted after GCP_PROJECT.
	GoogleCloudProject string `envconfig:"GOOGLE_CLOUD_PROJECT"`
	GcloudProject      string `envconfig:"GCLOUD_PROJECT"`

	// ConfigPath points at a config file, overriding the saved preference.
	ConfigPath string `envconfig:"GCPTOOLKIT_CONFIG"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return env, nil
}
