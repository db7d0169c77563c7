// Package fakes provides test doubles for the Secret Manager client.
//
// Fakes are written by hand rather than generated so tests keep precise
// control over responses, injected errors and latency.
//
// Usage:
//
//	fake := fakes.NewFakeGCPSecretManagerClient()
//	fake.AddSecretString("my-project", "API_KEY", "s3cr3t")
//	fake.AddError("projects/my-project/secrets/DENIED/versions/latest",
//	    fakes.GCPPermissionDeniedError("denied"))
//	store := providers.NewGCPSecretManager(cfg, providers.WithAPI(fake))
package fakes
