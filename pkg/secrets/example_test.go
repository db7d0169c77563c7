package secrets_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/systmms/gcptoolkit/pkg/secrets"
	"github.com/systmms/gcptoolkit/tests/fakes"
)

func ExampleClient_Get() {
	fake := fakes.NewFakeGCPSecretManagerClient()
	fake.AddSecretString("my-project", "DATABASE_PASSWORD", "s3cr3t")

	client := secrets.New(
		secrets.WithQuiet(true),
		secrets.WithSecretManagerAPI(fake),
	)
	defer client.Close()

	value, err := client.Get(context.Background(), "DATABASE_PASSWORD", "my-project")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(value)

	// Output:
	// s3cr3t
}

func ExampleClient_Resolve_fallback() {
	fake := fakes.NewFakeGCPSecretManagerClient()

	client := secrets.New(
		secrets.WithQuiet(true),
		secrets.WithSecretManagerAPI(fake),
		secrets.WithEnvLookup(func(name string) (string, bool) {
			if name == "TEST_SECRET" {
				return "value123", true
			}
			return "", false
		}),
	)

	s, _ := client.Resolve(context.Background(), "TEST_SECRET", "my-project")
	fmt.Println(s.Value, s.Source)

	_, err := client.Get(context.Background(), "ABSENT", "my-project")
	fmt.Println(errors.Is(err, secrets.ErrNotFound))

	// Output:
	// value123 env
	// true
}
