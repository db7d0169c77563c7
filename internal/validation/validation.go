// Package validation holds the input checks that run before any network or
// environment access. A request that fails here never reaches the store.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	dserrors "github.com/systmms/gcptoolkit/internal/errors"
)

// NamePattern is the Secret Manager secret-id alphabet.
var NamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var (
	// ErrInvalidName is wrapped by every name validation failure.
	ErrInvalidName = errors.New("invalid secret name")
	// ErrEmptyValue is wrapped by every value validation failure.
	ErrEmptyValue = errors.New("secret value cannot be empty")
)

var nameRules = []validation.Rule{
	validation.Required.Error("cannot be empty"),
	validation.Match(NamePattern).Error("must contain only letters, numbers, underscores and hyphens"),
}

// ValidateName checks that name is a non-empty string over [A-Za-z0-9_-].
// Matching is case-sensitive and there is no length limit.
func ValidateName(name string) error {
	if err := validation.Validate(name, nameRules...); err != nil {
		if name == "" {
			return dserrors.UsageError{
				Message:    "Secret name cannot be empty",
				Suggestion: "Secret names must match: [a-zA-Z0-9_-]",
				Err:        ErrInvalidName,
			}
		}
		return dserrors.UsageError{
			Message: fmt.Sprintf("Invalid secret name '%s': %v", name, err),
			Suggestion: "Use letters, numbers, underscores (_) and hyphens (-), e.g. MY_SECRET or api-key-prod. " +
				"Dots, spaces and characters like @ $ ! are not allowed",
			Err: ErrInvalidName,
		}
	}
	return nil
}

// ValidateValue rejects empty and whitespace-only values. The store refuses
// empty payloads; checking locally gives an actionable message instead.
func ValidateValue(value string) error {
	if err := validation.Validate(strings.TrimSpace(value), validation.Required); err != nil {
		return dserrors.UsageError{
			Message:    "Secret value cannot be empty",
			Suggestion: "Secret Manager does not allow empty payloads. Use a placeholder such as 'UNSET' if needed",
			Err:        ErrEmptyValue,
		}
	}
	return nil
}
