package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/systmms/gcptoolkit/internal/providers"
)

// Process exit codes shared by every gcptoolkit command.
const (
	ExitOK      = 0
	ExitRuntime = 1
	ExitUsage   = 2
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// UsageError is a caller mistake detected before any I/O: a malformed secret
// name, an empty value, a missing argument. It always maps to ExitUsage.
type UsageError struct {
	Message    string
	Suggestion string
	Err        error
}

func (e UsageError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}
	return msg
}

func (e UsageError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
	Err        error
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

func (e ConfigError) Unwrap() error {
	return e.Err
}

// IsUsage reports whether err, or anything it wraps, is a UsageError.
func IsUsage(err error) bool {
	var usage UsageError
	if errors.As(err, &usage) {
		return true
	}
	var usagePtr *UsageError
	return errors.As(err, &usagePtr)
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsUsage(err):
		return ExitUsage
	default:
		return ExitRuntime
	}
}

// StoreError enhances Secret Manager errors with context
func StoreError(operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("Secret Manager error during %s", operation),
		Suggestion: StoreSuggestion(err),
		Err:        err,
	}
}

// StoreSuggestion returns a hint for a Secret Manager failure based on its
// failure kind.
func StoreSuggestion(err error) string {
	if err == nil {
		return ""
	}

	if kind, ok := providers.KindOf(err); ok {
		switch kind {
		case providers.KindPermissionDenied:
			return "Check IAM permissions: secretmanager.versions.access (and secretmanager.secrets.create for writes)"
		case providers.KindNotFound:
			return "Verify the secret name and project ID. Check that the secret exists"
		case providers.KindUnauthenticated:
			return "Check authentication: set authentication.service_account_path in the config file or run 'gcloud auth application-default login'"
		case providers.KindProjectNotResolved:
			return "Set GCP_PROJECT, pass --project-id, or configure gcp.project_id in the config file"
		case providers.KindUnavailable:
			if errors.Is(err, context.DeadlineExceeded) {
				return "The operation timed out. Check your network connection and try again"
			}
			return "Unable to connect. Check your network and proxy configuration"
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "The operation timed out. Check your network connection and try again"
	}
	return ""
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	switch err.(type) {
	case UserError, UsageError, ConfigError:
		return err
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "json:") {
		return ConfigError{
			Message:    "Invalid JSON format",
			Suggestion: "Check the preferences file for syntax errors or remove it",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	// Return original error if we can't simplify it
	return err
}
