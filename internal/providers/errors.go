package providers

import (
	"errors"
	"fmt"
)

// Kind classifies why a remote call failed.
type Kind int

const (
	// KindNotFound means the name has no corresponding secret (or no usable version).
	KindNotFound Kind = iota + 1
	// KindPermissionDenied means the caller lacks access.
	KindPermissionDenied
	// KindUnavailable covers network and transport failures.
	KindUnavailable
	// KindUnauthenticated means no usable credentials.
	KindUnauthenticated
	// KindProjectNotResolved means no project id could be determined.
	KindProjectNotResolved
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindUnavailable:
		return "unavailable"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindProjectNotResolved:
		return "project_not_resolved"
	default:
		return "unknown"
	}
}

// Sentinel causes carried inside a RemoteError.
var (
	ErrProjectNotResolved = errors.New("project id not resolved: set GCP_PROJECT, pass --project-id, or configure gcp.project_id")
	ErrEmptyPayload       = errors.New("secret has no data")
	ErrChecksumMismatch   = errors.New("secret payload failed CRC32C verification")
)

// RemoteError wraps a Secret Manager failure with its classification.
type RemoteError struct {
	Kind    Kind
	Secret  string
	Project string
	Err     error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Secret != "" && e.Project != "":
		return fmt.Sprintf("gcp %s for %s in %s: %v", e.Kind, e.Secret, e.Project, e.Err)
	case e.Secret != "":
		return fmt.Sprintf("gcp %s for %s: %v", e.Kind, e.Secret, e.Err)
	default:
		return fmt.Sprintf("gcp %s: %v", e.Kind, e.Err)
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}
