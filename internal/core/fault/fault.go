// Package fault defines the error taxonomy shared by all services.
// Every rejected operation maps to exactly one of these kinds so callers
// (CLI, future transports) can translate them uniformly.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure.
type Kind string

const (
	// Validation marks malformed or missing caller input. Never retried.
	Validation Kind = "validation"
	// InvalidTransition marks an operation that is not legal in the
	// current workflow/request state. State is left unchanged.
	InvalidTransition Kind = "invalid_transition"
	// NotFound marks an unknown entity id.
	NotFound Kind = "not_found"
	// CollaboratorFailure marks an external collaborator error or timeout.
	// Recoverable via an explicit owner retry.
	CollaboratorFailure Kind = "collaborator_failure"
	// DuplicateVolunteer marks a repeated volunteer submission for the
	// same request by the same user.
	DuplicateVolunteer Kind = "duplicate_volunteer"
	// Conflict marks a concurrency or uniqueness violation.
	Conflict Kind = "conflict"
)

// Fault is an error carrying a taxonomy kind.
type Fault struct {
	Kind    Kind
	Message string
}

func (f *Fault) Error() string {
	return f.Message
}

// New creates a fault of the given kind.
func New(kind Kind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is (or wraps) a fault of the given kind.
func IsKind(err error, kind Kind) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or empty string for non-fault errors.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
