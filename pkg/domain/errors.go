package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when the requested target is not an option of the current node.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrUnknownNode is returned when a path references an id absent from the graph.
var ErrUnknownNode = errors.New("unknown node")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrServiceUnavailable is returned when the AI assistant cannot produce an answer.
var ErrServiceUnavailable = errors.New("service unavailable")

// ErrSyncTimeout is returned when the upstream performance system does not answer in time.
var ErrSyncTimeout = errors.New("sync timeout")

var (
	// ErrMissingCredentials is returned when a login omits the NIP or the password.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidCredentials is returned when the NIP/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateUser is returned when creating a user whose NIP is already registered.
	ErrDuplicateUser = errors.New("user already registered")
	// ErrNotFound is returned by the helpdesk stores for a missing record.
	ErrNotFound = errors.New("not found")
)

// InvalidTransitionError carries the offending transition.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from '%s' to '%s'", e.From, e.To)
}

// Is lets errors.Is match ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// UnknownNodeError carries the id missing from the graph.
type UnknownNodeError struct {
	ID string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node '%s'", e.ID)
}

// Is lets errors.Is match ErrUnknownNode.
func (e *UnknownNodeError) Is(target error) bool {
	return target == ErrUnknownNode
}
