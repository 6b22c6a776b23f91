package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates that a required credential is missing or was rejected
	ErrConfiguration = errors.New("configuration error")

	// ErrSearchUnavailable indicates that the search capability failed to answer
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrToolNotFound indicates that a named capability is absent from the tool set
	ErrToolNotFound = errors.New("tool not found")

	// ErrAgentInvocation indicates that the final generation call failed
	ErrAgentInvocation = errors.New("agent invocation failed")
)

// ConfigurationError reports a missing or rejected credential. It matches
// ErrConfiguration with errors.Is.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("configuration error: %s is not set", e.Field)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError returns a ConfigurationError for field caused by err.
// A nil err means the field is simply absent.
func NewConfigurationError(field string, err error) error {
	return &ConfigurationError{Field: field, Err: err}
}

// AgentInvocationError wraps a failure raised while the agent was producing
// the final answer. It matches ErrAgentInvocation with errors.Is.
type AgentInvocationError struct {
	Err error
}

func (e *AgentInvocationError) Error() string {
	return fmt.Sprintf("agent invocation failed: %v", e.Err)
}

func (e *AgentInvocationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrAgentInvocation.
func (e *AgentInvocationError) Is(target error) bool {
	return target == ErrAgentInvocation
}

// Is is a passthrough to the standard library so callers need a single import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a passthrough to the standard library so callers need a single import.
func As(err error, target any) bool {
	return errors.As(err, target)
}
