package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
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

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
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

// ValidationError indicates a malformed or incomplete input row.
// It aborts only the record it belongs to, never the batch.
type ValidationError struct {
	Line    int
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	msg := "validation failed"
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" for field '%s'", e.Field)
	}
	return msg + ": " + e.Message
}

// AmbiguousMatchError indicates more than one remote account survived
// lookup filtering. Duplicate accounts are a data-integrity problem the
// engine refuses to silently resolve by picking one.
type AmbiguousMatchError struct {
	Safe     string
	Criteria string
	Count    int
}

func (e AmbiguousMatchError) Error() string {
	return fmt.Sprintf("found %d accounts in safe '%s' matching %s; refusing to pick one", e.Count, e.Safe, e.Criteria)
}

// ContainerCreateError indicates the vault rejected a safe creation.
// Non-fatal to the batch; only the current record is abandoned.
type ContainerCreateError struct {
	Safe string
	Err  error
}

func (e ContainerCreateError) Error() string {
	return fmt.Sprintf("failed to create safe '%s': %v", e.Safe, e.Err)
}

func (e ContainerCreateError) Unwrap() error {
	return e.Err
}

// RemoteWriteError indicates the vault rejected a create, update, delete
// or secret rotation call for a single account.
type RemoteWriteError struct {
	Operation string
	Err       error
}

func (e RemoteWriteError) Error() string {
	return fmt.Sprintf("vault rejected %s: %v", e.Operation, e.Err)
}

func (e RemoteWriteError) Unwrap() error {
	return e.Err
}

// AuthenticationError is fatal: it aborts the entire run before any
// records are processed.
type AuthenticationError struct {
	Err error
}

func (e AuthenticationError) Error() string {
	return fmt.Sprintf("vault authentication failed: %v", e.Err)
}

func (e AuthenticationError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether an error must abort the whole run rather than
// a single record. Only authentication and template-safe preparation
// failures qualify; everything else is a per-record failure.
func IsFatal(err error) bool {
	var authErr AuthenticationError
	return errors.As(err, &authErr)
}

// IsRetryable checks if an error looks transient. The engine records
// these as failures without retrying; the classification exists for
// operator-facing messages only.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"rate limit",
		"throttling",
		"too many requests",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
