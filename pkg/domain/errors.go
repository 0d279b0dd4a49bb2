package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExpired is returned when a turn finishes for a session that was expired
// (e.g. the connection dropped). The turn's results are discarded.
var ErrSessionExpired = errors.New("session expired")

// ErrOracleTimeout marks a condition evaluation that exceeded its deadline.
// The runtime treats the condition as false.
var ErrOracleTimeout = errors.New("oracle evaluation timed out")

// ErrAmbiguityUnresolved is reported when the ranker cannot pick a single journey.
var ErrAmbiguityUnresolved = errors.New("ambiguity unresolved")

// Utterance validation errors.
var (
	ErrUtteranceTooLarge = errors.New("utterance exceeds maximum allowed size")
	ErrInvalidUTF8       = errors.New("utterance contains invalid UTF-8 sequences")
)

// ErrSessionBusy is returned when another process holds the session lock.
var ErrSessionBusy = errors.New("session is busy")

// ConfigKind classifies a ConfigurationError.
type ConfigKind string

const (
	ConfigDuplicateTerm    ConfigKind = "duplicate_term"
	ConfigDuplicateJourney ConfigKind = "duplicate_journey"
	ConfigUndefinedState   ConfigKind = "undefined_state"
	ConfigDeadEnd          ConfigKind = "dead_end"
	ConfigUnknownTool      ConfigKind = "unknown_tool"
	ConfigFrozen           ConfigKind = "frozen"
	ConfigInvalid          ConfigKind = "invalid"
)

// ConfigurationError is a fatal, build-time error. It is never produced by a live session.
type ConfigurationError struct {
	Kind    ConfigKind
	Subject string
	Detail  string
}

func (e *ConfigurationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("configuration error (%s): %s", e.Kind, e.Subject)
	}
	return fmt.Sprintf("configuration error (%s): %s: %s", e.Kind, e.Subject, e.Detail)
}

// NewConfigError builds a ConfigurationError.
func NewConfigError(kind ConfigKind, subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Subject: subject, Detail: fmt.Sprintf(format, args...)}
}

// IsConfigKind reports whether err, or any error it wraps or joins,
// is a ConfigurationError of the given kind.
func IsConfigKind(err error, kind ConfigKind) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *ConfigurationError:
		return e.Kind == kind
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsConfigKind(inner, kind) {
				return true
			}
		}
		return false
	}
	return IsConfigKind(errors.Unwrap(err), kind)
}

// ToolInvocationError describes a failed tool call. It is recoverable: the runtime
// routes it to a "tool failed" transition or guideline, or apologizes.
type ToolInvocationError struct {
	Tool  string
	Cause string
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool '%s' failed: %s", e.Tool, e.Cause)
}
