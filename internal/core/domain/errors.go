package domain

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the failure taxonomy every raw error is normalized into
// before it leaves the execution layer.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindConnection
	KindTimeout
	KindValidation
	KindExecution
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindValidation:
		return "validation"
	case KindExecution:
		return "execution"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Sentinel errors raised at the adapter boundary. The classifier maps
// these onto the taxonomy; backends wrap them with call detail.
var (
	// ErrProgramNotFound signals a reference to an absent resource.
	ErrProgramNotFound = errors.New("program not found")

	// ErrValidation signals malformed or missing required input.
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration signals a setup problem (unknown backend,
	// unsupported tier, bad config value). Never recoverable.
	ErrConfiguration = errors.New("configuration error")
)

// ExecutionError carries a downstream execution fault with its message.
type ExecutionError struct {
	Op      string
	Message string
}

func (e *ExecutionError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// ClassifiedError is the only error shape callers of the execution
// factory ever see. It wraps the raw cause without mutating it.
type ClassifiedError struct {
	Kind        Kind
	Message     string
	Context     map[string]any
	Recoverable bool
	RetryAfter  time.Duration
	Tier        Tier

	cause error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// Enrich returns a copy of e with extra context attached. The original
// error and its context map are left untouched.
func (e *ClassifiedError) Enrich(extra map[string]any) *ClassifiedError {
	clone := *e
	clone.Context = make(map[string]any, len(e.Context)+len(extra))
	for k, v := range e.Context {
		clone.Context[k] = v
	}
	for k, v := range extra {
		clone.Context[k] = v
	}
	return &clone
}
