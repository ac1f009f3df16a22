package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Class buckets an external failure for retry decisions.
type Class string

const (
	ClassAuthentication  Class = "AUTHENTICATION"
	ClassRateLimit       Class = "RATE_LIMIT"
	ClassTimeout         Class = "TIMEOUT"
	ClassContextTooLarge Class = "CONTEXT_TOO_LARGE"
	ClassUnknown         Class = "UNKNOWN"
)

// Retryable reports whether an error of this class is worth another attempt.
func (c Class) Retryable() bool {
	switch c {
	case ClassAuthentication, ClassContextTooLarge:
		return false
	default:
		return true
	}
}

// Classify maps an arbitrary error onto the retry taxonomy. Providers signal
// most of these conditions through message text rather than typed errors, so
// classification is substring-based with a few typed checks on top.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "invalid_grant", "reauth", "unauthorized", "invalid api key", "authentication", "token has been expired or revoked", "401"):
		return ClassAuthentication
	case containsAny(msg, "rate limit", "too many requests", "429", "quota exceeded"):
		return ClassRateLimit
	case containsAny(msg, "timeout", "timed out", "deadline exceeded", "connection reset"):
		return ClassTimeout
	case containsAny(msg, "context length", "context_length_exceeded", "maximum context", "too large"):
		return ClassContextTooLarge
	default:
		return ClassUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// OperationError annotates a terminal failure with the operation it belongs
// to and how many attempts were spent before giving up.
type OperationError struct {
	OperationID string
	Class       Class
	Attempts    int
	CircuitOpen bool
	Err         error
}

func (e *OperationError) Error() string {
	if e.CircuitOpen {
		return fmt.Sprintf("operation %s rejected: circuit open", e.OperationID)
	}
	return fmt.Sprintf("operation %s failed after %d attempt(s) [%s]: %v", e.OperationID, e.Attempts, e.Class, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// IsCircuitOpen reports whether err is a circuit-open rejection.
func IsCircuitOpen(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.CircuitOpen
}
