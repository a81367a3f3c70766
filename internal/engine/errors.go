// internal/engine/errors.go
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrBrowserCrash    = errors.New("browser crashed")
	ErrTimeout         = errors.New("operation timed out")
	ErrLoginTimeout    = errors.New("login timeout")
	ErrNotReady        = errors.New("browser session is not ready")
	ErrSessionClosed   = errors.New("browser session closed")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeAmbiguous    ErrorCode = "AMBIGUOUS_MATCH"
	ErrCodePrecondition ErrorCode = "PRECONDITION"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeLoginTimeout ErrorCode = "LOGIN_TIMEOUT"
	ErrCodeBrowserCrash ErrorCode = "BROWSER_CRASH"
	ErrCodeTimeout      ErrorCode = "TIMEOUT"
	ErrCodeNavigation   ErrorCode = "NAVIGATION"
	ErrCodeStale        ErrorCode = "STALE"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]interface{}
}

// Error returns the human readable cause. The code is kept separately so job
// records show a sentence an assistant can relay verbatim.
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Retry:      false,
		Details:    make(map[string]interface{}),
	}
}

// WithRetry marks the error as retryable
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// Ambiguous reports a name lookup that did not resolve to exactly one profile.
func Ambiguous(person, company string, matches int) *EngineError {
	var msg string
	if matches == 0 {
		msg = fmt.Sprintf("no profile found for %q at %q; please provide a direct profile_url", person, company)
	} else {
		msg = fmt.Sprintf("found %d profiles matching %q at %q; please provide a direct profile_url instead", matches, person, company)
	}
	return NewEngineError(ErrCodeAmbiguous, msg, nil).WithDetail("matches", matches)
}

// Precondition reports a target that does not satisfy an operation's requirements.
func Precondition(message string) *EngineError {
	return NewEngineError(ErrCodePrecondition, message, nil)
}

// NotFound reports a search that legitimately returned nobody.
func NotFound(message string) *EngineError {
	return NewEngineError(ErrCodeNotFound, message, nil)
}

// CodeOf returns the error code carried by err, classifying bare context
// deadlines as timeouts. Unclassified errors map to INTERNAL.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	var coder interface{ ErrorCode() ErrorCode }
	if errors.As(err, &coder) {
		return coder.ErrorCode()
	}
	switch {
	case errors.Is(err, ErrBrowserCrash):
		return ErrCodeBrowserCrash
	case errors.Is(err, ErrLoginTimeout):
		return ErrCodeLoginTimeout
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	}
	return ErrCodeInternal
}
