// Package reqctx carries a per-request id through HTTP handlers and into
// their log lines.
package reqctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HeaderRequestID is echoed on every response and honored on requests
const HeaderRequestID = "X-Request-ID"

type key int

const requestKey key = 0

type RequestContext struct {
	RequestID string
	StartTime time.Time
}

// WithRequestContext attaches a new request id to ctx
func WithRequestContext(ctx context.Context) context.Context {
	return WithRequestID(ctx, "")
}

// WithRequestID attaches id to ctx, generating one when id is empty
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, requestKey, &RequestContext{
		RequestID: id,
		StartTime: time.Now(),
	})
}

func GetRequestContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{
		RequestID: "unknown",
		StartTime: time.Now(),
	}
}

// RequestError wraps an error with request context
type RequestError struct {
	RequestID string
	Err       error
}

// Error implements the error interface
func (e *RequestError) Error() string {
	return fmt.Sprintf("[%s] %v", e.RequestID, e.Err)
}

// Unwrap returns the underlying error
func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError from context
func NewRequestError(ctx context.Context, err error) error {
	rc := GetRequestContext(ctx)
	return &RequestError{
		RequestID: rc.RequestID,
		Err:       err,
	}
}
