// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Operation names the limiters are keyed by
const (
	OpProfile     = "linkedin_profile"
	OpSearch      = "linkedin_search"
	OpBrowserInit = "browser_init"
	OpAPIRequest  = "api_request"
)

// RateLimiter defines the interface for rate limiting implementations.
//
// Callers either block with Wait, or use Check and Record when they want to
// decide for themselves what to do when an operation is over its budget.
type RateLimiter interface {
	// Wait blocks until the operation can proceed or ctx is done.
	Wait(ctx context.Context, op string) error

	// Allow consumes a token if one is available right now.
	Allow(op string) bool

	// Check reports whether a token is available without consuming it.
	Check(op string) bool

	// Record consumes a token whether or not one is available, pushing
	// later callers back.
	Record(op string)
}

// Limit is a budget of Requests per Window
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits are the per-operation budgets used when none are configured
func DefaultLimits() map[string]Limit {
	return map[string]Limit{
		OpProfile:     {Requests: 20, Window: time.Minute},
		OpSearch:      {Requests: 30, Window: time.Minute},
		OpBrowserInit: {Requests: 5, Window: time.Minute},
		OpAPIRequest:  {Requests: 100, Window: time.Minute},
	}
}

// OperationLimiter keeps one token bucket per operation name. Unknown
// operations are never limited.
type OperationLimiter struct {
	limiters map[string]*rate.Limiter
	limits   map[string]Limit
	mu       sync.RWMutex
}

// NewOperationLimiter creates a limiter for the given budgets
func NewOperationLimiter(limits map[string]Limit) *OperationLimiter {
	if limits == nil {
		limits = DefaultLimits()
	}

	ol := &OperationLimiter{
		limiters: make(map[string]*rate.Limiter),
		limits:   make(map[string]Limit),
	}
	for op, l := range limits {
		ol.SetLimit(op, l)
	}
	return ol
}

// Wait blocks until the operation can proceed according to its budget
func (ol *OperationLimiter) Wait(ctx context.Context, op string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	limiter := ol.getLimiter(op)
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// Allow checks if an operation can proceed immediately, consuming a token if so
func (ol *OperationLimiter) Allow(op string) bool {
	limiter := ol.getLimiter(op)
	if limiter == nil {
		return true
	}

	if !limiter.Allow() {
		log.Warn().
			Str("component", "api").
			Str("operation", op).
			Msg("Rate limit exceeded")
		return false
	}
	return true
}

// Check reports whether a token is available without consuming it
func (ol *OperationLimiter) Check(op string) bool {
	limiter := ol.getLimiter(op)
	if limiter == nil {
		return true
	}
	return limiter.Tokens() >= 1
}

// Record consumes a token for the operation
func (ol *OperationLimiter) Record(op string) {
	limiter := ol.getLimiter(op)
	if limiter == nil {
		return
	}
	limiter.Reserve()

	log.Debug().
		Str("component", "api").
		Str("operation", op).
		Float64("tokens_left", limiter.Tokens()).
		Msg("Rate limit usage")
}

// Usage describes the current budget of an operation
type Usage struct {
	Operation   string        `json:"operation"`
	Available   float64       `json:"available"`
	MaxRequests int           `json:"max_requests"`
	Window      time.Duration `json:"time_window"`
}

// Usage returns the remaining budget for op, and false for unknown operations
func (ol *OperationLimiter) Usage(op string) (Usage, bool) {
	ol.mu.RLock()
	limiter, ok := ol.limiters[op]
	l := ol.limits[op]
	ol.mu.RUnlock()

	if !ok {
		return Usage{Operation: op}, false
	}
	return Usage{
		Operation:   op,
		Available:   limiter.Tokens(),
		MaxRequests: l.Requests,
		Window:      l.Window,
	}, true
}

// getLimiter returns the limiter for op, or nil when op has no budget
func (ol *OperationLimiter) getLimiter(op string) *rate.Limiter {
	ol.mu.RLock()
	limiter := ol.limiters[op]
	ol.mu.RUnlock()
	return limiter
}

// SetLimit updates the budget for a specific operation
func (ol *OperationLimiter) SetLimit(op string, l Limit) {
	if l.Requests <= 0 || l.Window <= 0 {
		return
	}

	every := rate.Every(l.Window / time.Duration(l.Requests))

	ol.mu.Lock()
	defer ol.mu.Unlock()

	ol.limits[op] = l
	if limiter, exists := ol.limiters[op]; exists {
		limiter.SetLimit(every)
		limiter.SetBurst(l.Requests)
	} else {
		ol.limiters[op] = rate.NewLimiter(every, l.Requests)
	}
}
