package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ThrottledBackend wraps a Backend with a token-bucket rate limit and a
// per-call timeout.
type ThrottledBackend struct {
	next    Backend
	limiter *rate.Limiter
	timeout time.Duration
}

// ThrottleOption configures the ThrottledBackend.
type ThrottleOption func(*ThrottledBackend)

// WithRate limits calls to perSecond with the given burst. A non-positive
// rate disables limiting.
func WithRate(perSecond float64, burst int) ThrottleOption {
	return func(t *ThrottledBackend) {
		if perSecond <= 0 {
			t.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithTimeout bounds each call. Zero means no bound beyond the caller's
// context.
func WithTimeout(d time.Duration) ThrottleOption {
	return func(t *ThrottledBackend) {
		t.timeout = d
	}
}

// NewThrottledBackend wraps next.
func NewThrottledBackend(next Backend, opts ...ThrottleOption) *ThrottledBackend {
	t := &ThrottledBackend{next: next}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the wrapped backend's name.
func (t *ThrottledBackend) Name() string {
	return t.next.Name()
}

// Generate waits for the limiter and calls the wrapped backend.
func (t *ThrottledBackend) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return GenerateResponse{}, ctx.Err()
			}
			return GenerateResponse{}, fmt.Errorf("llm rate limiter wait: %w", err)
		}
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.next.Generate(ctx, req)
}
