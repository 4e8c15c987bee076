package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitedProvider wraps a Provider with a token bucket. The bucket holds
// at most rpm tokens and refills continuously at rpm per minute, so a burst
// can spend the whole bucket but sustained use is held to the limit.
type RateLimitedProvider struct {
	provider Provider
	rpm      float64
	mu       sync.Mutex
	tokens   float64
	lastFill time.Time
	now      func() time.Time
}

// NewRateLimitedProvider wraps the given provider with a rate limiter that
// allows at most rpm requests per minute. A non-positive rpm disables the
// limiter and returns the provider unchanged.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &RateLimitedProvider{
		provider: provider,
		rpm:      float64(rpm),
		tokens:   float64(rpm),
		lastFill: time.Now(),
		now:      time.Now,
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

// reserve takes a token if one is available. Otherwise it returns how long
// until the next token is due.
func (r *RateLimitedProvider) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.tokens += now.Sub(r.lastFill).Minutes() * r.rpm
	if r.tokens > r.rpm {
		r.tokens = r.rpm
	}
	r.lastFill = now

	if r.tokens >= 1 {
		r.tokens--
		return 0
	}
	missing := 1 - r.tokens
	return time.Duration(missing / r.rpm * float64(time.Minute))
}

func (r *RateLimitedProvider) wait(ctx context.Context) error {
	for {
		delay := r.reserve()
		if delay <= 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
