package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultCooldown is how long a failed provider is skipped.
const DefaultCooldown = 30 * time.Second

// Chain implements Provider by trying providers in order.
//
// A provider that fails is benched for Cooldown, so the next advisory goes
// straight to a working fallback instead of waiting out the same timeout
// again. When every provider is benched they are all tried anyway.
type Chain struct {
	// Cooldown is how long a failed provider is skipped. Zero disables benching.
	Cooldown time.Duration

	providers []Provider
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	benched []time.Time // per provider, zero when available
}

// NewChain creates a provider chain. At least one provider is required.
func NewChain(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		Cooldown:  DefaultCooldown,
		providers: providers,
		logger:    logger.With("component", "tts.chain"),
		now:       time.Now,
		benched:   make([]time.Time, len(providers)),
	}, nil
}

// order returns provider indexes to try: available ones first, in chain
// order, then benched ones only if nothing else is left.
func (c *Chain) order() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var ready, resting []int
	for i, until := range c.benched {
		if now.Before(until) {
			resting = append(resting, i)
		} else {
			ready = append(ready, i)
		}
	}
	if len(ready) == 0 {
		return resting
	}
	return ready
}

func (c *Chain) bench(i int) {
	if c.Cooldown <= 0 {
		return
	}
	c.mu.Lock()
	c.benched[i] = c.now().Add(c.Cooldown)
	c.mu.Unlock()
}

func (c *Chain) restore(i int) {
	c.mu.Lock()
	c.benched[i] = time.Time{}
	c.mu.Unlock()
}

// Synthesize returns the first successful provider's audio.
func (c *Chain) Synthesize(ctx context.Context, u Utterance) (*AudioResult, error) {
	var failed []error

	for _, i := range c.order() {
		result, err := c.providers[i].Synthesize(ctx, u)
		if err == nil {
			c.restore(i)
			if len(failed) > 0 {
				c.logger.Info("fallback provider used", "provider_index", i, "failed", len(failed))
			}
			return result, nil
		}

		// Cancellation means the utterance was superseded, not that the provider is down
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		failed = append(failed, err)
		c.bench(i)
		c.logger.Warn("provider failed", "provider_index", i, "cooldown", c.Cooldown, "error", err)
	}

	return nil, &ChainError{Errors: failed}
}

// Health passes when at least one provider is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Health(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(c.providers) {
		return fmt.Errorf("tts chain: no healthy provider: %w", errors.Join(errs...))
	}
	return nil
}

// Close closes every provider and joins their errors.
func (c *Chain) Close() error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ChainError holds each failure from one Synthesize call, in the order tried.
type ChainError struct {
	Errors []error
}

func (e *ChainError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "tts chain: no providers tried"
	case 1:
		return "tts chain: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("tts chain: %d providers failed: %v", len(e.Errors), errors.Join(e.Errors...))
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}

// Verify Chain implements Provider at compile time.
var _ Provider = (*Chain)(nil)
