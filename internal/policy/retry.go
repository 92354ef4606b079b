package policy

import (
	"context"
	"errors"
	"time"

	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
)

// retryPolicy implements RetryPolicy
type retryPolicy struct {
	enabled    bool
	maxRetries int
	backoff    BackoffStrategy
}

// NewRetryPolicyFromConfig creates a retry policy from config. A nil config
// yields a disabled policy.
func NewRetryPolicyFromConfig(cfg *config.RetryPolicy) RetryPolicy {
	if cfg == nil {
		return &retryPolicy{}
	}
	return &retryPolicy{
		enabled:    cfg.Enabled,
		maxRetries: cfg.MaxRetries,
		backoff:    BackoffFromConfig(cfg.Backoff, cfg.BaseMs, cfg.MaxMs),
	}
}

// NewRetryPolicy creates a retry policy with explicit parameters
func NewRetryPolicy(enabled bool, maxRetries int, backoff BackoffStrategy) RetryPolicy {
	return &retryPolicy{
		enabled:    enabled,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

func (p *retryPolicy) Enabled() bool {
	return p.enabled
}

func (p *retryPolicy) Name() string {
	return "retry"
}

// ShouldRetry retries any failure except cancellation of the whole run.
func (p *retryPolicy) ShouldRetry(attempt int, err error) bool {
	if !p.enabled || err == nil {
		return false
	}
	if attempt >= p.maxRetries {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func (p *retryPolicy) GetBackoffDuration(attempt int) time.Duration {
	if !p.enabled || attempt <= 0 || p.backoff == nil {
		return 0
	}
	return p.backoff.NextDelay(attempt)
}

func (p *retryPolicy) GetMaxRetries() int {
	return p.maxRetries
}
