// Package policy holds resilience policies applied around model evaluations.
package policy

import (
	"context"
	"time"
)

// Policy represents a generic policy interface
type Policy interface {
	// Enabled returns whether the policy is enabled
	Enabled() bool
	// Name returns the policy name for identification
	Name() string
}

// RetryPolicy decides whether a failed evaluation is attempted again
type RetryPolicy interface {
	Policy
	// ShouldRetry determines if attempt (0-based) should be followed by another one
	ShouldRetry(attempt int, err error) bool
	// GetBackoffDuration calculates the wait before retry number attempt (1-based)
	GetBackoffDuration(attempt int) time.Duration
	// GetMaxRetries returns the maximum number of retries allowed
	GetMaxRetries() int
}

// Do calls fn until it succeeds or p declines another attempt. A nil policy
// runs fn once. Waiting between attempts honors ctx.
func Do(ctx context.Context, p RetryPolicy, fn func(attempt int) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if p == nil || !p.ShouldRetry(attempt, err) || ctx.Err() != nil {
			return err
		}

		wait := p.GetBackoffDuration(attempt + 1)
		if wait <= 0 {
			continue
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
}
