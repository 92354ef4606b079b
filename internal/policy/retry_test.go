package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
)

func TestNewRetryPolicyFromConfig(t *testing.T) {
	p := NewRetryPolicyFromConfig(&config.RetryPolicy{
		Enabled:    true,
		MaxRetries: 3,
		Backoff:    "linear",
		BaseMs:     10,
	})
	if !p.Enabled() {
		t.Fatalf("expected policy to be enabled")
	}
	if p.Name() != "retry" {
		t.Fatalf("expected name 'retry', got %s", p.Name())
	}
	if p.GetMaxRetries() != 3 {
		t.Fatalf("expected max retries 3, got %d", p.GetMaxRetries())
	}
	if d := p.GetBackoffDuration(2); d != 20*time.Millisecond {
		t.Fatalf("expected linear backoff 20ms, got %v", d)
	}

	if NewRetryPolicyFromConfig(nil).Enabled() {
		t.Fatalf("expected nil config to give a disabled policy")
	}
}

func TestRetryPolicyShouldRetry(t *testing.T) {
	p := NewRetryPolicy(true, 2, ConstantBackoff{})
	crash := errors.New("solver diverged")

	if !p.ShouldRetry(0, crash) || !p.ShouldRetry(1, crash) {
		t.Fatalf("expected retries below the limit")
	}
	if p.ShouldRetry(2, crash) {
		t.Fatalf("expected no retry at the limit")
	}
	if p.ShouldRetry(0, nil) {
		t.Fatalf("expected no retry without an error")
	}
	if p.ShouldRetry(0, context.Canceled) {
		t.Fatalf("expected no retry once the run is cancelled")
	}
	if !p.ShouldRetry(0, context.DeadlineExceeded) {
		t.Fatalf("expected timeouts to be retried")
	}
	if NewRetryPolicy(false, 3, nil).ShouldRetry(0, crash) {
		t.Fatalf("expected disabled policy never to retry")
	}
}

func TestBackoffStrategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy BackoffStrategy
		attempt  int
		want     time.Duration
	}{
		{"constant", BackoffFromConfig("constant", 100, 0), 5, 100 * time.Millisecond},
		{"linear", BackoffFromConfig("linear", 100, 0), 3, 300 * time.Millisecond},
		{"linear capped", BackoffFromConfig("linear", 100, 250), 3, 250 * time.Millisecond},
		{"exponential first", BackoffFromConfig("exponential", 100, 0), 1, 100 * time.Millisecond},
		{"exponential third", BackoffFromConfig("exponential", 100, 0), 3, 400 * time.Millisecond},
		{"exponential capped", BackoffFromConfig("exponential", 100, 300), 4, 300 * time.Millisecond},
		{"default is exponential", BackoffFromConfig("", 10, 0), 2, 20 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.strategy.NextDelay(tt.attempt); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDoRecoversFromTransientFailure(t *testing.T) {
	p := NewRetryPolicy(true, 3, ConstantBackoff{Delay: time.Millisecond})
	calls := 0
	err := Do(context.Background(), p, func(attempt int) error {
		if attempt != calls {
			t.Fatalf("expected attempt %d, got %d", calls, attempt)
		}
		calls++
		if calls < 3 {
			return errors.New("license server busy")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoGivesUp(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), NewRetryPolicy(true, 2, nil), func(int) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 3 {
		t.Fatalf("expected 3 calls ending in boom, got %d calls, err=%v", calls, err)
	}

	calls = 0
	if err := Do(context.Background(), nil, func(int) error { calls++; return boom }); !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected a single call without a policy, got %d", calls)
	}
}

func TestDoStopsWaitingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewRetryPolicy(true, 5, ConstantBackoff{Delay: time.Hour})
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, p, func(int) error {
			calls++
			return errors.New("down")
		})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected the last error")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}
