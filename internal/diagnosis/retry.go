package diagnosis

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rendis/vetassist/pkg/schema"
)

// Backoff strategies for RetryPolicy.
const (
	BackoffNone        = "none"
	BackoffConstant    = "constant"
	BackoffLinear      = "linear"
	BackoffExponential = "exponential"
)

// RetryPolicy bounds how a failing engine call is retried.
type RetryPolicy struct {
	Max      int           `json:"max" yaml:"max"`
	Backoff  string        `json:"backoff" yaml:"backoff"`
	Delay    time.Duration `json:"delay" yaml:"delay"`
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`
}

// IsRetryableError classifies whether an engine error should be retried.
// Cancellation and structured errors with non-retryable codes are final;
// deadlines, network failures and unknown errors are retried.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var se *schema.Error
	if errors.As(err, &se) {
		return se.IsRetryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{"connection refused", "connection reset", "i/o timeout", "service unavailable", "too many requests"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return true
}

// ComputeBackoff returns the delay before retry number attempt (zero-based).
// BackoffNone never waits; the others scale Delay and are capped by MaxDelay.
func ComputeBackoff(policy RetryPolicy, attempt int) time.Duration {
	if policy.Delay <= 0 {
		return 0
	}

	var delay time.Duration
	switch policy.Backoff {
	case BackoffNone:
		return 0
	case BackoffExponential:
		delay = policy.Delay << min(attempt, 30)
	case BackoffLinear:
		delay = policy.Delay * time.Duration(attempt+1)
	default:
		delay = policy.Delay
	}

	if policy.MaxDelay > 0 && (delay > policy.MaxDelay || delay < 0) {
		delay = policy.MaxDelay
	}
	return delay
}

// WaitForBackoff sleeps for delay or returns ctx.Err() if ctx ends first.
func WaitForBackoff(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
