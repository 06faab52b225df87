package ratelimit

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/HartreeWorks/slackpull/internal/core"
)

// IsRetryable reports whether an error is transient: a timeout or a network
// failure that a later attempt may not see. Throttling is handled separately
// because it carries its own delay.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"network is unreachable",
		"no such host",
		"502",
		"503",
		"504",
	} {
		if strings.Contains(msg, indicator) {
			return true
		}
	}

	return false
}

// Do runs one remote call under the tier's budget with the policy's bounded
// retry behavior. Each attempt acquires a fresh slot. Throttled responses
// sleep for the remote hint or the policy backoff; after MaxRetries
// consecutive throttles the call fails with RateLimitExceededError. Transient
// failures share the same retry budget. Any other error is returned as is.
func Do(ctx context.Context, l *Limiter, tier Tier, policy Policy, operation string, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := l.Acquire(ctx, tier); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		var throttled *core.RateLimitedError
		switch {
		case errors.As(err, &throttled):
			if attempt >= policy.MaxRetries {
				return &core.RateLimitExceededError{Operation: operation, Attempts: attempt + 1}
			}

			if err := l.sleep(ctx, policy.Delay(attempt, throttled.RetryAfter)); err != nil {
				return err
			}

		case IsRetryable(err):
			if attempt >= policy.MaxRetries {
				return lastErr
			}

			if err := l.sleep(ctx, policy.Backoff(attempt)); err != nil {
				return err
			}

		default:
			return err
		}
	}
}
