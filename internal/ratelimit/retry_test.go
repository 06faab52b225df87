package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HartreeWorks/slackpull/internal/core"
)

func testPolicy() Policy {
	return Policy{
		MaxRetries:        3,
		InitialBackoff:    time.Second,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(DefaultBudgets(), clock.options())

	calls := 0
	err := Do(context.Background(), l, TierSearch, testPolicy(), "op", func(context.Context) error {
		calls++

		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesThrottleThenSucceeds(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(DefaultBudgets(), clock.options())

	calls := 0
	err := Do(context.Background(), l, TierSearch, testPolicy(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return &core.RateLimitedError{RetryAfter: 5 * time.Second}
		}

		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}

	// Both throttled attempts slept the remote hint, not the backoff
	for _, d := range clock.sleeps {
		if d != 5*time.Second {
			t.Errorf("slept %v, want the 5s remote hint", d)
		}
	}
}

func TestDo_ThrottleBudgetExhausted(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(DefaultBudgets(), clock.options())

	policy := testPolicy()

	calls := 0
	err := Do(context.Background(), l, TierThread, policy, "thread fetch", func(context.Context) error {
		calls++

		return &core.RateLimitedError{}
	})

	var exceeded *core.RateLimitExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("Do() error = %v, want RateLimitExceededError", err)
	}

	if exceeded.Operation != "thread fetch" {
		t.Errorf("Operation = %q", exceeded.Operation)
	}

	if calls != policy.MaxRetries+1 {
		t.Errorf("calls = %d, want %d", calls, policy.MaxRetries+1)
	}
}

func TestDo_TransientErrorRetried(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(DefaultBudgets(), clock.options())

	calls := 0
	err := Do(context.Background(), l, TierSearch, testPolicy(), "op", func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("connection reset by peer")
		}

		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(DefaultBudgets(), clock.options())

	sentinel := &core.NotFoundError{Kind: "channel", Key: "gone"}

	calls := 0
	err := Do(context.Background(), l, TierThread, testPolicy(), "op", func(context.Context) error {
		calls++

		return sentinel
	})

	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Do() error = %v, want the NotFoundError back", err)
	}

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"bad gateway", errors.New("API returned 502: upstream"), true},
		{"auth", &core.AuthError{Reason: "invalid_auth"}, false},
		{"not found", &core.NotFoundError{Kind: "thread", Key: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
