package ratelimit

import (
	"context"
	"testing"
	"time"
)

// fakeClock drives a Limiter without real waiting: sleeps advance the clock.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)

	return nil
}

func (c *fakeClock) options() LimiterOptions {
	return LimiterOptions{Now: c.Now, Sleep: c.Sleep}
}

func TestLimiter_AdmitsUpToBudget(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(map[Tier]Budget{TierSearch: {Requests: 5, Window: time.Minute}}, clock.options())

	for i := range 5 {
		if err := l.Acquire(context.Background(), TierSearch); err != nil {
			t.Fatalf("Acquire(%d) error = %v", i, err)
		}
	}

	if len(clock.sleeps) != 0 {
		t.Errorf("within-budget requests slept %v, want no sleeps", clock.sleeps)
	}
}

func TestLimiter_DelaysOverBudget(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(map[Tier]Budget{TierSearch: {Requests: 3, Window: time.Minute}}, clock.options())

	// Requests spaced one second apart fill the budget
	for range 3 {
		if err := l.Acquire(context.Background(), TierSearch); err != nil {
			t.Fatal(err)
		}

		clock.now = clock.now.Add(time.Second)
	}

	// The fourth must wait until the first start leaves the trailing window:
	// it started 3s ago, so 57s remain
	if err := l.Acquire(context.Background(), TierSearch); err != nil {
		t.Fatal(err)
	}

	if len(clock.sleeps) != 1 {
		t.Fatalf("sleeps = %v, want exactly one", clock.sleeps)
	}

	if want := 57 * time.Second; clock.sleeps[0] != want {
		t.Errorf("waited %v, want %v", clock.sleeps[0], want)
	}
}

func TestLimiter_WindowSlides(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(map[Tier]Budget{TierThread: {Requests: 2, Window: time.Minute}}, clock.options())

	for range 2 {
		if err := l.Acquire(context.Background(), TierThread); err != nil {
			t.Fatal(err)
		}
	}

	// After the full window passes, the budget is free again
	clock.now = clock.now.Add(time.Minute + time.Millisecond)

	if err := l.Acquire(context.Background(), TierThread); err != nil {
		t.Fatal(err)
	}

	if len(clock.sleeps) != 0 {
		t.Errorf("post-window request slept %v, want none", clock.sleeps)
	}
}

func TestLimiter_TiersAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(map[Tier]Budget{
		TierSearch: {Requests: 1, Window: time.Minute},
		TierThread: {Requests: 1, Window: time.Minute},
	}, clock.options())

	if err := l.Acquire(context.Background(), TierSearch); err != nil {
		t.Fatal(err)
	}

	// Exhausting the search budget must not delay thread requests
	if err := l.Acquire(context.Background(), TierThread); err != nil {
		t.Fatal(err)
	}

	if len(clock.sleeps) != 0 {
		t.Errorf("sleeps = %v, want none across independent tiers", clock.sleeps)
	}
}

func TestLimiter_UnknownTier(t *testing.T) {
	l := NewLimiter(DefaultBudgets(), LimiterOptions{})

	if err := l.Acquire(context.Background(), Tier("unbudgeted")); err != nil {
		t.Errorf("Acquire(unknown tier) error = %v, want nil", err)
	}
}

func TestLimiter_StockSearchBudget(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(DefaultBudgets(), clock.options())

	// 45 immediate search requests fit the budget; the 46th waits out the
	// full window
	for range 45 {
		if err := l.Acquire(context.Background(), TierSearch); err != nil {
			t.Fatal(err)
		}
	}

	if len(clock.sleeps) != 0 {
		t.Fatalf("first 45 requests slept %v", clock.sleeps)
	}

	if err := l.Acquire(context.Background(), TierSearch); err != nil {
		t.Fatal(err)
	}

	if len(clock.sleeps) != 1 || clock.sleeps[0] != time.Minute {
		t.Errorf("request 46 sleeps = %v, want one full-window wait", clock.sleeps)
	}
}

func TestDefaultBudgets(t *testing.T) {
	budgets := DefaultBudgets()

	if b := budgets[TierSearch]; b.Requests != 45 || b.Window != time.Minute {
		t.Errorf("search budget = %+v, want 45/min", b)
	}

	if b := budgets[TierThread]; b.Requests != 90 || b.Window != time.Minute {
		t.Errorf("thread budget = %+v, want 90/min", b)
	}
}

func TestPolicy_BackoffGrowsAndCaps(t *testing.T) {
	p := Policy{
		MaxRetries:        5,
		InitialBackoff:    time.Second,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 2.0,
	}

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{10, 60 * time.Second}, // capped
	}

	for _, tt := range tests {
		got := p.Backoff(tt.attempt)

		lo := time.Duration(float64(tt.base) * 0.9)
		hi := time.Duration(float64(tt.base) * 1.1)

		if got < lo || got > hi {
			t.Errorf("Backoff(%d) = %v, want within ±10%% of %v", tt.attempt, got, tt.base)
		}
	}
}

func TestPolicy_DelayPrefersRemoteHint(t *testing.T) {
	p := DefaultPolicy()

	if got := p.Delay(0, 30*time.Second); got != 30*time.Second {
		t.Errorf("Delay with hint = %v, want 30s", got)
	}

	// With no hint the policy backoff applies
	got := p.Delay(0, 0)
	if got < 900*time.Millisecond || got > 1100*time.Millisecond {
		t.Errorf("Delay without hint = %v, want ~1s backoff", got)
	}
}
