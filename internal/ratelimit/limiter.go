// Package ratelimit enforces per-tier request budgets over a trailing window
// and centralizes the retry/backoff policy for throttled or transient
// remote-call failures.
package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Tier is a rate-limit budget class with its own request quota.
type Tier string

const (
	// TierSearch covers search.messages calls
	TierSearch Tier = "search"

	// TierThread covers conversations.replies calls
	TierThread Tier = "thread"
)

// Budget is the request quota for one tier over the trailing window.
type Budget struct {
	Requests int
	Window   time.Duration
}

// DefaultBudgets returns the stock tier budgets: 45 search and 90 thread
// requests per trailing minute.
func DefaultBudgets() map[Tier]Budget {
	return map[Tier]Budget{
		TierSearch: {Requests: 45, Window: time.Minute},
		TierThread: {Requests: 90, Window: time.Minute},
	}
}

// Limiter admits at most Budget.Requests request starts per tier in any
// trailing Budget.Window. It keeps an explicit log of request times, so a
// burst can never overshoot the budget the way a token bucket would.
type Limiter struct {
	mu      sync.Mutex
	windows map[Tier]*tierWindow

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	logger *slog.Logger
}

type tierWindow struct {
	budget Budget
	starts []time.Time
}

// LimiterOptions configures a Limiter.
type LimiterOptions struct {
	Logger *slog.Logger

	// Now and Sleep override the clock, for tests
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter over the given tier budgets.
func NewLimiter(budgets map[Tier]Budget, opts LimiterOptions) *Limiter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	windows := make(map[Tier]*tierWindow, len(budgets))
	for tier, b := range budgets {
		windows[tier] = &tierWindow{budget: b}
	}

	return &Limiter{
		windows: windows,
		now:     now,
		sleep:   sleep,
		logger:  logger,
	}
}

// Acquire blocks until a request in the tier is permitted, then records the
// request start. Unknown tiers are admitted immediately.
func (l *Limiter) Acquire(ctx context.Context, tier Tier) error {
	for {
		l.mu.Lock()

		w, ok := l.windows[tier]
		if !ok {
			l.mu.Unlock()

			return nil
		}

		now := l.now()
		w.prune(now)

		if len(w.starts) < w.budget.Requests {
			w.starts = append(w.starts, now)
			l.mu.Unlock()

			return nil
		}

		// Oldest recorded start leaving the window frees the next slot
		wait := w.starts[0].Add(w.budget.Window).Sub(now)
		l.mu.Unlock()

		l.logger.Debug("rate budget exhausted, waiting",
			slog.String("tier", string(tier)),
			slog.Duration("wait", wait),
		)

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (w *tierWindow) prune(now time.Time) {
	cutoff := now.Add(-w.budget.Window)

	idx := 0
	for idx < len(w.starts) && !w.starts[idx].After(cutoff) {
		idx++
	}

	w.starts = w.starts[idx:]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy defines the bounded retry/backoff behavior shared by every remote
// call wrapper.
type Policy struct {
	MaxRetries        int           // consecutive throttle retries before giving up
	InitialBackoff    time.Duration // first backoff step
	MaxBackoff        time.Duration // backoff cap
	BackoffMultiplier float64       // growth factor per attempt
}

// DefaultPolicy returns the stock retry policy: 5 retries, 1s initial
// backoff doubling to a 60s cap.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        5,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Backoff computes the exponential backoff for a zero-based attempt with
// ±10% jitter and the configured cap.
func (p Policy) Backoff(attempt int) time.Duration {
	backoff := float64(p.InitialBackoff) * math.Pow(p.BackoffMultiplier, float64(attempt))

	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}

	jitter := backoff * 0.1 * (rand.Float64()*2 - 1)
	backoff += jitter

	return time.Duration(backoff)
}

// Delay picks the sleep before retrying a throttled request: the
// remote-supplied hint when present, the policy backoff otherwise.
func (p Policy) Delay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}

	return p.Backoff(attempt)
}
