package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthError indicates the workspace credentials were rejected or expired.
// It is never retried; fresh tokens must be supplied.
type AuthError struct {
	Workspace string
	Reason    string
}

func (e *AuthError) Error() string {
	if e.Workspace != "" {
		return fmt.Sprintf("authentication failed for workspace %s: %s", e.Workspace, e.Reason)
	}

	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// RateLimitedError indicates the remote side throttled a request.
// RetryAfter carries the remote-supplied hint when one was present.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}

	return "rate limited"
}

// RateLimitExceededError indicates the bounded throttle-retry budget ran out.
type RateLimitExceededError struct {
	Operation string
	Attempts  int
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("%s abandoned after %d rate-limited attempts", e.Operation, e.Attempts)
}

// NotFoundError indicates a channel, user, or thread does not exist on the
// remote side.
type NotFoundError struct {
	Kind string // "channel", "user", "thread"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// MalformedResponseError indicates the remote side returned an unexpected
// shape. Fatal for the current unit of work only.
type MalformedResponseError struct {
	Method string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Method, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// AmbiguousWorkspaceError indicates a channel context legitimately maps to
// more than one configured workspace and the caller must disambiguate.
type AmbiguousWorkspaceError struct {
	Channel    string
	Candidates []string
}

func (e *AmbiguousWorkspaceError) Error() string {
	return fmt.Sprintf("channel %q matches multiple workspaces: %s (use --workspace)",
		e.Channel, strings.Join(e.Candidates, ", "))
}

// NoCheckpointError indicates --resume was requested with no checkpoint on disk.
type NoCheckpointError struct {
	Workspace string
}

func (e *NoCheckpointError) Error() string {
	return fmt.Sprintf("no checkpoint exists for workspace %s", e.Workspace)
}

// CheckpointExistsError indicates a new export was requested while an
// unfinished checkpoint exists for the workspace.
type CheckpointExistsError struct {
	Workspace string
	Phase     string
}

func (e *CheckpointExistsError) Error() string {
	return fmt.Sprintf("an unfinished export (phase %s) exists for workspace %s: resume it with --resume or discard it with --force",
		e.Phase, e.Workspace)
}

// InvalidDateRangeError indicates from > to.
type InvalidDateRangeError struct {
	From string
	To   string
}

func (e *InvalidDateRangeError) Error() string {
	return fmt.Sprintf("invalid date range: %s is after %s", e.From, e.To)
}

// IsPermanentItemError reports whether a thread-fetch failure should be
// recorded inline rather than retried or escalated: the item is gone for good
// but the run can continue.
func IsPermanentItemError(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}

	if err == nil {
		return false
	}

	// access_denied style failures from the remote side
	msg := err.Error()

	return strings.Contains(msg, "channel_not_found") ||
		strings.Contains(msg, "thread_not_found") ||
		strings.Contains(msg, "access_denied") ||
		strings.Contains(msg, "is_archived")
}
