// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry runs an operation under a bounded exponential backoff policy.
// It is the single backoff implementation shared by every caller that talks
// to the generation service.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy bounds a retry loop. The operation runs at most MaxRetries+1 times.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt. Zero
	// means a single attempt.
	MaxRetries int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the wait between attempts. Zero means uncapped.
	MaxDelay time.Duration
}

// Delay returns the wait before the given attempt (1-based). The first
// attempt has no delay; attempt n > 1 waits min(BaseDelay * 2^(n-2), MaxDelay),
// so the k-th retry waits BaseDelay * 2^(k-1).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 || p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 2; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Attempts returns the total number of attempts the policy allows.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Op is one attempt. attempt is 1-based; last reports whether no further
// attempt follows a failure.
type Op func(ctx context.Context, attempt int, last bool) error

// permanent marks an error that must not be retried.
type permanent struct{ err error }

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Permanent wraps err so Do stops retrying and returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

// Do runs op until it succeeds, returns a Permanent error, the policy is
// exhausted, or ctx is done. Backoff waits honor ctx. The returned error
// wraps the last attempt's error.
func Do(ctx context.Context, p Policy, op Op) error {
	total := p.Attempts()
	var lastErr error
	for attempt := 1; attempt <= total; attempt++ {
		if err := Sleep(ctx, p.Delay(attempt)); err != nil {
			return err
		}

		err := op(ctx, attempt, attempt == total)
		if err == nil {
			return nil
		}
		var perm *permanent
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("after %d attempts: %w", total, lastErr)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
