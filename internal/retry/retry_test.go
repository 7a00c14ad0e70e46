// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDelay(t *testing.T) {
	p := Policy{MaxRetries: 6, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 0},
		{2, time.Second},
		{3, 2 * time.Second},
		{4, 4 * time.Second},
		{5, 5 * time.Second},
		{9, 5 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestPolicyDelay_Uncapped(t *testing.T) {
	p := Policy{BaseDelay: 10 * time.Millisecond}
	assert.Equal(t, 80*time.Millisecond, p.Delay(5))
}

func TestDo_ImmediateSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxRetries: 3, BaseDelay: time.Millisecond}, func(context.Context, int, bool) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	var attempts []int
	err := Do(context.Background(), Policy{MaxRetries: 3, BaseDelay: time.Millisecond}, func(_ context.Context, attempt int, _ bool) error {
		attempts = append(attempts, attempt)
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	var lastFlags []bool
	sentinel := errors.New("always fails")
	err := Do(context.Background(), Policy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
		func(_ context.Context, _ int, last bool) error {
			calls++
			lastFlags = append(lastFlags, last)
			return sentinel
		})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	// 1 initial + 3 retries = 4 total calls.
	assert.Equal(t, 4, calls)
	assert.Equal(t, []bool{false, false, false, true}, lastFlags)
}

func TestDo_ZeroRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{}, func(_ context.Context, _ int, last bool) error {
		calls++
		assert.True(t, last)
		return errors.New("nope")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_PermanentStops(t *testing.T) {
	calls := 0
	sentinel := errors.New("bad request")
	err := Do(context.Background(), Policy{MaxRetries: 5, BaseDelay: time.Millisecond}, func(context.Context, int, bool) error {
		calls++
		return Permanent(sentinel)
	})
	assert.Equal(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	err := Do(ctx, Policy{MaxRetries: 5, BaseDelay: 500 * time.Millisecond}, func(context.Context, int, bool) error {
		calls++
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), 0))
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
