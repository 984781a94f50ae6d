package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invosight/internal/capability"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryPolicy_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_RetriesTransient(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &capability.ProviderError{Provider: "nvidia", StatusCode: 503, Err: errors.New("overloaded")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := &capability.ProviderError{Provider: "nvidia", StatusCode: 401, Err: errors.New("bad key")}
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastPolicy(2).Do(context.Background(), func(context.Context) error {
		calls++
		return &capability.ProviderError{Provider: "nvidia", StatusCode: 500, Err: errors.New("boom")}
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicy_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, func(context.Context) error {
			calls++
			return &capability.ProviderError{Provider: "nvidia", StatusCode: 500, Err: errors.New("boom")}
		})
	}()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestDefaultRetryPolicy_ClampsAttempts(t *testing.T) {
	assert.Equal(t, 1, DefaultRetryPolicy(0).MaxAttempts)
	assert.Equal(t, 3, DefaultRetryPolicy(3).MaxAttempts)
}
