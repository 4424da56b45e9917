package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_Execute(t *testing.T) {
	t.Run("successful operation", func(t *testing.T) {
		r := New()
		callCount := 0

		err := r.Execute(t.Context(), func() error {
			callCount++
			return nil
		})

		assert.NoError(t, err, "no error should be returned for successful operation")
		assert.Equal(t, 1, callCount, "operation should be called exactly once")
	})

	t.Run("retry until success", func(t *testing.T) {
		r := New(
			WithAttempts(3),
			WithDelay(1*time.Millisecond),
			WithMaxDelay(5*time.Millisecond),
		)
		callCount := 0

		err := r.Execute(t.Context(), func() error {
			callCount++
			if callCount < 2 {
				return errors.New("temporary error")
			}
			return nil
		})

		assert.NoError(t, err, "no error should be returned once an attempt succeeds")
		assert.Equal(t, 2, callCount, "operation should be called exactly twice")
	})

	t.Run("retry exhausted", func(t *testing.T) {
		r := New(
			WithAttempts(3),
			WithDelay(1*time.Millisecond), // Use small delay for faster tests
			WithMaxDelay(5*time.Millisecond),
		)
		callCount := 0
		expectedErr := errors.New("persistent error")

		err := r.Execute(t.Context(), func() error {
			callCount++
			return expectedErr
		})

		assert.ErrorIs(t, err, expectedErr, "the last error should be returned when all attempts fail")
		assert.Equal(t, 3, callCount, "operation should be called exactly 3 times")
	})

	t.Run("all errors combined when lastErrOnly is disabled", func(t *testing.T) {
		r := New(
			WithAttempts(2),
			WithDelay(1*time.Millisecond),
			WithMaxDelay(5*time.Millisecond),
			WithLastErrorOnly(false),
		)
		callCount := 0

		err := r.Execute(t.Context(), func() error {
			callCount++
			if callCount == 1 {
				return errors.New("first failure")
			}
			return errors.New("second failure")
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "first failure")
		assert.Contains(t, err.Error(), "second failure")
	})

	t.Run("retry predicate stops non-retryable errors", func(t *testing.T) {
		terminal := errors.New("terminal error")
		r := New(
			WithAttempts(5),
			WithDelay(1*time.Millisecond),
			WithRetryIf(func(err error) bool {
				return !errors.Is(err, terminal)
			}),
		)
		callCount := 0

		err := r.Execute(t.Context(), func() error {
			callCount++
			return terminal
		})

		assert.ErrorIs(t, err, terminal)
		assert.Equal(t, 1, callCount, "a non-retryable error should surface immediately")
	})

	t.Run("context cancellation", func(t *testing.T) {
		r := New(
			WithAttempts(5),
			WithDelay(100*time.Millisecond),
		)
		callCount := 0

		// Create a context that will be canceled after the first attempt
		ctx, cancel := context.WithCancel(t.Context())

		// Cancel the context after a short delay
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		err := r.Execute(ctx, func() error {
			callCount++
			return errors.New("error that would normally trigger retry")
		})

		assert.Error(t, err, "an error should be returned when context is canceled")
		assert.Equal(t, 1, callCount, "operation should be called exactly once due to context cancellation")
	})
}

func TestRetry_Options(t *testing.T) {
	t.Run("default options", func(t *testing.T) {
		r := New()
		retrier, ok := r.(*retrier)
		require.True(t, ok, "Expected r to be of type *retrier")

		assert.Equal(t, uint(3), retrier.cfg.attempts, "Default attempts should be 3")
		assert.Equal(t, 1*time.Second, retrier.cfg.delay, "Default delay should be 1s")
		assert.Equal(t, 5*time.Second, retrier.cfg.maxDelay, "Default maxDelay should be 5s")
		assert.True(t, retrier.cfg.lastErrOnly, "Default should return only the last error")
		assert.Nil(t, retrier.cfg.retryIf, "Default should retry every error")
	})

	t.Run("custom options", func(t *testing.T) {
		r := New(
			WithAttempts(5),
			WithDelay(2*time.Second),
			WithMaxDelay(10*time.Second),
			WithRetryIf(func(error) bool { return false }),
		)
		retrier, ok := r.(*retrier)
		require.True(t, ok, "Expected r to be of type *retrier")

		assert.Equal(t, uint(5), retrier.cfg.attempts, "Attempts should be 5")
		assert.Equal(t, 2*time.Second, retrier.cfg.delay, "Delay should be 2s")
		assert.Equal(t, 10*time.Second, retrier.cfg.maxDelay, "MaxDelay should be 10s")
		assert.NotNil(t, retrier.cfg.retryIf, "RetryIf predicate should be set")
	})
}
