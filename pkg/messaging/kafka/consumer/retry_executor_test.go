package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/processing"
)

func TestRetryExecutor(t *testing.T) {
	newExecutor := func(maxAttempts int) RetryExecutor {
		return newRetryExecutor(maxAttempts, 10*time.Millisecond, zap.NewNop())
	}

	t.Run("succeeds without retry", func(t *testing.T) {
		calls := 0

		err := newExecutor(3).Execute(context.Background(), func(ctx context.Context) error {
			calls++
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient failures until success", func(t *testing.T) {
		calls := 0

		err := newExecutor(5).Execute(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return &processing.TransientError{Code: processing.ErrCodeHandlerFailure, Err: errors.New("store flaked")}
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry non-transient errors", func(t *testing.T) {
		calls := 0
		terminal := errors.New("already settled")

		err := newExecutor(5).Execute(context.Background(), func(ctx context.Context) error {
			calls++
			return terminal
		})

		assert.ErrorIs(t, err, terminal)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		calls := 0

		err := newExecutor(2).Execute(context.Background(), func(ctx context.Context) error {
			calls++
			return &processing.TransientError{Code: processing.ErrCodeTransportUnavailable, Err: errors.New("broker away")}
		})

		require.Error(t, err)
		assert.Equal(t, 2, calls)
		assert.Contains(t, err.Error(), "max retry attempts reached")
		assert.True(t, processing.IsTransient(err))
	})

	t.Run("converts panics into terminal errors", func(t *testing.T) {
		calls := 0

		err := newExecutor(5).Execute(context.Background(), func(ctx context.Context) error {
			calls++
			panic("handler bug")
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)

		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "handler bug", panicErr.Panic)
		assert.NotEmpty(t, panicErr.Stack)
	})

	t.Run("stops retrying on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0

		err := newExecutor(10).Execute(ctx, func(ctx context.Context) error {
			calls++
			cancel()
			return &processing.TransientError{Code: processing.ErrCodeTransportUnavailable, Err: errors.New("broker away")}
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
