package consumer

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/processing"
)

// PanicError wraps a recovered panic from the pipeline. Panics indicate a
// code defect, so they are terminal, never retried.
type PanicError struct {
	Panic any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Panic)
}

// RetryExecutor re-runs the pipeline on transient failures with exponential
// backoff, bounded by the configured attempt budget.
type RetryExecutor interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

type retryExecutor struct {
	maxAttempts int
	maxBackoff  time.Duration
	log         *zap.Logger
}

func newRetryExecutor(maxAttempts int, maxBackoff time.Duration, log *zap.Logger) RetryExecutor {
	return &retryExecutor{
		maxAttempts: maxAttempts,
		maxBackoff:  maxBackoff,
		log:         log,
	}
}

func (r *retryExecutor) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = r.maxBackoff
	policy.MaxElapsedTime = 0 // bounded by attempt count

	attempt := 0
	operation := func() error {
		attempt++
		err := r.executeWithPanicRecovery(ctx, fn)
		if err == nil {
			return nil
		}

		if !processing.IsTransient(err) {
			// Terminal outcomes were already settled inside the pipeline.
			return backoff.Permanent(err)
		}

		r.log.Warn("transient failure, will retry",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.maxAttempts),
			zap.Error(err))

		if attempt >= r.maxAttempts {
			return backoff.Permanent(fmt.Errorf("max retry attempts reached: %w", err))
		}
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

func (r *retryExecutor) executeWithPanicRecovery(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			panicErr := &PanicError{Panic: rec, Stack: debug.Stack()}
			r.log.Error("panic while processing message",
				zap.Any("panic", rec),
				zap.ByteString("stack", panicErr.Stack))
			err = panicErr
		}
	}()

	return fn(ctx)
}
