package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type fakeReadiness struct {
	block chan struct{}
}

func (f *fakeReadiness) WaitReady(ctx context.Context) error {
	if f.block == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.block:
		return nil
	}
}

type fakeShutdowner struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeShutdowner) Shutdown(...fx.ShutdownOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeShutdowner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestWorker(runFunc func(ctx context.Context) error, shutdowner fx.Shutdowner, readiness *fakeReadiness, options Options) *baseWorker {
	return &baseWorker{
		name:       "test-worker",
		log:        zap.NewNop(),
		runFunc:    runFunc,
		shutdowner: shutdowner,
		readiness:  readiness,
		options:    options,
	}
}

func TestBaseWorker(t *testing.T) {
	t.Run("runs until stopped", func(t *testing.T) {
		started := make(chan struct{})
		w := newTestWorker(func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return nil
		}, &fakeShutdowner{}, &fakeReadiness{}, Options{})

		w.Start()
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("worker did not start")
		}
		w.Stop()
	})

	t.Run("waits for readiness before running", func(t *testing.T) {
		readiness := &fakeReadiness{block: make(chan struct{})}
		started := make(chan struct{})
		w := newTestWorker(func(ctx context.Context) error {
			close(started)
			return nil
		}, &fakeShutdowner{}, readiness, Options{WaitReady: true})

		w.Start()
		select {
		case <-started:
			t.Fatal("worker ran before readiness")
		case <-time.After(50 * time.Millisecond):
		}

		close(readiness.block)
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("worker did not run after readiness")
		}
		w.Stop()
	})

	t.Run("stop cancels a worker stuck waiting for readiness", func(t *testing.T) {
		readiness := &fakeReadiness{block: make(chan struct{})}
		ran := false
		w := newTestWorker(func(ctx context.Context) error {
			ran = true
			return nil
		}, &fakeShutdowner{}, readiness, Options{WaitReady: true})

		w.Start()
		w.Stop()

		assert.False(t, ran)
	})

	t.Run("fatal error triggers shutdown when configured", func(t *testing.T) {
		shutdowner := &fakeShutdowner{}
		w := newTestWorker(func(ctx context.Context) error {
			return errors.New("fatal")
		}, shutdowner, &fakeReadiness{}, Options{ShutdownOnError: true})

		w.Start()
		require.Eventually(t, func() bool { return shutdowner.callCount() == 1 }, time.Second, 5*time.Millisecond)
		w.Stop()
	})

	t.Run("error without shutdown option is contained", func(t *testing.T) {
		shutdowner := &fakeShutdowner{}
		w := newTestWorker(func(ctx context.Context) error {
			return errors.New("non-fatal")
		}, shutdowner, &fakeReadiness{}, Options{})

		w.Start()
		w.Stop()

		assert.Equal(t, 0, shutdowner.callCount())
	})
}
