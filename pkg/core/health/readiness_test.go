package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadiness_AllComponentsReady(t *testing.T) {
	r := newReadiness(zap.NewNop())

	markMongo := r.AddComponent("mongo")
	markKafka := r.AddComponent("kafka")

	assert.False(t, r.IsReady())

	markMongo()
	assert.False(t, r.IsReady(), "one component still pending")

	markKafka()
	assert.True(t, r.IsReady())

	status := r.GetStatus()
	assert.True(t, status.Ready)
	assert.Len(t, status.Components, 2)
	assert.False(t, status.ReadyAt.IsZero())
}

func TestReadiness_MarkReadyIsIdempotent(t *testing.T) {
	r := newReadiness(zap.NewNop())

	mark := r.AddComponent("mongo")
	mark()
	mark()

	assert.True(t, r.IsReady())
}

func TestReadiness_WaitReady(t *testing.T) {
	r := newReadiness(zap.NewNop())
	mark := r.AddComponent("mongo")

	done := make(chan error, 1)
	go func() {
		done <- r.WaitReady(context.Background())
	}()

	mark()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitReady did not return after readiness")
	}
}

func TestReadiness_WaitReadyCancelled(t *testing.T) {
	r := newReadiness(zap.NewNop())
	r.AddComponent("mongo")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, r.WaitReady(ctx), context.Canceled)
}
