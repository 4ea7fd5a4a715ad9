package deadletter

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetentionStore prunes expired dead-letter records.
type RetentionStore interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper deletes dead-letter records past the retention window. Records
// are triage artifacts, not an archive; unbounded growth would eventually
// drown the collection the on-call engineer has to read.
type Sweeper struct {
	store     RetentionStore
	retention time.Duration
	interval  time.Duration
	log       *zap.Logger
}

func NewSweeper(store RetentionStore, conf Config, log *zap.Logger) *Sweeper {
	return &Sweeper{
		store:     store,
		retention: conf.Retention,
		interval:  conf.SweepInterval,
		log:       log.With(zap.String("component", "deadletter-sweeper")),
	}
}

// Run sweeps on a fixed interval until the context is cancelled. A failed
// sweep is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.retention)

	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.log.Info("expired dead-letter records removed",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
}
