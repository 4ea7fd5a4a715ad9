package idempotency

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Guard is the dual-layer duplicate suppressor: the in-process cache
// answers cheap repeat deliveries inside one worker, the durable registry
// answers redelivery across restarts and workers.
type Guard struct {
	cache    *Cache
	registry Registry
	log      *zap.Logger
	clock    func() time.Time
}

// NewGuard wires the two layers together.
func NewGuard(cache *Cache, registry Registry, log *zap.Logger) *Guard {
	return &Guard{
		cache:    cache,
		registry: registry,
		log:      log.With(zap.String("component", "idempotency-guard")),
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// Check reports whether the key was already processed. The cache is
// consulted first; a registry hit backfills the cache so the next
// redelivery in this process stays cheap. A registry I/O failure is
// returned to the caller: the transport should redeliver rather than risk a
// double apply.
func (g *Guard) Check(ctx context.Context, key string) (bool, error) {
	if g.cache.Seen(key) {
		return true, nil
	}

	record, err := g.registry.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("idempotency registry lookup for %q: %w", key, err)
	}
	if record == nil {
		return false, nil
	}

	g.cache.Add(key)
	g.log.Debug("duplicate detected via durable registry",
		zap.String("idempotency_key", key),
		zap.Time("processed_at", record.ProcessedAtUTC))
	return true, nil
}

// MarkProcessed records a successful application in both layers. Called
// strictly after handler completion; the write being atomic in the registry
// closes the race where two concurrent deliveries both passed Check.
func (g *Guard) MarkProcessed(ctx context.Context, key, partitionKey, outcome string) error {
	record := Record{
		Key:            key,
		PartitionKey:   partitionKey,
		ProcessedAtUTC: g.clock(),
		Outcome:        outcome,
	}

	created, err := g.registry.CreateIfAbsent(ctx, record)
	if err != nil {
		return fmt.Errorf("idempotency registry write for %q: %w", key, err)
	}
	if !created {
		// A concurrent delivery finished first. The effect is already
		// applied (handlers are upsert-idempotent), so this is log-worthy
		// but not an error.
		g.log.Info("idempotency record already present, concurrent delivery won",
			zap.String("idempotency_key", key))
	}

	g.cache.Add(key)
	return nil
}
