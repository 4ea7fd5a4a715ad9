package idempotency

import (
	"context"
	"time"
)

// Record is the durable proof that a logical event was applied. Created
// only after a handler completes successfully, queried before every
// processing attempt, never mutated.
type Record struct {
	Key            string    `bson:"_id" json:"idempotencyKey"`
	PartitionKey   string    `bson:"partitionKey" json:"partitionKey"`
	ProcessedAtUTC time.Time `bson:"processedAtUtc" json:"processedAtUtc"`
	Outcome        string    `bson:"outcome" json:"outcome"`
}

// Registry is the durable, cross-process layer of the duplicate guard.
type Registry interface {
	// Get returns the record for the key, or nil when absent.
	Get(ctx context.Context, key string) (*Record, error)

	// CreateIfAbsent atomically writes the record unless one already
	// exists for its key. Returns false when a concurrent delivery won
	// the race; that is a duplicate, not an error.
	CreateIfAbsent(ctx context.Context, record Record) (bool, error)
}
