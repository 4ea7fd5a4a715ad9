package deadletter

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/semaphore"

	"github.com/mirthwood/worldevents/pkg/persistence/mongo"
)

// CollectionName is the Mongo collection holding dead-letter records.
const CollectionName = "deadletters"

// mongoStore appends records to Mongo behind a small semaphore: a burst of
// poison messages must not exhaust the connection pool that handlers and
// the idempotency registry share.
type mongoStore struct {
	coll    mongo.Collection
	sem     *semaphore.Weighted
	timeout time.Duration
}

// newMongoStore creates the durable dead-letter store.
func newMongoStore(m mongo.Mongo) *mongoStore {
	return &mongoStore{
		coll:    m.GetCollection(CollectionName),
		sem:     semaphore.NewWeighted(8),
		timeout: 5 * time.Second,
	}
}

func (s *mongoStore) Append(ctx context.Context, record Record) error {
	acquireCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.sem.Acquire(acquireCtx, 1); err != nil {
		return fmt.Errorf("dead-letter write slot unavailable: %w", err)
	}
	defer s.sem.Release(1)

	if _, err := s.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert dead-letter record: %w", err)
	}
	return nil
}

func (s *mongoStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.coll.DeleteMany(ctx, bson.M{"deadLetteredUtc": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired dead-letter records: %w", err)
	}
	return result.DeletedCount, nil
}
