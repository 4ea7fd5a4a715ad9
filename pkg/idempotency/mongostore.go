package idempotency

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/mirthwood/worldevents/pkg/persistence/mongo"
)

// CollectionName is the Mongo collection backing the durable registry.
const CollectionName = "idempotency"

type mongoRegistry struct {
	coll mongo.Collection
}

// NewMongoRegistry creates the durable registry over Mongo. Uniqueness of
// the idempotency key rides on the _id index, so CreateIfAbsent is a single
// atomic insert.
func NewMongoRegistry(m mongo.Mongo) Registry {
	return &mongoRegistry{coll: m.GetCollection(CollectionName)}
}

func (r *mongoRegistry) Get(ctx context.Context, key string) (*Record, error) {
	var record Record
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch idempotency record: %w", err)
	}
	return &record, nil
}

func (r *mongoRegistry) CreateIfAbsent(ctx context.Context, record Record) (bool, error) {
	_, err := r.coll.InsertOne(ctx, record)
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert idempotency record: %w", err)
	}
	return true, nil
}
