package world

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mirthwood/worldevents/pkg/persistence/mongo"
)

// Collection names for the world state stores.
const (
	LocationsCollection    = "locations"
	DescriptionsCollection = "descriptions"
	NPCsCollection         = "npcs"
)

type locationRepository struct {
	coll mongo.Collection
}

// NewLocationRepository creates the Mongo-backed location store.
func NewLocationRepository(m mongo.Mongo) LocationRepository {
	return &locationRepository{coll: m.GetCollection(LocationsCollection)}
}

// EnsureExit is a single conditional update: the exit is pushed only when
// no exit in that direction exists yet, so concurrent or redelivered
// creates converge on one exit per direction.
func (r *locationRepository) EnsureExit(ctx context.Context, locationID string, exit Exit) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: locationID},
		{Key: "exits.direction", Value: bson.D{{Key: "$ne", Value: exit.Direction}}},
	}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "exits", Value: exit}}},
		{Key: "$set", Value: bson.D{{Key: "updatedUtc", Value: time.Now().UTC()}}},
	}

	result, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// The upsert races with itself when the direction already exists:
		// the filter matches nothing and the upsert path collides on _id.
		// Treat that as "already present".
		if mongodriver.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to ensure exit %s from %s: %w", exit.Direction, locationID, err)
	}

	return result.ModifiedCount > 0 || result.UpsertedCount > 0, nil
}

type descriptionRepository struct {
	coll mongo.Collection
}

// NewDescriptionRepository creates the Mongo-backed description store.
func NewDescriptionRepository(m mongo.Mongo) DescriptionRepository {
	return &descriptionRepository{coll: m.GetCollection(DescriptionsCollection)}
}

func (r *descriptionRepository) UpsertDescription(ctx context.Context, desc Description) (bool, error) {
	desc.UpdatedUTC = time.Now().UTC()

	result, err := r.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: desc.LocationID}},
		desc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("failed to upsert description for %s: %w", desc.LocationID, err)
	}

	return result.UpsertedCount > 0, nil
}

type npcRepository struct {
	coll mongo.Collection
}

// NewNPCRepository creates the Mongo-backed NPC presence store.
func NewNPCRepository(m mongo.Mongo) NPCRepository {
	return &npcRepository{coll: m.GetCollection(NPCsCollection)}
}

func (r *npcRepository) SetPresence(ctx context.Context, presence Presence) (bool, error) {
	presence.TickedUTC = time.Now().UTC()

	result, err := r.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: presence.NPCID}},
		presence,
		options.Replace().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("failed to set presence for npc %s: %w", presence.NPCID, err)
	}

	return result.UpsertedCount > 0, nil
}
