package world

import (
	"context"
	"time"
)

// Exit is a directed connection between two locations.
type Exit struct {
	Direction    string    `bson:"direction" json:"direction"`
	ToLocationID string    `bson:"toLocationId" json:"toLocationId"`
	CreatedUTC   time.Time `bson:"createdUtc" json:"createdUtc"`
}

// Location is the persisted world node exits hang off.
type Location struct {
	ID         string    `bson:"_id" json:"id"`
	Exits      []Exit    `bson:"exits" json:"exits"`
	UpdatedUTC time.Time `bson:"updatedUtc" json:"updatedUtc"`
}

// Description is the narrative text attached to a location.
type Description struct {
	LocationID string    `bson:"_id" json:"locationId"`
	Text       string    `bson:"text" json:"text"`
	AuthorID   string    `bson:"authorId,omitempty" json:"authorId,omitempty"`
	UpdatedUTC time.Time `bson:"updatedUtc" json:"updatedUtc"`
}

// Presence is an NPC's last observed position and behaviour.
type Presence struct {
	NPCID      string    `bson:"_id" json:"npcId"`
	LocationID string    `bson:"locationId" json:"locationId"`
	Activity   string    `bson:"activity,omitempty" json:"activity,omitempty"`
	Mood       string    `bson:"mood,omitempty" json:"mood,omitempty"`
	TickedUTC  time.Time `bson:"tickedUtc" json:"tickedUtc"`
}

// Every write below is an upsert keyed on stable identity, never an
// increment: redelivery of an already-applied event must converge on the
// same state.

// LocationRepository persists the location graph.
type LocationRepository interface {
	// EnsureExit adds the exit to the location unless an exit in that
	// direction already exists. Returns true when the exit was created.
	EnsureExit(ctx context.Context, locationID string, exit Exit) (bool, error)
}

// DescriptionRepository persists location descriptions.
type DescriptionRepository interface {
	// UpsertDescription replaces the location's description. Returns true
	// when no description existed before.
	UpsertDescription(ctx context.Context, desc Description) (bool, error)
}

// NPCRepository persists NPC presence.
type NPCRepository interface {
	// SetPresence records the NPC's position for this tick. Returns true
	// when the NPC was previously unknown.
	SetPresence(ctx context.Context, presence Presence) (bool, error)
}
