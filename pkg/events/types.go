package events

// EventType identifies a world event within the closed, versioned
// enumeration. Unknown strings are rejected rather than coerced so that no
// event type can exist without a handler claiming it; adding a type is an
// explicit edit here plus a handler registration.
type EventType string

const (
	TypeExitCreate       EventType = "World.Exit.Create"
	TypeLocationDescribe EventType = "World.Location.Describe"
	TypeNPCTick          EventType = "World.NPC.Tick"
)

// SchemaVersion is the current envelope schema version stamped on emission.
const SchemaVersion = 1

var knownTypes = map[EventType]struct{}{
	TypeExitCreate:       {},
	TypeLocationDescribe: {},
	TypeNPCTick:          {},
}

// KnownTypes returns the closed enumeration of event types.
func KnownTypes() []EventType {
	types := make([]EventType, 0, len(knownTypes))
	for t := range knownTypes {
		types = append(types, t)
	}
	return types
}

// Valid reports whether the type belongs to the closed enumeration.
func (t EventType) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

func (t EventType) String() string {
	return string(t)
}

// ActorKind identifies the originator of an event.
type ActorKind string

const (
	ActorPlayer ActorKind = "player"
	ActorNPC    ActorKind = "npc"
	ActorSystem ActorKind = "system"
)

// Valid reports whether the kind is one of player, npc or system.
func (k ActorKind) Valid() bool {
	switch k {
	case ActorPlayer, ActorNPC, ActorSystem:
		return true
	default:
		return false
	}
}

func (k ActorKind) String() string {
	return string(k)
}
