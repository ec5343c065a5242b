// Package world provides the game world model: worlds, areas, rooms, and the
// connection graph between rooms, plus movement resolution over that graph.
package world

import "fmt"

// Lifecycle states a world moves through.
const (
	StateInactive State = "inactive"
	StateActive   State = "active"
	StateStopped  State = "stopped"
)

// State is the lifecycle state of a world.
type State string

// Valid reports whether s is a recognised lifecycle state.
func (s State) Valid() bool {
	switch s {
	case StateInactive, StateActive, StateStopped:
		return true
	}
	return false
}

// World is a single game instance with its own areas, rooms, and actors.
type World struct {
	// ID uniquely identifies the world.
	ID string
	// Name is the display name of the world.
	Name string
	// Description summarises the world for listings.
	Description string
	// ImageKey references an externally stored cover image.
	ImageKey string
	// IsPublic controls admission: public worlds never require approval.
	IsPublic bool
	// AutoRestart marks the world for automatic restart after a stop.
	AutoRestart bool
	// State is the current lifecycle state. Only active worlds accept joins.
	State State
}

// Area is a named cluster of rooms connected by grid edges. Areas are linked
// to each other only via portals.
type Area struct {
	// ID uniquely identifies the area.
	ID string
	// WorldID is the owning world.
	WorldID string
	// Name is the display name of the area.
	Name string
}

// Room is a single location on an area's coordinate grid. Rooms are immutable
// once created; no operation in this package mutates one.
type Room struct {
	// ID uniquely identifies the room.
	ID string
	// AreaID is the owning area.
	AreaID string
	// Name is the display name, also used as the portal target name.
	Name string
	// X and Y are the room's grid coordinates within its area.
	X int
	Y int
}

// Connection is an unordered, symmetric edge between two rooms. Same-area
// connections are grid edges whose direction is derived from the coordinate
// delta; cross-area connections are portals resolved by room name.
type Connection struct {
	// ID uniquely identifies the connection.
	ID string
	// Room1 and Room2 are the two endpoints. Order carries no meaning.
	Room1 *Room
	Room2 *Room
}

// IsPortal reports whether the connection crosses areas.
func (c *Connection) IsPortal() bool {
	return c.Room1.AreaID != c.Room2.AreaID
}

// Other returns the endpoint opposite the given room id.
//
// Postcondition: Returns (room, true) if roomID is one of the endpoints,
// or (nil, false) otherwise.
func (c *Connection) Other(roomID string) (*Room, bool) {
	switch roomID {
	case c.Room1.ID:
		return c.Room2, true
	case c.Room2.ID:
		return c.Room1, true
	}
	return nil, false
}

// Actor is a player-controlled character situated in exactly one room of
// exactly one world. The current room is the only field the session layer
// mutates, on successful navigation.
type Actor struct {
	// ID uniquely identifies the actor.
	ID string
	// Name is the in-game display name.
	Name string
	// UserID is the owning account.
	UserID string
	// WorldID is the world the actor belongs to.
	WorldID string
	// RoomID is the actor's current room.
	RoomID string
}

// Validate checks world invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (w *World) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("world ID must not be empty")
	}
	if w.Name == "" {
		return fmt.Errorf("world %q: name must not be empty", w.ID)
	}
	if !w.State.Valid() {
		return fmt.Errorf("world %q: unknown state %q", w.ID, w.State)
	}
	return nil
}
