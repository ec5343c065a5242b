package world

import (
	"fmt"
	"sync"
)

// Graph is the static-per-world room graph. It indexes rooms by id and keeps
// each room's incident connections in insertion order, so resolution is
// deterministic when multiple connections could match.
type Graph struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	incident map[string][]*Connection
}

// NewGraph builds a Graph from the given rooms and connections.
//
// Precondition: every connection endpoint must be one of the given rooms.
// Postcondition: Returns a Graph with all rooms indexed, or an error on
// duplicate room IDs or dangling connection endpoints.
func NewGraph(rooms []*Room, conns []*Connection) (*Graph, error) {
	g := &Graph{
		rooms:    make(map[string]*Room, len(rooms)),
		incident: make(map[string][]*Connection),
	}

	for _, r := range rooms {
		if _, exists := g.rooms[r.ID]; exists {
			return nil, fmt.Errorf("duplicate room ID: %q", r.ID)
		}
		g.rooms[r.ID] = r
	}

	for _, c := range conns {
		if _, ok := g.rooms[c.Room1.ID]; !ok {
			return nil, fmt.Errorf("connection %q: unknown room %q", c.ID, c.Room1.ID)
		}
		if _, ok := g.rooms[c.Room2.ID]; !ok {
			return nil, fmt.Errorf("connection %q: unknown room %q", c.ID, c.Room2.ID)
		}
		g.incident[c.Room1.ID] = append(g.incident[c.Room1.ID], c)
		if c.Room2.ID != c.Room1.ID {
			g.incident[c.Room2.ID] = append(g.incident[c.Room2.ID], c)
		}
	}

	return g, nil
}

// Room returns the room with the given ID.
//
// Postcondition: Returns (room, true) if found, or (nil, false) otherwise.
func (g *Graph) Room(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[id]
	return r, ok
}

// RoomCount returns the number of rooms in the graph.
func (g *Graph) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Incident returns the connections touching the given room, in the order
// they were added to the graph.
//
// Postcondition: Returns a slice of connections (may be empty). The caller
// must not mutate it.
func (g *Graph) Incident(roomID string) []*Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.incident[roomID]
}

// ResolveDirection resolves cardinal movement from the given room.
//
// Postcondition: Returns the destination room, ErrRoomsNotConnected when no
// incident connection matches, or an error if the room is unknown.
func (g *Graph) ResolveDirection(roomID string, dir Direction) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	curr, ok := g.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room %q not found", roomID)
	}
	return Destination(curr, g.incident[roomID], dir)
}

// ResolvePortal resolves a named portal from the given room.
//
// Postcondition: Returns the destination room, ErrRoomsNotConnected when no
// portal matches, or an error if the room is unknown.
func (g *Graph) ResolvePortal(roomID, portalName string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	curr, ok := g.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room %q not found", roomID)
	}
	return PortalDestination(curr, g.incident[roomID], portalName)
}
