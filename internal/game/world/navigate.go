package world

import "errors"

// Direction is a cardinal movement on an area's grid.
type Direction string

// The four cardinal directions.
const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Directions lists the cardinal directions in a fixed order.
var Directions = []Direction{North, South, East, West}

// Valid reports whether d is one of the four cardinal directions.
func (d Direction) Valid() bool {
	switch d {
	case North, South, East, West:
		return true
	}
	return false
}

// Opposite returns the opposite cardinal direction, or "" for an
// unrecognised one.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return ""
}

// ErrRoomsNotConnected is returned when no connection incident to the current
// room matches the requested direction or portal name.
var ErrRoomsNotConnected = errors.New("rooms are not connected")

// matchesDirection reports whether the coordinate delta from curr to other
// corresponds to the requested direction. The convention is fixed as
// (curr−other): (0,+1) is north, (0,−1) is south, (+1,0) is west, (−1,0)
// is east.
func matchesDirection(curr, other *Room, dir Direction) bool {
	dx := curr.X - other.X
	dy := curr.Y - other.Y
	switch {
	case dx == 0 && dy == 1:
		return dir == North
	case dx == 0 && dy == -1:
		return dir == South
	case dx == 1 && dy == 0:
		return dir == West
	case dx == -1 && dy == 0:
		return dir == East
	}
	return false
}

// Destination resolves cardinal movement from curr across its incident
// connections. Connections are evaluated in the order given; the far endpoint
// of the first same-area connection whose coordinate delta matches dir is the
// result. Self-loops and connections not touching curr are skipped.
//
// Postcondition: Returns the destination room, or ErrRoomsNotConnected if no
// connection matches.
func Destination(curr *Room, conns []*Connection, dir Direction) (*Room, error) {
	for _, conn := range conns {
		if conn.IsPortal() {
			continue
		}
		other, ok := conn.Other(curr.ID)
		if !ok || other.ID == curr.ID {
			continue
		}
		if matchesDirection(curr, other, dir) {
			return other, nil
		}
	}
	return nil, ErrRoomsNotConnected
}

// PortalDestination resolves a named portal from curr across its incident
// connections. The far endpoint of the first cross-area connection whose
// other room's name equals portalName is the result.
//
// Postcondition: Returns the destination room, or ErrRoomsNotConnected if no
// portal matches.
func PortalDestination(curr *Room, conns []*Connection, portalName string) (*Room, error) {
	for _, conn := range conns {
		if !conn.IsPortal() {
			continue
		}
		other, ok := conn.Other(curr.ID)
		if !ok {
			continue
		}
		if other.Name == portalName {
			return other, nil
		}
	}
	return nil, ErrRoomsNotConnected
}
