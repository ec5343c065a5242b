package world

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func room(id, areaID, name string, x, y int) *Room {
	return &Room{ID: id, AreaID: areaID, Name: name, X: x, Y: y}
}

func conn(id string, r1, r2 *Room) *Connection {
	return &Connection{ID: id, Room1: r1, Room2: r2}
}

func TestDestination_CardinalDirections(t *testing.T) {
	center := room("center", "a1", "Center", 0, 0)
	north := room("north", "a1", "North Hall", 0, -1)
	south := room("south", "a1", "South Hall", 0, 1)
	east := room("east", "a1", "East Wing", 1, 0)
	west := room("west", "a1", "West Wing", -1, 0)

	conns := []*Connection{
		conn("c1", center, north),
		conn("c2", center, south),
		conn("c3", east, center),
		conn("c4", center, west),
	}

	tests := []struct {
		dir  Direction
		want string
	}{
		{North, "north"},
		{South, "south"},
		{East, "east"},
		{West, "west"},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			got, err := Destination(center, conns, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestDestination_NotConnected(t *testing.T) {
	center := room("center", "a1", "Center", 0, 0)
	east := room("east", "a1", "East Wing", 1, 0)
	conns := []*Connection{conn("c1", center, east)}

	_, err := Destination(center, conns, North)
	assert.ErrorIs(t, err, ErrRoomsNotConnected)
}

func TestDestination_NoConnections(t *testing.T) {
	center := room("center", "a1", "Center", 0, 0)
	_, err := Destination(center, nil, North)
	assert.ErrorIs(t, err, ErrRoomsNotConnected)
}

func TestDestination_SkipsPortals(t *testing.T) {
	// A portal endpoint happens to sit one step east on the grid; cardinal
	// movement must not use it.
	center := room("center", "a1", "Center", 0, 0)
	gate := room("gate", "a2", "Old Gate", 1, 0)
	conns := []*Connection{conn("c1", center, gate)}

	_, err := Destination(center, conns, East)
	assert.ErrorIs(t, err, ErrRoomsNotConnected)
}

func TestDestination_SkipsSelfLoop(t *testing.T) {
	center := room("center", "a1", "Center", 0, 0)
	east := room("east", "a1", "East Wing", 1, 0)
	conns := []*Connection{
		conn("loop", center, center),
		conn("c1", center, east),
	}

	got, err := Destination(center, conns, East)
	require.NoError(t, err)
	assert.Equal(t, "east", got.ID)
}

func TestDestination_FirstMatchWins(t *testing.T) {
	// Two rooms at the same grid offset: the first connection in iteration
	// order is the deterministic winner.
	center := room("center", "a1", "Center", 0, 0)
	first := room("first", "a1", "First", 1, 0)
	second := room("second", "a1", "Second", 1, 0)
	conns := []*Connection{
		conn("c1", center, first),
		conn("c2", center, second),
	}

	got, err := Destination(center, conns, East)
	require.NoError(t, err)
	assert.Equal(t, "first", got.ID)
}

func TestDestination_Symmetry(t *testing.T) {
	a := room("a", "a1", "A", 2, 3)
	b := room("b", "a1", "B", 2, 4)
	conns := []*Connection{conn("c1", a, b)}

	got, err := Destination(a, conns, South)
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	back, err := Destination(b, conns, North)
	require.NoError(t, err)
	assert.Equal(t, "a", back.ID)
}

func TestPortalDestination(t *testing.T) {
	plaza := room("plaza", "a1", "Plaza", 0, 0)
	gate := room("gate", "a2", "Old Gate", 7, 7)
	cellar := room("cellar", "a3", "Cellar", 0, 0)
	conns := []*Connection{
		conn("p1", plaza, gate),
		conn("p2", cellar, plaza),
	}

	got, err := PortalDestination(plaza, conns, "Old Gate")
	require.NoError(t, err)
	assert.Equal(t, "gate", got.ID)

	got, err = PortalDestination(plaza, conns, "Cellar")
	require.NoError(t, err)
	assert.Equal(t, "cellar", got.ID)
}

func TestPortalDestination_NoMatch(t *testing.T) {
	plaza := room("plaza", "a1", "Plaza", 0, 0)
	gate := room("gate", "a2", "Old Gate", 7, 7)
	conns := []*Connection{conn("p1", plaza, gate)}

	_, err := PortalDestination(plaza, conns, "Missing Door")
	assert.ErrorIs(t, err, ErrRoomsNotConnected)
}

func TestPortalDestination_IgnoresGridEdges(t *testing.T) {
	plaza := room("plaza", "a1", "Plaza", 0, 0)
	east := room("east", "a1", "East Wing", 1, 0)
	conns := []*Connection{conn("c1", plaza, east)}

	_, err := PortalDestination(plaza, conns, "East Wing")
	assert.ErrorIs(t, err, ErrRoomsNotConnected)
}

func TestDirection_Opposite(t *testing.T) {
	for _, d := range Directions {
		assert.Equal(t, d, d.Opposite().Opposite())
	}
	assert.Equal(t, Direction(""), Direction("sideways").Opposite())
}

// TestDestination_GridSymmetryProperty walks a generated grid of rooms and
// checks that every step is reversible via the opposite direction.
func TestDestination_GridSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.IntRange(2, 5).Draw(t, "width")
		height := rapid.IntRange(2, 5).Draw(t, "height")

		rooms := make(map[[2]int]*Room)
		var all []*Room
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				r := room(fmt.Sprintf("r%d_%d", x, y), "a1", fmt.Sprintf("Room %d,%d", x, y), x, y)
				rooms[[2]int{x, y}] = r
				all = append(all, r)
			}
		}

		var conns []*Connection
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				if x+1 < width {
					conns = append(conns, conn(fmt.Sprintf("h%d_%d", x, y), rooms[[2]int{x, y}], rooms[[2]int{x + 1, y}]))
				}
				if y+1 < height {
					conns = append(conns, conn(fmt.Sprintf("v%d_%d", x, y), rooms[[2]int{x, y}], rooms[[2]int{x, y + 1}]))
				}
			}
		}

		g, err := NewGraph(all, conns)
		require.NoError(t, err)

		x := rapid.IntRange(0, width-1).Draw(t, "x")
		y := rapid.IntRange(0, height-1).Draw(t, "y")
		dir := rapid.SampledFrom(Directions).Draw(t, "dir")

		curr := rooms[[2]int{x, y}]
		dest, err := g.ResolveDirection(curr.ID, dir)
		if err != nil {
			require.ErrorIs(t, err, ErrRoomsNotConnected)
			return
		}

		back, err := g.ResolveDirection(dest.ID, dir.Opposite())
		require.NoError(t, err)
		require.Equal(t, curr.ID, back.ID)
	})
}
