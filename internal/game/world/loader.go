package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlWorldFile is the top-level YAML structure for world fixture files.
type yamlWorldFile struct {
	World yamlWorld `yaml:"world"`
}

// yamlWorld is the YAML representation of a world.
type yamlWorld struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Public      bool       `yaml:"public"`
	AutoRestart bool       `yaml:"auto_restart"`
	Areas       []yamlArea `yaml:"areas"`
	Connections []yamlConn `yaml:"connections"`
}

// yamlArea is the YAML representation of an area and its rooms.
type yamlArea struct {
	ID    string     `yaml:"id"`
	Name  string     `yaml:"name"`
	Rooms []yamlRoom `yaml:"rooms"`
}

// yamlRoom is the YAML representation of a room.
type yamlRoom struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
}

// yamlConn is the YAML representation of a connection between two rooms.
type yamlConn struct {
	ID    string `yaml:"id"`
	Room1 string `yaml:"room1"`
	Room2 string `yaml:"room2"`
}

// Fixture is a fully materialised world definition loaded from YAML,
// ready to be written to the store or served in-memory.
type Fixture struct {
	World       *World
	Areas       []*Area
	Rooms       []*Room
	Connections []*Connection
}

// Graph builds the room graph for the fixture.
func (f *Fixture) Graph() (*Graph, error) {
	return NewGraph(f.Rooms, f.Connections)
}

// LoadFixtureFromFile reads and validates a single world YAML file.
//
// Precondition: path must point to a valid YAML world file.
// Postcondition: Returns a validated Fixture or a non-nil error.
func LoadFixtureFromFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world file %s: %w", path, err)
	}
	f, err := LoadFixtureFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing world file %s: %w", path, err)
	}
	return f, nil
}

// LoadFixtureFromBytes parses and validates a world fixture from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the world schema.
// Postcondition: Returns a validated Fixture or a non-nil error.
func LoadFixtureFromBytes(data []byte) (*Fixture, error) {
	var file yamlWorldFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshaling world: %w", err)
	}

	yw := file.World
	f := &Fixture{
		World: &World{
			ID:          yw.ID,
			Name:        yw.Name,
			Description: yw.Description,
			IsPublic:    yw.Public,
			AutoRestart: yw.AutoRestart,
			State:       StateInactive,
		},
	}

	roomsByID := make(map[string]*Room)
	for _, ya := range yw.Areas {
		area := &Area{ID: ya.ID, WorldID: yw.ID, Name: ya.Name}
		f.Areas = append(f.Areas, area)
		for _, yr := range ya.Rooms {
			room := &Room{ID: yr.ID, AreaID: ya.ID, Name: yr.Name, X: yr.X, Y: yr.Y}
			f.Rooms = append(f.Rooms, room)
			roomsByID[room.ID] = room
		}
	}

	for _, yc := range yw.Connections {
		r1, ok := roomsByID[yc.Room1]
		if !ok {
			return nil, fmt.Errorf("connection %q: unknown room %q", yc.ID, yc.Room1)
		}
		r2, ok := roomsByID[yc.Room2]
		if !ok {
			return nil, fmt.Errorf("connection %q: unknown room %q", yc.ID, yc.Room2)
		}
		f.Connections = append(f.Connections, &Connection{ID: yc.ID, Room1: r1, Room2: r2})
	}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// LoadFixturesFromDir loads all .yaml/.yml world files in a directory.
//
// Postcondition: Returns fixtures sorted by filename, or an error on the
// first invalid file.
func LoadFixturesFromDir(dir string) ([]*Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading world directory %s: %w", dir, err)
	}

	var fixtures []*Fixture
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		f, err := LoadFixtureFromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

// validate checks fixture invariants: world fields, unique rooms, unique grid
// coordinates within an area, named portal endpoints, and a buildable graph.
func (f *Fixture) validate() error {
	if err := f.World.Validate(); err != nil {
		return err
	}
	if len(f.Areas) == 0 {
		return fmt.Errorf("world %q: must contain at least one area", f.World.ID)
	}

	coords := make(map[string]string) // areaID:x:y → roomID
	for _, r := range f.Rooms {
		if r.Name == "" {
			return fmt.Errorf("world %q: room %q: name must not be empty", f.World.ID, r.ID)
		}
		key := fmt.Sprintf("%s:%d:%d", r.AreaID, r.X, r.Y)
		if prev, taken := coords[key]; taken {
			return fmt.Errorf("world %q: rooms %q and %q share grid position (%d,%d) in area %q",
				f.World.ID, prev, r.ID, r.X, r.Y, r.AreaID)
		}
		coords[key] = r.ID
	}

	for _, c := range f.Connections {
		if c.Room1.ID == c.Room2.ID {
			return fmt.Errorf("world %q: connection %q is a self-loop on room %q",
				f.World.ID, c.ID, c.Room1.ID)
		}
	}

	if _, err := NewGraph(f.Rooms, f.Connections); err != nil {
		return fmt.Errorf("world %q: %w", f.World.ID, err)
	}
	return nil
}
