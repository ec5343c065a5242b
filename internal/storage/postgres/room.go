package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questforge/mud/internal/game/world"
)

// ErrRoomNotFound is returned when a room lookup yields no results.
var ErrRoomNotFound = errors.New("room not found")

// RoomRepository provides area, room, and connection persistence.
type RoomRepository struct {
	db *pgxpool.Pool
}

// NewRoomRepository creates a RoomRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

// CreateArea inserts a new area.
func (r *RoomRepository) CreateArea(ctx context.Context, a *world.Area) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO areas (id, world_id, name) VALUES ($1, $2, $3)`,
		a.ID, a.WorldID, a.Name,
	)
	if err != nil {
		return fmt.Errorf("inserting area: %w", err)
	}
	return nil
}

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, rm *world.Room) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO rooms (id, area_id, name, x, y) VALUES ($1, $2, $3, $4, $5)`,
		rm.ID, rm.AreaID, rm.Name, rm.X, rm.Y,
	)
	if err != nil {
		return fmt.Errorf("inserting room: %w", err)
	}
	return nil
}

// CreateConnection inserts a new connection between two existing rooms.
func (r *RoomRepository) CreateConnection(ctx context.Context, c *world.Connection) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO room_connections (id, room1_id, room2_id) VALUES ($1, $2, $3)`,
		c.ID, c.Room1.ID, c.Room2.ID,
	)
	if err != nil {
		return fmt.Errorf("inserting room connection: %w", err)
	}
	return nil
}

// Get retrieves a room by id.
//
// Postcondition: Returns the room or ErrRoomNotFound.
func (r *RoomRepository) Get(ctx context.Context, id string) (*world.Room, error) {
	var rm world.Room
	err := r.db.QueryRow(ctx,
		`SELECT id, area_id, name, x, y FROM rooms WHERE id = $1`, id,
	).Scan(&rm.ID, &rm.AreaID, &rm.Name, &rm.X, &rm.Y)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("querying room: %w", err)
	}
	return &rm, nil
}

// ListByWorld returns all rooms of a world, ordered by area then id.
func (r *RoomRepository) ListByWorld(ctx context.Context, worldID string) ([]*world.Room, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.area_id, r.name, r.x, r.y
		 FROM rooms r
		 JOIN areas a ON a.id = r.area_id
		 WHERE a.world_id = $1
		 ORDER BY r.area_id, r.id`, worldID)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*world.Room
	for rows.Next() {
		var rm world.Room
		if err := rows.Scan(&rm.ID, &rm.AreaID, &rm.Name, &rm.X, &rm.Y); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rooms = append(rooms, &rm)
	}
	return rooms, rows.Err()
}

// ConnectionsFor returns the connections incident to a room with both
// endpoints materialised, ordered by connection id so resolution over them
// is deterministic.
func (r *RoomRepository) ConnectionsFor(ctx context.Context, roomID string) ([]*world.Connection, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id,
		        r1.id, r1.area_id, r1.name, r1.x, r1.y,
		        r2.id, r2.area_id, r2.name, r2.x, r2.y
		 FROM room_connections c
		 JOIN rooms r1 ON r1.id = c.room1_id
		 JOIN rooms r2 ON r2.id = c.room2_id
		 WHERE c.room1_id = $1 OR c.room2_id = $1
		 ORDER BY c.id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("querying room connections: %w", err)
	}
	defer rows.Close()

	var conns []*world.Connection
	for rows.Next() {
		var (
			c      world.Connection
			r1, r2 world.Room
		)
		err := rows.Scan(&c.ID,
			&r1.ID, &r1.AreaID, &r1.Name, &r1.X, &r1.Y,
			&r2.ID, &r2.AreaID, &r2.Name, &r2.X, &r2.Y)
		if err != nil {
			return nil, fmt.Errorf("scanning room connection: %w", err)
		}
		c.Room1 = &r1
		c.Room2 = &r2
		conns = append(conns, &c)
	}
	return conns, rows.Err()
}
