package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questforge/mud/internal/game/world"
)

// ErrActorNotFound is returned when an actor lookup yields no results.
var ErrActorNotFound = errors.New("actor not found")

// ActorRepository provides actor persistence operations. Actors are created
// by the character-building surface; the session layer only reads them and
// updates their current room.
type ActorRepository struct {
	db *pgxpool.Pool
}

// NewActorRepository creates an ActorRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewActorRepository(db *pgxpool.Pool) *ActorRepository {
	return &ActorRepository{db: db}
}

const actorColumns = `id, name, user_id, world_id, room_id`

func scanActor(row pgx.Row) (*world.Actor, error) {
	var a world.Actor
	err := row.Scan(&a.ID, &a.Name, &a.UserID, &a.WorldID, &a.RoomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrActorNotFound
		}
		return nil, fmt.Errorf("scanning actor: %w", err)
	}
	return &a, nil
}

// Create inserts a new actor.
func (r *ActorRepository) Create(ctx context.Context, a *world.Actor) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO actors (id, name, user_id, world_id, room_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Name, a.UserID, a.WorldID, a.RoomID,
	)
	if err != nil {
		return fmt.Errorf("inserting actor: %w", err)
	}
	return nil
}

// Get retrieves an actor by id.
//
// Postcondition: Returns the actor or ErrActorNotFound.
func (r *ActorRepository) Get(ctx context.Context, id string) (*world.Actor, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE id = $1`, id)
	return scanActor(row)
}

// GetByName retrieves an actor by display name within a world.
//
// Postcondition: Returns the actor or ErrActorNotFound.
func (r *ActorRepository) GetByName(ctx context.Context, worldID, name string) (*world.Actor, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE world_id = $1 AND name = $2`,
		worldID, name)
	return scanActor(row)
}

// SetRoom updates the actor's current room. This is the only actor field
// the session layer mutates.
//
// Postcondition: Returns ErrActorNotFound if no row was updated.
func (r *ActorRepository) SetRoom(ctx context.Context, actorID, roomID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE actors SET room_id = $1 WHERE id = $2`, roomID, actorID)
	if err != nil {
		return fmt.Errorf("updating actor room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrActorNotFound
	}
	return nil
}
