package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questforge/mud/internal/game/world"
)

// ErrWorldNotFound is returned when a world lookup yields no results.
var ErrWorldNotFound = errors.New("world not found")

// WorldUpdateArgs carries a partial world update. A nil field means
// "no modification".
type WorldUpdateArgs struct {
	Name        *string
	Description *string
	ImageKey    *string
	IsPublic    *bool
	AutoRestart *bool
}

// WorldRepository provides world persistence operations.
type WorldRepository struct {
	db *pgxpool.Pool
}

// NewWorldRepository creates a WorldRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewWorldRepository(db *pgxpool.Pool) *WorldRepository {
	return &WorldRepository{db: db}
}

const worldColumns = `id, name, description, image_key, is_public, auto_restart, state`

func scanWorld(row pgx.Row) (*world.World, error) {
	var w world.World
	err := row.Scan(&w.ID, &w.Name, &w.Description, &w.ImageKey, &w.IsPublic, &w.AutoRestart, &w.State)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorldNotFound
		}
		return nil, fmt.Errorf("scanning world: %w", err)
	}
	return &w, nil
}

// Create inserts a new world.
//
// Precondition: w.ID and w.Name must be non-empty; w.State must be valid.
// Postcondition: The world row exists, or a non-nil error is returned.
func (r *WorldRepository) Create(ctx context.Context, w *world.World) error {
	if err := w.Validate(); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO worlds (id, name, description, image_key, is_public, auto_restart, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.Name, w.Description, w.ImageKey, w.IsPublic, w.AutoRestart, w.State,
	)
	if err != nil {
		return fmt.Errorf("inserting world: %w", err)
	}
	return nil
}

// Get retrieves a world by id.
//
// Postcondition: Returns the world or ErrWorldNotFound.
func (r *WorldRepository) Get(ctx context.Context, id string) (*world.World, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+worldColumns+` FROM worlds WHERE id = $1`, id)
	return scanWorld(row)
}

// List returns all worlds ordered by name.
func (r *WorldRepository) List(ctx context.Context) ([]*world.World, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+worldColumns+` FROM worlds ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying worlds: %w", err)
	}
	defer rows.Close()

	var worlds []*world.World
	for rows.Next() {
		w, err := scanWorld(rows)
		if err != nil {
			return nil, err
		}
		worlds = append(worlds, w)
	}
	return worlds, rows.Err()
}

// Update applies a partial update in one transaction.
//
// Postcondition: Returns the updated world and whether the visibility flag
// flipped, or ErrWorldNotFound. Either every given field is applied or none.
func (r *WorldRepository) Update(ctx context.Context, id string, args WorldUpdateArgs) (*world.World, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	curr, err := scanWorld(tx.QueryRow(ctx,
		`SELECT `+worldColumns+` FROM worlds WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, false, err
	}

	updated := *curr
	if args.Name != nil {
		updated.Name = *args.Name
	}
	if args.Description != nil {
		updated.Description = *args.Description
	}
	if args.ImageKey != nil {
		updated.ImageKey = *args.ImageKey
	}
	if args.IsPublic != nil {
		updated.IsPublic = *args.IsPublic
	}
	if args.AutoRestart != nil {
		updated.AutoRestart = *args.AutoRestart
	}

	_, err = tx.Exec(ctx,
		`UPDATE worlds
		 SET name = $1, description = $2, image_key = $3, is_public = $4, auto_restart = $5
		 WHERE id = $6`,
		updated.Name, updated.Description, updated.ImageKey, updated.IsPublic, updated.AutoRestart, id,
	)
	if err != nil {
		return nil, false, fmt.Errorf("updating world: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("committing world update: %w", err)
	}

	return &updated, curr.IsPublic != updated.IsPublic, nil
}

// SetState transitions the world's lifecycle state.
//
// Precondition: state must be valid.
// Postcondition: Returns ErrWorldNotFound if no row was updated.
func (r *WorldRepository) SetState(ctx context.Context, id string, state world.State) error {
	if !state.Valid() {
		return fmt.Errorf("invalid world state %q", state)
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE worlds SET state = $1 WHERE id = $2`, state, id)
	if err != nil {
		return fmt.Errorf("updating world state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWorldNotFound
	}
	return nil
}

// Delete removes a world. Dependent rows (areas, rooms, connections, join
// requests, actors) are removed by the schema's cascade rules; this layer
// performs no cascading itself.
//
// Postcondition: Returns ErrWorldNotFound if no row was deleted.
func (r *WorldRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM worlds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting world: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWorldNotFound
	}
	return nil
}
