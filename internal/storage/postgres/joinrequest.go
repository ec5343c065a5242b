package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questforge/mud/internal/game/admission"
)

// ErrJoinRequestNotFound is returned when a join-request lookup yields no
// results.
var ErrJoinRequestNotFound = errors.New("join request not found")

// JoinRequestRepository persists join requests keyed by (world, user).
type JoinRequestRepository struct {
	db *pgxpool.Pool
}

// NewJoinRequestRepository creates a JoinRequestRepository backed by the
// given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewJoinRequestRepository(db *pgxpool.Pool) *JoinRequestRepository {
	return &JoinRequestRepository{db: db}
}

// Get retrieves the request for the (world, user) pair.
//
// Postcondition: Returns the request or ErrJoinRequestNotFound.
func (r *JoinRequestRepository) Get(ctx context.Context, worldID, userID string) (*admission.JoinRequest, error) {
	var req admission.JoinRequest
	err := r.db.QueryRow(ctx,
		`SELECT world_id, user_id, state FROM join_requests
		 WHERE world_id = $1 AND user_id = $2`,
		worldID, userID,
	).Scan(&req.WorldID, &req.UserID, &req.State)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJoinRequestNotFound
		}
		return nil, fmt.Errorf("querying join request: %w", err)
	}
	return &req, nil
}

// ListByWorld returns all requests for a world, ordered by user id.
func (r *JoinRequestRepository) ListByWorld(ctx context.Context, worldID string) ([]*admission.JoinRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT world_id, user_id, state FROM join_requests
		 WHERE world_id = $1 ORDER BY user_id`, worldID)
	if err != nil {
		return nil, fmt.Errorf("querying join requests: %w", err)
	}
	defer rows.Close()

	var reqs []*admission.JoinRequest
	for rows.Next() {
		var req admission.JoinRequest
		if err := rows.Scan(&req.WorldID, &req.UserID, &req.State); err != nil {
			return nil, fmt.Errorf("scanning join request: %w", err)
		}
		reqs = append(reqs, &req)
	}
	return reqs, rows.Err()
}

// Upsert creates the request or transitions its state. A single statement,
// so the create-or-update is atomic.
//
// Precondition: req.State must be valid.
func (r *JoinRequestRepository) Upsert(ctx context.Context, req *admission.JoinRequest) error {
	if !req.State.Valid() {
		return fmt.Errorf("invalid join state %q", req.State)
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO join_requests (world_id, user_id, state)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (world_id, user_id) DO UPDATE SET state = EXCLUDED.state`,
		req.WorldID, req.UserID, req.State,
	)
	if err != nil {
		return fmt.Errorf("upserting join request: %w", err)
	}
	return nil
}

// DeleteRequested removes the world's still-pending requests.
//
// Postcondition: Returns how many rows were deleted.
func (r *JoinRequestRepository) DeleteRequested(ctx context.Context, worldID string) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM join_requests WHERE world_id = $1 AND state = $2`,
		worldID, admission.StateRequested,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting requested join requests: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
