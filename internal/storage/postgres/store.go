package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questforge/mud/internal/game/admission"
	"github.com/questforge/mud/internal/game/world"
)

// Store bundles the repositories behind the lookup surface the session
// coordinator and admission workflow consume. Absence is reported as a
// false flag; errors are reserved for store failures.
type Store struct {
	Worlds       *WorldRepository
	Rooms        *RoomRepository
	Actors       *ActorRepository
	JoinRequests *JoinRequestRepository
}

// NewStore creates a Store with all repositories backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		Worlds:       NewWorldRepository(db),
		Rooms:        NewRoomRepository(db),
		Actors:       NewActorRepository(db),
		JoinRequests: NewJoinRequestRepository(db),
	}
}

// World fetches a world by id.
func (s *Store) World(ctx context.Context, worldID string) (*world.World, bool, error) {
	w, err := s.Worlds.Get(ctx, worldID)
	if errors.Is(err, ErrWorldNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return w, true, nil
}

// Actor fetches an actor by id.
func (s *Store) Actor(ctx context.Context, actorID string) (*world.Actor, bool, error) {
	a, err := s.Actors.Get(ctx, actorID)
	if errors.Is(err, ErrActorNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// ActorByName fetches an actor by display name within a world.
func (s *Store) ActorByName(ctx context.Context, worldID, name string) (*world.Actor, bool, error) {
	a, err := s.Actors.GetByName(ctx, worldID, name)
	if errors.Is(err, ErrActorNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// Room fetches a room by id.
func (s *Store) Room(ctx context.Context, roomID string) (*world.Room, bool, error) {
	r, err := s.Rooms.Get(ctx, roomID)
	if errors.Is(err, ErrRoomNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// RoomConnections fetches the connections incident to a room, in stable
// order.
func (s *Store) RoomConnections(ctx context.Context, roomID string) ([]*world.Connection, error) {
	return s.Rooms.ConnectionsFor(ctx, roomID)
}

// SetActorRoom moves the actor's persisted current room.
func (s *Store) SetActorRoom(ctx context.Context, actorID, roomID string) error {
	return s.Actors.SetRoom(ctx, actorID, roomID)
}

// JoinRequest fetches the request for the (world, user) pair.
func (s *Store) JoinRequest(ctx context.Context, worldID, userID string) (*admission.JoinRequest, bool, error) {
	req, err := s.JoinRequests.Get(ctx, worldID, userID)
	if errors.Is(err, ErrJoinRequestNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return req, true, nil
}

// SaveJoinRequest creates or transitions a join request atomically.
func (s *Store) SaveJoinRequest(ctx context.Context, req *admission.JoinRequest) error {
	return s.JoinRequests.Upsert(ctx, req)
}

// RetireRequestedJoins deletes the world's still-pending requests.
func (s *Store) RetireRequestedJoins(ctx context.Context, worldID string) (int, error) {
	return s.JoinRequests.DeleteRequested(ctx, worldID)
}
