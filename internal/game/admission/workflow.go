// Package admission implements the approval workflow gating entry to
// restricted worlds: join requests keyed by (world, user) and their
// Requested → Accepted/Rejected state machine.
package admission

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/questforge/mud/internal/game/world"
)

// Join request states.
const (
	StateRequested JoinState = "requested"
	StateAccepted  JoinState = "accepted"
	StateRejected  JoinState = "rejected"
)

// JoinState is the state of a join request.
type JoinState string

// Valid reports whether s is a recognised join state.
func (s JoinState) Valid() bool {
	switch s {
	case StateRequested, StateAccepted, StateRejected:
		return true
	}
	return false
}

// JoinRequest is a user's request to enter a restricted world. At most one
// request exists per (world, user) pair.
type JoinRequest struct {
	WorldID string
	UserID  string
	State   JoinState
}

// Visibility-change policies for pending requests (see Policy).
const (
	// PolicyRetain keeps all join requests untouched when a world's
	// visibility flips in either direction.
	PolicyRetain Policy = "retain"
	// PolicyRetire deletes still-pending (requested) rows when a world
	// becomes public; accepted and rejected rows are kept.
	PolicyRetire Policy = "retire"
)

// Policy decides what happens to existing join requests when a world's
// visibility changes. There is no single right answer, so it is explicit
// configuration rather than a silent default.
type Policy string

// Valid reports whether p is a recognised policy.
func (p Policy) Valid() bool {
	return p == PolicyRetain || p == PolicyRetire
}

// Store is the persistence surface the workflow needs. Lookups report
// absence with a false flag rather than an error; SaveJoinRequest must
// persist a create or a state transition atomically.
type Store interface {
	World(ctx context.Context, worldID string) (*world.World, bool, error)
	JoinRequest(ctx context.Context, worldID, userID string) (*JoinRequest, bool, error)
	SaveJoinRequest(ctx context.Context, req *JoinRequest) error
	// RetireRequestedJoins deletes all requests for the world still in the
	// requested state, returning how many were removed.
	RetireRequestedJoins(ctx context.Context, worldID string) (int, error)
}

// Workflow runs the admission state machine against a Store.
type Workflow struct {
	store  Store
	policy Policy
	logger *zap.Logger
}

// NewWorkflow creates a Workflow with the given store and visibility policy.
//
// Precondition: store and logger must be non-nil; policy must be valid.
func NewWorkflow(store Store, policy Policy, logger *zap.Logger) *Workflow {
	return &Workflow{store: store, policy: policy, logger: logger}
}

// RequestJoin files a join request for the (world, user) pair.
//
// Postcondition: Returns (true, nil) when a new requested record was
// created. Returns (false, nil) when the world does not exist, is public,
// or a request for the pair already exists in any state. Returns a non-nil
// error only on store failure.
func (w *Workflow) RequestJoin(ctx context.Context, userID, worldID string) (bool, error) {
	existing, found, err := w.store.JoinRequest(ctx, worldID, userID)
	if err != nil {
		return false, fmt.Errorf("looking up join request: %w", err)
	}
	if found {
		w.logger.Info("join already filed, refusing new request",
			zap.String("world_id", worldID),
			zap.String("user_id", userID),
			zap.String("state", string(existing.State)),
		)
		return false, nil
	}

	wld, found, err := w.store.World(ctx, worldID)
	if err != nil {
		return false, fmt.Errorf("looking up world: %w", err)
	}
	if !found {
		w.logger.Warn("join requested for unknown world",
			zap.String("world_id", worldID),
			zap.String("user_id", userID),
		)
		return false, nil
	}
	if wld.IsPublic {
		w.logger.Info("world is public, no approval needed",
			zap.String("world_id", worldID),
			zap.String("user_id", userID),
		)
		return false, nil
	}

	req := &JoinRequest{WorldID: worldID, UserID: userID, State: StateRequested}
	if err := w.store.SaveJoinRequest(ctx, req); err != nil {
		return false, fmt.Errorf("saving join request: %w", err)
	}
	return true, nil
}

// Approve transitions the pair's request to accepted.
//
// Postcondition: Returns (false, nil) when the world or request is absent,
// or the request is already accepted. Returns a non-nil error only on store
// failure.
func (w *Workflow) Approve(ctx context.Context, userID, worldID string) (bool, error) {
	_, found, err := w.store.World(ctx, worldID)
	if err != nil {
		return false, fmt.Errorf("looking up world: %w", err)
	}
	if !found {
		w.logger.Warn("approval for unknown world",
			zap.String("world_id", worldID),
			zap.String("user_id", userID),
		)
		return false, nil
	}

	req, found, err := w.store.JoinRequest(ctx, worldID, userID)
	if err != nil {
		return false, fmt.Errorf("looking up join request: %w", err)
	}
	if !found {
		w.logger.Warn("approval without join request",
			zap.String("world_id", worldID),
			zap.String("user_id", userID),
		)
		return false, nil
	}
	if req.State == StateAccepted {
		w.logger.Info("join request already accepted",
			zap.String("world_id", worldID),
			zap.String("user_id", userID),
		)
		return false, nil
	}

	req.State = StateAccepted
	if err := w.store.SaveJoinRequest(ctx, req); err != nil {
		return false, fmt.Errorf("saving join request: %w", err)
	}
	w.logger.Info("join request approved",
		zap.String("world_id", worldID),
		zap.String("user_id", userID),
	)
	return true, nil
}

// Reject transitions the pair's request to rejected. When no request
// exists, one is created directly in the rejected state, which lets an
// operator block a user pre-emptively.
//
// Postcondition: Returns (false, nil) when the request is already rejected.
// Returns a non-nil error only on store failure.
func (w *Workflow) Reject(ctx context.Context, userID, worldID string) (bool, error) {
	req, found, err := w.store.JoinRequest(ctx, worldID, userID)
	if err != nil {
		return false, fmt.Errorf("looking up join request: %w", err)
	}
	if !found {
		req = &JoinRequest{WorldID: worldID, UserID: userID}
	}
	if req.State == StateRejected {
		w.logger.Info("join request already rejected",
			zap.String("world_id", worldID),
			zap.String("user_id", userID),
		)
		return false, nil
	}

	req.State = StateRejected
	if err := w.store.SaveJoinRequest(ctx, req); err != nil {
		return false, fmt.Errorf("saving join request: %w", err)
	}
	return true, nil
}

// Admitted reports whether the user may enter the world: public worlds
// admit everyone, restricted worlds require an accepted join request.
//
// Postcondition: Returns a non-nil error only on store failure or when the
// world does not exist.
func (w *Workflow) Admitted(ctx context.Context, userID, worldID string) (bool, error) {
	wld, found, err := w.store.World(ctx, worldID)
	if err != nil {
		return false, fmt.Errorf("looking up world: %w", err)
	}
	if !found {
		return false, fmt.Errorf("world %s does not exist", worldID)
	}
	if wld.IsPublic {
		return true, nil
	}
	req, found, err := w.store.JoinRequest(ctx, worldID, userID)
	if err != nil {
		return false, fmt.Errorf("looking up join request: %w", err)
	}
	return found && req.State == StateAccepted, nil
}

// VisibilityChanged applies the configured policy after a world's
// visibility flipped. Only a restricted→public flip can retire pending
// requests; every other combination keeps them.
//
// Postcondition: Returns the number of retired requests.
func (w *Workflow) VisibilityChanged(ctx context.Context, worldID string, nowPublic bool) (int, error) {
	if w.policy != PolicyRetire || !nowPublic {
		return 0, nil
	}
	n, err := w.store.RetireRequestedJoins(ctx, worldID)
	if err != nil {
		return 0, fmt.Errorf("retiring join requests: %w", err)
	}
	if n > 0 {
		w.logger.Info("retired pending join requests",
			zap.String("world_id", worldID),
			zap.Int("count", n),
		)
	}
	return n, nil
}
