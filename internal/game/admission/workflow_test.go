package admission

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/questforge/mud/internal/game/world"
)

// fakeStore is an in-memory Store for workflow tests.
type fakeStore struct {
	worlds   map[string]*world.World
	requests map[string]*JoinRequest // worldID+"/"+userID
	failWith error
}

func newFakeStore(worlds ...*world.World) *fakeStore {
	s := &fakeStore{
		worlds:   make(map[string]*world.World),
		requests: make(map[string]*JoinRequest),
	}
	for _, w := range worlds {
		s.worlds[w.ID] = w
	}
	return s
}

func (s *fakeStore) key(worldID, userID string) string { return worldID + "/" + userID }

func (s *fakeStore) World(_ context.Context, worldID string) (*world.World, bool, error) {
	if s.failWith != nil {
		return nil, false, s.failWith
	}
	w, ok := s.worlds[worldID]
	return w, ok, nil
}

func (s *fakeStore) JoinRequest(_ context.Context, worldID, userID string) (*JoinRequest, bool, error) {
	if s.failWith != nil {
		return nil, false, s.failWith
	}
	req, ok := s.requests[s.key(worldID, userID)]
	if !ok {
		return nil, false, nil
	}
	cp := *req
	return &cp, true, nil
}

func (s *fakeStore) SaveJoinRequest(_ context.Context, req *JoinRequest) error {
	if s.failWith != nil {
		return s.failWith
	}
	cp := *req
	s.requests[s.key(req.WorldID, req.UserID)] = &cp
	return nil
}

func (s *fakeStore) RetireRequestedJoins(_ context.Context, worldID string) (int, error) {
	if s.failWith != nil {
		return 0, s.failWith
	}
	n := 0
	for k, req := range s.requests {
		if req.WorldID == worldID && req.State == StateRequested {
			delete(s.requests, k)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) state(worldID, userID string) (JoinState, bool) {
	req, ok := s.requests[s.key(worldID, userID)]
	if !ok {
		return "", false
	}
	return req.State, true
}

func restrictedWorld(id string) *world.World {
	return &world.World{ID: id, Name: "World " + id, State: world.StateActive}
}

func publicWorld(id string) *world.World {
	w := restrictedWorld(id)
	w.IsPublic = true
	return w
}

func newWorkflow(s Store, policy Policy) *Workflow {
	return NewWorkflow(s, policy, zap.NewNop())
}

func TestRequestJoin(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	wf := newWorkflow(store, PolicyRetain)

	ok, err := wf.RequestJoin(context.Background(), "u1", "w1")
	require.NoError(t, err)
	assert.True(t, ok)

	state, found := store.state("w1", "u1")
	require.True(t, found)
	assert.Equal(t, StateRequested, state)
}

func TestRequestJoin_DuplicateRefused(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	wf := newWorkflow(store, PolicyRetain)
	ctx := context.Background()

	ok, err := wf.RequestJoin(ctx, "u1", "w1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = wf.RequestJoin(ctx, "u1", "w1")
	require.NoError(t, err)
	assert.False(t, ok)

	state, _ := store.state("w1", "u1")
	assert.Equal(t, StateRequested, state, "second request must not alter the first")
}

func TestRequestJoin_RefusedInAnyExistingState(t *testing.T) {
	for _, existing := range []JoinState{StateRequested, StateAccepted, StateRejected} {
		t.Run(string(existing), func(t *testing.T) {
			store := newFakeStore(restrictedWorld("w1"))
			store.requests["w1/u1"] = &JoinRequest{WorldID: "w1", UserID: "u1", State: existing}
			wf := newWorkflow(store, PolicyRetain)

			ok, err := wf.RequestJoin(context.Background(), "u1", "w1")
			require.NoError(t, err)
			assert.False(t, ok)

			state, _ := store.state("w1", "u1")
			assert.Equal(t, existing, state)
		})
	}
}

func TestRequestJoin_WorldMissing(t *testing.T) {
	store := newFakeStore()
	wf := newWorkflow(store, PolicyRetain)

	ok, err := wf.RequestJoin(context.Background(), "u1", "nowhere")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequestJoin_PublicWorldNeedsNoApproval(t *testing.T) {
	store := newFakeStore(publicWorld("w1"))
	wf := newWorkflow(store, PolicyRetain)

	ok, err := wf.RequestJoin(context.Background(), "u1", "w1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, found := store.state("w1", "u1")
	assert.False(t, found, "no request record must be created for a public world")
}

func TestRequestJoin_StoreFailure(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	store.failWith = errors.New("store unavailable")
	wf := newWorkflow(store, PolicyRetain)

	_, err := wf.RequestJoin(context.Background(), "u1", "w1")
	assert.Error(t, err)
}

func TestApprove(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	wf := newWorkflow(store, PolicyRetain)
	ctx := context.Background()

	_, err := wf.RequestJoin(ctx, "u1", "w1")
	require.NoError(t, err)

	ok, err := wf.Approve(ctx, "u1", "w1")
	require.NoError(t, err)
	assert.True(t, ok)

	state, _ := store.state("w1", "u1")
	assert.Equal(t, StateAccepted, state)
}

func TestApprove_AlreadyAccepted(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	store.requests["w1/u1"] = &JoinRequest{WorldID: "w1", UserID: "u1", State: StateAccepted}
	wf := newWorkflow(store, PolicyRetain)

	ok, err := wf.Approve(context.Background(), "u1", "w1")
	require.NoError(t, err)
	assert.False(t, ok)

	state, _ := store.state("w1", "u1")
	assert.Equal(t, StateAccepted, state)
}

func TestApprove_RejectedCanBeApproved(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	store.requests["w1/u1"] = &JoinRequest{WorldID: "w1", UserID: "u1", State: StateRejected}
	wf := newWorkflow(store, PolicyRetain)

	ok, err := wf.Approve(context.Background(), "u1", "w1")
	require.NoError(t, err)
	assert.True(t, ok)

	state, _ := store.state("w1", "u1")
	assert.Equal(t, StateAccepted, state)
}

func TestApprove_WorldOrRequestMissing(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	wf := newWorkflow(store, PolicyRetain)
	ctx := context.Background()

	ok, err := wf.Approve(ctx, "u1", "nowhere")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = wf.Approve(ctx, "u1", "w1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReject_CreatesRejectedDirectly(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	wf := newWorkflow(store, PolicyRetain)

	ok, err := wf.Reject(context.Background(), "u1", "w1")
	require.NoError(t, err)
	assert.True(t, ok)

	state, found := store.state("w1", "u1")
	require.True(t, found)
	assert.Equal(t, StateRejected, state)
}

func TestReject_AlreadyRejected(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	store.requests["w1/u1"] = &JoinRequest{WorldID: "w1", UserID: "u1", State: StateRejected}
	wf := newWorkflow(store, PolicyRetain)

	ok, err := wf.Reject(context.Background(), "u1", "w1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReject_OverridesRequested(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	wf := newWorkflow(store, PolicyRetain)
	ctx := context.Background()

	_, err := wf.RequestJoin(ctx, "u1", "w1")
	require.NoError(t, err)

	ok, err := wf.Reject(ctx, "u1", "w1")
	require.NoError(t, err)
	assert.True(t, ok)

	state, _ := store.state("w1", "u1")
	assert.Equal(t, StateRejected, state)
}

func TestAdmitted(t *testing.T) {
	store := newFakeStore(publicWorld("pub"), restrictedWorld("priv"))
	store.requests["priv/accepted"] = &JoinRequest{WorldID: "priv", UserID: "accepted", State: StateAccepted}
	store.requests["priv/pending"] = &JoinRequest{WorldID: "priv", UserID: "pending", State: StateRequested}
	store.requests["priv/blocked"] = &JoinRequest{WorldID: "priv", UserID: "blocked", State: StateRejected}
	wf := newWorkflow(store, PolicyRetain)
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		worldID string
		want    bool
	}{
		{"public world admits anyone", "stranger", "pub", true},
		{"accepted request admits", "accepted", "priv", true},
		{"pending request does not admit", "pending", "priv", false},
		{"rejected request does not admit", "blocked", "priv", false},
		{"no request does not admit", "stranger", "priv", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wf.Admitted(ctx, tt.userID, tt.worldID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdmitted_WorldMissing(t *testing.T) {
	wf := newWorkflow(newFakeStore(), PolicyRetain)

	_, err := wf.Admitted(context.Background(), "u1", "nowhere")
	assert.Error(t, err)
}

func TestVisibilityChanged_RetirePolicy(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	store.requests["w1/u1"] = &JoinRequest{WorldID: "w1", UserID: "u1", State: StateRequested}
	store.requests["w1/u2"] = &JoinRequest{WorldID: "w1", UserID: "u2", State: StateAccepted}
	store.requests["w1/u3"] = &JoinRequest{WorldID: "w1", UserID: "u3", State: StateRejected}
	wf := newWorkflow(store, PolicyRetire)

	n, err := wf.VisibilityChanged(context.Background(), "w1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, found := store.state("w1", "u1")
	assert.False(t, found, "pending request must be retired")
	_, found = store.state("w1", "u2")
	assert.True(t, found, "accepted request must be kept")
	_, found = store.state("w1", "u3")
	assert.True(t, found, "rejected request must be kept")
}

func TestVisibilityChanged_RetainPolicy(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	store.requests["w1/u1"] = &JoinRequest{WorldID: "w1", UserID: "u1", State: StateRequested}
	wf := newWorkflow(store, PolicyRetain)

	n, err := wf.VisibilityChanged(context.Background(), "w1", true)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, found := store.state("w1", "u1")
	assert.True(t, found)
}

func TestVisibilityChanged_GoingPrivateKeepsRequests(t *testing.T) {
	store := newFakeStore(restrictedWorld("w1"))
	store.requests["w1/u1"] = &JoinRequest{WorldID: "w1", UserID: "u1", State: StateRequested}
	wf := newWorkflow(store, PolicyRetire)

	n, err := wf.VisibilityChanged(context.Background(), "w1", false)
	require.NoError(t, err)
	assert.Zero(t, n)
}
