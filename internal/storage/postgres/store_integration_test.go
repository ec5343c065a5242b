package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questforge/mud/internal/game/admission"
	"github.com/questforge/mud/internal/game/world"
	pgstore "github.com/questforge/mud/internal/storage/postgres"
	"github.com/questforge/mud/internal/testutil"
)

// newTestStore spins up a migrated PostgreSQL container. Requires Docker;
// skipped in short mode.
func newTestStore(t *testing.T) *pgstore.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed integration test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return pgstore.NewStore(pc.RawPool)
}

// seedWorld writes a world with one two-room area plus a second area behind
// a portal, and returns the created rows.
func seedWorld(t *testing.T, store *pgstore.Store) (*world.World, []*world.Room) {
	t.Helper()
	ctx := context.Background()

	w := &world.World{
		ID:       uuid.NewString(),
		Name:     "Integration World",
		IsPublic: true,
		State:    world.StateActive,
	}
	require.NoError(t, store.Worlds.Create(ctx, w))

	a1 := &world.Area{ID: uuid.NewString(), WorldID: w.ID, Name: "Keep"}
	a2 := &world.Area{ID: uuid.NewString(), WorldID: w.ID, Name: "Village"}
	require.NoError(t, store.Rooms.CreateArea(ctx, a1))
	require.NoError(t, store.Rooms.CreateArea(ctx, a2))

	r1 := &world.Room{ID: uuid.NewString(), AreaID: a1.ID, Name: "Great Hall", X: 0, Y: 1}
	r2 := &world.Room{ID: uuid.NewString(), AreaID: a1.ID, Name: "Armory", X: 0, Y: 0}
	r3 := &world.Room{ID: uuid.NewString(), AreaID: a2.ID, Name: "Market", X: 0, Y: 0}
	for _, r := range []*world.Room{r1, r2, r3} {
		require.NoError(t, store.Rooms.CreateRoom(ctx, r))
	}

	require.NoError(t, store.Rooms.CreateConnection(ctx,
		&world.Connection{ID: "conn-a-" + uuid.NewString(), Room1: r1, Room2: r2}))
	require.NoError(t, store.Rooms.CreateConnection(ctx,
		&world.Connection{ID: "conn-b-" + uuid.NewString(), Room1: r1, Room2: r3}))

	return w, []*world.Room{r1, r2, r3}
}

func TestStore_WorldLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w := &world.World{
		ID:          uuid.NewString(),
		Name:        "Eldoria",
		Description: "a test world",
		State:       world.StateInactive,
	}
	require.NoError(t, store.Worlds.Create(ctx, w))

	got, err := store.Worlds.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.Name, got.Name)
	assert.False(t, got.IsPublic)
	assert.Equal(t, world.StateInactive, got.State)

	// Partial update flips visibility and reports the flip.
	public := true
	name := "Eldoria Reborn"
	updated, flipped, err := store.Worlds.Update(ctx, w.ID, pgstore.WorldUpdateArgs{
		Name:     &name,
		IsPublic: &public,
	})
	require.NoError(t, err)
	assert.True(t, flipped)
	assert.Equal(t, "Eldoria Reborn", updated.Name)
	assert.Equal(t, "a test world", updated.Description, "untouched fields must survive")

	// Updating without a visibility change reports no flip.
	desc := "rewritten"
	_, flipped, err = store.Worlds.Update(ctx, w.ID, pgstore.WorldUpdateArgs{Description: &desc})
	require.NoError(t, err)
	assert.False(t, flipped)

	require.NoError(t, store.Worlds.SetState(ctx, w.ID, world.StateActive))
	got, err = store.Worlds.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, world.StateActive, got.State)

	require.NoError(t, store.Worlds.Delete(ctx, w.ID))
	_, err = store.Worlds.Get(ctx, w.ID)
	assert.ErrorIs(t, err, pgstore.ErrWorldNotFound)
	assert.ErrorIs(t, store.Worlds.Delete(ctx, w.ID), pgstore.ErrWorldNotFound)
}

func TestStore_RoomsAndConnections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w, rooms := seedWorld(t, store)
	r1 := rooms[0]

	listed, err := store.Rooms.ListByWorld(ctx, w.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 3)

	conns, err := store.RoomConnections(ctx, r1.ID)
	require.NoError(t, err)
	require.Len(t, conns, 2)
	// ORDER BY connection id keeps resolution deterministic.
	assert.Less(t, conns[0].ID, conns[1].ID)
	assert.False(t, conns[0].IsPortal())
	assert.True(t, conns[1].IsPortal())

	// Movement resolves against the fetched rows.
	dest, err := world.Destination(r1, conns, world.North)
	require.NoError(t, err)
	assert.Equal(t, "Armory", dest.Name)

	dest, err = world.PortalDestination(r1, conns, "Market")
	require.NoError(t, err)
	assert.Equal(t, rooms[2].ID, dest.ID)
}

func TestStore_Actors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w, rooms := seedWorld(t, store)

	actor := &world.Actor{
		ID:      uuid.NewString(),
		Name:    "Mira",
		UserID:  "user-1",
		WorldID: w.ID,
		RoomID:  rooms[0].ID,
	}
	require.NoError(t, store.Actors.Create(ctx, actor))

	got, found, err := store.Actor(ctx, actor.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Mira", got.Name)

	got, found, err = store.ActorByName(ctx, w.ID, "Mira")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, actor.ID, got.ID)

	_, found, err = store.ActorByName(ctx, w.ID, "Nobody")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SetActorRoom(ctx, actor.ID, rooms[1].ID))
	got, _, err = store.Actor(ctx, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, rooms[1].ID, got.RoomID)

	assert.ErrorIs(t, store.SetActorRoom(ctx, "missing", rooms[1].ID), pgstore.ErrActorNotFound)
}

func TestStore_JoinRequests(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w, _ := seedWorld(t, store)

	req := &admission.JoinRequest{WorldID: w.ID, UserID: "user-1", State: admission.StateRequested}
	require.NoError(t, store.SaveJoinRequest(ctx, req))

	got, found, err := store.JoinRequest(ctx, w.ID, "user-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, admission.StateRequested, got.State)

	// Upsert transitions in place; the pair stays unique.
	req.State = admission.StateAccepted
	require.NoError(t, store.SaveJoinRequest(ctx, req))
	all, err := store.JoinRequests.ListByWorld(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, admission.StateAccepted, all[0].State)

	// DeleteRequested removes only pending rows.
	require.NoError(t, store.SaveJoinRequest(ctx,
		&admission.JoinRequest{WorldID: w.ID, UserID: "user-2", State: admission.StateRequested}))
	n, err := store.RetireRequestedJoins(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, found, err = store.JoinRequest(ctx, w.ID, "user-2")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = store.JoinRequest(ctx, w.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestStore_CascadeDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w, rooms := seedWorld(t, store)
	require.NoError(t, store.Actors.Create(ctx, &world.Actor{
		ID: uuid.NewString(), Name: "Mira", UserID: "user-1", WorldID: w.ID, RoomID: rooms[0].ID,
	}))
	require.NoError(t, store.SaveJoinRequest(ctx,
		&admission.JoinRequest{WorldID: w.ID, UserID: "user-1", State: admission.StateRequested}))

	require.NoError(t, store.Worlds.Delete(ctx, w.ID))

	_, found, err := store.Room(ctx, rooms[0].ID)
	require.NoError(t, err)
	assert.False(t, found, "rooms must cascade with their world")
	_, found, err = store.ActorByName(ctx, w.ID, "Mira")
	require.NoError(t, err)
	assert.False(t, found, "actors must cascade with their world")
	_, found, err = store.JoinRequest(ctx, w.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, found, "join requests must cascade with their world")
}

func TestStore_AbsenceIsNotAnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, found, err := store.World(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.Actor(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.Room(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.JoinRequest(ctx, uuid.NewString(), "user-1")
	require.NoError(t, err)
	assert.False(t, found)
}
