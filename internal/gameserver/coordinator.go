// Package gameserver ties the live-session pieces together: the websocket
// gateway, the wire protocol, token verification, and the session
// coordinator that routes every client operation to the world state.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/questforge/mud/internal/game/admission"
	"github.com/questforge/mud/internal/game/session"
	"github.com/questforge/mud/internal/game/world"
)

// Store is the world-state surface the coordinator reads and writes.
// Lookups report absence with a false flag; errors mean the store itself
// failed.
type Store interface {
	World(ctx context.Context, worldID string) (*world.World, bool, error)
	Actor(ctx context.Context, actorID string) (*world.Actor, bool, error)
	ActorByName(ctx context.Context, worldID, name string) (*world.Actor, bool, error)
	Room(ctx context.Context, roomID string) (*world.Room, bool, error)
	RoomConnections(ctx context.Context, roomID string) ([]*world.Connection, error)
	SetActorRoom(ctx context.Context, actorID, roomID string) error
}

type client struct {
	ch    *session.Channel
	state *session.State
	// mu serializes joins, moves, and detach on one channel. It is never
	// held while taking another client's mu.
	mu sync.Mutex
}

// Coordinator orchestrates live sessions: it owns the actor↔channel
// registry and the broadcast groups, and mediates every client operation
// between the transport and the store. One Coordinator serves all worlds.
type Coordinator struct {
	store      Store
	workflow   *admission.Workflow
	verifier   *TokenVerifier
	logger     *zap.Logger
	registry   *session.Registry
	groups     *session.Groups
	sendBuffer int

	mu      sync.RWMutex
	clients map[string]*client
}

// NewCoordinator creates a Coordinator.
//
// Precondition: store, workflow, verifier, and logger must be non-nil.
func NewCoordinator(store Store, workflow *admission.Workflow, verifier *TokenVerifier, logger *zap.Logger, sendBuffer int) *Coordinator {
	return &Coordinator{
		store:      store,
		workflow:   workflow,
		verifier:   verifier,
		logger:     logger,
		registry:   session.NewRegistry(),
		groups:     session.NewGroups(),
		sendBuffer: sendBuffer,
		clients:    make(map[string]*client),
	}
}

// Connect allocates a channel for a freshly accepted connection. The
// transport drains the channel's Events and must call Disconnect when the
// connection ends.
func (c *Coordinator) Connect() *session.Channel {
	ch := session.NewChannel(uuid.NewString(), c.sendBuffer)
	c.mu.Lock()
	c.clients[ch.ID()] = &client{ch: ch, state: session.NewState()}
	c.mu.Unlock()
	return ch
}

func (c *Coordinator) client(channelID string) *client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clients[channelID]
}

// Join binds the channel to an actor and places it in the world. The token
// must verify, the actor must belong to the token's user, the actor's world
// must be active, and restricted worlds additionally require an accepted
// join request. On success the whole world is told the actor arrived,
// including the joining channel itself.
//
// Postcondition: Returns a non-nil result for every expected outcome; a
// non-nil error only on store failure.
func (c *Coordinator) Join(ctx context.Context, channelID, token, actorID string) (*JoinResult, error) {
	cl := c.client(channelID)
	if cl == nil {
		return nil, fmt.Errorf("unknown channel %s", channelID)
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, _, bound := cl.state.Actor(); bound {
		return joinFailure(KindAlreadyInState, "already joined a world"), nil
	}

	userID, err := c.verifier.UserID(token)
	if err != nil {
		c.logger.Warn("join with invalid token", zap.String("channel_id", channelID), zap.Error(err))
		return joinFailure(KindUnauthorized, "invalid session token"), nil
	}

	actor, found, err := c.store.Actor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("looking up actor: %w", err)
	}
	if !found || actor.UserID != userID {
		return joinFailure(KindUnauthorized, "actor does not belong to this user"), nil
	}

	wld, found, err := c.store.World(ctx, actor.WorldID)
	if err != nil {
		return nil, fmt.Errorf("looking up world: %w", err)
	}
	if !found {
		return joinFailure(KindNotFound, "world no longer exists"), nil
	}
	if wld.State != world.StateActive {
		return joinFailure(KindUnauthorized, "world is not active"), nil
	}

	admitted, err := c.workflow.Admitted(ctx, userID, wld.ID)
	if err != nil {
		return nil, fmt.Errorf("checking admission: %w", err)
	}
	if !admitted {
		return joinFailure(KindUnauthorized, "entry to this world has not been approved"), nil
	}

	room, found, err := c.store.Room(ctx, actor.RoomID)
	if err != nil {
		return nil, fmt.Errorf("looking up room: %w", err)
	}
	if !found {
		return joinFailure(KindNotFound, "starting room no longer exists"), nil
	}

	cl.state.Bind(actor.ID, actor.Name, wld.ID, room.ID)
	if prev, had := c.registry.Register(actor.ID, channelID); had && prev != channelID {
		c.evict(prev)
	}
	c.groups.Add(wld.ID, channelID)
	c.groups.Add(room.ID, channelID)

	c.broadcast(wld.ID, "", systemMessage(ScopeGlobal, actor.Name+" has entered the world."))

	c.logger.Info("actor joined",
		zap.String("channel_id", channelID),
		zap.String("actor_id", actor.ID),
		zap.String("world_id", wld.ID),
		zap.String("room_id", room.ID),
	)
	return &JoinResult{Success: true, WorldID: wld.ID, RoomID: room.ID, AreaID: room.AreaID}, nil
}

// evict force-closes a stale channel whose actor re-joined elsewhere. It
// deliberately does not take the stale client's mu; closing the channel and
// clearing memberships is enough, and the transport's normal disconnect
// path finishes the job.
func (c *Coordinator) evict(channelID string) {
	c.mu.Lock()
	cl := c.clients[channelID]
	delete(c.clients, channelID)
	c.mu.Unlock()

	c.groups.RemoveAll(channelID)
	if cl != nil {
		_ = cl.ch.Close()
	}
	c.logger.Info("evicted replaced channel", zap.String("channel_id", channelID))
}

// SendGlobal delivers a chat line to every other member of the sender's
// world.
func (c *Coordinator) SendGlobal(channelID, text string) *Rejection {
	cl := c.client(channelID)
	if cl == nil {
		return reject(KindUnauthorized, "no such session")
	}
	_, name, bound := cl.state.Actor()
	if !bound {
		return reject(KindUnauthorized, "join a world first")
	}
	c.broadcast(cl.state.WorldID(), channelID, chatMessage(ScopeGlobal, name, text))
	return nil
}

// SendRoom delivers a chat line to every other member of the sender's
// current room. Members of other rooms, even adjacent ones, never see it.
func (c *Coordinator) SendRoom(channelID, text string) *Rejection {
	cl := c.client(channelID)
	if cl == nil {
		return reject(KindUnauthorized, "no such session")
	}
	_, name, bound := cl.state.Actor()
	if !bound {
		return reject(KindUnauthorized, "join a world first")
	}
	c.broadcast(cl.state.RoomID(), channelID, chatMessage(ScopeRoom, name, text))
	return nil
}

// SendPrivate delivers a chat line to the named actor in the sender's
// world, if that actor is online right now.
//
// Postcondition: Returns a non-nil result for every expected outcome; a
// non-nil error only on store failure.
func (c *Coordinator) SendPrivate(ctx context.Context, channelID, targetName, text string) (*PrivateResult, error) {
	cl := c.client(channelID)
	if cl == nil {
		return &PrivateResult{Kind: KindUnauthorized, Message: "no such session"}, nil
	}
	_, name, bound := cl.state.Actor()
	if !bound {
		return &PrivateResult{Kind: KindUnauthorized, Message: "join a world first"}, nil
	}

	target, found, err := c.store.ActorByName(ctx, cl.state.WorldID(), targetName)
	if err != nil {
		return nil, fmt.Errorf("looking up actor by name: %w", err)
	}
	if !found {
		return &PrivateResult{Kind: KindNotFound, Message: fmt.Sprintf("no player named %q", targetName)}, nil
	}
	targetCh, online := c.registry.Lookup(target.ID)
	if !online {
		return &PrivateResult{Kind: KindTargetOffline, Message: fmt.Sprintf("%s is not online", targetName)}, nil
	}

	c.push(targetCh, chatMessage(ScopePrivate, name, text))
	return &PrivateResult{Success: true}, nil
}

// Move relocates the channel's actor one step, by cardinal direction within
// the current area or through a named portal to another area. Exits are
// resolved against the store's current connection data on every call, so
// edits to the world take effect immediately. On success the new position
// is persisted before the room group membership moves; the two membership
// updates happen together.
//
// Postcondition: Returns a non-nil result for every expected outcome; a
// non-nil error only on store failure, with no state changed.
func (c *Coordinator) Move(ctx context.Context, channelID string, dir world.Direction, portal string) (*MoveResult, error) {
	cl := c.client(channelID)
	if cl == nil {
		return &MoveResult{Kind: KindUnauthorized, Message: "no such session"}, nil
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()

	actorID, _, bound := cl.state.Actor()
	if !bound {
		return &MoveResult{Kind: KindUnauthorized, Message: "join a world first"}, nil
	}

	currID := cl.state.RoomID()
	curr, found, err := c.store.Room(ctx, currID)
	if err != nil {
		return nil, fmt.Errorf("looking up room: %w", err)
	}
	if !found {
		return &MoveResult{Kind: KindNotFound, Message: "current room no longer exists"}, nil
	}
	conns, err := c.store.RoomConnections(ctx, currID)
	if err != nil {
		return nil, fmt.Errorf("looking up connections: %w", err)
	}

	var dest *world.Room
	if portal != "" {
		dest, err = world.PortalDestination(curr, conns, portal)
	} else {
		dest, err = world.Destination(curr, conns, dir)
	}
	if errors.Is(err, world.ErrRoomsNotConnected) {
		return &MoveResult{Kind: KindRoomsNotConnected, Message: "there is no exit that way"}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := c.store.SetActorRoom(ctx, actorID, dest.ID); err != nil {
		return nil, fmt.Errorf("persisting actor position: %w", err)
	}
	c.groups.Remove(curr.ID, channelID)
	c.groups.Add(dest.ID, channelID)
	cl.state.SetRoomID(dest.ID)

	return &MoveResult{Success: true, RoomID: dest.ID, AreaID: dest.AreaID}, nil
}

// TransferItem is accepted on the wire but not implemented; the inventory
// system does not exist yet.
func (c *Coordinator) TransferItem(channelID, itemID, targetID string) *Rejection {
	return reject(KindUnsupported, "item transfer is not supported")
}

// Leave removes the channel's actor from its world but keeps the
// connection, so the client can join again. A channel that never joined is
// left untouched.
func (c *Coordinator) Leave(channelID string) {
	cl := c.client(channelID)
	if cl == nil {
		return
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	c.detach(cl, channelID)
}

// Disconnect tears down the channel when its connection ends: membership
// and registry cleanup always run, and the world is told the actor left.
// A channel that never joined disconnects silently.
func (c *Coordinator) Disconnect(channelID string) {
	c.mu.Lock()
	cl := c.clients[channelID]
	delete(c.clients, channelID)
	c.mu.Unlock()

	if cl == nil {
		// Already evicted. Memberships were cleared then, but sweep again in
		// case an in-flight move re-added one.
		c.groups.RemoveAll(channelID)
		c.registry.RemoveChannel(channelID)
		return
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	c.detach(cl, channelID)
	_ = cl.ch.Close()
}

// detach clears the channel's session footprint and announces the
// departure. Callers hold cl.mu.
func (c *Coordinator) detach(cl *client, channelID string) {
	_, name, bound := cl.state.Actor()
	worldID := cl.state.WorldID()

	c.groups.RemoveAll(channelID)
	c.registry.RemoveChannel(channelID)
	if !bound {
		return
	}
	cl.state.Unbind()
	c.broadcast(worldID, channelID, systemMessage(ScopeGlobal, name+" has left the world."))
	c.logger.Info("actor left", zap.String("channel_id", channelID), zap.String("world_id", worldID))
}

// broadcast pushes an event to every member of the scope except one.
// Channels that cannot accept the event lose it; a closed channel is also
// swept out of all groups.
func (c *Coordinator) broadcast(scopeID, exceptChannelID string, ev *ServerEvent) {
	raw, err := Encode(ev)
	if err != nil {
		c.logger.Error("encoding broadcast event", zap.Error(err))
		return
	}
	for _, chID := range c.groups.Members(scopeID) {
		if chID == exceptChannelID {
			continue
		}
		cl := c.client(chID)
		if cl == nil {
			c.groups.RemoveAll(chID)
			continue
		}
		if err := cl.ch.Push(raw); err != nil {
			c.logger.Warn("dropping event",
				zap.String("channel_id", chID),
				zap.Error(err),
			)
			if cl.ch.IsClosed() {
				c.groups.RemoveAll(chID)
			}
		}
	}
}

// push delivers an event to a single channel.
func (c *Coordinator) push(channelID string, ev *ServerEvent) {
	cl := c.client(channelID)
	if cl == nil {
		return
	}
	raw, err := Encode(ev)
	if err != nil {
		c.logger.Error("encoding event", zap.Error(err))
		return
	}
	if err := cl.ch.Push(raw); err != nil {
		c.logger.Warn("dropping event", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func joinFailure(kind Kind, message string) *JoinResult {
	return &JoinResult{Kind: kind, Message: message}
}

func chatMessage(scope, sender, text string) *ServerEvent {
	return &ServerEvent{
		Type:    EventMessage,
		Message: &Message{Scope: scope, Sender: sender, Text: text},
	}
}

func systemMessage(scope, text string) *ServerEvent {
	return &ServerEvent{
		Type:    EventMessage,
		Message: &Message{Scope: scope, Sender: ServerName, Text: text, System: true},
	}
}
