package session

import "sync"

// Registry is the bidirectional map between actors and their currently
// active transport channels. At most one channel is registered per actor;
// registering a replacement invalidates the prior one.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	byActor   map[string]string // actorID → channelID
	byChannel map[string]string // channelID → actorID
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byActor:   make(map[string]string),
		byChannel: make(map[string]string),
	}
}

// Register binds an actor to a channel, replacing any prior binding.
//
// Postcondition: Returns the previously bound channel id and true if one
// existed, so the caller can force-close the stale channel.
func (r *Registry) Register(actorID, channelID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, had := r.byActor[actorID]
	if had {
		delete(r.byChannel, prev)
	}
	if oldActor, ok := r.byChannel[channelID]; ok && oldActor != actorID {
		delete(r.byActor, oldActor)
	}
	r.byActor[actorID] = channelID
	r.byChannel[channelID] = actorID
	return prev, had
}

// Lookup returns the channel currently bound to the actor.
//
// Postcondition: Returns (channelID, true) if bound, or ("", false) otherwise.
func (r *Registry) Lookup(actorID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.byActor[actorID]
	return ch, ok
}

// ActorFor returns the actor bound to the given channel.
//
// Postcondition: Returns (actorID, true) if bound, or ("", false) otherwise.
func (r *Registry) ActorFor(channelID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	actor, ok := r.byChannel[channelID]
	return actor, ok
}

// Remove drops the actor's binding, if any.
func (r *Registry) Remove(actorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.byActor[actorID]; ok {
		delete(r.byChannel, ch)
		delete(r.byActor, actorID)
	}
}

// RemoveChannel drops the binding keyed by channel, if any. Unlike Remove
// it is safe to call for a channel that was already replaced: it never
// touches the actor's newer binding.
//
// Postcondition: Returns (actorID, true) if a binding was removed.
func (r *Registry) RemoveChannel(channelID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	actor, ok := r.byChannel[channelID]
	if !ok {
		return "", false
	}
	delete(r.byChannel, channelID)
	delete(r.byActor, actor)
	return actor, true
}

// Len returns the number of registered bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byActor)
}
