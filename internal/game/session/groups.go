package session

import (
	"sort"
	"sync"
)

// Groups tracks broadcast group membership: sets of channel ids keyed by a
// scope id (a world id or a room id). Add and Remove are idempotent.
// All methods are safe for concurrent use; the lock covers only the
// membership tables, never a send.
type Groups struct {
	mu     sync.RWMutex
	scopes map[string]map[string]bool // scopeID → set of channelIDs
}

// NewGroups creates an empty Groups table.
func NewGroups() *Groups {
	return &Groups{
		scopes: make(map[string]map[string]bool),
	}
}

// Add puts a channel into the group for the given scope.
func (g *Groups) Add(scopeID, channelID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.scopes[scopeID] == nil {
		g.scopes[scopeID] = make(map[string]bool)
	}
	g.scopes[scopeID][channelID] = true
}

// Remove takes a channel out of the group for the given scope. Removing a
// channel that is not a member is a no-op.
func (g *Groups) Remove(scopeID, channelID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	members, ok := g.scopes[scopeID]
	if !ok {
		return
	}
	delete(members, channelID)
	if len(members) == 0 {
		delete(g.scopes, scopeID)
	}
}

// RemoveAll takes a channel out of every group it belongs to.
func (g *Groups) RemoveAll(channelID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for scopeID, members := range g.scopes {
		delete(members, channelID)
		if len(members) == 0 {
			delete(g.scopes, scopeID)
		}
	}
}

// Contains reports whether the channel is a member of the scope's group.
func (g *Groups) Contains(scopeID, channelID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scopes[scopeID][channelID]
}

// Members returns a sorted snapshot of the channel ids in the scope's group.
// The snapshot is taken under the lock; sends against it happen outside.
//
// Postcondition: Returns a slice safe for the caller to iterate and mutate.
func (g *Groups) Members(scopeID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	members := g.scopes[scopeID]
	out := make([]string, 0, len(members))
	for ch := range members {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}
