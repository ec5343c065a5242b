package session

import "sync"

// State is the per-channel session record: the ephemeral attributes cached
// for the lifetime of the channel once it has joined a world. A channel that
// never joined has an unbound State, and every accessor reports that.
type State struct {
	mu        sync.RWMutex
	bound     bool
	actorID   string
	actorName string
	worldID   string
	roomID    string
}

// NewState creates an unbound State.
func NewState() *State {
	return &State{}
}

// Bind records the joined actor's identity and location. Called exactly once
// per channel, on a successful join.
func (s *State) Bind(actorID, actorName, worldID, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound = true
	s.actorID = actorID
	s.actorName = actorName
	s.worldID = worldID
	s.roomID = roomID
}

// Unbind clears the record, returning the State to its pre-join shape. Used
// when a client leaves a world without dropping the connection.
func (s *State) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound = false
	s.actorID = ""
	s.actorName = ""
	s.worldID = ""
	s.roomID = ""
}

// Actor returns the cached actor identity.
//
// Postcondition: Returns (actorID, actorName, true) once bound, or
// ("", "", false) before a join.
func (s *State) Actor() (string, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actorID, s.actorName, s.bound
}

// WorldID returns the cached world id, or "" before a join.
func (s *State) WorldID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.worldID
}

// RoomID returns the cached current room id, or "" before a join.
func (s *State) RoomID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID
}

// SetRoomID updates the cached current room after a successful move.
func (s *State) SetRoomID(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
}
