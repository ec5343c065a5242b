package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroups_AddRemove(t *testing.T) {
	g := NewGroups()
	g.Add("world1", "chan1")
	g.Add("world1", "chan2")

	assert.True(t, g.Contains("world1", "chan1"))
	assert.Equal(t, []string{"chan1", "chan2"}, g.Members("world1"))

	g.Remove("world1", "chan1")
	assert.False(t, g.Contains("world1", "chan1"))
	assert.Equal(t, []string{"chan2"}, g.Members("world1"))
}

func TestGroups_AddIdempotent(t *testing.T) {
	g := NewGroups()
	g.Add("room1", "chan1")
	g.Add("room1", "chan1")
	assert.Equal(t, []string{"chan1"}, g.Members("room1"))
}

func TestGroups_RemoveIdempotent(t *testing.T) {
	g := NewGroups()
	g.Remove("room1", "chan1")
	g.Add("room1", "chan1")
	g.Remove("room1", "chan1")
	g.Remove("room1", "chan1")
	assert.Empty(t, g.Members("room1"))
}

func TestGroups_ScopesAreIndependent(t *testing.T) {
	g := NewGroups()
	g.Add("world1", "chan1")
	g.Add("room1", "chan1")
	g.Add("room2", "chan2")

	g.Remove("room1", "chan1")
	assert.True(t, g.Contains("world1", "chan1"))
	assert.Equal(t, []string{"chan2"}, g.Members("room2"))
}

func TestGroups_RemoveAll(t *testing.T) {
	g := NewGroups()
	g.Add("world1", "chan1")
	g.Add("room1", "chan1")
	g.Add("room1", "chan2")

	g.RemoveAll("chan1")
	assert.Empty(t, g.Members("world1"))
	assert.Equal(t, []string{"chan2"}, g.Members("room1"))
}

func TestGroups_MembersEmptyScope(t *testing.T) {
	g := NewGroups()
	assert.Empty(t, g.Members("nowhere"))
}
