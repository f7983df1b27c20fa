package chat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(userID int64) *Session {
	return newSession(Identity{UserID: userID}, 8)
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	a, b := testSession(1), testSession(2)

	assert.True(t, r.AddToRoom(10, a))
	assert.False(t, r.AddToRoom(10, a), "second add is a no-op")
	assert.True(t, r.AddToRoom(10, b))
	assert.True(t, r.AddToRoom(11, a))

	assert.ElementsMatch(t, []*Session{a, b}, r.MembersOf(10))
	assert.Equal(t, []RoomID{10, 11}, r.RoomsOf(a))
	assert.Equal(t, []int64{1, 2}, r.UserIDs(10))
	assert.Equal(t, 2, r.RoomCount())

	assert.True(t, r.RemoveFromRoom(10, a))
	assert.False(t, r.RemoveFromRoom(10, a))
	assert.Equal(t, []RoomID{11}, r.RoomsOf(a))

	assert.True(t, r.RemoveFromRoom(11, a))
	assert.Equal(t, 1, r.RoomCount(), "room 11 is dropped once empty")
	assert.NotContains(t, r.sessions, a)
}

func TestRegistry_RemoveSession(t *testing.T) {
	r := NewRegistry()
	a, b := testSession(1), testSession(2)
	r.AddToRoom(1, a)
	r.AddToRoom(2, a)
	r.AddToRoom(2, b)

	rooms := r.RemoveSession(a)
	assert.Equal(t, []RoomID{1, 2}, rooms)
	assert.Empty(t, r.RoomsOf(a))
	assert.Empty(t, r.MembersOf(1))
	assert.NotContains(t, r.rooms, RoomID(1))
	assert.Equal(t, []*Session{b}, r.MembersOf(2))

	assert.Empty(t, r.RemoveSession(a))
}

func TestRegistry_UserIDsDeduplicates(t *testing.T) {
	r := NewRegistry()
	r.AddToRoom(5, testSession(3))
	r.AddToRoom(5, testSession(3))
	r.AddToRoom(5, testSession(1))
	assert.Equal(t, []int64{1, 3}, r.UserIDs(5))
}

// Random join/leave/disconnect sequences must keep both directions of the index in sync.
func TestRegistry_ConsistentUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	r := NewRegistry()
	sessions := []*Session{testSession(1), testSession(2), testSession(3), testSession(4)}

	for i := 0; i < 5000; i++ {
		s := sessions[rng.Intn(len(sessions))]
		room := RoomID(rng.Intn(6) + 1)
		switch rng.Intn(5) {
		case 0, 1:
			r.AddToRoom(room, s)
		case 2, 3:
			r.RemoveFromRoom(room, s)
		case 4:
			r.RemoveSession(s)
		}
		requireConsistent(t, r, sessions)
	}
}

func requireConsistent(t *testing.T, r *Registry, sessions []*Session) {
	t.Helper()
	for room, set := range r.rooms {
		require.NotEmpty(t, set, "empty room %d kept", room)
		for s := range set {
			require.Contains(t, r.RoomsOf(s), room)
		}
	}
	for _, s := range sessions {
		rooms := r.RoomsOf(s)
		for _, room := range rooms {
			require.Contains(t, r.MembersOf(room), s)
		}
		if len(rooms) == 0 {
			require.NotContains(t, r.sessions, s)
		}
	}
}
