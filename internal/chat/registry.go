package chat

import (
	"sort"

	"github.com/samber/lo"
)

// RoomID identifies a room; it is the trip id.
type RoomID = int64

// Registry is the bidirectional room <-> session index.
// It is not safe for concurrent use; Gateway serializes every call.
type Registry struct {
	rooms    map[RoomID]map[*Session]struct{}
	sessions map[*Session]map[RoomID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[RoomID]map[*Session]struct{}),
		sessions: make(map[*Session]map[RoomID]struct{}),
	}
}

// AddToRoom records s in room. It reports false when s was already there.
func (r *Registry) AddToRoom(room RoomID, s *Session) bool {
	if r.Has(room, s) {
		return false
	}
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[*Session]struct{})
	}
	if r.sessions[s] == nil {
		r.sessions[s] = make(map[RoomID]struct{})
	}
	r.rooms[room][s] = struct{}{}
	r.sessions[s][room] = struct{}{}
	return true
}

// RemoveFromRoom drops s from room and reports whether anything changed.
// Empty entries on either side are deleted.
func (r *Registry) RemoveFromRoom(room RoomID, s *Session) bool {
	if !r.Has(room, s) {
		return false
	}
	delete(r.rooms[room], s)
	if len(r.rooms[room]) == 0 {
		delete(r.rooms, room)
	}
	delete(r.sessions[s], room)
	if len(r.sessions[s]) == 0 {
		delete(r.sessions, s)
	}
	return true
}

// RemoveSession drops s from every room and returns the rooms it had joined.
func (r *Registry) RemoveSession(s *Session) []RoomID {
	rooms := r.RoomsOf(s)
	for _, room := range rooms {
		r.RemoveFromRoom(room, s)
	}
	return rooms
}

func (r *Registry) Has(room RoomID, s *Session) bool {
	_, ok := r.rooms[room][s]
	return ok
}

// MembersOf returns a snapshot of the sessions in room.
func (r *Registry) MembersOf(room RoomID) []*Session {
	return lo.Keys(r.rooms[room])
}

// RoomsOf returns the rooms s has joined in ascending order.
func (r *Registry) RoomsOf(s *Session) []RoomID {
	rooms := lo.Keys(r.sessions[s])
	sort.Slice(rooms, func(i, j int) bool { return rooms[i] < rooms[j] })
	return rooms
}

// UserIDs returns the distinct users present in room, ascending.
func (r *Registry) UserIDs(room RoomID) []int64 {
	ids := lo.Uniq(lo.Map(r.MembersOf(room), func(s *Session, _ int) int64 { return s.UserID }))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Registry) RoomCount() int {
	return len(r.rooms)
}
