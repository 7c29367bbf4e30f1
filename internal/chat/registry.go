package chat

import (
	"sort"
	"sync"
)

// Room holds the live state for one named room: the chronological message
// history and the set of display names currently joined. Membership is keyed
// by name, not by connection, so two connections sharing a name collapse to
// one entry.
type Room struct {
	name string

	mu      sync.RWMutex
	history []Message
	members map[string]bool
}

func newRoom(name string) *Room {
	return &Room{
		name:    name,
		members: make(map[string]bool),
	}
}

func (r *Room) Name() string { return r.name }

// History returns a snapshot copy of the room's history in append order.
// The result is never nil so it always encodes as a JSON array.
func (r *Room) History() []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Message, len(r.history))
	copy(out, r.history)
	return out
}

// Members returns the current member names, sorted for stable output.
func (r *Room) Members() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.members))
	for name := range r.members {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Room) Append(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, msg)
}

func (r *Room) AddMember(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[name] = true
}

// RemoveMember drops the name entirely, regardless of how many connections
// joined under it.
func (r *Room) RemoveMember(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, name)
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *Room) HistoryLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.history)
}

// ClearHistory empties the room's history. Only the abandonment check uses
// this; membership is untouched.
func (r *Room) ClearHistory() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = nil
}

// Registry is the in-memory source of truth for live room state. Rooms are
// created lazily on first join and never deleted.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room with the given name, creating an empty one if
// it does not exist yet. Idempotent: repeated calls return the same room.
func (reg *Registry) GetOrCreate(name string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[name]
	if !ok {
		room = newRoom(name)
		reg.rooms[name] = room
	}
	return room
}

// Get looks up a room without creating it.
func (reg *Registry) Get(name string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[name]
	return room, ok
}

// Seed installs pre-existing state for a room, used when hydrating the
// registry from the store at startup.
func (reg *Registry) Seed(name string, history []Message, members []string) {
	room := reg.GetOrCreate(name)
	room.mu.Lock()
	defer room.mu.Unlock()
	room.history = append(room.history[:0], history...)
	for _, m := range members {
		room.members[m] = true
	}
}
