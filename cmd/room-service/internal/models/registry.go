package models

import "sync"

// Registry owns the process-wide roomID -> Room mapping. Rooms are created
// lazily on first join and deleted outright once empty past the grace
// period; an emptied room is never reset in place.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for id, creating an empty one if needed.
// Callers cannot tell a fresh room from an existing one.
func (reg *Registry) GetOrCreate(id string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if room, ok := reg.rooms[id]; ok {
		return room
	}
	room := NewRoom()
	reg.rooms[id] = room
	return room
}

// Get looks up a room without creating it. Absence is an expected outcome.
func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[id]
	return room, ok
}

// Delete removes the room entirely.
func (reg *Registry) Delete(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, id)
}

// Len reports the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}
