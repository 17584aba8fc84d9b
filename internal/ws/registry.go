package ws

import (
	"sort"
	"sync"
)

// Registry maps pod ids to the connections currently in that pod's room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Conn]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[*Conn]struct{})}
}

// Join adds conn to podID's room. Joining twice is a no-op.
func (r *Registry) Join(podID string, conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[podID]
	if !ok {
		room = make(map[*Conn]struct{})
		r.rooms[podID] = room
	}
	room[conn] = struct{}{}
}

// Leave removes conn from podID's room and reports whether it was there.
func (r *Registry) Leave(podID string, conn *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[podID]
	if !ok {
		return false
	}
	if _, present := room[conn]; !present {
		return false
	}
	delete(room, conn)
	if len(room) == 0 {
		delete(r.rooms, podID)
	}
	return true
}

// MembersOf returns a snapshot of podID's room.
func (r *Registry) MembersOf(podID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[podID]
	members := make([]*Conn, 0, len(room))
	for conn := range room {
		members = append(members, conn)
	}
	return members
}

// Users returns the distinct user ids connected to podID, sorted.
func (r *Registry) Users(podID string) []string {
	seen := make(map[string]struct{})
	users := []string{}
	for _, conn := range r.MembersOf(podID) {
		userID := conn.UserID()
		if userID == "" {
			continue
		}
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}
