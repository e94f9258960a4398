package websocket

import (
	"errors"
	"log/slog"
	"sync"
)

var ErrUnknownConnection = errors.New("unknown connection")

// Sink receives encoded events for one live connection.
type Sink interface {
	// Send queues payload for delivery. It reports false if the event was dropped.
	Send(payload []byte) bool
	Close()
}

// Member is a snapshot of one connection's room membership
type Member struct {
	ConnID string
	Room   string // empty until the connection joins a room
	Email  string
	Role   string
	Sink   Sink
}

// Registry tracks live connections and the room each one last joined.
// A connection belongs to at most one room at a time.
type Registry struct {
	mu      sync.RWMutex
	members map[string]*Member // connID -> member
	logger  *slog.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		members: make(map[string]*Member),
		logger:  slog.Default(),
	}
}

// Register records a live connection that has not joined a room yet.
func (r *Registry) Register(connID string, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[connID] = &Member{ConnID: connID, Sink: sink}
	r.logger.Info("client_added", "conn_id", connID)
}

// Join moves the connection into room, replacing any previous room and claim.
func (r *Registry) Join(connID, room, email, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[connID]
	if !ok {
		return ErrUnknownConnection
	}
	m.Room = room
	m.Email = email
	m.Role = role
	r.logger.Info("client_joined_room", "conn_id", connID, "room", room, "email", email)
	return nil
}

// Remove forgets the connection. Unknown ids are ignored.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[connID]; !ok {
		return
	}
	delete(r.members, connID)
	r.logger.Info("client_removed", "conn_id", connID)
}

func (r *Registry) Lookup(connID string) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[connID]
	if !ok {
		return Member{}, false
	}
	return *m, true
}

// Members returns a copy of every connection currently joined to room.
func (r *Registry) Members(room string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]Member, 0)
	for _, m := range r.members {
		if room != "" && m.Room == room {
			members = append(members, *m)
		}
	}
	return members
}

// RoomCount returns the number of distinct rooms with at least one member
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make(map[string]struct{})
	for _, m := range r.members {
		if m.Room != "" {
			rooms[m.Room] = struct{}{}
		}
	}
	return len(rooms)
}

func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// CloseAll closes every live connection and empties the registry
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.members {
		m.Sink.Close()
		r.logger.Info("client_connection_closed", "conn_id", id)
	}
	r.members = make(map[string]*Member)
}
