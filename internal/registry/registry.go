package registry

import (
	"sync"

	"github.com/cwrk-planet/collab-service/internal/domain"
)

// Binding ties a live connection to the room it currently sits in.
type Binding struct {
	RoomID   string
	Identity string
}

// Registry is the connection -> (room, identity) table.
// All operations are total: rebinding implicitly drops the old binding,
// unbinding an unknown connection is a no-op.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnectionID]Binding
}

func New() *Registry {
	return &Registry{conns: make(map[domain.ConnectionID]Binding)}
}

func (r *Registry) Bind(conn domain.ConnectionID, roomID, identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[conn] = Binding{RoomID: roomID, Identity: identity}
}

func (r *Registry) Unbind(conn domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, conn)
}

func (r *Registry) Lookup(conn domain.ConnectionID) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.conns[conn]
	return b, ok
}
