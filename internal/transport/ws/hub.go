package ws

import (
	"sync"

	"github.com/cwrk-planet/collab-service/internal/domain"
)

type Conn interface {
	Send(msg Message) error
	Close() error
	ID() domain.ConnectionID
}

// Hub is the table of live connections keyed by connection id. It is the
// coordinator's outbound sink: Push resolves the target and delivers
// best-effort, so a departed connection swallows the event silently.
type Hub struct {
	mu    sync.RWMutex
	conns map[domain.ConnectionID]Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[domain.ConnectionID]Conn)}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c.ID()] = c
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.conns[c.ID()]; ok && cur == c {
		delete(h.conns, c.ID())
	}
}

// Push implements domain.Sink.
func (h *Hub) Push(target domain.ConnectionID, evt domain.Event) {
	h.mu.RLock()
	c, ok := h.conns[target]
	h.mu.RUnlock()

	if !ok {
		return
	}
	_ = c.Send(Message{Type: evt.Type, Payload: evt.Payload}) // best-effort
}
