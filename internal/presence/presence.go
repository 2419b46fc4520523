package presence

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/collab-service/internal/domain"
	"github.com/cwrk-planet/collab-service/internal/registry"
	"github.com/cwrk-planet/collab-service/internal/store"

	"github.com/google/uuid"
)

// Decision is the immediate answer to a join request.
type Decision int

const (
	// Admitted — комната без модерации, можно сразу вызывать Join.
	Admitted Decision = iota
	// AwaitingApproval — запрос ушёл хосту, вход после join-approved.
	AwaitingApproval
)

type pendingJoin struct {
	roomID string
	name   string
	conn   domain.ConnectionID // empty when the request came without a live socket
}

// Manager owns the join/leave/approval workflow. Pending requests have no
// expiry: they resolve on host action or linger until process restart.
type Manager struct {
	reg   *registry.Registry
	store *store.Store
	sink  domain.Sink

	mu      sync.Mutex
	pending map[string]pendingJoin
}

func NewManager(reg *registry.Registry, st *store.Store, sink domain.Sink) *Manager {
	return &Manager{
		reg:     reg,
		store:   st,
		sink:    sink,
		pending: make(map[string]pendingJoin),
	}
}

// RequestJoin asks for entry into a gated room. For rooms without approval
// it returns Admitted without creating any state; membership is only
// established by the subsequent Join. requester may be empty (HTTP path);
// an approval then resolves into a no-op signal.
func (m *Manager) RequestJoin(roomID, requestedName string, requester domain.ConnectionID) (Decision, string, error) {
	if !m.store.Exists(roomID) {
		return 0, "", domain.ErrRoomNotFound
	}

	gated, _ := m.store.RequireApproval(roomID)
	if !gated {
		return Admitted, "", nil
	}

	host, ok := m.store.HostOf(roomID)
	if !ok {
		return 0, "", domain.ErrHostUnavailable
	}

	requesterID := uuid.NewString()

	m.mu.Lock()
	m.pending[requesterID] = pendingJoin{roomID: roomID, name: requestedName, conn: requester}
	m.mu.Unlock()

	// одно адресное событие хосту, не broadcast
	m.sink.Push(host.Conn, domain.Event{
		Type: domain.EventJoinRequest,
		Payload: domain.JoinRequestPayload{
			UserID: requesterID,
			Name:   requestedName,
			RoomID: roomID,
		},
	})

	return AwaitingApproval, requesterID, nil
}

// ResolveJoin transitions a pending request to its terminal outcome and
// signals the requester. A duplicate resolution reports ErrRequestNotFound.
// A requester that disconnected meanwhile is signalled into the void, which
// is deliberately not an error.
func (m *Manager) ResolveJoin(roomID, requesterID string, approve bool) error {
	m.mu.Lock()
	req, ok := m.pending[requesterID]
	if ok && req.roomID == roomID {
		delete(m.pending, requesterID)
	} else {
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return domain.ErrRequestNotFound
	}
	if req.conn == "" {
		slog.Debug("join resolution for requester without live connection",
			"room", roomID, "requester", requesterID)
		return nil
	}

	if approve {
		m.sink.Push(req.conn, domain.Event{
			Type:    domain.EventJoinApproved,
			Payload: domain.JoinApprovedPayload{RoomID: roomID},
		})
	} else {
		m.sink.Push(req.conn, domain.Event{
			Type: domain.EventJoinRejected,
			Payload: domain.JoinRejectedPayload{
				RoomID:  roomID,
				Message: "Your request was rejected by the host",
			},
		})
	}

	return nil
}

// Join establishes membership: implicit room creation, identity-replace
// insert, registry bind, then two broadcasts — the full participant list to
// everyone and a joined notice to everyone except the new connection.
func (m *Manager) Join(roomID string, conn domain.ConnectionID, identity string, isHost bool, media domain.MediaState) ([]domain.Participant, error) {
	m.store.GetOrCreateDefault(roomID, identity)

	p := domain.Participant{
		Name:       identity,
		Conn:       conn,
		IsHost:     isHost,
		JoinedAt:   time.Now(),
		MediaState: media,
	}

	snapshot, err := m.store.AddOrReplaceParticipant(roomID, p)
	if err != nil {
		return nil, err
	}
	m.reg.Bind(conn, roomID, identity)

	for _, target := range snapshot {
		m.sink.Push(target.Conn, domain.Event{
			Type:    domain.EventRoomParticipants,
			Payload: snapshot,
		})
	}
	for _, target := range snapshot {
		if target.Conn == conn {
			continue
		}
		m.sink.Push(target.Conn, domain.Event{
			Type:    domain.EventUserJoined,
			Payload: domain.UserJoinedPayload{NewUserID: identity},
		})
	}

	return snapshot, nil
}

// Leave handles both the explicit leave-room event and a dropped
// connection. An emptied room is discarded silently: there is no one left
// to notify.
func (m *Manager) Leave(conn domain.ConnectionID) {
	b, ok := m.reg.Lookup(conn)
	if !ok {
		return
	}
	m.reg.Unbind(conn)

	remaining, removed, deleted := m.store.RemoveParticipant(b.RoomID, conn)
	if deleted || len(remaining) == 0 {
		return
	}

	for _, target := range remaining {
		m.sink.Push(target.Conn, domain.Event{
			Type:    domain.EventRoomParticipants,
			Payload: remaining,
		})
	}
	if removed != nil {
		for _, target := range remaining {
			m.sink.Push(target.Conn, domain.Event{
				Type:    domain.EventUserDisconnected,
				Payload: domain.UserDisconnectedPayload{UserID: removed.Name},
			})
		}
	}
}
