package session

import (
	"encoding/json"

	"github.com/cwrk-planet/collab-service/internal/domain"
	"github.com/cwrk-planet/collab-service/internal/presence"
	"github.com/cwrk-planet/collab-service/internal/registry"
	"github.com/cwrk-planet/collab-service/internal/relay"
	"github.com/cwrk-planet/collab-service/internal/store"
)

// Session is the single entry point the transport shell talks to: one
// call per inbound event. It owns the coordinator's composition root —
// registry, store, presence and relay are constructed here and never
// reachable as package globals.
type Session struct {
	reg      *registry.Registry
	store    *store.Store
	presence *presence.Manager
	relay    *relay.Relay
}

func New(sink domain.Sink) *Session {
	reg := registry.New()
	st := store.New()

	return &Session{
		reg:      reg,
		store:    st,
		presence: presence.NewManager(reg, st, sink),
		relay:    relay.New(reg, st, sink),
	}
}

// OnDocumentChange wires the optional persistence collaborator for
// document snapshots.
func (s *Session) OnDocumentChange(fn store.SnapshotFunc) {
	s.store.SetSnapshotFunc(fn)
}

// --- room lookup/creation contract for the HTTP layer ---

func (s *Session) RoomExists(roomID string) bool {
	return s.store.Exists(roomID)
}

func (s *Session) RoomDisplayName(roomID string) (string, bool) {
	return s.store.DisplayName(roomID)
}

// CreateRoom is the explicit pathway; unlike the implicit creation on
// join it rejects duplicates.
func (s *Session) CreateRoom(roomID, displayName, creator string, requireApproval bool) error {
	if _, err := s.store.Create(roomID, displayName, creator); err != nil {
		return err
	}
	if requireApproval {
		s.store.SetRequireApproval(roomID, true)
	}
	return nil
}

// --- membership events ---

func (s *Session) RequestJoin(conn domain.ConnectionID, roomID, name string) (presence.Decision, string, error) {
	return s.presence.RequestJoin(roomID, name, conn)
}

// ResolveJoin admits or rejects a pending request. Only the room's host
// may resolve; the check lives here so the presence machine stays free of
// caller context.
func (s *Session) ResolveJoin(resolver domain.ConnectionID, roomID, requesterID string, approve bool) error {
	host, ok := s.store.HostOf(roomID)
	if !ok || host.Conn != resolver {
		return domain.ErrNotHost
	}
	return s.presence.ResolveJoin(roomID, requesterID, approve)
}

func (s *Session) JoinRoom(conn domain.ConnectionID, roomID, identity string, isHost bool, media domain.MediaState) error {
	_, err := s.presence.Join(roomID, conn, identity, isHost, media)
	return err
}

func (s *Session) LeaveRoom(conn domain.ConnectionID) {
	s.presence.Leave(conn)
}

// Disconnect is the implicit leave on connection loss.
func (s *Session) Disconnect(conn domain.ConnectionID) {
	s.presence.Leave(conn)
}

// --- content events ---

func (s *Session) CodeChange(conn domain.ConnectionID, roomID, code string) {
	s.relay.CodeChange(conn, roomID, code)
}

func (s *Session) LanguageChange(conn domain.ConnectionID, roomID, language string) {
	s.relay.LanguageChange(conn, roomID, language)
}

func (s *Session) CursorUpdate(conn domain.ConnectionID, roomID string, data map[string]any) {
	s.relay.CursorUpdate(conn, roomID, data)
}

func (s *Session) Chat(conn domain.ConnectionID, roomID, text string) {
	s.relay.Chat(conn, roomID, text)
}

func (s *Session) Signal(sender, target domain.ConnectionID, from string, signal json.RawMessage) {
	s.relay.Signal(sender, target, from, signal)
}
