package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/cwrk-planet/collab-service/internal/domain"
)

// SnapshotFunc получает каждое перезаписанное состояние документа.
// Вызывается вне блокировки; запись в долговременное хранилище не должна
// задерживать координатор.
type SnapshotFunc func(roomID, code, language string)

type room struct {
	id              string
	name            string
	creator         string
	createdAt       time.Time
	requireApproval bool
	participants    []domain.Participant // ordered by join time
	doc             domain.DocumentState
}

// Store is the authoritative in-memory table of live rooms. A room lives
// from first creation (explicit or implicit on join) until its participant
// set becomes empty. One mutex serializes all mutations, so concurrent
// operations on the same room never interleave partially.
type Store struct {
	mu       sync.RWMutex
	rooms    map[string]*room
	snapshot SnapshotFunc
}

func New() *Store {
	return &Store{rooms: make(map[string]*room)}
}

// SetSnapshotFunc registers the durable-storage subscriber for document
// state changes. The store does not depend on those writes succeeding.
func (s *Store) SetSnapshotFunc(fn SnapshotFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = fn
}

func (s *Store) Create(roomID, displayName, creator string) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; ok {
		return domain.Room{}, domain.ErrRoomExists
	}
	if displayName == "" {
		displayName = defaultName(roomID)
	}
	rm := &room{
		id:        roomID,
		name:      displayName,
		creator:   creator,
		createdAt: time.Now(),
	}
	s.rooms[roomID] = rm

	return rm.meta(), nil
}

// GetOrCreateDefault покрывает неявное создание комнаты при первом join.
func (s *Store) GetOrCreateDefault(roomID, fallbackCreator string) domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.rooms[roomID]
	if !ok {
		rm = &room{
			id:        roomID,
			name:      defaultName(roomID),
			creator:   fallbackCreator,
			createdAt: time.Now(),
		}
		s.rooms[roomID] = rm
	}

	return rm.meta()
}

func (s *Store) Exists(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.rooms[roomID]
	return ok
}

func (s *Store) DisplayName(roomID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rm, ok := s.rooms[roomID]
	if !ok {
		return "", false
	}
	return rm.name, true
}

func (s *Store) RequireApproval(roomID string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rm, ok := s.rooms[roomID]
	if !ok {
		return false, false
	}
	return rm.requireApproval, true
}

func (s *Store) SetRequireApproval(roomID string, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rm, ok := s.rooms[roomID]; ok {
		rm.requireApproval = v
	}
}

// AddOrReplaceParticipant inserts p into the room; existing entries with
// the same name or the same connection are dropped first, so neither a
// reconnect without a clean leave nor a re-join under a new identity can
// yield two records for one identity or one connection. Returns the
// ordered snapshot for broadcast.
func (s *Store) AddOrReplaceParticipant(roomID string, p domain.Participant) ([]domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	kept := rm.participants[:0]
	for _, cur := range rm.participants {
		if cur.Name != p.Name && cur.Conn != p.Conn {
			kept = append(kept, cur)
		}
	}
	rm.participants = append(kept, p)

	return snapshotOf(rm.participants), nil
}

// RemoveParticipant removes by connection id. Emptying the room deletes it
// atomically; callers must skip the "remaining participants" broadcast when
// deleted is true. removed is nil when the connection held no entry.
func (s *Store) RemoveParticipant(roomID string, conn domain.ConnectionID) (remaining []domain.Participant, removed *domain.Participant, deleted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.rooms[roomID]
	if !ok {
		return nil, nil, false
	}

	kept := rm.participants[:0]
	for _, cur := range rm.participants {
		if cur.Conn == conn {
			c := cur
			removed = &c
			continue
		}
		kept = append(kept, cur)
	}
	rm.participants = kept

	if len(rm.participants) == 0 {
		delete(s.rooms, roomID)
		return nil, removed, true
	}

	return snapshotOf(rm.participants), removed, false
}

func (s *Store) Participants(roomID string) ([]domain.Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rm, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	return snapshotOf(rm.participants), true
}

// HostOf returns the first participant flagged as host.
func (s *Store) HostOf(roomID string) (domain.Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rm, ok := s.rooms[roomID]
	if !ok {
		return domain.Participant{}, false
	}
	for _, p := range rm.participants {
		if p.IsHost {
			return p, true
		}
	}
	return domain.Participant{}, false
}

// SetDocumentCode — LWW: последняя запись побеждает безусловно.
func (s *Store) SetDocumentCode(roomID, code string) {
	s.mu.Lock()
	rm, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return
	}
	rm.doc.Code = code
	doc := rm.doc
	fn := s.snapshot
	s.mu.Unlock()

	if fn != nil {
		fn(roomID, doc.Code, doc.Language)
	}
}

func (s *Store) SetDocumentLanguage(roomID, language string) {
	s.mu.Lock()
	rm, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return
	}
	rm.doc.Language = language
	doc := rm.doc
	fn := s.snapshot
	s.mu.Unlock()

	if fn != nil {
		fn(roomID, doc.Code, doc.Language)
	}
}

func (s *Store) DocumentState(roomID string) (domain.DocumentState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rm, ok := s.rooms[roomID]
	if !ok {
		return domain.DocumentState{}, false
	}
	return rm.doc, true
}

func (rm *room) meta() domain.Room {
	return domain.Room{
		ID:              rm.id,
		Name:            rm.name,
		Creator:         rm.creator,
		CreatedAt:       rm.createdAt,
		RequireApproval: rm.requireApproval,
	}
}

func snapshotOf(ps []domain.Participant) []domain.Participant {
	out := make([]domain.Participant, len(ps))
	copy(out, ps)
	return out
}

func defaultName(roomID string) string {
	return fmt.Sprintf("Room %s", roomID)
}
