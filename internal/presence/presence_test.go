package presence

import (
	"errors"
	"sync"
	"testing"

	"github.com/cwrk-planet/collab-service/internal/domain"
	"github.com/cwrk-planet/collab-service/internal/registry"
	"github.com/cwrk-planet/collab-service/internal/store"
)

// captureSink records every push so tests can assert fan-out targets.
type captureSink struct {
	mu     sync.Mutex
	pushes []push
}

type push struct {
	target domain.ConnectionID
	evt    domain.Event
}

func (s *captureSink) Push(target domain.ConnectionID, evt domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushes = append(s.pushes, push{target: target, evt: evt})
}

func (s *captureSink) ofType(t string) []push {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []push
	for _, p := range s.pushes {
		if p.evt.Type == t {
			out = append(out, p)
		}
	}
	return out
}

func (s *captureSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushes = nil
}

func newManager() (*Manager, *store.Store, *registry.Registry, *captureSink) {
	reg := registry.New()
	st := store.New()
	sink := &captureSink{}
	return NewManager(reg, st, sink), st, reg, sink
}

func TestJoinBroadcasts(t *testing.T) {
	m, _, _, sink := newManager()

	// alice creates the room implicitly
	if _, err := m.Join("r1", "ca", "alice", true, domain.MediaState{}); err != nil {
		t.Fatalf("join alice: %v", err)
	}
	sink.reset()

	if _, err := m.Join("r1", "cb", "bob", false, domain.MediaState{}); err != nil {
		t.Fatalf("join bob: %v", err)
	}

	lists := sink.ofType(domain.EventRoomParticipants)
	if len(lists) != 2 {
		t.Fatalf("expected participant list for both members, got %d", len(lists))
	}
	for _, p := range lists {
		snapshot := p.evt.Payload.([]domain.Participant)
		if len(snapshot) != 2 {
			t.Fatalf("expected 2-participant snapshot, got %d", len(snapshot))
		}
		if snapshot[0].Name != "alice" || !snapshot[0].IsHost {
			t.Fatalf("expected alice (host) first, got %+v", snapshot[0])
		}
		if snapshot[1].Name != "bob" {
			t.Fatalf("expected bob second, got %+v", snapshot[1])
		}
	}

	// the joined notice must not reach the joiner
	joined := sink.ofType(domain.EventUserJoined)
	if len(joined) != 1 {
		t.Fatalf("expected exactly one joined notice, got %d", len(joined))
	}
	if joined[0].target != "ca" {
		t.Fatalf("joined notice must target alice, got %s", joined[0].target)
	}
}

func TestRejoinReplacesConnection(t *testing.T) {
	m, st, reg, _ := newManager()

	m.Join("r1", "c1", "alice", true, domain.MediaState{})
	m.Join("r1", "c2", "alice", true, domain.MediaState{})

	snapshot, _ := st.Participants("r1")
	if len(snapshot) != 1 {
		t.Fatalf("expected exactly one alice, got %d entries", len(snapshot))
	}
	if snapshot[0].Conn != "c2" {
		t.Fatalf("expected the new connection, got %s", snapshot[0].Conn)
	}

	b, ok := reg.Lookup("c2")
	if !ok || b.RoomID != "r1" {
		t.Fatalf("expected c2 bound to r1, got %+v", b)
	}
}

func TestLeaveLastParticipantIsSilent(t *testing.T) {
	m, st, _, sink := newManager()

	m.Join("r3", "c1", "erin", true, domain.MediaState{})
	sink.reset()

	m.Leave("c1")

	if st.Exists("r3") {
		t.Fatal("room must be gone after the sole participant left")
	}
	sink.mu.Lock()
	n := len(sink.pushes)
	sink.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected no broadcast into an empty room, got %d pushes", n)
	}
}

func TestLeaveNotifiesRemaining(t *testing.T) {
	m, _, _, sink := newManager()

	m.Join("r1", "ca", "alice", true, domain.MediaState{})
	m.Join("r1", "cb", "bob", false, domain.MediaState{})
	sink.reset()

	m.Leave("cb")

	lists := sink.ofType(domain.EventRoomParticipants)
	if len(lists) != 1 || lists[0].target != "ca" {
		t.Fatalf("expected one list push to alice, got %+v", lists)
	}
	left := sink.ofType(domain.EventUserDisconnected)
	if len(left) != 1 {
		t.Fatalf("expected one disconnect notice, got %d", len(left))
	}
	if left[0].evt.Payload.(domain.UserDisconnectedPayload).UserID != "bob" {
		t.Fatalf("unexpected payload: %+v", left[0].evt.Payload)
	}
}

func TestLeaveUnknownConnection(t *testing.T) {
	m, _, _, sink := newManager()

	m.Leave("ghost")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.pushes) != 0 {
		t.Fatal("leave of an unbound connection must be silent")
	}
}

func TestRequestJoinOpenRoom(t *testing.T) {
	m, _, _, _ := newManager()
	m.Join("r1", "ca", "alice", true, domain.MediaState{})

	decision, _, err := m.RequestJoin("r1", "bob", "cb")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if decision != Admitted {
		t.Fatalf("expected Admitted, got %v", decision)
	}
}

func TestRequestJoinUnknownRoom(t *testing.T) {
	m, _, _, _ := newManager()

	_, _, err := m.RequestJoin("nope", "bob", "cb")
	if !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRequestJoinGatedRoomNotifiesHostOnly(t *testing.T) {
	m, st, _, sink := newManager()

	m.Join("r2", "cc", "carol", true, domain.MediaState{})
	m.Join("r2", "cx", "xenia", false, domain.MediaState{})
	st.SetRequireApproval("r2", true)
	sink.reset()

	decision, requesterID, err := m.RequestJoin("r2", "dave", "cd")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if decision != AwaitingApproval || requesterID == "" {
		t.Fatalf("expected AwaitingApproval with id, got %v %q", decision, requesterID)
	}

	reqs := sink.ofType(domain.EventJoinRequest)
	if len(reqs) != 1 {
		t.Fatalf("expected exactly one join-request event, got %d", len(reqs))
	}
	if reqs[0].target != "cc" {
		t.Fatalf("join-request must target the host, got %s", reqs[0].target)
	}
	payload := reqs[0].evt.Payload.(domain.JoinRequestPayload)
	if payload.Name != "dave" || payload.RoomID != "r2" || payload.UserID != requesterID {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	// dave must not be in the participant list yet
	snapshot, _ := st.Participants("r2")
	for _, p := range snapshot {
		if p.Name == "dave" {
			t.Fatal("requester must not be a participant before approval")
		}
	}
}

func TestRequestJoinGatedRoomWithoutHost(t *testing.T) {
	m, st, _, _ := newManager()

	m.Join("r2", "cx", "xenia", false, domain.MediaState{})
	st.SetRequireApproval("r2", true)

	_, _, err := m.RequestJoin("r2", "dave", "cd")
	if !errors.Is(err, domain.ErrHostUnavailable) {
		t.Fatalf("expected ErrHostUnavailable, got %v", err)
	}
}

func TestResolveJoinApprove(t *testing.T) {
	m, st, _, sink := newManager()

	m.Join("r2", "cc", "carol", true, domain.MediaState{})
	st.SetRequireApproval("r2", true)
	_, requesterID, _ := m.RequestJoin("r2", "dave", "cd")
	sink.reset()

	if err := m.ResolveJoin("r2", requesterID, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	approved := sink.ofType(domain.EventJoinApproved)
	if len(approved) != 1 || approved[0].target != "cd" {
		t.Fatalf("expected one approval to dave, got %+v", approved)
	}

	// duplicate resolution is reported, not fatal
	err := m.ResolveJoin("r2", requesterID, true)
	if !errors.Is(err, domain.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound on duplicate, got %v", err)
	}
}

func TestResolveJoinReject(t *testing.T) {
	m, st, _, sink := newManager()

	m.Join("r2", "cc", "carol", true, domain.MediaState{})
	st.SetRequireApproval("r2", true)
	_, requesterID, _ := m.RequestJoin("r2", "dave", "cd")
	sink.reset()

	if err := m.ResolveJoin("r2", requesterID, false); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	rejected := sink.ofType(domain.EventJoinRejected)
	if len(rejected) != 1 || rejected[0].target != "cd" {
		t.Fatalf("expected one rejection to dave, got %+v", rejected)
	}
	if rejected[0].evt.Payload.(domain.JoinRejectedPayload).Message == "" {
		t.Fatal("rejection must carry a reason")
	}
}

func TestResolveJoinWithoutLiveRequester(t *testing.T) {
	m, st, _, sink := newManager()

	m.Join("r2", "cc", "carol", true, domain.MediaState{})
	st.SetRequireApproval("r2", true)
	_, requesterID, _ := m.RequestJoin("r2", "dave", "")
	sink.reset()

	// requester had no socket; the approval resolves into a no-op
	if err := m.ResolveJoin("r2", requesterID, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.pushes) != 0 {
		t.Fatalf("expected no pushes, got %d", len(sink.pushes))
	}
}
