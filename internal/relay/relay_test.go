package relay

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/collab-service/internal/domain"
	"github.com/cwrk-planet/collab-service/internal/registry"
	"github.com/cwrk-planet/collab-service/internal/store"
)

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

func (s *captureSink) all() []push {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]push(nil), s.pushes...)
}

func (s *captureSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushes = nil
}

// room with three members: alice (host, ca), bob (cb), carol (cc)
func seeded(t *testing.T) (*Relay, *store.Store, *registry.Registry, *captureSink) {
	t.Helper()

	reg := registry.New()
	st := store.New()
	sink := &captureSink{}

	st.GetOrCreateDefault("r1", "alice")
	for _, m := range []struct {
		name string
		conn domain.ConnectionID
		host bool
	}{
		{"alice", "ca", true},
		{"bob", "cb", false},
		{"carol", "cc", false},
	} {
		if _, err := st.AddOrReplaceParticipant("r1", domain.Participant{
			Name: m.name, Conn: m.conn, IsHost: m.host, JoinedAt: time.Now(),
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
		reg.Bind(m.conn, "r1", m.name)
	}

	return New(reg, st, sink), st, reg, sink
}

func targetsOf(pushes []push) map[domain.ConnectionID]int {
	out := make(map[domain.ConnectionID]int)
	for _, p := range pushes {
		out[p.target]++
	}
	return out
}

func TestCodeChangeFanOut(t *testing.T) {
	r, st, _, sink := seeded(t)

	r.CodeChange("cb", "r1", "print(42)")

	got := targetsOf(sink.all())
	if got["cb"] != 0 {
		t.Fatal("sender must not receive its own change")
	}
	if got["ca"] != 1 || got["cc"] != 1 {
		t.Fatalf("expected one event per other member, got %v", got)
	}

	p := sink.all()[0]
	if p.evt.Type != domain.EventCodeChange {
		t.Fatalf("unexpected type %s", p.evt.Type)
	}
	payload := p.evt.Payload.(domain.CodeChangePayload)
	if payload.Code != "print(42)" || payload.UserID != "bob" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	doc, _ := st.DocumentState("r1")
	if doc.Code != "print(42)" {
		t.Fatalf("document not updated: %+v", doc)
	}
}

func TestLanguageChangeFanOut(t *testing.T) {
	r, st, _, sink := seeded(t)

	r.LanguageChange("ca", "r1", "go")

	got := targetsOf(sink.all())
	if got["ca"] != 0 || got["cb"] != 1 || got["cc"] != 1 {
		t.Fatalf("unexpected fan-out: %v", got)
	}

	doc, _ := st.DocumentState("r1")
	if doc.Language != "go" {
		t.Fatalf("language not updated: %+v", doc)
	}
}

func TestUnscopedEventDropped(t *testing.T) {
	r, st, _, sink := seeded(t)

	// sender bound to r1 but claims a different room
	st.GetOrCreateDefault("r2", "x")
	r.CodeChange("cb", "r2", "evil")

	if len(sink.all()) != 0 {
		t.Fatal("event from a foreign room must be dropped")
	}
	if doc, _ := st.DocumentState("r2"); doc.Code != "" {
		t.Fatal("document of a foreign room must not change")
	}

	// unknown sender
	r.CodeChange("ghost", "r1", "evil")
	if len(sink.all()) != 0 {
		t.Fatal("event from an unbound connection must be dropped")
	}
}

func TestCursorUpdatePassthrough(t *testing.T) {
	r, _, _, sink := seeded(t)

	r.CursorUpdate("cc", "r1", map[string]any{"line": 3, "col": 7})

	pushes := sink.all()
	if len(pushes) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(pushes))
	}
	data := pushes[0].evt.Payload.(map[string]any)
	if data["line"] != 3 || data["col"] != 7 {
		t.Fatalf("payload must pass through untouched, got %v", data)
	}
	if data["userId"] != "carol" {
		t.Fatalf("expected injected identity carol, got %v", data["userId"])
	}
}

func TestChatFanOut(t *testing.T) {
	r, _, _, sink := seeded(t)

	r.Chat("ca", "r1", "hello")

	got := targetsOf(sink.all())
	if got["ca"] != 0 || got["cb"] != 1 || got["cc"] != 1 {
		t.Fatalf("unexpected fan-out: %v", got)
	}
	payload := sink.all()[0].evt.Payload.(domain.ChatMessagePayload)
	if payload.Text != "hello" || payload.UserID != "alice" || payload.TSUnix == 0 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSignalPointToPoint(t *testing.T) {
	r, _, _, sink := seeded(t)

	sig := json.RawMessage(`{"sdp":"offer"}`)
	r.Signal("ca", "cb", "alice", sig)

	pushes := sink.all()
	if len(pushes) != 1 || pushes[0].target != "cb" {
		t.Fatalf("expected single push to cb, got %+v", pushes)
	}
	payload := pushes[0].evt.Payload.(domain.SignalPayload)
	if payload.From != "alice" || string(payload.Signal) != `{"sdp":"offer"}` {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSignalToDepartedTarget(t *testing.T) {
	r, _, reg, sink := seeded(t)

	reg.Unbind("cb")
	r.Signal("ca", "cb", "alice", json.RawMessage(`{}`))

	if len(sink.all()) != 0 {
		t.Fatal("signal to a departed target must vanish")
	}
}

func TestSignalAcrossRooms(t *testing.T) {
	r, st, reg, sink := seeded(t)

	st.GetOrCreateDefault("r2", "dora")
	st.AddOrReplaceParticipant("r2", domain.Participant{Name: "dora", Conn: "cd", JoinedAt: time.Now()})
	reg.Bind("cd", "r2", "dora")

	r.Signal("ca", "cd", "alice", json.RawMessage(`{}`))

	if len(sink.all()) != 0 {
		t.Fatal("signal must not cross room boundaries")
	}
}
