package relay

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cwrk-planet/collab-service/internal/domain"
	"github.com/cwrk-planet/collab-service/internal/registry"
	"github.com/cwrk-planet/collab-service/internal/store"
)

// Relay fans domain events out to the right subset of a room. Every
// operation first checks that the sender is actually bound to the named
// room; a mismatch means a stale client, so the event is dropped silently.
type Relay struct {
	reg   *registry.Registry
	store *store.Store
	sink  domain.Sink
}

func New(reg *registry.Registry, st *store.Store, sink domain.Sink) *Relay {
	return &Relay{reg: reg, store: st, sink: sink}
}

// scoped returns the sender's identity when the sender is bound to roomID
// and the room is live.
func (r *Relay) scoped(sender domain.ConnectionID, roomID string) (string, bool) {
	b, ok := r.reg.Lookup(sender)
	if !ok || b.RoomID != roomID || !r.store.Exists(roomID) {
		slog.Debug("dropped unscoped event", "room", roomID, "conn", sender)
		return "", false
	}
	return b.Identity, true
}

// CodeChange overwrites the room's document code and relays the new text
// to every participant except the sender.
func (r *Relay) CodeChange(sender domain.ConnectionID, roomID, code string) {
	ident, ok := r.scoped(sender, roomID)
	if !ok {
		return
	}
	r.store.SetDocumentCode(roomID, code)
	r.broadcastExcept(roomID, sender, domain.Event{
		Type:    domain.EventCodeChange,
		Payload: domain.CodeChangePayload{Code: code, UserID: ident},
	})
}

func (r *Relay) LanguageChange(sender domain.ConnectionID, roomID, language string) {
	ident, ok := r.scoped(sender, roomID)
	if !ok {
		return
	}
	r.store.SetDocumentLanguage(roomID, language)
	r.broadcastExcept(roomID, sender, domain.Event{
		Type:    domain.EventLanguageChange,
		Payload: domain.LanguageChangePayload{Language: language, UserID: ident},
	})
}

// CursorUpdate is purely transient: the payload passes through untouched
// apart from the injected sender identity.
func (r *Relay) CursorUpdate(sender domain.ConnectionID, roomID string, data map[string]any) {
	ident, ok := r.scoped(sender, roomID)
	if !ok {
		return
	}
	if data == nil {
		data = make(map[string]any)
	}
	data["userId"] = ident
	r.broadcastExcept(roomID, sender, domain.Event{
		Type:    domain.EventCursorUpdate,
		Payload: data,
	})
}

// Chat relays a message to everyone else in the room; the sender's own
// echo is the client's local responsibility.
func (r *Relay) Chat(sender domain.ConnectionID, roomID, text string) {
	ident, ok := r.scoped(sender, roomID)
	if !ok {
		return
	}
	r.broadcastExcept(roomID, sender, domain.Event{
		Type: domain.EventReceiveMessage,
		Payload: domain.ChatMessagePayload{
			UserID: ident,
			Text:   text,
			TSUnix: time.Now().Unix(),
		},
	})
}

// Signal is point-to-point peer negotiation. The target must share the
// sender's room; anything else (unknown sender, departed target, foreign
// room) has no observable effect.
func (r *Relay) Signal(sender, target domain.ConnectionID, from string, signal json.RawMessage) {
	sb, ok := r.reg.Lookup(sender)
	if !ok {
		slog.Debug("dropped signal from unbound connection", "conn", sender)
		return
	}
	tb, ok := r.reg.Lookup(target)
	if !ok || tb.RoomID != sb.RoomID {
		slog.Debug("dropped signal to absent target", "room", sb.RoomID, "target", target)
		return
	}
	r.sink.Push(target, domain.Event{
		Type:    domain.EventReceiveSignal,
		Payload: domain.SignalPayload{From: from, Signal: signal},
	})
}

func (r *Relay) broadcastExcept(roomID string, except domain.ConnectionID, evt domain.Event) {
	parts, ok := r.store.Participants(roomID)
	if !ok {
		return
	}
	for _, p := range parts {
		if p.Conn == except {
			continue
		}
		r.sink.Push(p.Conn, evt)
	}
}
