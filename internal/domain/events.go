package domain

import "encoding/json"

// Типы исходящих событий, которые ядро отдаёт в транспорт
const (
	EventRoomParticipants = "room-participants" // снапшот всех участников
	EventUserJoined       = "user-joined"       // пользователь присоединился
	EventUserDisconnected = "user-disconnected" // пользователь покинул комнату
	EventJoinRequest      = "join-request"      // запрос на вход, только хосту
	EventJoinApproved     = "join-approved"     // только запросившему
	EventJoinRejected     = "join-rejected"     // только запросившему
	EventCodeChange       = "code-change"
	EventLanguageChange   = "language-change"
	EventCursorUpdate     = "cursor-update"
	EventReceiveMessage   = "receive-message"
	EventReceiveSignal    = "receive-signal"
	EventError            = "error"
)

// Event is one outbound message for a single connection. Fan-out to a
// room is expressed as repeated pushes, one per target connection.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Sink is the outbound side of the transport shell. Push is best-effort:
// delivery to a connection that is already gone is a silent no-op.
type Sink interface {
	Push(target ConnectionID, evt Event)
}

type UserJoinedPayload struct {
	NewUserID string `json:"newUserId"`
}

type UserDisconnectedPayload struct {
	UserID string `json:"userId"`
}

type JoinRequestPayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	RoomID string `json:"roomId"`
}

type JoinApprovedPayload struct {
	RoomID string `json:"roomId"`
}

type JoinRejectedPayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type CodeChangePayload struct {
	Code   string `json:"code"`
	UserID string `json:"userId"`
}

type LanguageChangePayload struct {
	Language string `json:"language"`
	UserID   string `json:"userId"`
}

type ChatMessagePayload struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
	TSUnix int64  `json:"ts_unix"`
}

type SignalPayload struct {
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
