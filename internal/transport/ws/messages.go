package ws

import "encoding/json"

// Типы событий, которые поступают в WS
const (
	TypeJoinRoom       = "join-room"
	TypeLeaveRoom      = "leave-room"
	TypeRequestJoin    = "request-join"
	TypeApproveJoin    = "approve-join"
	TypeRejectJoin     = "reject-join"
	TypeCodeChange     = "code-change"
	TypeLanguageChange = "language-change"
	TypeCursorUpdate   = "cursor-update"
	TypeSendMessage    = "send-message"
	TypeSendSignal     = "send-signal"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type JoinUser struct {
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Video  bool   `json:"video"`
	Audio  bool   `json:"audio"`
}

type JoinRoomPayload struct {
	RoomID string   `json:"roomId"`
	User   JoinUser `json:"user"`
}

type RequestJoinPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type ResolveJoinPayload struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
}

type CodeChangePayload struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}

type LanguageChangePayload struct {
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
}

type SendMessagePayload struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type SendSignalPayload struct {
	UserToSignal string          `json:"userToSignal"`
	From         string          `json:"from"`
	Signal       json.RawMessage `json:"signal"`
}
