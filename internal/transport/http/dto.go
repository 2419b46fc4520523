package http

import (
	"time"

	"github.com/cwrk-planet/collab-service/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type CheckRoomResponse struct {
	Exists   bool    `json:"exists"`
	RoomName *string `json:"roomname"`
}

type CreateRoomRequest struct {
	RoomID          string `json:"roomId"`
	RoomName        string `json:"roomname"`
	Creator         string `json:"creator"`
	RequireApproval bool   `json:"requireApproval"`
}

type CreateRoomResponse struct {
	Success bool   `json:"success"`
	RoomID  string `json:"roomId"`
}

type RequestJoinRequest struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type RequestJoinResponse struct {
	Success          bool   `json:"success"`
	RequiresApproval bool   `json:"requiresApproval"`
	Message          string `json:"message"`
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserItem struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
}

type AuthResponse struct {
	Message   string   `json:"message"`
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expiresIn"` // seconds
	User      UserItem `json:"user"`
}

type DirectoryRoomRequest struct {
	RoomID string `json:"roomId"`
}

type DirectoryRoomResponse struct {
	RoomID    string    `json:"roomId"`
	Creator   int64     `json:"creator"`
	Members   []int64   `json:"participants"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotepadUpdateRequest struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
}

type NotepadResponse struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
}

type ExecuteCodeRequest struct {
	LanguageID int    `json:"language_id"`
	SourceCode string `json:"source_code"`
	Stdin      string `json:"stdin"`
}

type ExecuteCodeResponse struct {
	Stdout *string `json:"stdout"`
	Stderr *string `json:"stderr"`
	Time   string  `json:"time"`
}

type ChatbotRequest struct {
	Message string `json:"message"`
}

type ChatbotResponse struct {
	Reply string `json:"reply"`
}
