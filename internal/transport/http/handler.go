package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/collab-service/internal/assistant"
	"github.com/cwrk-planet/collab-service/internal/domain"
	"github.com/cwrk-planet/collab-service/internal/errs"
	"github.com/cwrk-planet/collab-service/internal/judge0"
	"github.com/cwrk-planet/collab-service/internal/postgres"
	"github.com/cwrk-planet/collab-service/internal/presence"
	"github.com/cwrk-planet/collab-service/internal/service"
	"github.com/cwrk-planet/collab-service/internal/session"
	httpmw "github.com/cwrk-planet/collab-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	sess       *session.Session
	authSvc    *service.AuthService
	dirSvc     *service.DirectoryService
	notepadSvc *service.NotepadService
	exec       *judge0.Client
	assistant  *assistant.Client
}

func NewHandler(sess *session.Session, auth *service.AuthService, dir *service.DirectoryService, notepad *service.NotepadService, exec *judge0.Client, asst *assistant.Client) *Handler {
	return &Handler{
		sess:       sess,
		authSvc:    auth,
		dirSvc:     dir,
		notepadSvc: notepad,
		exec:       exec,
		assistant:  asst,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- live coordinator endpoints (public, как и в остальном контуре) ---

// GET /api/check-room/{roomId}
func (h *Handler) CheckRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")

	resp := CheckRoomResponse{}
	if name, ok := h.sess.RoomDisplayName(roomID); ok {
		resp.Exists = true
		resp.RoomName = &name
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /api/create-room
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.RoomID == "" || req.Creator == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing required fields"})
		return
	}

	if err := h.sess.CreateRoom(req.RoomID, req.RoomName, req.Creator, req.RequireApproval); err != nil {
		if errors.Is(err, domain.ErrRoomExists) {
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: "room already exists"})
			return
		}
		slog.Error("handler.CreateRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, CreateRoomResponse{Success: true, RoomID: req.RoomID})
}

// POST /api/request-join-room
//
// Путь без живого сокета: запрос уходит хосту, а решение догонит
// запросившего уже по его WS-соединению.
func (h *Handler) RequestJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req RequestJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	decision, _, err := h.sess.RequestJoin("", req.RoomID, req.Name)
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		writeJSON(w, http.StatusNotFound, RequestJoinResponse{Success: false, Message: "Room not found"})
		return
	case errors.Is(err, domain.ErrHostUnavailable):
		writeJSON(w, http.StatusNotFound, RequestJoinResponse{Success: false, Message: "Room host not found"})
		return
	case err != nil:
		slog.Error("handler.RequestJoinRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	if decision == presence.Admitted {
		writeJSON(w, http.StatusOK, RequestJoinResponse{Success: true, RequiresApproval: false, Message: "You can join the room"})
		return
	}
	writeJSON(w, http.StatusOK, RequestJoinResponse{Success: true, RequiresApproval: true, Message: "Request sent to room host"})
}

// --- auth ---

// POST /api/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "all fields are required"})
		return
	}

	res, err := h.authSvc.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrUserExists):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "user already exists"})
		case errors.Is(err, errs.ErrInvalidEmail), errors.Is(err, errs.ErrPasswordTooShort):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			slog.Error("handler.Signup:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message:   "User registered successfully",
		Token:     res.AccessToken,
		ExpiresIn: int64(res.ExpiresIn.Seconds()),
		User:      UserItem{ID: res.User.ID, Username: res.User.Username, Email: res.User.Email},
	})
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "email and password are required"})
		return
	}

	res, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, errs.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		default:
			slog.Error("handler.Login:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message:   "Login successful",
		Token:     res.AccessToken,
		ExpiresIn: int64(res.ExpiresIn.Seconds()),
		User:      UserItem{ID: res.User.ID, Username: res.User.Username, Email: res.User.Email},
	})
}

// GET /api/protected
func (h *Handler) Protected(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "You have accessed a protected route!",
		"user":     httpmw.UserIDFromCtx(r.Context()),
		"username": httpmw.UsernameFromCtx(r.Context()),
	})
}

// --- persistent room directory (6-participant cap) ---

// POST /api/rooms/create
func (h *Handler) DirectoryCreate(w http.ResponseWriter, r *http.Request) {
	var req DirectoryRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing roomId"})
		return
	}

	rm, err := h.dirSvc.CreateRoom(r.Context(), req.RoomID, httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		slog.Error("handler.DirectoryCreate:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "server error while creating room"})
		return
	}

	writeJSON(w, http.StatusCreated, directoryItem(rm))
}

// POST /api/rooms/join
func (h *Handler) DirectoryJoin(w http.ResponseWriter, r *http.Request) {
	var req DirectoryRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing roomId"})
		return
	}

	rm, err := h.dirSvc.JoinRoom(r.Context(), req.RoomID, httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrDirectoryRoomNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
		case errors.Is(err, postgres.ErrDirectoryRoomFull):
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "room is full (maximum 6 participants allowed)"})
		default:
			slog.Error("handler.DirectoryJoin:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "server error while joining room"})
		}
		return
	}

	writeJSON(w, http.StatusOK, directoryItem(rm))
}

// POST /api/rooms/leave
func (h *Handler) DirectoryLeave(w http.ResponseWriter, r *http.Request) {
	var req DirectoryRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing roomId"})
		return
	}

	if err := h.dirSvc.LeaveRoom(r.Context(), req.RoomID, httpmw.UserIDFromCtx(r.Context())); err != nil {
		if errors.Is(err, postgres.ErrDirectoryRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.DirectoryLeave:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "server error while leaving room"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Left room"})
}

// --- notepad ---

// POST /api/notepad/update
func (h *Handler) NotepadUpdate(w http.ResponseWriter, r *http.Request) {
	var req NotepadUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing roomId"})
		return
	}

	if err := h.notepadSvc.Update(r.Context(), req.RoomID, req.Content); err != nil {
		slog.Error("handler.NotepadUpdate:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "server error"})
		return
	}

	writeJSON(w, http.StatusOK, NotepadResponse{RoomID: req.RoomID, Content: req.Content})
}

// GET /api/notepad/{roomId}
func (h *Handler) NotepadGet(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")

	content, err := h.notepadSvc.Get(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotepadNotFound) {
			writeJSON(w, http.StatusOK, NotepadResponse{RoomID: roomID, Content: ""})
			return
		}
		slog.Error("handler.NotepadGet:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "server error"})
		return
	}

	writeJSON(w, http.StatusOK, NotepadResponse{RoomID: roomID, Content: content})
}

// --- pass-through collaborators ---

// POST /api/code/execute
func (h *Handler) ExecuteCode(w http.ResponseWriter, r *http.Request) {
	var req ExecuteCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	res, err := h.exec.Execute(r.Context(), judge0.Submission{
		SourceCode: req.SourceCode,
		LanguageID: req.LanguageID,
		Stdin:      req.Stdin,
	})
	if err != nil {
		slog.Error("handler.ExecuteCode:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "error executing code"})
		return
	}

	writeJSON(w, http.StatusOK, ExecuteCodeResponse{Stdout: res.Stdout, Stderr: res.Stderr, Time: res.Time})
}

// POST /api/chatbot
func (h *Handler) Chatbot(w http.ResponseWriter, r *http.Request) {
	var req ChatbotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "message is required"})
		return
	}

	reply, err := h.assistant.Reply(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, assistant.ErrTimeout) {
			writeJSON(w, http.StatusGatewayTimeout, ChatbotResponse{Reply: "AI response timed out"})
			return
		}
		slog.Error("handler.Chatbot:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ChatbotResponse{Reply: "Error processing your request"})
		return
	}

	writeJSON(w, http.StatusOK, ChatbotResponse{Reply: reply})
}

func directoryItem(rm *postgres.DirectoryRoom) DirectoryRoomResponse {
	members := make([]int64, 0, len(rm.Members))
	for _, m := range rm.Members {
		members = append(members, int64(m))
	}
	return DirectoryRoomResponse{
		RoomID:    rm.RoomID,
		Creator:   int64(rm.CreatorID),
		Members:   members,
		CreatedAt: rm.CreatedAt,
	}
}
