package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwrk-planet/collab-service/internal/domain"
	"github.com/cwrk-planet/collab-service/internal/presence"
	"github.com/cwrk-planet/collab-service/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// TokenVerifier validates the access token presented at upgrade time.
// The coordinator itself only ever sees the identity the client supplies
// in join-room; credential checks stay at this edge.
type TokenVerifier interface {
	Verify(token string) error
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	sess     *session.Session
	verifier TokenVerifier // nil — токен не проверяется

	pingEvery time.Duration
}

func NewServer(hub *Hub, sess *session.Session, verifier TokenVerifier) *Server {
	return &Server{
		hub:      hub,
		sess:     sess,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws?access_token=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	if s.verifier != nil {
		token := strings.TrimSpace(r.URL.Query().Get("access_token"))
		if token == "" {
			http.Error(w, "missing access_token", http.StatusUnauthorized)
			return
		}
		if err := s.verifier.Verify(token); err != nil {
			http.Error(w, "invalid access_token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	id := domain.ConnectionID(uuid.NewString())
	c := newWsConn(conn, id)
	s.hub.Add(c)
	slog.Debug("ws connected", "conn", id)

	go s.writeLoop(c)
	s.readLoop(c)

	s.hub.Remove(c)
	s.sess.Disconnect(id)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", id, "err", err)
	}
	slog.Debug("ws disconnected", "conn", id)
}

// readLoop processes inbound events to completion, one at a time, so a
// single sender's events reach recipients in emission order.
func (s *Server) readLoop(c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.dispatch(c, msg)
	}
}

// dispatch is the single type-keyed switch for the whole socket: no
// per-connection handler registration, so a rejoin can never stack
// duplicate handlers.
func (s *Server) dispatch(c *wsConn, msg Message) {
	switch msg.Type {
	case TypeJoinRoom:
		var p JoinRoomPayload
		if decode(msg.Payload, &p) != nil || p.RoomID == "" || p.User.Name == "" {
			s.sendError(c, "Invalid join request")
			return
		}
		media := domain.MediaState{VideoOn: p.User.Video, AudioOn: p.User.Audio}
		if err := s.sess.JoinRoom(c.id, p.RoomID, p.User.Name, p.User.IsHost, media); err != nil {
			s.sendError(c, "Unable to join room")
		}

	case TypeLeaveRoom:
		s.sess.LeaveRoom(c.id)

	case TypeRequestJoin:
		var p RequestJoinPayload
		if decode(msg.Payload, &p) != nil || p.RoomID == "" {
			return
		}
		decision, _, err := s.sess.RequestJoin(c.id, p.RoomID, p.Name)
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			s.sendError(c, "Room not found")
		case errors.Is(err, domain.ErrHostUnavailable):
			s.sendError(c, "Room host not found")
		case err == nil && decision == presence.Admitted:
			// комната без модерации: сразу подтверждаем
			_ = c.Send(Message{
				Type:    domain.EventJoinApproved,
				Payload: domain.JoinApprovedPayload{RoomID: p.RoomID},
			})
		}

	case TypeApproveJoin, TypeRejectJoin:
		var p ResolveJoinPayload
		if decode(msg.Payload, &p) != nil || p.RoomID == "" || p.UserID == "" {
			return
		}
		err := s.sess.ResolveJoin(c.id, p.RoomID, p.UserID, msg.Type == TypeApproveJoin)
		switch {
		case errors.Is(err, domain.ErrNotHost):
			s.sendError(c, "Only the host can resolve join requests")
		case errors.Is(err, domain.ErrRequestNotFound):
			s.sendError(c, "Join request not found")
		}

	case TypeCodeChange:
		var p CodeChangePayload
		if decode(msg.Payload, &p) == nil {
			s.sess.CodeChange(c.id, p.RoomID, p.Code)
		}

	case TypeLanguageChange:
		var p LanguageChangePayload
		if decode(msg.Payload, &p) == nil {
			s.sess.LanguageChange(c.id, p.RoomID, p.Language)
		}

	case TypeCursorUpdate:
		var p map[string]any
		if decode(msg.Payload, &p) != nil {
			return
		}
		roomID, _ := p["roomId"].(string)
		s.sess.CursorUpdate(c.id, roomID, p)

	case TypeSendMessage:
		var p SendMessagePayload
		if decode(msg.Payload, &p) != nil {
			return
		}
		text := strings.TrimSpace(p.Text)
		if text == "" {
			return
		}
		s.sess.Chat(c.id, p.RoomID, text)

	case TypeSendSignal:
		var p SendSignalPayload
		if decode(msg.Payload, &p) == nil && p.UserToSignal != "" {
			s.sess.Signal(c.id, domain.ConnectionID(p.UserToSignal), p.From, p.Signal)
		}

	default:
		// ignore
	}
}

func (s *Server) sendError(c *wsConn, message string) {
	_ = c.Send(Message{
		Type:    domain.EventError,
		Payload: domain.ErrorPayload{Message: message},
	})
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
