package ws

import (
	"time"

	"github.com/cwrk-planet/collab-service/internal/domain"

	"github.com/gorilla/websocket"
)

type wsConn struct {
	conn   *websocket.Conn
	id     domain.ConnectionID
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn, id domain.ConnectionID) *wsConn {
	return &wsConn{
		conn:   c,
		id:     id,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) ID() domain.ConnectionID { return c.id }
