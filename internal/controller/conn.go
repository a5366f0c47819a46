package controller

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 256
)

var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

// wsConn queues outbound messages for writePump, the only writer of the
// socket. WriteJSON never blocks, so it can be called while a room is locked.
type wsConn struct {
	*websocket.Conn
	send      chan any
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(conn *websocket.Conn) *wsConn {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &wsConn{
		Conn: conn,
		send: make(chan any, sendBufferSize),
		done: make(chan struct{}),
	}
}

// WriteJSON queues v. A peer too slow to drain its queue is disconnected.
func (c *wsConn) WriteJSON(v any) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	select {
	case c.send <- v:
		return nil
	default:
		c.close()
		return errSendBufferFull
	}
}

// writePump writes queued messages in order and pings the peer until the
// connection is closed.
func (c *wsConn) writePump() error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return nil
		case v := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(v); err != nil {
				c.close()
				return err
			}
		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return err
			}
		}
	}
}

// close stops writePump and closes the socket, which also ends the read loop.
func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}
