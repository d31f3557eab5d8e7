package transport

import (
	"net"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pingcap/errors"
)

// DialWS opens a WebSocket connection to urlStr (ws:// or wss://), the
// alternate transport mirroring Telegram Web's WSS endpoints; wraps the
// gorilla connection in WSConn so callers see a plain net.Conn, the same
// shape DialTCP returns.
func DialWS(urlStr string, timeout time.Duration) (net.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(urlStr, nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &WSConn{conn: conn}, nil
}

// WSConn adapts a *websocket.Conn to net.Conn by treating the byte stream
// as a sequence of binary messages: each Write is one message, and Read
// drains the current inbound message before fetching the next. go-nano's
// cluster.Node upgrades a listener with the same websocket.Upgrader this
// package's counterpart dials against (cluster/node.go); WSConn is the
// client-side mirror the teacher never needed since it only ever accepted.
type WSConn struct {
	conn *websocket.Conn
	rest []byte
}

func (c *WSConn) Read(b []byte) (int, error) {
	for len(c.rest) == 0 {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		c.rest = data
	}
	n := copy(b, c.rest)
	c.rest = c.rest[n:]
	return n, nil
}

func (c *WSConn) Write(b []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *WSConn) Close() error                       { return c.conn.Close() }
func (c *WSConn) LocalAddr() net.Addr                 { return c.conn.LocalAddr() }
func (c *WSConn) RemoteAddr() net.Addr                { return c.conn.RemoteAddr() }
func (c *WSConn) SetDeadline(t time.Time) error       { return c.conn.UnderlyingConn().SetDeadline(t) }
func (c *WSConn) SetReadDeadline(t time.Time) error   { return c.conn.SetReadDeadline(t) }
func (c *WSConn) SetWriteDeadline(t time.Time) error  { return c.conn.SetWriteDeadline(t) }
