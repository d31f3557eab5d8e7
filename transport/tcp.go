// Package transport supplies the duplex byte-stream implementations
// connection.Connection dials: plain TCP (the MTProto default) and a
// WebSocket alternate, mirroring the two listener modes go-nano's
// cluster.Node supports (plain TCP accept vs. websocket.Upgrader) but
// pointed the other way, at dialing a DC rather than accepting a client.
package transport

import (
	"net"
	"time"

	"github.com/pingcap/errors"
)

// DialTCP opens a plain TCP connection to addr (host:port), the default
// transport MTProto's DCs speak.
func DialTCP(addr string, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return conn, nil
}
