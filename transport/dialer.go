package transport

import (
	"time"

	"github.com/mtprotogo/tgcore/connection"
	"github.com/mtprotogo/tgcore/useragent"
)

// TCPDialer implements useragent.Dialer with the default plain-TCP
// transport, picking DialTCP/DialWS per DCAddress.WebSocket.
type TCPDialer struct{}

func (TCPDialer) Dial(addr useragent.DCAddress, timeout time.Duration) (connection.Conn, error) {
	if addr.WebSocket {
		return DialWS(addr.Addr, timeout)
	}
	return DialTCP(addr.Addr, timeout)
}
