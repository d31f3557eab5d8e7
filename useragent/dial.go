package useragent

import (
	"time"

	"github.com/mtprotogo/tgcore/connection"
	"github.com/mtprotogo/tgcore/internal/env"
	"github.com/mtprotogo/tgcore/internal/log"
	"github.com/pingcap/errors"
)

// DCAddress is one entry of the static DC table a real client seeds with
// Telegram's well-known addresses and later refreshes from
// help.getConfig's dc_options (schema.ConfigTag's descriptor, §7). tgcore
// does not fetch
// that config itself (no networking loop beyond the Query Subsystem, per
// spec.md §1 Non-goals); a host supplies the table via SetDCTable or
// AddDCAddress.
type DCAddress struct {
	DC        int
	Addr      string
	WebSocket bool
}

// SetDCTable installs the full set of known DC addresses, replacing any
// previous table.
func (ua *UserAgent) SetDCTable(addrs []DCAddress) {
	ua.mu.Lock()
	ua.dcTable = make(map[int]DCAddress, len(addrs))
	for _, a := range addrs {
		ua.dcTable[a.DC] = a
	}
	ua.mu.Unlock()
}

// AddDCAddress adds or replaces a single DC table entry, e.g. in reaction
// to a 303 migration naming a DC the table didn't have yet.
func (ua *UserAgent) AddDCAddress(a DCAddress) {
	ua.mu.Lock()
	ua.dcTable[a.DC] = a
	ua.mu.Unlock()
	ua.Callback.DCUpdated(a.DC)
}

// Dial opens a transport connection to dc's configured address, wraps it
// in a connection.Connection, wires its inbound dispatch, and registers
// it with AddConnection. It does not perform the DH key-exchange
// handshake (spec.md §1 Non-goals); the returned Connection starts in
// StatusConnecting and the caller (or a handshake layer the host supplies)
// is responsible for calling SetStatus(StatusConnected) once the
// transport is ready for queries.
func (ua *UserAgent) Dial(dc int, timeout time.Duration, dialer Dialer) (*connection.Connection, error) {
	ua.mu.RLock()
	addr, ok := ua.dcTable[dc]
	ua.mu.RUnlock()
	if !ok {
		return nil, dcAddressUnavailable(dc)
	}

	conn, err := dialer.Dial(addr, timeout)
	if err != nil {
		return nil, errors.Trace(err)
	}

	c := connection.New(dc, conn)
	c.SetInitParams(connection.InitParams{
		APIID:         ua.AppID(),
		DeviceModel:   ua.DeviceModel(),
		SystemVersion: ua.SystemVersion(),
		AppVersion:    ua.AppVersion(),
		LangCode:      ua.LangCode(),
		Layer:         env.SchemeLayer,
	})
	c.SetStatus(connection.StatusConnecting)

	ua.AddConnection(c)
	connection.Lifetime.OnClosed(func(closed *connection.Connection) {
		if closed == c {
			log.Warnf("connection to DC %d closed", dc)
		}
	})

	return c, nil
}

// Dialer opens the transport-level net.Conn for a DCAddress;
// transport.TCPDialer uses transport.DialTCP/DialWS, kept behind this
// interface so
// tests substitute an in-process net.Pipe without importing transport.
type Dialer interface {
	Dial(addr DCAddress, timeout time.Duration) (connection.Conn, error)
}
