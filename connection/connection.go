// Package connection is the per-DC Connection of spec.md §2: it owns one
// transport socket, one Session, the write loop that serializes outbound
// bytes, and the pending/active/observer bookkeeping Query reads through
// the query.Connection contract. It is adapted from go-nano's per-client
// agent (cluster/agent.go): the write-loop-over-a-channel shape survives,
// generalized from push/response framing to MTProto's envelope framing.
package connection

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/mtprotogo/tgcore/internal/log"
	"github.com/mtprotogo/tgcore/query"
	"github.com/mtprotogo/tgcore/wire"
)

const writeBacklog = 64

// Status values, exported so callers can compare against query.Status*
// without importing both packages for the same concept.
type Status = query.ConnectionStatus

const (
	StatusNotConnected = query.StatusNotConnected
	StatusConnecting   = query.StatusConnecting
	StatusConnected    = query.StatusConnected
)

// TransferStats tracks bytes moved by a file-transfer Query, the Go
// counterpart of download_task's offset/downloaded_bytes pair
// (original_source/src/download_task.cpp).
type TransferStats struct {
	TotalBytes       int64
	TransferredBytes int64
}

// Add records n more transferred bytes.
func (t *TransferStats) Add(n int) {
	atomic.AddInt64(&t.TransferredBytes, int64(n))
}

// Conn is the transport-level duplex byte stream a Connection drives; the
// net.Conn transport.DialTCP returns and transport.WSConn both satisfy it.
type Conn interface {
	net.Conn
}

// Connection is one DC's live link: transport + session + the pending
// queue and active-connection-status-observer set that query.Connection
// requires.
type Connection struct {
	mu sync.Mutex

	dc      int
	conn    Conn
	session *Session

	status     Status
	configured bool
	loggedIn   bool
	loggingOut bool
	authorized bool

	pending     []*query.Query
	observers   map[*query.Query]struct{}
	logoutQuery *query.Query

	initParams InitParams

	chSend chan []byte
	chDie  chan struct{}
	closed int32

	// OnAck and OnResult route an inbound msg_ack/rpc_result back to the
	// owning Query by msg_id; set by useragent at construction time since
	// only it knows the active-query registry.
	OnAck    func(msgID int64)
	OnResult func(msgID int64, body *wire.Reader)

	// OnClosed lets useragent cancel every active Query this connection
	// owns (spec.md §5) once Close tears the transport down; set
	// alongside OnAck/OnResult since only useragent knows the active
	// registry this connection's DC number indexes into.
	OnClosed func()

	Transfer TransferStats
}

// New wraps conn as DC number dc's Connection. The write loop is started
// immediately; useragent.Dial sets the status to StatusConnecting, and the
// caller marks it Connected once the transport is ready for queries.
func New(dc int, conn Conn) *Connection {
	c := &Connection{
		dc:        dc,
		conn:      conn,
		observers: make(map[*query.Query]struct{}),
		chSend:    make(chan []byte, writeBacklog),
		chDie:     make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// ID implements query.Connection.
func (c *Connection) ID() int { return c.dc }

// EnsureSession implements query.Connection: it lazily creates a Session
// the first time a Query needs one, the create_session() side effect
// inside query.cpp's check_pending.
func (c *Connection) EnsureSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		c.session = newSession()
	}
}

// SessionID implements query.Connection.
func (c *Connection) SessionID() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0, false
	}
	return c.session.ID(), true
}

// SeqNo implements query.Connection.
func (c *Connection) SeqNo() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return c.session.SeqNo()
}

// ResetSession discards the current session, forcing the next
// EnsureSession/Send to mint a fresh session_id.
func (c *Connection) ResetSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
}

// SetInitParams records the init_connection fields Session.NextEnvelope
// wraps the first outbound body with; useragent/dial.go calls this right
// after New, before the first Send.
func (c *Connection) SetInitParams(p InitParams) {
	c.mu.Lock()
	c.initParams = p
	c.mu.Unlock()
}

// Send implements query.Connection: it assigns (or reuses) a msg_id and
// hands body to the write loop. force is accepted for interface symmetry
// with the C ancestor's send_message signature; this transport does not
// yet distinguish it at the socket level. fileTransfer feeds
// TransferStats, the download_task.cpp byte-counter pattern
// (connection.TransferStats) a host's progress UI reads.
func (c *Connection) Send(body []byte, msgIDOverride int64, force, fileTransfer bool) (int64, error) {
	c.mu.Lock()
	if c.session == nil {
		c.session = newSession()
	}
	msgID := msgIDOverride
	if msgID == 0 {
		msgID = c.session.NextMsgID()
	}
	if c.initParams.Layer != 0 {
		body = c.session.NextEnvelope(body, c.initParams)
	}
	c.mu.Unlock()

	if fileTransfer {
		c.Transfer.Add(len(body))
	}

	frame := make([]byte, len(body))
	copy(frame, body)

	select {
	case c.chSend <- frame:
		return msgID, nil
	default:
		return 0, fmt.Errorf("connection: write backlog exceeded for DC %d", c.dc)
	}
}

// Status implements query.Connection.
func (c *Connection) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SetStatus updates the connection status and notifies every registered
// observer Query, the connection_status_changed fan-out.
func (c *Connection) SetStatus(s Status) {
	c.mu.Lock()
	c.status = s
	observers := make([]*query.Query, 0, len(c.observers))
	for q := range c.observers {
		observers = append(observers, q)
	}
	c.mu.Unlock()

	for _, q := range observers {
		q.ConnectionStatusChanged(s)
	}
}

func (c *Connection) IsConfigured() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configured
}

// SetConfigured records that invoke_with_layer/init_connection has gone
// out once on this session (spec.md §6).
func (c *Connection) SetConfigured(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configured = v
}

func (c *Connection) IsLoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggedIn
}

func (c *Connection) SetLoggedIn(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggedIn = v
}

func (c *Connection) IsLoggingOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggingOut
}

func (c *Connection) SetLoggingOut(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggingOut = v
}

func (c *Connection) IsAuthorized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authorized
}

func (c *Connection) SetAuthorized(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authorized = v
}

// RestartAuthorization, RestartTempAuthorization and TransferAuthToMe are
// instructions a real auth-key exchange layer would act on; this package
// only records the request since that exchange lives outside the Query
// Subsystem's scope (spec.md §1 Non-goals).
func (c *Connection) RestartAuthorization() {
	log.Noticef("restart_authorization requested for DC %d", c.dc)
	c.SetAuthorized(false)
}

func (c *Connection) RestartTempAuthorization() {
	log.Noticef("restart_temp_authorization requested for DC %d", c.dc)
}

func (c *Connection) TransferAuthToMe() {
	log.Noticef("transfer_auth_to_me requested for DC %d", c.dc)
}

// SetLogoutQuery implements query.Connection.
func (c *Connection) SetLogoutQuery(q *query.Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logoutQuery = q
}

// AddPendingQuery implements query.Connection.
func (c *Connection) AddPendingQuery(q *query.Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, q)
}

// RemovePendingQuery implements query.Connection.
func (c *Connection) RemovePendingQuery(q *query.Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.pending {
		if p == q {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// DrainPending re-executes every pending Query via ExecuteAfterPending,
// called once the connection transitions to a state where the pending
// gate might now pass (e.g. SetStatus(Connected), SetConfigured(true)).
func (c *Connection) DrainPending() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, q := range pending {
		if !q.ExecuteAfterPending() {
			c.AddPendingQuery(q)
		}
	}
}

// AddConnectionStatusObserver implements query.Connection.
func (c *Connection) AddConnectionStatusObserver(q *query.Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers[q] = struct{}{}
}

// RemoveConnectionStatusObserver implements query.Connection.
func (c *Connection) RemoveConnectionStatusObserver(q *query.Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.observers, q)
}

// Close tears the connection down, cancelling every pending Query with
// transient-error semantics so the host may re-issue them (spec.md §5).
func (c *Connection) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	close(c.chDie)

	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	observers := make([]*query.Query, 0, len(c.observers))
	for q := range c.observers {
		observers = append(observers, q)
	}
	c.observers = make(map[*query.Query]struct{})
	c.mu.Unlock()

	for _, q := range pending {
		q.HandleError(500, "connection closed")
	}
	for _, q := range observers {
		q.ConnectionStatusChanged(StatusNotConnected)
	}
	if c.OnClosed != nil {
		c.OnClosed()
	}

	Lifetime.fireClosed(c)
	return c.conn.Close()
}

func (c *Connection) writeLoop() {
	defer func() {
		if err := recover(); err != nil {
			log.Errorf("connection write loop panic on DC %d: %v", c.dc, err)
		}
	}()

	for {
		select {
		case frame := <-c.chSend:
			if _, err := c.conn.Write(frame); err != nil {
				log.Errorf("write to DC %d failed: %v", c.dc, err)
				c.Close()
				return
			}
		case <-c.chDie:
			return
		}
	}
}
