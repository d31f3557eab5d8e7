package useragent

import (
	"sync"
	"sync/atomic"

	"github.com/mtprotogo/tgcore/connection"
	"github.com/mtprotogo/tgcore/internal/log"
	"github.com/mtprotogo/tgcore/query"
	"github.com/mtprotogo/tgcore/timer"
	"github.com/mtprotogo/tgcore/wire"
	"github.com/pingcap/errors"
)

// timerFactory adapts timer.Service to query.TimerFactory; timer.Timer's
// Start/Stop pair already matches query.Timer, so the only work here is
// the *timer.Timer -> query.Timer upcast CreateTimer's return type needs.
type timerFactory struct{ svc *timer.Service }

func (f timerFactory) CreateTimer(fn func()) query.Timer { return f.svc.NewTimer(fn) }

// UserAgent is the process-wide coordinator implementing query.UserAgent:
// it owns one Connection per DC, the active/retry query registries, and
// the password-needed and login flows the Query Subsystem calls back
// into. Its shape is adapted from go-nano's Node: Options embedded by
// value, a mu-guarded map keyed the way node.go's sessions map is keyed,
// here by DC number instead of session id.
type UserAgent struct {
	Options

	mu       sync.RWMutex
	dcs      map[int]*connection.Connection
	dcTable  map[int]DCAddress
	activeDC int

	registry *queryRegistry
	timers   *timer.Service

	ourID          int64
	passwordLocked int32
	loggedOut      int32

	passwordChecker PasswordChecker
}

// New builds a UserAgent from opts, the same two-step
// NewOptions-then-apply-then-construct flow go-nano's cluster.NewNode
// follows for its Options-embedding Node.
func New(opts ...Option) *UserAgent {
	o := NewOptions().apply(opts)
	return &UserAgent{
		Options:  o,
		dcs:      make(map[int]*connection.Connection),
		dcTable:  make(map[int]DCAddress),
		registry: newQueryRegistry(),
		timers:   timer.NewService(o.TimerParallel),
	}
}

// AddConnection registers conn as DC number conn.ID()'s connection, called
// by Dial right after it wraps the dialed transport. The first connection
// registered becomes the active DC unless SetActiveDC has already run.
func (ua *UserAgent) AddConnection(conn *connection.Connection) {
	ua.mu.Lock()
	ua.dcs[conn.ID()] = conn
	if ua.activeDC == 0 {
		ua.activeDC = conn.ID()
	}
	ua.mu.Unlock()

	conn.OnAck = func(msgID int64) {
		if q := ua.registry.findActive(msgID); q != nil {
			q.Ack()
		}
	}
	conn.OnResult = func(msgID int64, body *wire.Reader) {
		q := ua.registry.findActive(msgID)
		if q == nil {
			log.Warnf("rpc_result for unknown msg_id %d on DC %d", msgID, conn.ID())
			return
		}
		if err := q.HandleResult(body); err != nil {
			log.Warnf("query %q: %v", q.Name(), err)
		}
	}
	conn.OnClosed = func() {
		dc := conn.ID()
		for _, q := range ua.registry.activeForConnection(dc) {
			q.HandleError(500, "connection closed")
		}
	}
}

// Shutdown cancels every outstanding query and closes every DC connection,
// mirroring Node.Shutdown's teardown-everything-then-return shape.
func (ua *UserAgent) Shutdown() {
	for _, q := range ua.registry.activeSnapshot() {
		q.Cancel()
	}
	ua.mu.Lock()
	conns := make([]*connection.Connection, 0, len(ua.dcs))
	for _, c := range ua.dcs {
		conns = append(conns, c)
	}
	ua.dcs = make(map[int]*connection.Connection)
	ua.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
	ua.timers.Close()
}

// AddActiveQuery implements query.UserAgent. It records the DC the Query
// was just sent through so a later Connection teardown can find it.
func (ua *UserAgent) AddActiveQuery(q *query.Query) {
	dc := 0
	if c := q.Client(); c != nil {
		dc = c.ID()
	}
	ua.registry.addActive(q, dc)
}

// RemoveActiveQuery implements query.UserAgent.
func (ua *UserAgent) RemoveActiveQuery(q *query.Query) { ua.registry.removeActive(q) }

// AddRetryQuery implements query.UserAgent.
func (ua *UserAgent) AddRetryQuery(q *query.Query) { ua.registry.addRetry(q) }

// RemoveRetryQuery implements query.UserAgent.
func (ua *UserAgent) RemoveRetryQuery(q *query.Query) { ua.registry.removeRetry(q) }

// SetActiveDC implements query.UserAgent: it switches the DC a new Query
// with no dc override lands on, the client-side half of §4.5's 303
// migration handling (the Query itself rebinds to the new DC's Connection
// and zeroes its own session_id; no Connection session is reset).
func (ua *UserAgent) SetActiveDC(dc int) {
	ua.mu.Lock()
	ua.activeDC = dc
	ua.mu.Unlock()
	log.Noticef("active DC switched to %d", dc)
	ua.Callback.ActiveDCChanged(dc)
}

// ActiveClient implements query.UserAgent.
func (ua *UserAgent) ActiveClient() query.Connection {
	ua.mu.RLock()
	defer ua.mu.RUnlock()
	c, ok := ua.dcs[ua.activeDC]
	if !ok {
		return nil
	}
	return c
}

// Client returns the Connection for a specific DC, or nil if it has not
// been dialed, for calls packages that target a non-active DC directly
// (e.g. a file-transfer query pinned to the DC that holds the file).
func (ua *UserAgent) Client(dc int) *connection.Connection {
	ua.mu.RLock()
	defer ua.mu.RUnlock()
	return ua.dcs[dc]
}

// Login implements query.UserAgent: it is the coordinator-level hook the
// login call family's Hooks.OnAnswer fires on success; callers wire their
// own auth.SignIn completion to it rather than this package driving the
// handshake itself (spec.md §1 Non-goals: auth-key exchange).
func (ua *UserAgent) Login() {
	ua.Callback.LoggedIn()
}

// Logout implements query.UserAgent: the coordinator-level hook the
// auth.logOut call family's Hooks.OnAnswer fires on success, the logout
// counterpart of Login (spec.md §155's user_agent.login(), logout(),
// set_active_dc(n), check_password(cb) entry points).
func (ua *UserAgent) Logout() {
	atomic.StoreInt32(&ua.loggedOut, 1)
	ua.Callback.LoggedOut()
}

// SetClientLoggedOut implements query.UserAgent.
func (ua *UserAgent) SetClientLoggedOut(c query.Connection, loggedOut bool) {
	if loggedOut {
		atomic.StoreInt32(&ua.loggedOut, 1)
	} else {
		atomic.StoreInt32(&ua.loggedOut, 0)
	}
	if conn, ok := c.(*connection.Connection); ok {
		conn.SetLoggedIn(!loggedOut)
	}
}

// SetClientLoggingOut implements query.UserAgent: it is the coordinator-
// level hook calls.LogOut's Hooks fire around the auth.logOut call's
// lifetime, the Go counterpart of the m_client->is_logging_out flag
// query.cpp's check_logging_out reads directly since there the query and
// its client share one process; here only Connection exposes the setter,
// so UserAgent narrows the query.Connection interface back down to it.
func (ua *UserAgent) SetClientLoggingOut(c query.Connection, loggingOut bool) {
	if conn, ok := c.(*connection.Connection); ok {
		conn.SetLoggingOut(loggingOut)
	}
}

// SetDCLoggedIn implements query.UserAgent.
func (ua *UserAgent) SetDCLoggedIn(dc int, loggedIn bool) {
	if c := ua.Client(dc); c != nil {
		c.SetLoggedIn(loggedIn)
	}
}

// IsPasswordLocked implements query.UserAgent: true while a
// SESSION_PASSWORD_NEEDED flow is outstanding, so a second query hitting
// the same error queues behind CheckPassword instead of prompting twice.
func (ua *UserAgent) IsPasswordLocked() bool {
	return atomic.LoadInt32(&ua.passwordLocked) != 0
}

// SetPasswordLocked implements query.UserAgent.
func (ua *UserAgent) SetPasswordLocked(v bool) {
	if v {
		atomic.StoreInt32(&ua.passwordLocked, 1)
	} else {
		atomic.StoreInt32(&ua.passwordLocked, 0)
	}
}

// PFSEnabled implements query.UserAgent.
func (ua *UserAgent) PFSEnabled() bool { return ua.Options.PFSEnabled }

// NotifyMessageSent implements query.UserAgent.
func (ua *UserAgent) NotifyMessageSent(oldMsgID, newMsgID, chatID int64) {
	ua.Callback.MessageSent(oldMsgID, newMsgID, chatID)
}

// OurID implements query.UserAgent.
func (ua *UserAgent) OurID() int64 { return atomic.LoadInt64(&ua.ourID) }

// SetOurID records the authenticated user's id once auth.SignIn (or
// auth.SignUp) succeeds.
func (ua *UserAgent) SetOurID(id int64) {
	atomic.StoreInt64(&ua.ourID, id)
	ua.Callback.OurID(id)
}

// AppID implements query.UserAgent.
func (ua *UserAgent) AppID() int32 { return ua.Options.AppID }

// DeviceModel implements query.UserAgent.
func (ua *UserAgent) DeviceModel() string { return ua.Options.DeviceModel }

// SystemVersion implements query.UserAgent.
func (ua *UserAgent) SystemVersion() string { return ua.Options.SystemVersion }

// AppVersion implements query.UserAgent.
func (ua *UserAgent) AppVersion() string { return ua.Options.AppVersion }

// LangCode implements query.UserAgent.
func (ua *UserAgent) LangCode() string { return ua.Options.LangCode }

// TimerFactory implements query.UserAgent.
func (ua *UserAgent) TimerFactory() query.TimerFactory { return timerFactory{svc: ua.timers} }

// dcAddressUnavailable is returned by dial.go when the static DC table
// (set by SetDCTable/AddDCAddress, not fetched from help.getConfig) has no
// entry for a requested DC number.
func dcAddressUnavailable(dc int) error {
	return errors.Errorf("useragent: no address configured for DC %d", dc)
}
