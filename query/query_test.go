package query

import (
	"testing"
	"time"

	"github.com/mtprotogo/tgcore/schema"
	"github.com/mtprotogo/tgcore/wire"
)

// fakeTimer is a manually-fired stand-in for timer.Timer: Start just
// records the callback and duration, and the test decides when (if ever)
// to invoke Fire.
type fakeTimer struct {
	fn       func()
	lastWait time.Duration
	started  int
	stopped  int
}

func (t *fakeTimer) Start(d time.Duration) {
	t.lastWait = d
	t.started++
}
func (t *fakeTimer) Stop() { t.stopped++ }
func (t *fakeTimer) Fire() {
	if t.fn != nil {
		t.fn()
	}
}

type fakeTimerFactory struct {
	created []*fakeTimer
}

func (f *fakeTimerFactory) CreateTimer(fn func()) Timer {
	t := &fakeTimer{fn: fn}
	f.created = append(f.created, t)
	return t
}

// fakeConnection is a minimal single-session Connection double.
type fakeConnection struct {
	id int

	nextMsgID   int64
	sendErr     error
	sentBodies  [][]byte
	sessionID   int64
	hasSession  bool
	seqNo       int32
	status      ConnectionStatus
	configured  bool
	loggedIn    bool
	loggingOut  bool
	authorized  bool
	restarted   bool
	tempRestart bool
	transferred bool
	logoutQuery *Query
	pending     []*Query
	observers   []*Query
}

func newFakeConnection(id int) *fakeConnection {
	return &fakeConnection{
		id: id, status: StatusConnected, configured: true,
		loggedIn: true, authorized: true, hasSession: true, sessionID: int64(id)*1000 + 1,
	}
}

func (c *fakeConnection) ID() int { return c.id }
func (c *fakeConnection) Send(body []byte, msgIDOverride int64, force, fileTransfer bool) (int64, error) {
	if c.sendErr != nil {
		return 0, c.sendErr
	}
	c.sentBodies = append(c.sentBodies, body)
	if msgIDOverride != 0 {
		return msgIDOverride, nil
	}
	c.nextMsgID += 2
	c.seqNo++
	return c.nextMsgID, nil
}
func (c *fakeConnection) SessionID() (int64, bool)      { return c.sessionID, c.hasSession }
func (c *fakeConnection) SeqNo() int32                  { return c.seqNo }
func (c *fakeConnection) EnsureSession()                { c.hasSession = true }
func (c *fakeConnection) Status() ConnectionStatus      { return c.status }
func (c *fakeConnection) IsConfigured() bool            { return c.configured }
func (c *fakeConnection) IsLoggedIn() bool              { return c.loggedIn }
func (c *fakeConnection) IsLoggingOut() bool             { return c.loggingOut }
func (c *fakeConnection) IsAuthorized() bool            { return c.authorized }
func (c *fakeConnection) RestartAuthorization()         { c.restarted = true }
func (c *fakeConnection) RestartTempAuthorization()     { c.tempRestart = true }
func (c *fakeConnection) TransferAuthToMe()             { c.transferred = true }
func (c *fakeConnection) SetLogoutQuery(q *Query)       { c.logoutQuery = q }
func (c *fakeConnection) AddPendingQuery(q *Query)      { c.pending = append(c.pending, q) }
func (c *fakeConnection) RemovePendingQuery(q *Query) {
	for i, p := range c.pending {
		if p == q {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}
func (c *fakeConnection) AddConnectionStatusObserver(q *Query) {
	c.observers = append(c.observers, q)
}
func (c *fakeConnection) RemoveConnectionStatusObserver(q *Query) {
	for i, o := range c.observers {
		if o == q {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return
		}
	}
}

// fakeUserAgent is a minimal single-DC UserAgent double.
type fakeUserAgent struct {
	active       map[int64]*Query
	retry        map[*Query]bool
	activeDC     int
	clients      map[int]*fakeConnection
	loggedOut    bool
	loggingOut   map[int]bool
	dcLoggedIn   map[int]bool
	passwdLocked bool
	checkPwCalls int
	timers       *fakeTimerFactory
}

func newFakeUserAgent() *fakeUserAgent {
	return &fakeUserAgent{
		active:     make(map[int64]*Query),
		retry:      make(map[*Query]bool),
		dcLoggedIn: make(map[int]bool),
		loggingOut: make(map[int]bool),
		clients:    make(map[int]*fakeConnection),
		timers:     &fakeTimerFactory{},
	}
}

func (u *fakeUserAgent) AddActiveQuery(q *Query)    { u.active[q.MsgID()] = q }
func (u *fakeUserAgent) RemoveActiveQuery(q *Query) { delete(u.active, q.MsgID()) }
func (u *fakeUserAgent) AddRetryQuery(q *Query)      { u.retry[q] = true }
func (u *fakeUserAgent) RemoveRetryQuery(q *Query)   { delete(u.retry, q) }
func (u *fakeUserAgent) SetActiveDC(dc int)          { u.activeDC = dc }
func (u *fakeUserAgent) ActiveClient() Connection    { return u.clients[u.activeDC] }
func (u *fakeUserAgent) Login()                      {}
func (u *fakeUserAgent) Logout()                     { u.loggedOut = true }
func (u *fakeUserAgent) SetClientLoggedOut(c Connection, loggedOut bool) { u.loggedOut = loggedOut }
func (u *fakeUserAgent) SetClientLoggingOut(c Connection, loggingOut bool) {
	u.loggingOut[c.ID()] = loggingOut
}
func (u *fakeUserAgent) SetDCLoggedIn(dc int, loggedIn bool)             { u.dcLoggedIn[dc] = loggedIn }
func (u *fakeUserAgent) IsPasswordLocked() bool                         { return u.passwdLocked }
func (u *fakeUserAgent) SetPasswordLocked(v bool)                       { u.passwdLocked = v }
func (u *fakeUserAgent) CheckPassword(done func(success bool)) {
	u.checkPwCalls++
	done(true)
}
func (u *fakeUserAgent) PFSEnabled() bool           { return true }
func (u *fakeUserAgent) NotifyMessageSent(oldMsgID, newMsgID, chatID int64) {}
func (u *fakeUserAgent) OurID() int64               { return 42 }
func (u *fakeUserAgent) AppID() int32               { return 1 }
func (u *fakeUserAgent) DeviceModel() string        { return "test" }
func (u *fakeUserAgent) SystemVersion() string      { return "test" }
func (u *fakeUserAgent) AppVersion() string         { return "0.0" }
func (u *fakeUserAgent) LangCode() string           { return "en" }
func (u *fakeUserAgent) TimerFactory() TimerFactory { return u.timers }

func boolTrueBody() []byte {
	w := wire.NewWriter()
	w.PutUint(wire.BoolTrue)
	return w.Bytes()
}

type boolDescr struct{}

func (boolDescr) Constructor() uint32 { return wire.BoolTrue }
func (boolDescr) Skip(r *wire.Reader) error {
	_, err := r.Uint()
	return err
}
func (boolDescr) Fetch(r *wire.Reader) (schema.Value, error) {
	_, err := r.Uint()
	return true, err
}

func TestSendAssignsMsgIDAndRegistersActive(t *testing.T) {
	ua := newFakeUserAgent()
	conn := newFakeConnection(2)
	ua.clients[2] = conn
	ua.activeDC = 2

	var answered schema.Value
	q := New(ua, nil, "help.getConfig", FlagForce, []byte("body"), boolDescr{}, Hooks{
		OnAnswer: func(v schema.Value) { answered = v },
	})

	q.Execute(conn, ExecOptionNormal)

	if q.MsgID() == 0 {
		t.Fatal("expected Execute to assign a nonzero msg_id")
	}
	if ua.active[q.MsgID()] != q {
		t.Fatal("expected query registered in active map after send")
	}

	if err := q.HandleResult(wire.NewReader(boolTrueBody())); err != nil {
		t.Fatalf("HandleResult: %v", err)
	}
	if answered != true {
		t.Fatalf("expected OnAnswer(true), got %#v", answered)
	}
	if _, ok := ua.active[q.MsgID()]; ok {
		t.Fatal("expected query removed from active map after result")
	}
}

func TestAckIsIdempotent(t *testing.T) {
	ua := newFakeUserAgent()
	conn := newFakeConnection(2)
	ua.clients[2] = conn
	ua.activeDC = 2

	q := New(ua, nil, "ping", FlagForce, []byte("body"), boolDescr{}, Hooks{})
	q.Execute(conn, ExecOptionNormal)

	q.Ack()
	firstStarts := q.timer.(*fakeTimer).started
	q.Ack()
	secondStarts := q.timer.(*fakeTimer).started

	if firstStarts != secondStarts {
		t.Fatalf("expected second Ack to be a no-op, timer restarted %d -> %d times", firstStarts, secondStarts)
	}
}

func TestLogoutAckSynthesizesResult(t *testing.T) {
	ua := newFakeUserAgent()
	conn := newFakeConnection(2)
	ua.clients[2] = conn
	ua.activeDC = 2

	var answered bool
	q := New(ua, nil, "auth.logOut", FlagLogout, []byte("body"), boolDescr{}, Hooks{
		OnAnswer: func(v schema.Value) { answered = v.(bool) },
	})
	q.Execute(conn, ExecOptionNormal)
	q.Ack()

	if !answered {
		t.Fatal("expected logout ack to synthesize a true result")
	}
}

func TestAlarmSameSessionWrapsBodyInContainer(t *testing.T) {
	ua := newFakeUserAgent()
	conn := newFakeConnection(2)
	ua.clients[2] = conn
	ua.activeDC = 2

	q := New(ua, nil, "messages.sendMessage", FlagForce, []byte("payload"), boolDescr{}, Hooks{})
	q.Execute(conn, ExecOptionNormal)

	originalMsgID := q.MsgID()
	q.Alarm()

	if len(conn.sentBodies) != 2 {
		t.Fatalf("expected 2 sends (initial + resend), got %d", len(conn.sentBodies))
	}
	resent := conn.sentBodies[1]
	r := wire.NewReader(resent)
	tag, err := r.Uint()
	if err != nil || tag != wire.MsgContainerTag {
		t.Fatalf("expected resend body to be a msg_container, tag=%x err=%v", tag, err)
	}
	entries, err := wire.DecodeContainer(r)
	if err != nil {
		t.Fatalf("DecodeContainer: %v", err)
	}
	if len(entries) != 1 || entries[0].MsgID != originalMsgID {
		t.Fatalf("expected container to carry original msg_id %d, got %+v", originalMsgID, entries)
	}
	if q.MsgID() == originalMsgID {
		t.Fatal("expected resend to assign a fresh msg_id")
	}
}

func TestHandleErrorMigrationSwitchesActiveDC(t *testing.T) {
	ua := newFakeUserAgent()
	conn2 := newFakeConnection(2)
	conn4 := newFakeConnection(4)
	conn4.authorized = false
	ua.clients[2] = conn2
	ua.clients[4] = conn4
	ua.activeDC = 2

	q := New(ua, nil, "auth.sendCode", FlagLogin, []byte("body"), boolDescr{}, Hooks{})
	q.Execute(conn2, ExecOptionLogin)

	q.HandleError(303, "PHONE_MIGRATE_4")

	if ua.activeDC != 4 {
		t.Fatalf("expected active DC to become 4, got %d", ua.activeDC)
	}
	if !conn4.restarted {
		t.Fatal("expected restart_authorization on the new unauthorized DC")
	}
	if q.retryTimer.(*fakeTimer).started == 0 {
		t.Fatal("expected retry scheduled for a login query after migration")
	}
}

func TestHandleErrorFloodWaitSchedulesRetry(t *testing.T) {
	ua := newFakeUserAgent()
	conn := newFakeConnection(2)
	ua.clients[2] = conn
	ua.activeDC = 2

	q := New(ua, nil, "messages.sendMessage", FlagForce, []byte("body"), boolDescr{}, Hooks{
		ShouldRetryAfterRecoverFromError: func() bool { return true },
	})
	q.Execute(conn, ExecOptionNormal)

	q.HandleError(420, "FLOOD_WAIT_7")

	tm := q.retryTimer.(*fakeTimer)
	if tm.lastWait != 7*time.Second {
		t.Fatalf("expected 7s retry wait, got %v", tm.lastWait)
	}
}

func TestHandleErrorSurfacesUnhandledCode(t *testing.T) {
	ua := newFakeUserAgent()
	conn := newFakeConnection(2)
	ua.clients[2] = conn
	ua.activeDC = 2

	var gotCode int
	var gotMsg string
	q := New(ua, nil, "messages.sendMessage", FlagForce, []byte("body"), boolDescr{}, Hooks{
		OnError: func(code int, msg string) { gotCode, gotMsg = code, msg },
	})
	q.Execute(conn, ExecOptionNormal)

	q.HandleError(400, "MESSAGE_EMPTY")

	if gotCode != 400 || gotMsg != "MESSAGE_EMPTY" {
		t.Fatalf("expected OnError(400, MESSAGE_EMPTY), got (%d, %s)", gotCode, gotMsg)
	}
}

func TestCancelPreventsFurtherCallbacks(t *testing.T) {
	ua := newFakeUserAgent()
	conn := newFakeConnection(2)
	ua.clients[2] = conn
	ua.activeDC = 2

	called := false
	q := New(ua, nil, "messages.sendMessage", FlagForce, []byte("body"), boolDescr{}, Hooks{
		OnAnswer: func(v schema.Value) { called = true },
	})
	q.Execute(conn, ExecOptionNormal)

	msgID := q.MsgID()
	q.Cancel()

	if _, ok := ua.active[msgID]; ok {
		t.Fatal("expected cancel to remove query from active map")
	}
	if err := q.HandleResult(wire.NewReader(boolTrueBody())); err != nil {
		t.Fatalf("HandleResult after cancel: %v", err)
	}
	if called {
		t.Fatal("expected no OnAnswer callback after cancel, hooks were cleared")
	}
}
