package calls

import (
	"testing"
	"time"

	"github.com/mtprotogo/tgcore/query"
	"github.com/mtprotogo/tgcore/schema"
	"github.com/mtprotogo/tgcore/wire"
)

// fakeConnection is the minimal query.Connection double calls_test needs:
// always-ready, single-session, records nothing beyond the last body sent.
type fakeConnection struct{ nextMsgID int64 }

func (c *fakeConnection) ID() int { return 2 }
func (c *fakeConnection) Send(body []byte, msgIDOverride int64, force, fileTransfer bool) (int64, error) {
	if msgIDOverride != 0 {
		return msgIDOverride, nil
	}
	c.nextMsgID += 4
	return c.nextMsgID, nil
}
func (c *fakeConnection) SessionID() (int64, bool)                { return 1, true }
func (c *fakeConnection) SeqNo() int32                             { return 0 }
func (c *fakeConnection) EnsureSession()                           {}
func (c *fakeConnection) Status() query.ConnectionStatus           { return query.StatusConnected }
func (c *fakeConnection) IsConfigured() bool                       { return true }
func (c *fakeConnection) IsLoggedIn() bool                         { return true }
func (c *fakeConnection) IsLoggingOut() bool                       { return false }
func (c *fakeConnection) IsAuthorized() bool                       { return true }
func (c *fakeConnection) RestartAuthorization()                    {}
func (c *fakeConnection) RestartTempAuthorization()                {}
func (c *fakeConnection) TransferAuthToMe()                        {}
func (c *fakeConnection) SetLogoutQuery(q *query.Query)             {}
func (c *fakeConnection) AddPendingQuery(q *query.Query)            {}
func (c *fakeConnection) RemovePendingQuery(q *query.Query)         {}
func (c *fakeConnection) AddConnectionStatusObserver(q *query.Query)    {}
func (c *fakeConnection) RemoveConnectionStatusObserver(q *query.Query) {}

type fakeUserAgent struct{ client *fakeConnection }

func (u *fakeUserAgent) AddActiveQuery(q *query.Query)    {}
func (u *fakeUserAgent) RemoveActiveQuery(q *query.Query) {}
func (u *fakeUserAgent) AddRetryQuery(q *query.Query)     {}
func (u *fakeUserAgent) RemoveRetryQuery(q *query.Query)  {}
func (u *fakeUserAgent) SetActiveDC(dc int)               {}
func (u *fakeUserAgent) ActiveClient() query.Connection   { return u.client }
func (u *fakeUserAgent) Login()                           {}
func (u *fakeUserAgent) Logout()                          {}
func (u *fakeUserAgent) SetClientLoggedOut(c query.Connection, loggedOut bool)  {}
func (u *fakeUserAgent) SetClientLoggingOut(c query.Connection, loggingOut bool) {}
func (u *fakeUserAgent) SetDCLoggedIn(dc int, loggedIn bool)                   {}
func (u *fakeUserAgent) IsPasswordLocked() bool                                { return false }
func (u *fakeUserAgent) SetPasswordLocked(bool)                                {}
func (u *fakeUserAgent) CheckPassword(done func(success bool))                 { done(false) }
func (u *fakeUserAgent) PFSEnabled() bool                                      { return false }
func (u *fakeUserAgent) NotifyMessageSent(oldMsgID, newMsgID, chatID int64)    {}
func (u *fakeUserAgent) OurID() int64                                          { return 42 }
func (u *fakeUserAgent) AppID() int32                                          { return 1 }
func (u *fakeUserAgent) DeviceModel() string                                   { return "test" }
func (u *fakeUserAgent) SystemVersion() string                                 { return "1" }
func (u *fakeUserAgent) AppVersion() string                                    { return "0.1" }
func (u *fakeUserAgent) LangCode() string                                      { return "en" }
func (u *fakeUserAgent) TimerFactory() query.TimerFactory                      { return noopTimerFactory{} }

type noopTimerFactory struct{}

func (noopTimerFactory) CreateTimer(fn func()) query.Timer { return noopTimer{} }

type noopTimer struct{}

func (noopTimer) Start(time.Duration) {}
func (noopTimer) Stop()               {}

func newTestRegistry() *registry {
	r := schema.NewRegistry()
	schema.RegisterBuiltins(r)
	return r
}

func TestSendCodeDecodesSentCode(t *testing.T) {
	reg := newTestRegistry()
	conn := &fakeConnection{}
	ua := &fakeUserAgent{client: conn}

	var gotOK bool
	var gotHash string
	var gotTimeout int32
	q := SendCode(ua, reg, "+15551234567", func(ok bool, hash string, timeout int32) {
		gotOK, gotHash, gotTimeout = ok, hash, timeout
	})

	q.Execute(conn, query.ExecOptionNormal)

	w := wire.NewWriter()
	w.PutUint(schema.SentCodeTag)
	w.PutString("hash123")
	w.PutInt(120)

	if err := q.HandleResult(wire.NewReader(w.Bytes())); err != nil {
		t.Fatalf("HandleResult: %v", err)
	}
	if !gotOK || gotHash != "hash123" || gotTimeout != 120 {
		t.Fatalf("unexpected callback result: ok=%v hash=%q timeout=%d", gotOK, gotHash, gotTimeout)
	}
}

func TestSendCodeSurfacesError(t *testing.T) {
	reg := newTestRegistry()
	conn := &fakeConnection{}
	ua := &fakeUserAgent{client: conn}

	var gotOK = true
	q := SendCode(ua, reg, "+15551234567", func(ok bool, hash string, timeout int32) { gotOK = ok })

	q.Execute(conn, query.ExecOptionNormal)
	q.HandleError(400, "PHONE_NUMBER_INVALID")

	if gotOK {
		t.Fatal("expected SendCode error to report ok=false")
	}
}

func TestSendMessageDecodesSentMessage(t *testing.T) {
	reg := newTestRegistry()
	conn := &fakeConnection{}
	ua := &fakeUserAgent{client: conn}

	var gotID int32
	q := SendMessage(ua, reg, 555, 999, "hello", func(ok bool, id int32) { gotID = id })
	q.Execute(conn, query.ExecOptionNormal)

	w := wire.NewWriter()
	w.PutUint(schema.MessagesSentMessageTag)
	w.PutInt(777)
	w.PutInt(1690000000)
	w.PutInt(1)
	w.PutInt(1)

	if err := q.HandleResult(wire.NewReader(w.Bytes())); err != nil {
		t.Fatalf("HandleResult: %v", err)
	}
	if gotID != 777 {
		t.Fatalf("expected message id 777, got %d", gotID)
	}
}
