package useragent

import (
	"net"
	"testing"
	"time"

	"github.com/mtprotogo/tgcore/connection"
	"github.com/mtprotogo/tgcore/query"
	"github.com/mtprotogo/tgcore/schema"
	"github.com/mtprotogo/tgcore/updates"
)

type pipeDialer struct{ server net.Conn }

func (d *pipeDialer) Dial(addr DCAddress, timeout time.Duration) (connection.Conn, error) {
	client, server := net.Pipe()
	d.server = server
	return client, nil
}

func TestDialRegistersConnectionAsActive(t *testing.T) {
	ua := New(WithAppID(5))
	ua.SetDCTable([]DCAddress{{DC: 2, Addr: "10.0.0.1:443"}})

	d := &pipeDialer{}
	c, err := ua.Dial(2, time.Second, d)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	defer d.server.Close()

	if ua.ActiveClient() == nil {
		t.Fatal("expected Dial to install an active client")
	}
	if ua.Client(2) != c {
		t.Fatal("expected Client(2) to return the dialed connection")
	}
}

func TestDialUnknownDCFails(t *testing.T) {
	ua := New()
	if _, err := ua.Dial(9, time.Second, &pipeDialer{}); err == nil {
		t.Fatal("expected error for unconfigured DC")
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	ua := New()
	q := query.New(ua, schema.NewRegistry(), "test.call", 0, nil, nil, query.Hooks{})

	ua.AddActiveQuery(q)
	if ua.registry.findActive(q.MsgID()) != q {
		t.Fatal("expected query to be registered active")
	}
	ua.RemoveActiveQuery(q)
	if ua.registry.findActive(q.MsgID()) != nil {
		t.Fatal("expected query to be removed from active registry")
	}
}

func TestCheckPasswordWithNoCheckerFailsClosed(t *testing.T) {
	ua := New()
	ua.SetPasswordLocked(true)

	done := make(chan bool, 1)
	ua.CheckPassword(func(success bool) { done <- success })

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected failure with no PasswordChecker installed")
		}
	case <-time.After(time.Second):
		t.Fatal("CheckPassword never called back")
	}
	if ua.IsPasswordLocked() {
		t.Fatal("expected password lock to be released")
	}
}

type fakeChecker struct {
	salt  []byte
	iters int
	ok    bool
}

func (f fakeChecker) FetchSalt() ([]byte, int, error) { return f.salt, f.iters, nil }
func (f fakeChecker) Verify(hash []byte) (bool, error) { return f.ok, nil }

func TestCheckPasswordSuccessPath(t *testing.T) {
	ua := New(WithCallback(promptingCallback{answer: "hunter2"}))
	ua.SetPasswordChecker(fakeChecker{salt: []byte("s"), iters: 4, ok: true})
	ua.SetPasswordLocked(true)

	done := make(chan bool, 1)
	ua.CheckPassword(func(success bool) { done <- success })

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("expected successful password check")
		}
	case <-time.After(time.Second):
		t.Fatal("CheckPassword never called back")
	}
}

type promptingCallback struct {
	updates.NopCallback
	answer string
}

func (p promptingCallback) GetValues(kind updates.ValueKind, prompt string, n int, respond func([]string)) {
	respond([]string{p.answer})
}
