package query

import (
	"sync"

	"github.com/mtprotogo/tgcore/schema"
)

// Flags captures the boolean traits query.cpp reads as is_force()/is_login()/
// is_logout()/is_file_transfer(): properties fixed at construction that
// change how execute/check_pending/handle_error behave for this particular
// call.
type Flags uint8

const (
	// FlagForce skips the is_configured/is_logged_in pending checks, used
	// for calls that must go out even mid-handshake (e.g. help.getConfig).
	FlagForce Flags = 1 << iota
	// FlagLogin marks an authentication call; check_pending exempts it
	// from the is_logged_in gate, and handle_error's 303 migrate branch
	// retries it even when ShouldRetryAfterRecoverFromError says no.
	FlagLogin
	// FlagLogout marks auth.logOut; each send records the Query on its
	// Connection via SetLogoutQuery, and ack()
	// synthesizes a bool_true result for it (the server-closes-after-ack
	// workaround in query.cpp's ack()).
	FlagLogout
	// FlagFileTransfer marks upload/download bodies, which query.cpp
	// routes through is_file_transfer() to pick a longer timeout.
	FlagFileTransfer
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// ExecOption mirrors query::execution_option: the caller's intent when
// invoking Execute, independent of the Flags baked into the Query itself.
type ExecOption int

const (
	ExecOptionUnknown ExecOption = iota
	ExecOptionNormal
	ExecOptionLogin
	ExecOptionForce
)

// Hooks holds the behavior a concrete call supplies, taking the place of
// query.cpp's virtual on_answer/on_error/on_timeout/will_send/sent/
// will_be_pending/should_retry_*/on_connection_status_changed overrides.
// Every field is optional; nil hooks are no-ops except where noted.
type Hooks struct {
	// OnAnswer receives the decoded response tree once handle_result
	// finishes fetching it.
	OnAnswer func(result schema.Value)
	// OnError receives an error query.cpp's classifier did not handle
	// itself (handle_error's fallthrough to on_error_internal).
	OnError func(code int, message string)
	// OnTimeout runs once per expiring timeout timer, before the retry
	// decision is made.
	OnTimeout func()
	// OnConnectionStatusChanged mirrors connection_status_changed.
	OnConnectionStatusChanged func(status ConnectionStatus)

	// WillSend runs immediately before the body is handed to Connection.Send.
	WillSend func()
	// Sent runs after a successful send.
	Sent func()
	// WillBePending runs when check_pending decides the query must wait.
	WillBePending func()

	// ShouldRetryAfterRecoverFromError overrides the default "don't
	// retry" answer handle_error falls back to once it has recovered
	// from a classified error (e.g. after a DC migration or re-login).
	ShouldRetryAfterRecoverFromError func() bool
	// ShouldRetryOnTimeout overrides the default "don't retry" answer
	// timeout_alarm falls back to.
	ShouldRetryOnTimeout func() bool
}

func (h Hooks) onAnswer(v schema.Value) {
	if h.OnAnswer != nil {
		h.OnAnswer(v)
	}
}
func (h Hooks) onError(code int, msg string) {
	if h.OnError != nil {
		h.OnError(code, msg)
	}
}
func (h Hooks) onTimeout() {
	if h.OnTimeout != nil {
		h.OnTimeout()
	}
}
func (h Hooks) onConnectionStatusChanged(s ConnectionStatus) {
	if h.OnConnectionStatusChanged != nil {
		h.OnConnectionStatusChanged(s)
	}
}
func (h Hooks) willSend() {
	if h.WillSend != nil {
		h.WillSend()
	}
}
func (h Hooks) sent() {
	if h.Sent != nil {
		h.Sent()
	}
}
func (h Hooks) willBePending() {
	if h.WillBePending != nil {
		h.WillBePending()
	}
}
func (h Hooks) shouldRetryAfterRecoverFromError() bool {
	if h.ShouldRetryAfterRecoverFromError != nil {
		return h.ShouldRetryAfterRecoverFromError()
	}
	return false
}
func (h Hooks) shouldRetryOnTimeout() bool {
	if h.ShouldRetryOnTimeout != nil {
		return h.ShouldRetryOnTimeout()
	}
	return false
}

// Query is one in-flight (or not-yet-sent, or completed) RPC invocation: the
// Go counterpart of query.cpp's query class, with its virtual overrides
// replaced by the Hooks struct per the data-not-inheritance design.
type Query struct {
	mu sync.Mutex

	name  string
	flags Flags
	hooks Hooks
	descr schema.Descriptor // the response's own type descriptor, used by HandleResult

	body []byte // serialized request, set once at construction

	userAgent UserAgent
	client    Connection

	execOption     ExecOption
	msgID          int64
	msgIDOverride  int64
	seqNo          int32
	sessionID      int64
	ackReceived    bool
	connStatus     ConnectionStatus

	timer      Timer
	retryTimer Timer

	registry *schema.Registry
}

// New constructs a Query for a request whose serialized body is already
// available. name is used only for logging, matching query.cpp's m_name.
func New(ua UserAgent, registry *schema.Registry, name string, flags Flags, body []byte, descr schema.Descriptor, hooks Hooks) *Query {
	return &Query{
		userAgent: ua,
		registry:  registry,
		name:      name,
		flags:     flags,
		body:      body,
		descr:     descr,
		hooks:     hooks,
	}
}

// MsgID returns the msg_id last assigned to this query by Send, or 0 before
// the first successful send. It does not take the Query's lock, so the
// UserAgent registry can call it from AddActiveQuery/RemoveActiveQuery
// while a lifecycle method holds that lock.
func (q *Query) MsgID() int64 {
	return q.msgID
}

// Name returns the diagnostic name passed to New.
func (q *Query) Name() string { return q.name }

// Client returns the Connection this Query was last bound to by Execute
// (or rebound to by a 303 migration), or nil before Execute. UserAgent uses
// this to index the active registry by owning connection, so a Connection
// teardown can cancel exactly the Queries it owns (spec.md §5). It does
// not take the Query's lock, so Hooks and UserAgent callbacks can call it
// while a lifecycle method holds that lock.
func (q *Query) Client() Connection {
	return q.client
}

func (q *Query) isForce() bool        { return q.flags.has(FlagForce) }
func (q *Query) isLogin() bool        { return q.flags.has(FlagLogin) }
func (q *Query) isLogout() bool       { return q.flags.has(FlagLogout) }
func (q *Query) isFileTransfer() bool { return q.flags.has(FlagFileTransfer) }
