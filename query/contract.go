// Package query is the Query Subsystem: it turns one RPC invocation into
// wire traffic, tracks its lifecycle through a Connection's session, and
// reacts to acks, results, errors, timeouts, migrations, and cancellation.
// It is deliberately the only package that knows the full query lifecycle;
// Connection and UserAgent are consumed here only through the narrow
// interfaces below, grounded on mtproto_client and tgl_state/user_agent in
// the C ancestor's tgl.h.
package query

import "time"

// ConnectionStatus mirrors tgl_connection_status: a Query reacts differently
// to send() failures depending on whether its Connection is mid-handshake.
type ConnectionStatus int

const (
	StatusNotConnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
)

// Connection is the per-DC transport and session contract a Query sends
// itself through. It is implemented by connection.Connection; this
// interface exists so query never imports connection directly, matching
// query.cpp's dependence on the abstract mtproto_client rather than a
// concrete socket type.
type Connection interface {
	// ID returns the DC number this connection talks to.
	ID() int

	// Send hands body to the connection's write loop, returning the
	// msg_id assigned to it (or an error if nothing could be sent). If
	// msgIDOverride is non-zero it is reused verbatim instead of a fresh
	// msg_id being minted.
	Send(body []byte, msgIDOverride int64, force, fileTransfer bool) (int64, error)

	// SessionID reports the session id the connection currently has, and
	// whether a session exists at all.
	SessionID() (id int64, ok bool)

	// SeqNo reports the most recently used outbound sequence number.
	SeqNo() int32

	// EnsureSession lazily creates a session if the connection has none,
	// the create_session() side effect inside query.cpp's check_pending.
	EnsureSession()

	Status() ConnectionStatus
	IsConfigured() bool
	IsLoggedIn() bool
	IsLoggingOut() bool
	IsAuthorized() bool

	RestartAuthorization()
	RestartTempAuthorization()
	TransferAuthToMe()

	SetLogoutQuery(q *Query)
	AddPendingQuery(q *Query)
	RemovePendingQuery(q *Query)
	AddConnectionStatusObserver(q *Query)
	RemoveConnectionStatusObserver(q *Query)
}

// UserAgent is the process-wide coordinator a Query reaches back into for
// active/retry bookkeeping, DC migration, and the password-needed flow,
// grounded on tgl_state/user_agent (tgl.h).
type UserAgent interface {
	AddActiveQuery(q *Query)
	RemoveActiveQuery(q *Query)
	AddRetryQuery(q *Query)
	RemoveRetryQuery(q *Query)

	SetActiveDC(dc int)
	ActiveClient() Connection

	Login()
	Logout()
	SetClientLoggedOut(c Connection, loggedOut bool)
	// SetClientLoggingOut flips the is_logging_out gate check_logging_out
	// reads (query.cpp's check_logging_out), set around an auth.logOut
	// call's lifetime so ordinary queries are rejected with
	// 600/"LOGGING_OUT" until it resolves.
	SetClientLoggingOut(c Connection, loggingOut bool)
	SetDCLoggedIn(dc int, loggedIn bool)
	IsPasswordLocked() bool
	SetPasswordLocked(bool)
	// CheckPassword runs the password flow asynchronously and calls done
	// with the outcome, the check_password callback in
	// query::handle_session_password_needed.
	CheckPassword(done func(success bool))
	PFSEnabled() bool

	// NotifyMessageSent reports a sent message's server-assigned id to the
	// host's updates.Callback.MessageSent, the query_msg_send.cpp
	// counterpart of turning a pending local message into a confirmed one.
	NotifyMessageSent(oldMsgID, newMsgID, chatID int64)

	OurID() int64

	AppID() int32
	DeviceModel() string
	SystemVersion() string
	AppVersion() string
	LangCode() string

	TimerFactory() TimerFactory
}

// TimerFactory creates the cancellable one-shot timers a Query arms for its
// retry and timeout alarms (useragent adapts timer.Service to this).
type TimerFactory interface {
	CreateTimer(fn func()) Timer
}

// Timer is the minimal cancellable-alarm contract Query needs.
type Timer interface {
	Start(d time.Duration)
	Stop()
}
