package connection

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/mtprotogo/tgcore/wire"
)

// InitParams are the init_connection fields (§6 Envelope level) a session
// wraps its first outbound body with.
type InitParams struct {
	APIID         int32
	DeviceModel   string
	SystemVersion string
	AppVersion    string
	LangCode      string
	Layer         int32
}

// Session is one authenticated wire session on a Connection: an MTProto
// session_id plus the strictly-increasing msg_id/seq_no counters every
// Query's send/resend path reads and advances. A Connection replaces its
// Session wholesale whenever the server forces a fresh one (session_id
// zeroed by Query.Regen/HandleError); it never mutates session_id in
// place, matching query.cpp's "is_in_the_same_session" comparison by
// value.
type Session struct {
	id int64

	// msgIDHigh packs the reference unix-time seconds into the high 32
	// bits; msgIDLow is a monotonic per-session counter advanced by 4 for
	// every content message, the two low bits reserved by the wire
	// format for content/ack flags (kept 0 here, matching
	// tgcore's content-only usage).
	msgIDHigh int64
	msgIDLow  uint32

	seqNo int32

	wrapped int32 // set once NextEnvelope has wrapped a body (atomic flag)
}

// newSession mints a fresh Session with a cryptographically random
// session_id, the Go counterpart of service.connectionService's atomic
// counter (adapted from sequential+gate-id packing to full randomness,
// since MTProto's session_id must be unguessable rather than merely
// unique within one process).
func newSession() *Session {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing means the OS entropy source is broken;
		// fall back to a time-seeded value rather than panicking the
		// event loop over a non-cryptographic session identifier.
		binary.LittleEndian.PutUint64(buf[:], uint64(time.Now().UnixNano()))
	}
	return &Session{
		id:        int64(binary.LittleEndian.Uint64(buf[:])),
		msgIDHigh: int64(time.Now().Unix()) << 32,
	}
}

// ID returns the session_id.
func (s *Session) ID() int64 { return s.id }

// NextMsgID returns a fresh, strictly increasing msg_id for a content
// message, and advances seq_no by the content-message step of 2 (per the
// external schema's odd/even seq_no convention referenced in spec.md §6).
func (s *Session) NextMsgID() int64 {
	low := atomic.AddUint32(&s.msgIDLow, 4)
	atomic.AddInt32(&s.seqNo, 2)
	return s.msgIDHigh | int64(low)
}

// SeqNo reports the most recently assigned seq_no.
func (s *Session) SeqNo() int32 {
	return atomic.LoadInt32(&s.seqNo)
}

// NextEnvelope wraps body with invoke_with_layer(init_connection(...))
// exactly once per session — the first call out on a fresh session — and
// returns body unchanged on every call after, the out_header() behavior
// query.cpp applies ahead of query::send (§6 Envelope level). Safe for
// concurrent use; the second of two racing first calls still sees the
// already-true flag and gets the plain body back.
func (s *Session) NextEnvelope(body []byte, p InitParams) []byte {
	if !atomic.CompareAndSwapInt32(&s.wrapped, 0, 1) {
		return body
	}

	inner := wire.NewWriter()
	inner.PutUint(wire.InitConnection)
	inner.PutInt(p.APIID)
	inner.PutString(p.DeviceModel)
	inner.PutString(p.SystemVersion)
	inner.PutString(p.AppVersion)
	inner.PutString(p.LangCode)
	inner.PutRaw(body)

	outer := wire.NewWriter()
	outer.PutUint(wire.InvokeWithLayer)
	outer.PutInt(p.Layer)
	outer.PutRaw(inner.Bytes())
	return outer.Bytes()
}
