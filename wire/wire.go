// Package wire is the Wire Serializer of spec.md §2.2: an append-only
// buffer of 32-bit words that emits primitives, strings, and constructor
// tags, plus the matching Reader used to walk an inbound buffer. Query
// uses a Writer to build RPC bodies (query/calls use it from the calls
// package); Connection uses Writer/Reader to prepend and strip the
// envelope (§6).
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Envelope-level constructor tags, bit-exact per spec.md §6.
const (
	MsgContainerTag uint32 = 0x73f1f8dc
	GzipPackedTag   uint32 = 0x3072cfa1
	InvokeWithLayer uint32 = 0xda9b0d0d
	InitConnection  uint32 = 0x69796de9
	BoolTrue        uint32 = 0x997275b5
	BoolFalse       uint32 = 0xbc799737

	// RPCResultTag wraps a completed call's result with the msg_id it
	// answers: rpc_result#f35c6d01 req_msg_id:long result:Object.
	RPCResultTag uint32 = 0xf35c6d01
	// MsgAckTag carries a batch of acknowledged msg_ids:
	// msg_ack#62d6b459 msg_ids:Vector<long>.
	MsgAckTag uint32 = 0x62d6b459
	// RPCErrorTag wraps a failed call's error code and message, delivered
	// inside an rpc_result the same way a successful answer is:
	// rpc_error#2144ca19 error_code:int error_message:string.
	RPCErrorTag uint32 = 0x2144ca19
	// VectorLongTag is the generic TL vector constructor used ahead of a
	// count-prefixed list of int64 elements.
	VectorLongTag uint32 = 0x1cb5c415
)

// Writer is an append-only, word-aligned output buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated buffer. The Writer retains ownership; copy
// before further mutation if the caller needs a stable slice.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// PutInt appends a little-endian 32-bit word.
func (w *Writer) PutInt(v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	w.buf = append(w.buf, tmp[:]...)
}

// PutUint appends a little-endian 32-bit word (unsigned, for constructor
// tags).
func (w *Writer) PutUint(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutLong appends a little-endian 64-bit word.
func (w *Writer) PutLong(v int64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	w.buf = append(w.buf, tmp[:]...)
}

// PutDouble appends an IEEE-754 double.
func (w *Writer) PutDouble(v float64) {
	w.PutLong(int64(math.Float64bits(v)))
}

// PutBytes appends a length-prefixed, word-padded byte string per the TL
// wire convention (the one byte-string encoding this package needs to
// know about; everything else is the schema compiler's concern per
// spec.md §1 Non-goals).
func (w *Writer) PutBytes(b []byte) {
	n := len(b)
	switch {
	case n < 254:
		w.buf = append(w.buf, byte(n))
		w.buf = append(w.buf, b...)
		w.pad(1 + n)
	default:
		w.buf = append(w.buf, 254, byte(n), byte(n>>8), byte(n>>16))
		w.buf = append(w.buf, b...)
		w.pad(4 + n)
	}
}

// PutString appends a UTF-8 string using the same length-prefixed
// encoding as PutBytes.
func (w *Writer) PutString(s string) {
	w.PutBytes([]byte(s))
}

// PutRaw appends b verbatim, unpadded, for callers assembling a larger
// message out of already-encoded sub-messages (e.g. a vector body after
// its own tag).
func (w *Writer) PutRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) pad(written int) {
	if rem := written % 4; rem != 0 {
		w.buf = append(w.buf, make([]byte, 4-rem)...)
	}
}

// Reader walks a word-aligned inbound buffer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for reading; buf must be a whole number of 32-bit
// words, matching the envelope-stripped bodies Connection hands to Query.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Clone returns an independent Reader positioned exactly where r is, so a
// caller can speculatively consume a copy (e.g. to validate shape via Skip)
// without disturbing r itself.
func (r *Reader) Clone() *Reader {
	return &Reader{buf: r.buf, pos: r.pos}
}

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// AtEnd reports whether the reader has consumed exactly the buffer.
func (r *Reader) AtEnd() bool { return r.pos == len(r.buf) }

// PeekUint reads the next 32-bit word without advancing, used to sniff
// constructor tags (gzip_packed, msg_container, ...).
func (r *Reader) PeekUint() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, fmt.Errorf("wire: peek past end of buffer")
	}
	return binary.LittleEndian.Uint32(r.buf[r.pos:]), nil
}

// Int reads a little-endian 32-bit signed word.
func (r *Reader) Int() (int32, error) {
	v, err := r.Uint()
	return int32(v), err
}

// Uint reads a little-endian 32-bit unsigned word (a constructor tag).
func (r *Reader) Uint() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, fmt.Errorf("wire: read past end of buffer")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// Long reads a little-endian 64-bit signed word.
func (r *Reader) Long() (int64, error) {
	if r.Remaining() < 8 {
		return 0, fmt.Errorf("wire: read past end of buffer")
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return int64(v), nil
}

// Double reads an IEEE-754 double.
func (r *Reader) Double() (float64, error) {
	v, err := r.Long()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

// Bytes reads a length-prefixed, word-padded byte string.
func (r *Reader) Bytes() ([]byte, error) {
	if r.Remaining() < 1 {
		return nil, fmt.Errorf("wire: read past end of buffer")
	}
	first := r.buf[r.pos]
	var n, headerLen int
	if first < 254 {
		n = int(first)
		headerLen = 1
	} else {
		if r.Remaining() < 4 {
			return nil, fmt.Errorf("wire: truncated long-string header")
		}
		n = int(r.buf[r.pos+1]) | int(r.buf[r.pos+2])<<8 | int(r.buf[r.pos+3])<<16
		headerLen = 4
	}
	total := headerLen + n
	padded := total + (4-total%4)%4
	if r.Remaining() < padded {
		return nil, fmt.Errorf("wire: truncated string body")
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos+headerLen:r.pos+headerLen+n])
	r.pos += padded
	return out, nil
}

// String reads a length-prefixed UTF-8 string.
func (r *Reader) String() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Skip advances past n raw bytes without interpreting them, used by
// descriptor Skip implementations that don't need the value.
func (r *Reader) Skip(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("wire: skip past end of buffer")
	}
	r.pos += n
	return nil
}
