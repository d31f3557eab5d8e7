package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// ContainerEntry is one logical message inside a msg_container envelope
// (§6 Envelope level: msg_id:i64 seq_no:i32 length:i32 body:bytes).
type ContainerEntry struct {
	MsgID int64
	SeqNo int32
	Body  []byte
}

// EncodeContainer builds a single msg_container envelope wrapping entries,
// used by the §4.4 alarm algorithm's same-session resend path to rewrap a
// previously-sent body under a fresh outer msg_id.
func EncodeContainer(entries []ContainerEntry) []byte {
	w := NewWriter()
	w.PutUint(MsgContainerTag)
	w.PutInt(int32(len(entries)))
	for _, e := range entries {
		w.PutLong(e.MsgID)
		w.PutInt(e.SeqNo)
		w.PutInt(int32(len(e.Body)))
		w.buf = append(w.buf, e.Body...)
	}
	return w.Bytes()
}

// DecodeContainer parses a msg_container body (tag already consumed by the
// caller via PeekUint/Uint) back into its entries, used by Connection's
// inbound dispatch to fan a single envelope out to several active Queries.
func DecodeContainer(r *Reader) ([]ContainerEntry, error) {
	count, err := r.Int()
	if err != nil {
		return nil, fmt.Errorf("wire: decode container count: %w", err)
	}
	entries := make([]ContainerEntry, 0, count)
	for i := int32(0); i < count; i++ {
		msgID, err := r.Long()
		if err != nil {
			return nil, fmt.Errorf("wire: decode container entry %d msg_id: %w", i, err)
		}
		seqNo, err := r.Int()
		if err != nil {
			return nil, fmt.Errorf("wire: decode container entry %d seq_no: %w", i, err)
		}
		length, err := r.Int()
		if err != nil {
			return nil, fmt.Errorf("wire: decode container entry %d length: %w", i, err)
		}
		body := make([]byte, length)
		if r.Remaining() < int(length) {
			return nil, fmt.Errorf("wire: decode container entry %d: truncated body", i)
		}
		copy(body, r.buf[r.pos:r.pos+int(length)])
		r.pos += int(length)
		entries = append(entries, ContainerEntry{MsgID: msgID, SeqNo: seqNo, Body: body})
	}
	return entries, nil
}

// EncodeLongVector builds a Vector<long> body (tag, count, then elements),
// the wire shape msg_ack's msg_ids field uses.
func EncodeLongVector(ids []int64) []byte {
	w := NewWriter()
	w.PutUint(VectorLongTag)
	w.PutInt(int32(len(ids)))
	for _, id := range ids {
		w.PutLong(id)
	}
	return w.Bytes()
}

// DecodeLongVector parses a Vector<long> body (tag already consumed by the
// caller).
func DecodeLongVector(r *Reader) ([]int64, error) {
	count, err := r.Int()
	if err != nil {
		return nil, fmt.Errorf("wire: decode long vector count: %w", err)
	}
	ids := make([]int64, 0, count)
	for i := int32(0); i < count; i++ {
		id, err := r.Long()
		if err != nil {
			return nil, fmt.Errorf("wire: decode long vector entry %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GzipPack compresses payload and wraps it with the gzip_packed tag and a
// length-prefixed blob, the outbound mirror of Query.handle_result's
// inflate step (§4.7). tgcore itself never sends compressed requests, but
// the helper keeps the envelope codec symmetric and is exercised by the
// gzip round-trip test (spec.md §8 property 4).
func GzipPack(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return nil, fmt.Errorf("wire: gzip compress: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("wire: gzip close: %w", err)
	}
	w := NewWriter()
	w.PutUint(GzipPackedTag)
	w.PutBytes(buf.Bytes())
	return w.Bytes(), nil
}

// GunzipInflate inflates a gzip_packed payload (the tag already consumed)
// bounded by maxBytes, matching Query::handle_result's MAX_PACKED_SIZE
// cap (original_source/src/query/query.cpp) generalized from a fixed
// 16 MiB buffer to an explicit bound.
func GunzipInflate(packed []byte, maxBytes int) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, fmt.Errorf("wire: gzip reader: %w", err)
	}
	defer gz.Close()

	limited := io.LimitReader(gz, int64(maxBytes)+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("wire: gzip inflate: %w", err)
	}
	if len(out) > maxBytes {
		return nil, fmt.Errorf("wire: inflated payload exceeds %d bytes", maxBytes)
	}
	return out, nil
}
