package wire

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.PutInt(-7)
	w.PutUint(0x1234abcd)
	w.PutLong(1234567890123)
	w.PutString("hello, mtproto")
	w.PutBytes([]byte{1, 2, 3, 4, 5})
	w.PutDouble(3.5)

	r := NewReader(w.Bytes())

	i, err := r.Int()
	if err != nil || i != -7 {
		t.Fatalf("Int: got %d, %v", i, err)
	}
	u, err := r.Uint()
	if err != nil || u != 0x1234abcd {
		t.Fatalf("Uint: got %x, %v", u, err)
	}
	l, err := r.Long()
	if err != nil || l != 1234567890123 {
		t.Fatalf("Long: got %d, %v", l, err)
	}
	s, err := r.String()
	if err != nil || s != "hello, mtproto" {
		t.Fatalf("String: got %q, %v", s, err)
	}
	b, err := r.Bytes()
	if err != nil || len(b) != 5 {
		t.Fatalf("Bytes: got %v, %v", b, err)
	}
	d, err := r.Double()
	if err != nil || d != 3.5 {
		t.Fatalf("Double: got %v, %v", d, err)
	}
	if !r.AtEnd() {
		t.Fatalf("expected reader to be fully consumed, %d bytes remaining", r.Remaining())
	}
}

func TestContainerRoundTrip(t *testing.T) {
	entries := []ContainerEntry{
		{MsgID: 100, SeqNo: 2, Body: []byte{0xde, 0xad, 0xbe, 0xef}},
		{MsgID: 200, SeqNo: 4, Body: []byte{0x01, 0x02}},
	}
	encoded := EncodeContainer(entries)

	r := NewReader(encoded)
	tag, err := r.Uint()
	if err != nil || tag != MsgContainerTag {
		t.Fatalf("expected container tag, got %x, %v", tag, err)
	}
	decoded, err := DecodeContainer(r)
	if err != nil {
		t.Fatalf("DecodeContainer: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(decoded))
	}
	for i, e := range entries {
		if decoded[i].MsgID != e.MsgID || decoded[i].SeqNo != e.SeqNo || string(decoded[i].Body) != string(e.Body) {
			t.Fatalf("entry %d mismatch: got %+v want %+v", i, decoded[i], e)
		}
	}
}

func TestGzipRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated many times for compression: " +
		"the quick brown fox jumps over the lazy dog")
	packed, err := GzipPack(payload)
	if err != nil {
		t.Fatalf("GzipPack: %v", err)
	}

	r := NewReader(packed)
	tag, err := r.Uint()
	if err != nil || tag != GzipPackedTag {
		t.Fatalf("expected gzip tag, got %x, %v", tag, err)
	}
	blob, err := r.Bytes()
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	out, err := GunzipInflate(blob, 1<<20)
	if err != nil {
		t.Fatalf("GunzipInflate: %v", err)
	}
	if string(out) != string(payload) {
		t.Fatalf("round trip mismatch: got %q", out)
	}
}

func TestGunzipInflateRejectsOversizedPayload(t *testing.T) {
	payload := make([]byte, 1024)
	packed, err := GzipPack(payload)
	if err != nil {
		t.Fatalf("GzipPack: %v", err)
	}
	r := NewReader(packed)
	if _, err := r.Uint(); err != nil {
		t.Fatal(err)
	}
	blob, err := r.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := GunzipInflate(blob, 100); err == nil {
		t.Fatal("expected GunzipInflate to reject a payload over the byte cap")
	}
}
