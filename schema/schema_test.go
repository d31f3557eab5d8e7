package schema

import (
	"testing"

	"github.com/mtprotogo/tgcore/wire"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

func TestBoolFetchRoundTrip(t *testing.T) {
	r := newTestRegistry()

	w := wire.NewWriter()
	w.PutUint(boolTrueTag)
	reader := wire.NewReader(w.Bytes())

	v, err := r.FetchAny(reader)
	if err != nil {
		t.Fatalf("FetchAny: %v", err)
	}
	if b, ok := v.(bool); !ok || !b {
		t.Fatalf("expected true, got %#v", v)
	}
}

func TestConfigSkipThenFetchAgreeOnLength(t *testing.T) {
	r := newTestRegistry()

	w := wire.NewWriter()
	w.PutUint(configTag)
	w.PutInt(1700000000) // date
	w.PutInt(2)           // this_dc
	w.PutInt(1)           // dc_options count
	w.PutUint(0xdeadbeef) // dcOption tag
	w.PutInt(2)           // id
	w.PutString("149.154.167.50")
	w.PutInt(443)
	w.PutInt(4096) // chat_size_max
	w.PutInt(8192) // megagroup_size_max
	buf := w.Bytes()

	skipReader := wire.NewReader(buf)
	if err := r.SkipAny(skipReader); err != nil {
		t.Fatalf("SkipAny: %v", err)
	}
	if !skipReader.AtEnd() {
		t.Fatalf("SkipAny left %d unread bytes", skipReader.Remaining())
	}

	fetchReader := wire.NewReader(buf)
	v, err := r.FetchAny(fetchReader)
	if err != nil {
		t.Fatalf("FetchAny: %v", err)
	}
	if !fetchReader.AtEnd() {
		t.Fatalf("FetchAny left %d unread bytes", fetchReader.Remaining())
	}
	cfg, ok := v.(*Struct)
	if !ok || cfg.Name != "config" {
		t.Fatalf("expected *Struct named config, got %#v", v)
	}
	if cfg.Fields["this_dc"].(int32) != 2 {
		t.Fatalf("this_dc mismatch: %#v", cfg.Fields["this_dc"])
	}
	opts := cfg.Fields["dc_options"].([]Value)
	if len(opts) != 1 {
		t.Fatalf("expected 1 dc option, got %d", len(opts))
	}
}

func TestSentCodeFetch(t *testing.T) {
	r := newTestRegistry()

	w := wire.NewWriter()
	w.PutUint(sentCodeTag)
	w.PutString("abc123hash")
	w.PutInt(120)

	reader := wire.NewReader(w.Bytes())
	v, err := r.FetchAny(reader)
	if err != nil {
		t.Fatalf("FetchAny: %v", err)
	}
	s := v.(*Struct)
	if s.Fields["phone_code_hash"].(string) != "abc123hash" {
		t.Fatalf("phone_code_hash mismatch: %#v", s.Fields["phone_code_hash"])
	}
}

func TestFetchAnyUnknownConstructor(t *testing.T) {
	r := newTestRegistry()
	w := wire.NewWriter()
	w.PutUint(0x11111111)
	reader := wire.NewReader(w.Bytes())

	if _, err := r.FetchAny(reader); err == nil {
		t.Fatal("expected error for unregistered constructor")
	}
}
