package connection

import (
	"testing"

	"github.com/mtprotogo/tgcore/wire"
)

func TestSession_FirstCallWrapsInitConnection(t *testing.T) {
	s := newSession()
	p := InitParams{APIID: 5, DeviceModel: "test", SystemVersion: "1", AppVersion: "0.1", LangCode: "en", Layer: 45}

	body := []byte("payload-one")
	first := s.NextEnvelope(body, p)

	r := wire.NewReader(first)
	tag, err := r.Uint()
	if err != nil || tag != wire.InvokeWithLayer {
		t.Fatalf("expected invoke_with_layer tag on first call, got %x, %v", tag, err)
	}

	second := s.NextEnvelope([]byte("payload-two"), p)
	if string(second) != "payload-two" {
		t.Fatalf("expected plain body on second call, got %q", second)
	}
}

func TestSession_NextMsgIDMonotonic(t *testing.T) {
	s := newSession()
	a := s.NextMsgID()
	b := s.NextMsgID()
	if b <= a {
		t.Fatalf("expected strictly increasing msg_id, got %d then %d", a, b)
	}
	if s.SeqNo() != 4 {
		t.Fatalf("expected seq_no 4 after two sends, got %d", s.SeqNo())
	}
}
