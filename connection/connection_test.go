package connection

import (
	"net"
	"testing"
	"time"

	"github.com/mtprotogo/tgcore/wire"
)

func newPipeConnection(t *testing.T) (*Connection, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	return New(1, client), server
}

func TestSendAssignsMsgIDAndWritesFrame(t *testing.T) {
	c, server := newPipeConnection(t)
	defer c.Close()
	defer server.Close()

	body := []byte("hello wire")
	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 1024)
		n, err := server.Read(buf)
		if err != nil {
			return
		}
		done <- buf[:n]
	}()

	msgID, err := c.Send(body, 0, false, false)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msgID == 0 {
		t.Fatal("expected nonzero msg_id")
	}

	select {
	case got := <-done:
		if string(got) != string(body) {
			t.Fatalf("expected frame %q, got %q", body, got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for write")
	}
}

func TestSendReusesOverrideMsgID(t *testing.T) {
	c, server := newPipeConnection(t)
	defer c.Close()
	defer server.Close()
	go ioDiscard(server)

	msgID, err := c.Send([]byte("x"), 12345, false, false)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msgID != 12345 {
		t.Fatalf("expected overridden msg_id 12345, got %d", msgID)
	}
}

func TestSeqNoAdvancesByTwoPerSend(t *testing.T) {
	c, server := newPipeConnection(t)
	defer c.Close()
	defer server.Close()
	go ioDiscard(server)

	if _, err := c.Send([]byte("a"), 0, false, false); err != nil {
		t.Fatal(err)
	}
	first := c.SeqNo()
	if _, err := c.Send([]byte("b"), 0, false, false); err != nil {
		t.Fatal(err)
	}
	second := c.SeqNo()

	if second != first+2 {
		t.Fatalf("expected seq_no to advance by 2, got %d -> %d", first, second)
	}
}

func TestEnsureSessionIsIdempotent(t *testing.T) {
	c, server := newPipeConnection(t)
	defer c.Close()
	defer server.Close()

	c.EnsureSession()
	id1, _ := c.SessionID()
	c.EnsureSession()
	id2, _ := c.SessionID()

	if id1 != id2 {
		t.Fatalf("expected EnsureSession to be idempotent, got %d then %d", id1, id2)
	}
}

func TestResetSessionForcesFreshID(t *testing.T) {
	c, server := newPipeConnection(t)
	defer c.Close()
	defer server.Close()

	c.EnsureSession()
	id1, _ := c.SessionID()
	c.ResetSession()
	c.EnsureSession()
	id2, _ := c.SessionID()

	if id1 == id2 {
		t.Fatal("expected ResetSession to force a new session_id")
	}
}

func TestHandleMessageRoutesRPCResult(t *testing.T) {
	c, server := newPipeConnection(t)
	defer c.Close()
	defer server.Close()

	var gotMsgID int64
	var gotBody []byte
	c.OnResult = func(msgID int64, r *wire.Reader) {
		gotMsgID = msgID
		b, _ := r.Bytes()
		gotBody = b
	}

	w := wire.NewWriter()
	w.PutUint(wire.RPCResultTag)
	w.PutLong(777)
	w.PutBytes([]byte("payload"))

	c.handleMessage(wire.NewReader(w.Bytes()))

	if gotMsgID != 777 {
		t.Fatalf("expected req_msg_id 777, got %d", gotMsgID)
	}
	if string(gotBody) != "payload" {
		t.Fatalf("expected payload %q, got %q", "payload", gotBody)
	}
}

func TestHandleMessageRoutesMsgAckBatch(t *testing.T) {
	c, server := newPipeConnection(t)
	defer c.Close()
	defer server.Close()

	var acked []int64
	c.OnAck = func(msgID int64) { acked = append(acked, msgID) }

	w := wire.NewWriter()
	w.PutUint(wire.MsgAckTag)
	w.PutRaw(wire.EncodeLongVector([]int64{1, 2, 3}))

	c.handleMessage(wire.NewReader(w.Bytes()))

	if len(acked) != 3 || acked[0] != 1 || acked[2] != 3 {
		t.Fatalf("expected [1 2 3], got %v", acked)
	}
}

func TestHandleMessageUnwrapsContainer(t *testing.T) {
	c, server := newPipeConnection(t)
	defer c.Close()
	defer server.Close()

	var results []int64
	c.OnResult = func(msgID int64, r *wire.Reader) { results = append(results, msgID) }

	inner1 := wire.NewWriter()
	inner1.PutUint(wire.RPCResultTag)
	inner1.PutLong(10)
	inner1.PutBytes([]byte("a"))

	inner2 := wire.NewWriter()
	inner2.PutUint(wire.RPCResultTag)
	inner2.PutLong(20)
	inner2.PutBytes([]byte("b"))

	container := wire.EncodeContainer([]wire.ContainerEntry{
		{MsgID: 100, SeqNo: 1, Body: inner1.Bytes()},
		{MsgID: 101, SeqNo: 1, Body: inner2.Bytes()},
	})

	c.handleMessage(wire.NewReader(container))

	if len(results) != 2 || results[0] != 10 || results[1] != 20 {
		t.Fatalf("expected [10 20], got %v", results)
	}
}

func ioDiscard(c net.Conn) {
	buf := make([]byte, 1024)
	for {
		if _, err := c.Read(buf); err != nil {
			return
		}
	}
}
