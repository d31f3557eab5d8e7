package connection

import (
	"github.com/mtprotogo/tgcore/internal/log"
	"github.com/mtprotogo/tgcore/wire"
)

// ReadLoop consumes framed inbound messages from r (one wire.Reader-ready
// byte slice per frame, already stripped of whatever outer transport
// framing and encryption layer this process uses — the auth-key/AES-IGE
// envelope is outside the Query Subsystem's scope per spec.md §1
// Non-goals) and dispatches each to handleMessage. It runs on the calling
// goroutine (New does not start it) and returns when frames() fails or the
// connection is closed.
func (c *Connection) ReadLoop(frames func() ([]byte, error)) {
	for {
		select {
		case <-c.chDie:
			return
		default:
		}

		frame, err := frames()
		if err != nil {
			log.Errorf("read loop for DC %d stopped: %v", c.dc, err)
			c.Close()
			return
		}
		c.handleMessage(wire.NewReader(frame))
	}
}

// handleMessage dispatches one envelope-level message, recursing through
// msg_container (spec.md §6) and routing msg_ack/rpc_result to the
// Connection's owner.
func (c *Connection) handleMessage(r *wire.Reader) {
	tag, err := r.PeekUint()
	if err != nil {
		log.Errorf("DC %d: empty or truncated message", c.dc)
		return
	}

	switch tag {
	case wire.MsgContainerTag:
		if _, err := r.Uint(); err != nil {
			log.Errorf("DC %d: read container tag: %v", c.dc, err)
			return
		}
		entries, err := wire.DecodeContainer(r)
		if err != nil {
			log.Errorf("DC %d: decode container: %v", c.dc, err)
			return
		}
		for _, e := range entries {
			c.handleMessage(wire.NewReader(e.Body))
		}

	case wire.MsgAckTag:
		if _, err := r.Uint(); err != nil {
			log.Errorf("DC %d: read msg_ack tag: %v", c.dc, err)
			return
		}
		vecTag, err := r.Uint()
		if err != nil || vecTag != wire.VectorLongTag {
			log.Errorf("DC %d: malformed msg_ack vector", c.dc)
			return
		}
		ids, err := wire.DecodeLongVector(r)
		if err != nil {
			log.Errorf("DC %d: decode msg_ack ids: %v", c.dc, err)
			return
		}
		if c.OnAck == nil {
			return
		}
		for _, id := range ids {
			c.OnAck(id)
		}

	case wire.RPCResultTag:
		if _, err := r.Uint(); err != nil {
			log.Errorf("DC %d: read rpc_result tag: %v", c.dc, err)
			return
		}
		reqMsgID, err := r.Long()
		if err != nil {
			log.Errorf("DC %d: read rpc_result req_msg_id: %v", c.dc, err)
			return
		}
		if c.OnResult == nil {
			return
		}
		c.OnResult(reqMsgID, r)

	default:
		log.Noticef("DC %d: unrecognized top-level constructor 0x%08x, dropping message", c.dc, tag)
	}
}
