package calls

import (
	"github.com/mtprotogo/tgcore/query"
	"github.com/mtprotogo/tgcore/schema"
	"github.com/mtprotogo/tgcore/wire"
)

// SendMessage issues messages.sendMessage to peerID, the Go counterpart of
// query_msg_send. done plays the role query_msg_send's std::function
// callback plays: it fires with (true, ...) from OnAnswer or (false, ...)
// from OnError, exactly the two outcomes query_msg_send.h distinguishes
// for the caller's pending-message bookkeeping (set_pending/set_send_failed
// there; the calls package leaves that bookkeeping to the host, since
// message-state tracking lives above the Query Subsystem). On success it
// also reports randomID/the server id through updates.Callback.MessageSent,
// the host-notification half of the same pending-to-confirmed transition.
func SendMessage(ua query.UserAgent, reg *registry, peerID int64, randomID int64, text string, done func(ok bool, serverMsgID int32)) *query.Query {
	w := wire.NewWriter()
	w.PutUint(messagesSendMessageTag)
	w.PutInt(0) // flags
	w.PutUint(inputPeerUserTag)
	w.PutLong(peerID)
	w.PutString(text)
	w.PutLong(randomID)

	return query.New(ua, reg, "send message", 0, w.Bytes(), messagesSentMessageDescriptorFor(reg), query.Hooks{
		OnAnswer: func(v schema.Value) {
			s, _ := v.(*schema.Struct)
			if s == nil {
				done(false, 0)
				return
			}
			id, _ := s.Fields["id"].(int32)
			ua.NotifyMessageSent(randomID, int64(id), peerID)
			done(true, id)
		},
		OnError: func(code int, msg string) { done(false, 0) },
	})
}
