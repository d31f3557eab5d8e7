package query

import (
	"fmt"
	"time"

	"github.com/mtprotogo/tgcore/internal/env"
	"github.com/mtprotogo/tgcore/internal/log"
	"github.com/mtprotogo/tgcore/wire"
)

// Execute binds the Query to client and either sends it immediately or
// parks it on the pending queue, the query::execute counterpart.
func (q *Query) Execute(client Connection, option ExecOption) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.client != nil {
		q.client.RemoveConnectionStatusObserver(q)
	}
	q.execOption = option
	q.client = client
	client.AddConnectionStatusObserver(q)

	if !q.checkLoggingOutLocked() {
		return
	}
	if !q.checkPendingLocked(true) {
		return
	}
	if !q.sendLocked() {
		return
	}
	q.seqNo = q.client.SeqNo() - 1
	log.Debugf("sent query %q of size %d to DC %d: #%d", q.name, len(q.body), q.client.ID(), q.msgID)
}

// ExecuteAfterPending re-runs the pending gate (without transfer_auth) once
// a previously-pending Query's Connection may now be ready, the
// execute_after_pending counterpart. It returns false only while the Query
// remains pending.
func (q *Query) ExecuteAfterPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.checkLoggingOutLocked() {
		return true
	}
	if !q.checkPendingLocked(false) {
		return false
	}
	if !q.sendLocked() {
		return true
	}
	log.Debugf("sent pending query %q (#%d) of size %d to DC %d", q.name, q.msgID, len(q.body), q.client.ID())
	return true
}

// ConnectionStatusChanged mirrors query::connection_status_changed.
func (q *Query) ConnectionStatusChanged(status ConnectionStatus) {
	q.mu.Lock()
	q.connStatus = status
	h := q.hooks
	q.mu.Unlock()
	h.onConnectionStatusChanged(status)
}

// Cancel transitions the Query to terminal: no further hook fires after
// this call returns, and it is removed from every registry and observer
// list it might be sitting in.
func (q *Query) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.clearTimersLocked()
	if q.msgID != 0 {
		q.userAgent.RemoveActiveQuery(q)
	}
	if q.client != nil {
		q.client.RemovePendingQuery(q)
		q.client.RemoveConnectionStatusObserver(q)
	}
	q.hooks = Hooks{} // drop references; no further callback can fire
}

func (q *Query) isInSameSessionLocked() bool {
	if q.client == nil || q.sessionID == 0 {
		return false
	}
	id, ok := q.client.SessionID()
	return ok && id == q.sessionID
}

func (q *Query) clearTimersLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if q.retryTimer != nil {
		q.retryTimer.Stop()
		q.retryTimer = nil
	}
}

// sendLocked is query::send: it serializes nothing itself (the body is
// fixed at construction) but hands it to the Connection, captures session
// bookkeeping, and arms the timeout.
func (q *Query) sendLocked() bool {
	q.ackReceived = false
	q.hooks.willSend()

	log.Debugf("sending query %q of size %d to DC %d", q.name, len(q.body), q.client.ID())

	msgID, err := q.client.Send(q.body, q.msgIDOverride, q.isForce(), q.isFileTransfer())
	if err != nil {
		q.msgID = 0
		q.handleErrorLocked(400, "client failed to send message")
		return false
	}
	q.msgID = msgID
	q.msgIDOverride = 0
	q.seqNo = q.client.SeqNo() - 1

	if q.isLogout() {
		q.client.SetLogoutQuery(q)
	}
	q.userAgent.AddActiveQuery(q)
	if id, ok := q.client.SessionID(); ok {
		q.sessionID = id
	}
	q.timeoutWithinLocked(q.timeoutInterval())
	q.hooks.sent()
	return true
}

// Alarm is the resend algorithm of §4.4, triggered by the retry timer or
// directly by the error classifier.
func (q *Query) Alarm() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.alarmLocked()
}

func (q *Query) alarmLocked() {
	log.Debugf("alarm query #%d (type %q) to DC %d", q.msgID, q.name, q.client.ID())

	q.clearTimersLocked()
	if q.msgID != 0 {
		q.userAgent.RemoveActiveQuery(q)
	}
	if !q.checkLoggingOutLocked() {
		return
	}
	if !q.checkPendingLocked(false) {
		return
	}

	if q.isInSameSessionLocked() {
		// Same-session resend: rewrap the original (msg_id, seq_no, body)
		// inside a single-entry container and send it under a fresh
		// msg_id (§4.4 step 5).
		oldMsgID, oldSeqNo, oldBody := q.msgID, q.seqNo, q.body
		container := wire.EncodeContainer([]wire.ContainerEntry{
			{MsgID: oldMsgID, SeqNo: oldSeqNo, Body: oldBody},
		})
		q.body = container
		if !q.sendLocked() {
			q.body = oldBody
			return
		}
		log.Noticef("resent query #%d as #%d of size %d to DC %d", oldMsgID, q.msgID, len(container), q.client.ID())
		q.body = oldBody
	} else {
		oldID := q.msgID
		if !q.sendLocked() {
			return
		}
		log.Noticef("resent query #%d as #%d of size %d to DC %d", oldID, q.msgID, len(q.body), q.client.ID())
	}
}

// Regen is an external instruction ("resend under a fresh session if the
// current one is unusable"), the query::regen counterpart.
func (q *Query) Regen() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.ackReceived = false
	if !q.isInSameSessionLocked() || (!q.client.IsConfigured() && !q.isForce()) {
		q.sessionID = 0
	}
	q.retryWithinLocked(0)
}

// timeoutAlarmLocked is the timeout timer's fire handler.
func (q *Query) timeoutAlarmLocked() {
	q.clearTimersLocked()
	q.hooks.onTimeout()

	if !q.hooks.shouldRetryOnTimeout() {
		if q.msgID != 0 {
			q.userAgent.RemoveActiveQuery(q)
		}
		q.client.RemovePendingQuery(q)
		return
	}
	q.alarmLocked()
}

// Ack marks the Query as acknowledged. It is idempotent; a second call is a
// no-op.
func (q *Query) Ack() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ackReceived {
		return
	}
	q.ackReceived = true
	q.timeoutWithinLocked(q.timeoutInterval())

	// Workaround for the server closing the socket right after acking a
	// logout instead of replying: synthesize the bool_true result it
	// never sends.
	if q.isLogout() {
		w := wire.NewWriter()
		w.PutUint(wire.BoolTrue)
		r := wire.NewReader(w.Bytes())
		if err := q.handleResultLocked(r); err != nil {
			log.Errorf("synthesizing logout result: %v", err)
		}
	}
}

// HandleResult decodes a response body and completes the Query, the
// query::handle_result counterpart. r must cover exactly the response body
// (the outer envelope already stripped by Connection's dispatch).
func (q *Query) HandleResult(r *wire.Reader) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.handleResultLocked(r)
}

func (q *Query) handleResultLocked(r *wire.Reader) error {
	tag, err := r.PeekUint()
	if err != nil {
		return fmt.Errorf("query: peek response tag: %w", err)
	}

	if tag == wire.GzipPackedTag {
		if _, err := r.Uint(); err != nil {
			return err
		}
		blob, err := r.Bytes()
		if err != nil {
			return fmt.Errorf("query: read gzip_packed blob: %w", err)
		}
		inflated, err := wire.GunzipInflate(blob, env.GzipMaxInflateBytes)
		if err != nil {
			return fmt.Errorf("query: inflate response: %w", err)
		}
		log.Debugf("inflated %d bytes", len(inflated))
		r = wire.NewReader(inflated)
	}

	log.Debugf("result for query #%d. size %d bytes", q.msgID, r.Remaining())

	if tag, err := r.PeekUint(); err == nil && tag == wire.RPCErrorTag {
		if _, err := r.Uint(); err != nil {
			return fmt.Errorf("query: read rpc_error tag: %w", err)
		}
		code, err := r.Int()
		if err != nil {
			return fmt.Errorf("query: read rpc_error code: %w", err)
		}
		text, err := r.String()
		if err != nil {
			return fmt.Errorf("query: read rpc_error message: %w", err)
		}
		q.handleErrorLocked(int(code), text)
		return nil
	}

	if q.descr == nil {
		return fmt.Errorf("query: %q has no response descriptor", q.name)
	}

	skipStart := r.Remaining()
	skipReader := r.Clone()
	if err := q.descr.Skip(skipReader); err != nil {
		return fmt.Errorf("query: skip response for %q: %w", q.name, err)
	}
	if !skipReader.AtEnd() {
		return fmt.Errorf("query: %q response left %d of %d bytes unconsumed (corrupt session)",
			q.name, skipReader.Remaining(), skipStart)
	}

	value, err := q.descr.Fetch(r)
	if err != nil {
		return fmt.Errorf("query: fetch response for %q: %w", q.name, err)
	}
	if !r.AtEnd() {
		return fmt.Errorf("query: %q fetch did not consume the whole buffer", q.name)
	}

	q.client.RemoveConnectionStatusObserver(q)
	q.hooks.onAnswer(value)

	q.clearTimersLocked()
	q.userAgent.RemoveActiveQuery(q)
	return nil
}

// HandleError classifies and reacts to a server or local error, the
// query::handle_error counterpart. It implements the §4.5 table exactly.
func (q *Query) HandleError(code int, text string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handleErrorLocked(code, text)
}

func (q *Query) handleErrorLocked(code int, text string) {
	q.clearTimersLocked()
	if q.msgID != 0 {
		q.userAgent.RemoveActiveQuery(q)
	}

	retryAfter := 0
	shouldRetry := false
	handled := false

	switch code {
	case 303:
		log.Noticef("trying to handle migration error of %s", text)
		if newDC := dcFromMigration(text); newDC > 0 && newDC < env.MaxDCNum {
			q.userAgent.SetActiveDC(newDC)
			client := q.userAgent.ActiveClient()
			if !client.IsAuthorized() {
				client.RestartAuthorization()
			}
			q.ackReceived = false
			q.sessionID = 0
			if q.client != nil {
				q.client.RemoveConnectionStatusObserver(q)
			}
			q.client = client
			q.client.AddConnectionStatusObserver(q)
			if q.hooks.shouldRetryAfterRecoverFromError() || q.isLogin() {
				shouldRetry = true
			}
			handled = true
		}
	case 400:
		// bad user input, nothing to handle locally
	case 401:
		switch text {
		case "SESSION_PASSWORD_NEEDED":
			handled = q.handleSessionPasswordNeededLocked(&shouldRetry)
		case "AUTH_KEY_UNREGISTERED", "AUTH_KEY_INVALID":
			q.userAgent.SetClientLoggedOut(q.client, true)
			q.userAgent.Login()
			if q.hooks.shouldRetryAfterRecoverFromError() {
				shouldRetry = true
			}
			handled = true
		case "AUTH_KEY_PERM_EMPTY":
			q.client.RestartTempAuthorization()
			if q.hooks.shouldRetryAfterRecoverFromError() {
				shouldRetry = true
			}
			handled = true
		}
	case 403, 404:
		// privacy violation / not found: surfaced verbatim
	default: // 420, 500, and anything else
		if _, ok := intFromPrefixedString(text, "FLOOD_WAIT_"); !ok && code == 420 {
			log.Errorf("error 420: %s", text)
		}
		retryAfter = floodWaitSeconds(text)
		q.ackReceived = false
		if q.hooks.shouldRetryAfterRecoverFromError() {
			shouldRetry = true
		}
		if !q.client.IsConfigured() && !q.isForce() {
			q.sessionID = 0
		}
		handled = true
	}

	if shouldRetry {
		q.retryWithinLocked(time.Duration(retryAfter) * time.Second)
	}

	if handled {
		log.Noticef("error for query #%d error:%d %s (HANDLED)", q.msgID, code, text)
		return
	}

	if q.client != nil {
		q.client.RemoveConnectionStatusObserver(q)
	}
	q.hooks.onError(code, text)
}

// handleSessionPasswordNeededLocked is query::handle_session_password_needed.
func (q *Query) handleSessionPasswordNeededLocked(shouldRetry *bool) bool {
	q.userAgent.SetDCLoggedIn(q.userAgent.ActiveClient().ID(), false)
	*shouldRetry = true

	if q.userAgent.IsPasswordLocked() {
		return true
	}
	q.userAgent.SetPasswordLocked(true)

	ua := q.userAgent
	ua.CheckPassword(func(success bool) {
		if !success {
			return
		}
		ua.SetDCLoggedIn(ua.ActiveClient().ID(), true)
		// No users.getFullUser(self) probe is sent after the unlock;
		// calls.GetFullUserSelf builds that query, but nothing here
		// issues it.
	})
	return true
}

// retryWithinLocked registers the Query in UserAgent's retry set and (re)
// arms the retry timer, the query::retry_within counterpart.
func (q *Query) retryWithinLocked(d time.Duration) {
	q.userAgent.AddRetryQuery(q)

	if q.retryTimer == nil {
		q.retryTimer = q.userAgent.TimerFactory().CreateTimer(func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			q.userAgent.RemoveRetryQuery(q)
			q.alarmLocked()
		})
	}
	q.retryTimer.Start(d)
}

// timeoutWithinLocked (re)arms the timeout timer, the query::timeout_within
// counterpart.
func (q *Query) timeoutWithinLocked(d time.Duration) {
	if q.timer == nil {
		q.timer = q.userAgent.TimerFactory().CreateTimer(func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			q.timeoutAlarmLocked()
		})
	}
	q.timer.Start(d)
}

// checkLoggingOutLocked is query::check_logging_out.
func (q *Query) checkLoggingOutLocked() bool {
	if q.client.IsLoggingOut() {
		if !q.isForce() && !q.isLogout() {
			if q.client != nil {
				q.client.RemoveConnectionStatusObserver(q)
			}
			q.hooks.onError(600, "LOGGING_OUT")
			return false
		}
	}
	return true
}

// checkPendingLocked is query::check_pending.
func (q *Query) checkPendingLocked(transferAuth bool) bool {
	pending := false

	if _, ok := q.client.SessionID(); !ok {
		pending = true
		q.client.EnsureSession()
	}
	if q.client.Status() != StatusConnected {
		pending = true
	}
	if !q.client.IsConfigured() && !q.isForce() {
		pending = true
	}
	if !q.client.IsLoggedIn() && !q.isLogin() && !q.isForce() {
		pending = true
		if transferAuth && q.client != q.userAgent.ActiveClient() {
			q.client.TransferAuthToMe()
		}
	}

	if pending {
		q.hooks.willBePending()
		q.client.AddPendingQuery(q)
		log.Debugf("added query #%d (type %q) to pending list", q.msgID, q.name)
		return false
	}
	return true
}

// timeoutInterval is timeout_interval(): env.FileTransferTimeout for file
// transfers, env.DefaultTimeout for every other call. Hooks has no
// per-call override for it.
func (q *Query) timeoutInterval() time.Duration {
	if q.isFileTransfer() {
		return env.FileTransferTimeout
	}
	return env.DefaultTimeout
}
