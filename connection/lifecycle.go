package connection

// ClosedHandler is a callback invoked when a Connection closes, adapted
// from session.Lifetime in the teacher's session/lifetime.go: same
// register-many/fire-all-on-close shape, generalized from one process-wide
// session registry to per-DC Connection teardown (useragent.Dial registers
// one that logs the DC going away; nothing re-dials).
type ClosedHandler func(*Connection)

type lifetime struct {
	onClosed []ClosedHandler
}

// Lifetime is the container of ClosedHandlers fired by every Connection's
// Close.
var Lifetime = &lifetime{}

// OnClosed registers h to run whenever any Connection closes.
func (lt *lifetime) OnClosed(h ClosedHandler) {
	lt.onClosed = append(lt.onClosed, h)
}

func (lt *lifetime) fireClosed(c *Connection) {
	for _, h := range lt.onClosed {
		h(c)
	}
}
