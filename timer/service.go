package timer

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/mtprotogo/tgcore/internal/log"
)

// Service is the Timer Service of spec.md §2.1: an opaque factory of
// cancellable one-shot timers. Query uses one Service-backed Timer for its
// timeout and one for its retry alarm (§4.6); both are created lazily and
// reused, matching query::timeout_within / query::retry_within in
// original_source/src/query/query.cpp.
type Service struct {
	sched *timedSched
}

// NewService starts a Service with the given scheduling parallelism,
// mirroring nano's scheduler.NewTimedSched(1) library-level instance.
func NewService(parallel int) *Service {
	if parallel < 1 {
		parallel = 1
	}
	return &Service{sched: newTimedSched(parallel)}
}

// Close stops the underlying scheduler goroutines. Any Timer created from
// this Service becomes inert afterward.
func (s *Service) Close() {
	s.sched.close()
}

func try(f func()) func() {
	return func() {
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("timer task panic: %+v\n%s", err, debug.Stack())
			}
		}()
		f()
	}
}

// Run executes f asynchronously on a scheduler goroutine, for work that
// must not block the caller (e.g. UserAgent.check_password's callback).
func (s *Service) Run(f func()) {
	s.sched.run(try(f))
}

// Timer is a single cancellable one-shot alarm. The zero value is not
// usable; obtain one from Service.NewTimer.
type Timer struct {
	svc *Service
	fn  func()

	mu  sync.Mutex
	gen uint64
}

// NewTimer allocates a Timer bound to this Service. The callback does not
// run until Start is called.
func (s *Service) NewTimer(f func()) *Timer {
	return &Timer{svc: s, fn: f}
}

// Start (re)arms the timer to fire once after d, cancelling any previously
// scheduled, not-yet-fired arming — this is what lets Query re-call
// timeout_within/retry_within repeatedly on the same timer instance
// (ack() resets the timeout; alarm() reschedules the retry).
func (t *Timer) Start(d time.Duration) {
	t.mu.Lock()
	t.gen++
	g := t.gen
	t.mu.Unlock()

	deadline := time.Now().Add(d)
	t.svc.sched.put(try(func() { t.fire(g) }), deadline)
}

// Stop cancels any pending firing. It is idempotent and safe to call on a
// Timer that never fired.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.gen++
	t.mu.Unlock()
}

func (t *Timer) fire(g uint64) {
	t.mu.Lock()
	current := t.gen
	t.mu.Unlock()
	if current != g {
		return // stale: Stop or a later Start happened first
	}
	t.fn()
}
