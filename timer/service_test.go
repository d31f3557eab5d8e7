package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerFiresOnce(t *testing.T) {
	svc := NewService(1)
	defer svc.Close()

	var fired int32
	tm := svc.NewTimer(func() { atomic.AddInt32(&fired, 1) })
	tm.Start(10 * time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("expected timer to fire exactly once, fired %d times", got)
	}
}

func TestTimerStopCancelsPendingFire(t *testing.T) {
	svc := NewService(1)
	defer svc.Close()

	var fired int32
	tm := svc.NewTimer(func() { atomic.AddInt32(&fired, 1) })
	tm.Start(20 * time.Millisecond)
	tm.Stop()

	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Fatalf("expected stopped timer not to fire, fired %d times", got)
	}
}

func TestTimerRestartSupersedesPreviousArming(t *testing.T) {
	svc := NewService(1)
	defer svc.Close()

	var fired int32
	tm := svc.NewTimer(func() { atomic.AddInt32(&fired, 1) })
	tm.Start(10 * time.Millisecond)
	tm.Start(10 * time.Millisecond) // restart before first fires: ack() semantics

	time.Sleep(60 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("expected exactly one fire after restart, got %d", got)
	}
}

func TestServiceRun(t *testing.T) {
	svc := NewService(2)
	defer svc.Close()

	done := make(chan struct{})
	svc.Run(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run callback never executed")
	}
}
