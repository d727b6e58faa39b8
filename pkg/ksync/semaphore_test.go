package ksync

import (
	"testing"

	"github.com/Weheineman/nachOS/pkg/kernel"
)

func TestSemaphorePVRoundTrip(t *testing.T) {
	sched := kernel.NewScheduler(1)
	self := sched.MainThread()
	sem := NewSemaphore("test", 1, sched)

	sem.P(self)
	if got := sem.Value(); got != 0 {
		t.Fatalf("Value() after P = %d, want 0", got)
	}
	sem.V()
	if got := sem.Value(); got != 1 {
		t.Fatalf("Value() after V = %d, want 1", got)
	}
}

func TestSemaphorePBlocksUntilV(t *testing.T) {
	sched := kernel.NewScheduler(2)
	self := sched.MainThread()
	sem := NewSemaphore("test", 0, sched)

	done := make(chan struct{})
	waiter := sched.Fork("waiter", 1, true, func(any) {
		sem.P(sched.CurrentThread())
		close(done)
	}, nil)

	// Let the waiter reach its blocking P() call before checking it
	// hasn't finished.
	sched.Yield(self)
	select {
	case <-done:
		t.Fatal("waiter completed before V()")
	default:
	}

	sem.V()
	sched.Join(self, waiter)

	select {
	case <-done:
	default:
		t.Fatal("waiter did not complete after V()")
	}
}
