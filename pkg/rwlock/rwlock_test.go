package rwlock

import (
	"testing"

	"github.com/Weheineman/nachOS/pkg/kernel"
)

func TestMultipleReadersConcurrent(t *testing.T) {
	sched := kernel.NewScheduler(2)
	self := sched.MainThread()
	rw := New("test", sched)

	rw.AcquireRead(self)
	if got := rw.Readers(self); got != 1 {
		t.Fatalf("Readers() = %d, want 1", got)
	}

	reader2 := sched.Fork("reader2", 1, true, func(any) {
		me := sched.CurrentThread()
		rw.AcquireRead(me)
		rw.ReleaseRead(me)
	}, nil)

	// AcquireRead never blocks on other readers, so reader2 completes
	// without needing self to release first.
	sched.Join(self, reader2)
	if got := rw.Readers(self); got != 1 {
		t.Fatalf("Readers() after reader2 finished = %d, want 1 (self's own read lock)", got)
	}

	rw.ReleaseRead(self)
	if got := rw.Readers(self); got != 0 {
		t.Errorf("Readers() after final ReleaseRead = %d, want 0", got)
	}
}

func TestWriterWaitsForReaders(t *testing.T) {
	sched := kernel.NewScheduler(3)
	self := sched.MainThread()
	rw := New("test", sched)

	rw.AcquireRead(self)

	var wrote bool
	writer := sched.Fork("writer", 2, true, func(any) {
		me := sched.CurrentThread()
		rw.AcquireWrite(me)
		wrote = true
		rw.ReleaseWrite(me)
	}, nil)

	// Let the writer block behind self's read lock.
	sched.Yield(self)
	if wrote {
		t.Fatal("writer proceeded while a reader was still active")
	}

	rw.ReleaseRead(self)
	sched.Join(self, writer)

	if !wrote {
		t.Error("writer never ran after the last reader released")
	}
}
