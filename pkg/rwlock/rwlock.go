// Package rwlock implements a many-readers/one-writer lock, built from
// ksync.Lock and ksync.Condition rather than the host's sync.RWMutex: a
// writer holds the internal mutex for the duration of its critical
// section (not just while updating the reader count), which is what
// makes "a reader never blocks unless a writer is currently in the
// critical section" true without a separate writer-active flag —
// AcquireRead simply blocks trying to take the same mutex the writer
// is holding.
//
// This lock does not guarantee writer non-starvation: a steady stream
// of readers can keep a waiting writer parked indefinitely. That is
// accepted for this system, where directory writers are rare.
package rwlock

import "github.com/Weheineman/nachOS/pkg/kernel"
import "github.com/Weheineman/nachOS/pkg/ksync"

// RWLock is a reader/writer lock.
type RWLock struct {
	Name string

	mutex     *ksync.Lock
	noReaders *ksync.Condition
	readers   int
}

// New constructs an unheld reader/writer lock.
func New(name string, sched *kernel.Scheduler) *RWLock {
	r := &RWLock{Name: name}
	r.mutex = ksync.NewLock(name+".mutex", sched)
	r.noReaders = ksync.NewCondition(name+".noReaders", sched, r.mutex)
	return r
}

// AcquireRead never blocks once the internal mutex is free.
func (r *RWLock) AcquireRead(self *kernel.Thread) {
	r.mutex.Acquire(self)
	r.readers++
	r.mutex.Release(self)
}

// ReleaseRead broadcasts to any waiting writer when the reader count
// reaches zero.
func (r *RWLock) ReleaseRead(self *kernel.Thread) {
	r.mutex.Acquire(self)
	r.readers--
	if r.readers == 0 {
		r.noReaders.Broadcast(self)
	}
	r.mutex.Release(self)
}

// AcquireWrite blocks until no readers are active, then holds the
// internal mutex for the remainder of the caller's write critical
// section — the caller must call ReleaseWrite when done.
func (r *RWLock) AcquireWrite(self *kernel.Thread) {
	r.mutex.Acquire(self)
	for r.readers > 0 {
		r.noReaders.Wait(self)
	}
}

// ReleaseWrite ends the write critical section begun by AcquireWrite.
func (r *RWLock) ReleaseWrite(self *kernel.Thread) {
	r.noReaders.Signal(self)
	r.mutex.Release(self)
}

// Readers reports the current active-reader count; for tests only.
func (r *RWLock) Readers(self *kernel.Thread) int {
	r.mutex.Acquire(self)
	n := r.readers
	r.mutex.Release(self)
	return n
}
