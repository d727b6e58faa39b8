package ksync

import (
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/log"
)

// Lock is a binary semaphore plus an owner reference, with priority
// donation: a thread blocked waiting for a lower-priority owner to
// release temporarily lends it enough priority to run. owner != nil iff
// the underlying semaphore's value is 0.
type Lock struct {
	Name string

	sched *kernel.Scheduler
	sem   *Semaphore
	owner *kernel.Thread
}

// NewLock constructs an unheld lock.
func NewLock(name string, sched *kernel.Scheduler) *Lock {
	return &Lock{Name: name, sched: sched, sem: NewSemaphore(name+".sem", 1, sched)}
}

// Acquire blocks until the lock is free, then takes ownership. Acquiring
// a lock already held by the caller is a programmer error: this lock
// forbids re-entrance by its owner.
func (l *Lock) Acquire(self *kernel.Thread) {
	old := l.sched.Gate().SetLevel(kernel.Disabled)
	log.Assert(l.owner != self, "ksync: %s: re-entrant Acquire by owner", l.Name)
	if l.owner != nil && self.Priority() > l.owner.Priority() {
		l.sched.Donate(l.owner, self.Priority())
	}
	l.sched.Gate().SetLevel(old)

	l.sem.P(self)

	old = l.sched.Gate().SetLevel(kernel.Disabled)
	l.owner = self
	l.sched.Gate().SetLevel(old)
}

// Release relinquishes ownership, restores the caller's original
// priority if it had been donated up, and wakes the next acquirer.
func (l *Lock) Release(self *kernel.Thread) {
	old := l.sched.Gate().SetLevel(kernel.Disabled)
	log.Assert(l.owner == self, "ksync: %s: Release by non-owner", l.Name)
	l.sched.Restore(self, self.OriginalPriority())
	l.owner = nil
	l.sched.Gate().SetLevel(old)
	l.sem.V()
}

// IsHeldByCurrentThread reports whether self currently owns the lock.
func (l *Lock) IsHeldByCurrentThread(self *kernel.Thread) bool {
	old := l.sched.Gate().SetLevel(kernel.Disabled)
	held := l.owner == self
	l.sched.Gate().SetLevel(old)
	return held
}
