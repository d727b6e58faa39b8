// Package ksync implements the kernel's synchronization primitive
// family: counting semaphore, ownership-tracking Lock with priority
// donation, Mesa-semantics Condition, and the single-slot synchronous
// Port.
//
// Every primitive brackets its critical section with the owning
// kernel.Scheduler's interrupt Gate, the same way a real kernel disables
// and restores the machine's interrupt level around each operation.
package ksync

import (
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/log"
)

// Semaphore is a counting semaphore: value >= 0 plus a FIFO wait queue.
// P blocks while value == 0; V increments and wakes one waiter.
type Semaphore struct {
	Name string

	sched     *kernel.Scheduler
	value     int
	waitQueue []*kernel.Thread
}

// NewSemaphore constructs a semaphore with the given initial value.
func NewSemaphore(name string, initial int, sched *kernel.Scheduler) *Semaphore {
	log.Assert(initial >= 0, "ksync: semaphore %s initial value %d < 0", name, initial)
	return &Semaphore{Name: name, sched: sched, value: initial}
}

// P waits until value > 0, then decrements it. self must be the thread
// currently running on sched.
func (s *Semaphore) P(self *kernel.Thread) {
	old := s.sched.Gate().SetLevel(kernel.Disabled)
	for s.value == 0 {
		s.waitQueue = append(s.waitQueue, self)
		s.sched.Sleep(self)
	}
	s.value--
	s.sched.Gate().SetLevel(old)
}

// V increments value and wakes the oldest waiter, if any (FIFO).
func (s *Semaphore) V() {
	old := s.sched.Gate().SetLevel(kernel.Disabled)
	if len(s.waitQueue) > 0 {
		t := s.waitQueue[0]
		s.waitQueue = s.waitQueue[1:]
		s.sched.ReadyThread(t)
	}
	s.value++
	s.sched.Gate().SetLevel(old)
}

// Value returns the current count; for tests and debug logging only.
func (s *Semaphore) Value() int {
	old := s.sched.Gate().SetLevel(kernel.Disabled)
	v := s.value
	s.sched.Gate().SetLevel(old)
	return v
}
