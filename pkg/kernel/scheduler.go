package kernel

import "github.com/Weheineman/nachOS/pkg/log"

// Scheduler owns the ready queues, the currently running thread, and the
// dispatch logic. Priority P-1 is highest, 0 is lowest: a donation always
// moves a thread toward the tail of a *higher-numbered* queue.
//
// The classic stack-splice SWITCH is replaced by a per-thread goroutine
// gated on a resume channel (see thread.go's package doc); the interrupt
// Gate plays the role of a single global interrupt level and is
// deliberately non-reentrant, modeling a process-wide two-state resource.
type Scheduler struct {
	gate          *Gate
	numPriorities int
	queues        [][]*Thread
	current       *Thread
	mainThread    *Thread
	toDestroy     *Thread
	wakeupCh      chan struct{}
}

// NewScheduler constructs a scheduler with a single Running thread (the
// caller's own goroutine, conventionally called "main") and P empty ready
// queues.
func NewScheduler(numPriorities int) *Scheduler {
	log.Assert(numPriorities > 0, "kernel: numPriorities must be positive")
	s := &Scheduler{
		gate:          NewGate(),
		numPriorities: numPriorities,
		queues:        make([][]*Thread, numPriorities),
		wakeupCh:      make(chan struct{}),
	}
	main := &Thread{
		Name:         "main",
		priority:     numPriorities - 1,
		origPriority: numPriorities - 1,
		status:       Running,
		resumeCh:     make(chan struct{}, 1),
		sched:        s,
	}
	s.current = main
	s.mainThread = main
	return s
}

// MainThread returns the bootstrap thread created by NewScheduler.
func (s *Scheduler) MainThread() *Thread { return s.mainThread }

// CurrentThread returns the thread the caller is running as. Only safe to
// call from that thread's own goroutine, which is the only caller pattern
// the kernel ever uses.
func (s *Scheduler) CurrentThread() *Thread { return s.current }

// NumPriorities returns P.
func (s *Scheduler) NumPriorities() int { return s.numPriorities }

// Fork creates a new Ready thread whose first dispatch runs fn(arg) and,
// on return, calls Finish with exit status 0.
func (s *Scheduler) Fork(name string, priority int, joinable bool, fn func(arg any), arg any) *Thread {
	log.Assert(priority >= 0 && priority < s.numPriorities, "kernel: Fork priority %d out of range", priority)
	t := &Thread{
		Name:         name,
		priority:     priority,
		origPriority: priority,
		status:       JustCreated,
		joinable:     joinable,
		resumeCh:     make(chan struct{}, 1),
		fn:           fn,
		arg:          arg,
		sched:        s,
	}
	go s.runThread(t)
	old := s.gate.SetLevel(Disabled)
	t.status = Ready
	s.enqueueTail(t)
	s.gate.SetLevel(old)
	return t
}

func (s *Scheduler) runThread(t *Thread) {
	<-t.resumeCh
	t.fn(t.arg)
	s.Finish(t, 0)
	log.Assertf("kernel: %s resumed after Finish", t.Name)
}

// Yield relinquishes the CPU if another thread is Ready, placing the
// caller at the tail of its own priority queue.
func (s *Scheduler) Yield(self *Thread) {
	old := s.gate.SetLevel(Disabled)
	log.Assert(s.current == self, "kernel: Yield called by non-current thread")
	next := s.dequeueHighest()
	if next == nil {
		s.gate.SetLevel(old)
		return
	}
	self.status = Ready
	s.enqueueTail(self)
	s.switchTo(next)
	s.park(self)
	s.gate.SetLevel(old)
}

// Sleep relinquishes the CPU without enqueueing the caller anywhere; the
// caller must already have recorded self on whatever wait set will later
// call ReadyThread to wake it. Sleep must be called with interrupts
// already disabled and returns with interrupts disabled.
func (s *Scheduler) Sleep(self *Thread) {
	log.Assert(s.gate.Level() == Disabled, "kernel: Sleep called with interrupts enabled")
	log.Assert(s.current == self, "kernel: Sleep called by non-current thread")
	self.status = Blocked
	next := s.pickNextOrIdle()
	s.switchTo(next)
	s.park(self)
}

// ReadyThread moves a Blocked thread back onto its priority's ready
// queue. Used by Semaphore.V, Condition.Signal/Broadcast, Port, and by
// device-completion callbacks (disk, console). Like the classic
// Scheduler::ReadyToRun, it assumes interrupts are already disabled by
// the caller.
func (s *Scheduler) ReadyThread(t *Thread) {
	log.Assert(s.gate.Level() == Disabled, "kernel: ReadyThread called with interrupts enabled")
	log.Assert(t.status != Running, "kernel: ReadyThread on the running thread")
	t.status = Ready
	s.enqueueTail(t)
}

// Finish marks self for destruction, wakes any joiner, and dispatches
// away. It never returns: a thread cannot resume after finishing itself.
func (s *Scheduler) Finish(self *Thread, status int) {
	// Closing files takes registry locks, which bracket the gate
	// themselves, so it must happen before interrupts are disabled here.
	if self.files != nil {
		self.files.CloseAll(self)
	}
	s.gate.SetLevel(Disabled) // never restored: this thread never runs again
	log.Assert(s.current == self, "kernel: Finish called by non-current thread")
	self.exitStatus = status
	self.finished = true
	if self.joiner != nil {
		j := self.joiner
		self.joiner = nil
		j.joinResult = status
		j.status = Ready
		s.enqueueTail(j)
	}
	self.status = Blocked
	s.toDestroy = self
	next := s.pickNextOrIdle()
	s.switchToAfterFinish(next)
	<-self.resumeCh // nothing ever dispatches a finished thread again
	log.Assertf("kernel: finished thread %s was resumed", self.Name)
}

// Join blocks the caller until target calls Finish, returning target's
// exit status. target must have been Forked with joinable=true.
func (s *Scheduler) Join(self, target *Thread) int {
	log.Assert(target.joinable, "kernel: Join on a non-joinable thread")
	old := s.gate.SetLevel(Disabled)
	log.Assert(target.joiner == nil, "kernel: Join called twice on the same thread")
	if target.finished {
		status := target.exitStatus
		s.gate.SetLevel(old)
		return status
	}
	target.joiner = self
	self.status = Blocked
	next := s.pickNextOrIdle()
	s.switchTo(next)
	s.park(self)
	status := self.joinResult
	s.gate.SetLevel(old)
	return status
}

// Donate raises t's priority to newPrio if that is higher than t's
// current priority, moving t within its ready queue if it is Ready. This
// implements priority donation: it does not touch the gate at all (it
// only asserts that interrupts are already disabled), so it is safe to
// call from Lock.Acquire, which already holds interrupts disabled.
func (s *Scheduler) Donate(t *Thread, newPrio int) {
	log.Assert(s.gate.Level() == Disabled, "kernel: Donate called with interrupts enabled")
	if newPrio <= t.priority {
		return
	}
	if t.status == Ready {
		s.removeFromQueue(t)
		t.setPriority(newPrio)
		s.enqueueTail(t)
	} else {
		t.setPriority(newPrio)
	}
}

// Restore resets t's priority to orig, undoing a prior Donate; called by
// Lock.Release once the releasing thread no longer needs the boost.
func (s *Scheduler) Restore(t *Thread, orig int) {
	log.Assert(s.gate.Level() == Disabled, "kernel: Restore called with interrupts enabled")
	if t.priority == orig {
		return
	}
	if t.status == Ready {
		s.removeFromQueue(t)
		t.setPriority(orig)
		s.enqueueTail(t)
	} else {
		t.setPriority(orig)
	}
}

// Gate exposes the scheduler's interrupt gate so sync primitives (which
// live in pkg/ksync, outside this package) can bracket their own
// critical sections the way P/V/Acquire/Release do.
func (s *Scheduler) Gate() *Gate { return s.gate }

// --- internal queue and switch machinery ---

func (s *Scheduler) enqueueTail(t *Thread) {
	p := t.priority
	s.queues[p] = append(s.queues[p], t)
	close(s.wakeupCh)
	s.wakeupCh = make(chan struct{})
}

func (s *Scheduler) removeFromQueue(t *Thread) {
	q := s.queues[t.priority]
	for i, cand := range q {
		if cand == t {
			s.queues[t.priority] = append(q[:i], q[i+1:]...)
			return
		}
	}
}

// dequeueHighest implements FindNextToRun: the head of the highest
// non-empty priority queue, or nil if all queues are empty.
func (s *Scheduler) dequeueHighest() *Thread {
	for p := s.numPriorities - 1; p >= 0; p-- {
		q := s.queues[p]
		if len(q) > 0 {
			t := q[0]
			s.queues[p] = q[1:]
			return t
		}
	}
	return nil
}

// pickNextOrIdle is FindNextToRun plus an idle-until-next-device-interrupt
// fallback: it blocks, with interrupts momentarily re-enabled, until some
// other goroutine (an interrupt handler or another thread) makes a
// thread Ready.
func (s *Scheduler) pickNextOrIdle() *Thread {
	for {
		if t := s.dequeueHighest(); t != nil {
			return t
		}
		ch := s.wakeupCh
		s.gate.SetLevel(Enabled)
		<-ch
		s.gate.SetLevel(Disabled)
	}
}

// switchTo hands control to next, destroying whatever the previous
// Finish scheduled first (the dispatcher's threadToBeDestroyed check).
// Must be called with interrupts disabled; leaves them enabled until the
// caller parks or otherwise re-disables.
func (s *Scheduler) switchTo(next *Thread) {
	s.reapDestroyed()
	s.handOff(next)
}

// switchToAfterFinish is switchTo without reaping: the just-finished
// thread is destroyed on the *next* dispatch, not this one, because this
// call is still executing on that thread's own goroutine stack frame.
func (s *Scheduler) switchToAfterFinish(next *Thread) {
	s.handOff(next)
}

func (s *Scheduler) reapDestroyed() {
	if s.toDestroy != nil {
		d := s.toDestroy
		s.toDestroy = nil
		s.destroy(d)
	}
}

func (s *Scheduler) handOff(next *Thread) {
	prev := s.current
	next.status = Running
	s.current = next
	if prev != nil && prev.space != nil {
		prev.space.SaveState()
	}
	if next.space != nil {
		next.space.RestoreState()
	}
	s.gate.SetLevel(Enabled)
	next.resumeCh <- struct{}{}
}

// park blocks the calling thread until it is redispatched, then restores
// interrupts to Disabled so Sleep/Yield return under the same discipline
// they were entered with.
func (s *Scheduler) park(self *Thread) {
	<-self.resumeCh
	s.gate.SetLevel(Disabled)
}

func (s *Scheduler) destroy(t *Thread) {
	log.Debugf("kernel: destroying thread %s", t.Name)
}
