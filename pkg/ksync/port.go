package ksync

import "github.com/Weheineman/nachOS/pkg/kernel"

// Port is a single-slot synchronous rendezvous: a Send does not return
// until a Receive has consumed its message, and a Receive does not
// return until a matching Send has populated the slot.
type Port struct {
	Name string

	lock              *Lock
	senderCond        *Condition // producers wait here while the slot is full
	receiverCond      *Condition // consumers wait here while the slot is empty
	senderBlockerCond *Condition // the sender waits here until its message is taken

	full  bool
	taken bool
	msg   int
}

// NewPort constructs an empty port.
func NewPort(name string, sched *kernel.Scheduler) *Port {
	p := &Port{Name: name}
	p.lock = NewLock(name+".lock", sched)
	p.senderCond = NewCondition(name+".sender", sched, p.lock)
	p.receiverCond = NewCondition(name+".receiver", sched, p.lock)
	p.senderBlockerCond = NewCondition(name+".senderBlocker", sched, p.lock)
	return p
}

// Send blocks until a Receive call consumes value.
func (p *Port) Send(self *kernel.Thread, value int) {
	p.lock.Acquire(self)
	for p.full {
		p.senderCond.Wait(self)
	}
	p.msg = value
	p.full = true
	p.taken = false
	p.receiverCond.Signal(self)
	for !p.taken {
		p.senderBlockerCond.Wait(self)
	}
	p.lock.Release(self)
}

// Receive blocks until a Send call populates the slot, returning its value.
func (p *Port) Receive(self *kernel.Thread) int {
	p.lock.Acquire(self)
	for !p.full {
		p.receiverCond.Wait(self)
	}
	v := p.msg
	p.full = false
	p.taken = true
	p.senderBlockerCond.Signal(self)
	p.senderCond.Signal(self)
	p.lock.Release(self)
	return v
}
