package ksync

import (
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/log"
)

// Condition is a Mesa-semantics condition variable bound to a Lock. Wait
// atomically releases the lock, sleeps, and reacquires on wake; each
// waiter parks on its own private semaphore so a Signal hands off to
// exactly one waiter with no lost wakeup.
type Condition struct {
	Name string

	sched     *kernel.Scheduler
	lock      *Lock
	waitQueue []*Semaphore
}

// NewCondition binds a new condition variable to lock.
func NewCondition(name string, sched *kernel.Scheduler, lock *Lock) *Condition {
	return &Condition{Name: name, sched: sched, lock: lock}
}

// Wait requires the bound lock to be held by self on entry.
func (c *Condition) Wait(self *kernel.Thread) {
	log.Assert(c.lock.IsHeldByCurrentThread(self), "ksync: %s: Wait without holding bound lock", c.Name)
	priv := NewSemaphore(c.Name+".waiter", 0, c.sched)

	old := c.sched.Gate().SetLevel(kernel.Disabled)
	c.waitQueue = append(c.waitQueue, priv)
	c.sched.Gate().SetLevel(old)

	c.lock.Release(self)
	priv.P(self)
	c.lock.Acquire(self)
}

// Signal wakes the oldest waiter, if any. Requires the bound lock held.
func (c *Condition) Signal(self *kernel.Thread) {
	log.Assert(c.lock.IsHeldByCurrentThread(self), "ksync: %s: Signal without holding bound lock", c.Name)
	old := c.sched.Gate().SetLevel(kernel.Disabled)
	var priv *Semaphore
	if len(c.waitQueue) > 0 {
		priv = c.waitQueue[0]
		c.waitQueue = c.waitQueue[1:]
	}
	c.sched.Gate().SetLevel(old)
	if priv != nil {
		priv.V()
	}
}

// Broadcast wakes every waiter. Requires the bound lock held.
func (c *Condition) Broadcast(self *kernel.Thread) {
	log.Assert(c.lock.IsHeldByCurrentThread(self), "ksync: %s: Broadcast without holding bound lock", c.Name)
	old := c.sched.Gate().SetLevel(kernel.Disabled)
	waiters := c.waitQueue
	c.waitQueue = nil
	c.sched.Gate().SetLevel(old)
	for _, priv := range waiters {
		priv.V()
	}
}
