package fs

import (
	"fmt"

	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/ksync"
	"github.com/Weheineman/nachOS/pkg/log"
	"github.com/Weheineman/nachOS/pkg/rwlock"
)

// dirLockNode is one entry of the directory lock manager: a
// reader/writer lock keyed by sector plus a reference count.
type dirLockNode struct {
	lock     *rwlock.RWLock
	useCount int
}

// DirLockManager maps disk sector to reader/writer lock, with lazy
// creation and destruction. The manager mutex covers only list lookup
// and use-count bookkeeping; the R/W acquire itself happens outside the
// manager mutex, so unrelated sectors never serialize behind each other.
type DirLockManager struct {
	sched *kernel.Scheduler
	mu    *ksync.Lock
	nodes map[int]*dirLockNode
}

// NewDirLockManager constructs an empty manager.
func NewDirLockManager(sched *kernel.Scheduler) *DirLockManager {
	return &DirLockManager{
		sched: sched,
		mu:    ksync.NewLock("dirlockmgr", sched),
		nodes: make(map[int]*dirLockNode),
	}
}

func (m *DirLockManager) ref(self *kernel.Thread, sector int) *dirLockNode {
	m.mu.Acquire(self)
	node, ok := m.nodes[sector]
	if !ok {
		node = &dirLockNode{lock: rwlock.New(fmt.Sprintf("dir[%d]", sector), m.sched)}
		m.nodes[sector] = node
	}
	node.useCount++
	m.mu.Release(self)
	return node
}

// unref decrements sector's use-count and deletes the node at zero,
// returning the (possibly now unlisted) node so the caller can still
// release the R/W lock it is holding. A later Acquire on the same
// sector creates a fresh node; that is correct because this in-flight
// Release keeps no reference into the map.
func (m *DirLockManager) unref(self *kernel.Thread, sector int) *dirLockNode {
	m.mu.Acquire(self)
	node := m.nodes[sector]
	log.Assert(node != nil, "fs: dirlock release on unknown sector %d", sector)
	node.useCount--
	if node.useCount == 0 {
		delete(m.nodes, sector)
	}
	m.mu.Release(self)
	return node
}

// AcquireRead takes a read lock on sector's directory.
func (m *DirLockManager) AcquireRead(self *kernel.Thread, sector int) {
	m.ref(self, sector).lock.AcquireRead(self)
}

// ReleaseRead releases a previously taken read lock.
func (m *DirLockManager) ReleaseRead(self *kernel.Thread, sector int) {
	m.unref(self, sector).lock.ReleaseRead(self)
}

// AcquireWrite takes a write lock on sector's directory.
func (m *DirLockManager) AcquireWrite(self *kernel.Thread, sector int) {
	m.ref(self, sector).lock.AcquireWrite(self)
}

// ReleaseWrite releases a previously taken write lock.
func (m *DirLockManager) ReleaseWrite(self *kernel.Thread, sector int) {
	m.unref(self, sector).lock.ReleaseWrite(self)
}
