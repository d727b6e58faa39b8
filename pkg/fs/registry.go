package fs

import (
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/ksync"
	"github.com/Weheineman/nachOS/pkg/log"
	"github.com/Weheineman/nachOS/pkg/rwlock"
)

// openFileNode tracks one name's currently-open state.
type openFileNode struct {
	lock          *rwlock.RWLock
	openCount     int
	pendingRemove bool
}

// deleteFromDisk is the capability Remove uses to actually free a
// file's on-disk resources once its last handle closes. Passing it in
// rather than having the registry call back into the facade breaks
// what would otherwise be an fs<->registry import cycle.
type deleteFromDisk func(self *kernel.Thread, name string) error

// OpenFileRegistry hands out one shared reader/writer lock per open
// name, and defers on-disk deletion of a Remove'd file until its last
// handle closes.
type OpenFileRegistry struct {
	sched   *kernel.Scheduler
	mu      *ksync.Lock
	nodes   map[string]*openFileNode
	delete_ deleteFromDisk
}

// NewOpenFileRegistry constructs an empty registry; deleter performs
// the actual on-disk delete by name once it is safe to do so.
func NewOpenFileRegistry(sched *kernel.Scheduler, deleter deleteFromDisk) *OpenFileRegistry {
	return &OpenFileRegistry{
		sched:   sched,
		mu:      ksync.NewLock("openfileregistry", sched),
		nodes:   make(map[string]*openFileNode),
		delete_: deleter,
	}
}

// AddOpenFile registers a new open handle on name, returning the
// shared R/W lock and true, or (nil, false) if name is pending removal.
func (r *OpenFileRegistry) AddOpenFile(self *kernel.Thread, name string) (*rwlock.RWLock, bool) {
	r.mu.Acquire(self)
	defer r.mu.Release(self)

	node, ok := r.nodes[name]
	if ok {
		if node.pendingRemove {
			return nil, false
		}
		node.openCount++
		return node.lock, true
	}

	node = &openFileNode{lock: rwlock.New("openfile:"+name, r.sched), openCount: 1}
	r.nodes[name] = node
	return node.lock, true
}

// CloseOpenFile decrements name's open count; at zero, if the node was
// pending removal, it deletes the file from disk and drops the node.
func (r *OpenFileRegistry) CloseOpenFile(self *kernel.Thread, name string) {
	r.mu.Acquire(self)
	node := r.nodes[name]
	log.Assert(node != nil, "fs: CloseOpenFile on unregistered name %q", name)

	node.openCount--
	if node.openCount > 0 {
		r.mu.Release(self)
		return
	}

	pending := node.pendingRemove
	delete(r.nodes, name)
	r.mu.Release(self)

	if pending {
		if err := r.delete_(self, name); err != nil {
			log.Warningf("fs: deferred delete of %q failed: %v", name, err)
		}
	}
}

// Lock/Unlock expose the registry mutex so Remove can hold it across
// SetUpRemoval, which must be called with the registry mutex already
// held by the caller.
func (r *OpenFileRegistry) Lock(self *kernel.Thread)   { r.mu.Acquire(self) }
func (r *OpenFileRegistry) Unlock(self *kernel.Thread) { r.mu.Release(self) }

// SetUpRemoval marks name pending removal if it is currently open,
// returning true (the caller must defer the on-disk delete) or false
// (no open node exists; the caller deletes immediately). The registry
// mutex must already be held by the caller.
func (r *OpenFileRegistry) SetUpRemoval(name string) bool {
	node, ok := r.nodes[name]
	if !ok {
		return false
	}
	node.pendingRemove = true
	return true
}
