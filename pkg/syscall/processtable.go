package syscall

import (
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/ksync"
)

// ProcessTable assigns each Exec'd thread a spaceId, and is how Join
// finds the thread to wait on.
type ProcessTable struct {
	mu      *ksync.Lock
	next    int
	threads map[int]*kernel.Thread
}

// NewProcessTable constructs an empty table; ids start at 1 (0 is
// reserved to mean "no process" in Exec's failure return).
func NewProcessTable(sched *kernel.Scheduler) *ProcessTable {
	return &ProcessTable{mu: ksync.NewLock("processtable", sched), next: 1, threads: make(map[int]*kernel.Thread)}
}

// Register assigns t a fresh spaceId and records it.
func (p *ProcessTable) Register(self *kernel.Thread, t *kernel.Thread) int {
	p.mu.Acquire(self)
	defer p.mu.Release(self)
	id := p.next
	p.next++
	p.threads[id] = t
	t.SetSpaceID(id)
	return id
}

// Lookup returns the thread registered under id, if any.
func (p *ProcessTable) Lookup(self *kernel.Thread, id int) (*kernel.Thread, bool) {
	p.mu.Acquire(self)
	defer p.mu.Release(self)
	t, ok := p.threads[id]
	return t, ok
}
