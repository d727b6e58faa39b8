package vm

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/Weheineman/nachOS/pkg/config"
	"github.com/Weheineman/nachOS/pkg/fs"
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/ksync"
)

// CoreMap is the physical-frame table: a free bitmap plus, per frame,
// the owning address space and the virtual page it backs. When demand
// loading runs out of frames it picks a victim under either FIFO or
// LRU and evicts it through the owner.
type CoreMap struct {
	mu *ksync.Lock

	// fillSem is a weighted semaphore sized to the physical frame
	// budget and held for the whole of each ReservePage call (frame
	// choice and any eviction), as is mu. The executable or swap-file
	// read that fills the reserved frame runs after ReservePage returns
	// and is covered by neither.
	fillSem *semaphore.Weighted

	mem      *PhysicalMemory
	policy   config.ReplacementPolicy
	canEvict bool

	bitmap *fs.BitMap
	owners []*AddressSpace
	pages  []int
	idle   []int

	fifoCursor int
}

// NewCoreMap constructs a core map over numPhysPages frames. canEvict
// must be true only when the build's memory policy provisions a swap
// file; under plain Lazy there is nowhere to evict to, and running out
// of frames is a resource-exhaustion error instead.
func NewCoreMap(sched *kernel.Scheduler, mem *PhysicalMemory, numPhysPages int, policy config.ReplacementPolicy, canEvict bool) *CoreMap {
	return &CoreMap{
		mu:       ksync.NewLock("coremap", sched),
		fillSem:  semaphore.NewWeighted(int64(numPhysPages)),
		mem:      mem,
		policy:   policy,
		canEvict: canEvict,
		bitmap:   fs.NewBitMap(numPhysPages),
		owners:   make([]*AddressSpace, numPhysPages),
		pages:    make([]int, numPhysPages),
		idle:     make([]int, numPhysPages),
	}
}

// ReservePage hands virtualPage of owner a physical frame, evicting a
// victim if the bitmap is full and canEvict.
func (c *CoreMap) ReservePage(self *kernel.Thread, owner *AddressSpace, virtualPage int) (int, error) {
	if err := c.fillSem.Acquire(context.Background(), 1); err != nil {
		return -1, err
	}
	defer c.fillSem.Release(1)

	c.mu.Acquire(self)
	defer c.mu.Release(self)

	frame := c.bitmap.Find()
	if frame < 0 {
		if !c.canEvict {
			return -1, ErrNoFreeFrame
		}
		victim := c.chooseVictim()
		c.owners[victim].evict(self, victim, c.pages[victim])
		frame = victim
	}

	c.owners[frame] = owner
	c.pages[frame] = virtualPage
	c.idle[frame] = 0
	return frame, nil
}

// Touch resets frame's idle counter on reference, when the policy is LRU.
func (c *CoreMap) Touch(self *kernel.Thread, frame int) {
	if c.policy != config.LRU {
		return
	}
	c.mu.Acquire(self)
	c.idle[frame] = 0
	c.mu.Release(self)
}

// tick ages every frame's idle counter by one; called on every TLB
// fill when the policy is LRU.
func (c *CoreMap) tick(self *kernel.Thread) {
	if c.policy != config.LRU {
		return
	}
	c.mu.Acquire(self)
	for i := range c.idle {
		c.idle[i]++
	}
	c.mu.Release(self)
}

// ReleasePages clears every bitmap slot owned by space.
func (c *CoreMap) ReleasePages(self *kernel.Thread, space *AddressSpace) {
	c.mu.Acquire(self)
	defer c.mu.Release(self)
	for i, o := range c.owners {
		if o == space {
			c.bitmap.Clear(i)
			c.owners[i] = nil
		}
	}
}

// chooseVictim must be called with mu held. FIFO rotates a cursor over
// every frame (all are owned once Find fails); LRU picks the frame
// with the largest idle counter.
func (c *CoreMap) chooseVictim() int {
	if c.policy == config.LRU {
		best := 0
		for i, idle := range c.idle {
			if idle > c.idle[best] {
				best = i
			}
		}
		return best
	}
	victim := c.fifoCursor
	c.fifoCursor = (c.fifoCursor + 1) % len(c.owners)
	return victim
}
