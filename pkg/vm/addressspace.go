// Package vm implements the user address space: a page table over one
// of three translation strategies (eager, lazy with TLB, lazy with
// swap), its core map of physical frames, and the TLB handler that
// bridges page faults to LoadPage.
package vm

import (
	"github.com/Weheineman/nachOS/pkg/config"
	"github.com/Weheineman/nachOS/pkg/fs"
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/log"
	"github.com/Weheineman/nachOS/pkg/machine"
)

// AddressSpace is a process's page table plus everything needed to
// fill it lazily. It implements kernel.AddressSpace so the scheduler
// can call SaveState/RestoreState across a context switch.
type AddressSpace struct {
	spaceID   int
	numPages  int
	pageSize  int
	pageTable []PTE

	exe    machine.Executable
	header machine.NoffHeader

	policy  config.MemoryPolicy
	mem     *PhysicalMemory
	coreMap *CoreMap
	swap    *SwapFile
	tlb     *TLB
}

// NewAddressSpace reads exe's NOFF header, computes numPages =
// ceil((code+initData+uninitData+stack)/pageSize), and builds the page
// table accordingly. Under config.Eager every page is loaded and
// mapped immediately; otherwise every entry starts "never loaded" and
// LoadPage fills pages on demand.
func NewAddressSpace(self *kernel.Thread, spaceID int, exe machine.Executable, pageSize, userStackPages, tlbSize int, policy config.MemoryPolicy, mem *PhysicalMemory, coreMap *CoreMap, fsys *fs.FileSystem) (*AddressSpace, error) {
	header := exe.Header()
	totalBytes := header.Code.Size + header.InitData.Size + header.UninitData.Size + uint32(userStackPages*pageSize)
	numPages := int((totalBytes + uint32(pageSize) - 1) / uint32(pageSize))

	a := &AddressSpace{
		spaceID:   spaceID,
		numPages:  numPages,
		pageSize:  pageSize,
		pageTable: make([]PTE, numPages),
		exe:       exe,
		header:    header,
		policy:    policy,
		mem:       mem,
		coreMap:   coreMap,
		tlb:       NewTLB(tlbSize),
	}
	for i := range a.pageTable {
		a.pageTable[i] = PTE{VirtualPage: numPages} // never loaded
	}

	if policy == config.Swap {
		swap, err := NewSwapFile(self, fsys, spaceID, pageSize)
		if err != nil {
			return nil, err
		}
		a.swap = swap
	}

	if policy == config.Eager {
		for page := range a.pageTable {
			if err := a.loadFromExecutable(self, page); err != nil {
				return nil, err
			}
		}
	}

	return a, nil
}

// SpaceID returns the process identity this address space belongs to.
func (a *AddressSpace) SpaceID() int { return a.spaceID }

// NumPages returns the page table's size.
func (a *AddressSpace) NumPages() int { return a.numPages }

// PageTableEntry returns a copy of page's current entry, for tests and
// the TLB handler.
func (a *AddressSpace) PageTableEntry(page int) PTE { return a.pageTable[page] }

// LoadPage fills page on demand: "never loaded" pages are read
// from the executable's code/initData segments; "in swap" pages are
// read back from the swap file. A no-op if already loaded.
func (a *AddressSpace) LoadPage(self *kernel.Thread, page int) error {
	entry := a.pageTable[page]
	switch entry.VirtualPage {
	case page:
		return nil
	case a.numPages:
		return a.loadFromExecutable(self, page)
	case a.numPages + 1:
		return a.loadFromSwap(self, page)
	default:
		log.Assertf("vm: page %d has invalid state marker %d", page, entry.VirtualPage)
		return nil
	}
}

func (a *AddressSpace) loadFromExecutable(self *kernel.Thread, page int) error {
	frame, err := a.coreMap.ReservePage(self, a, page)
	if err != nil {
		return err
	}
	a.mem.Zero(frame)
	pageStart, pageEnd := pageRange(page, a.pageSize)
	if err := copySegmentIntoFrame(a.exe, a.header.Code, pageStart, pageEnd, a.mem.Frame(frame)); err != nil {
		return err
	}
	if err := copySegmentIntoFrame(a.exe, a.header.InitData, pageStart, pageEnd, a.mem.Frame(frame)); err != nil {
		return err
	}
	a.pageTable[page] = PTE{VirtualPage: page, PhysicalPage: frame, Valid: true}
	return nil
}

func (a *AddressSpace) loadFromSwap(self *kernel.Thread, page int) error {
	frame, err := a.coreMap.ReservePage(self, a, page)
	if err != nil {
		return err
	}
	a.swap.ReadPage(self, page, a.mem.Frame(frame))
	a.pageTable[page] = PTE{VirtualPage: page, PhysicalPage: frame, Valid: true}
	return nil
}

// evict is the core map's callback when it reclaims one of a's frames:
// write the victim page to swap, zero the frame, mark the entry
// "in swap", and drop any stale TLB mapping of that frame.
func (a *AddressSpace) evict(self *kernel.Thread, frame, victimPage int) {
	if a.policy == config.Swap {
		a.swap.WritePage(self, victimPage, a.mem.Frame(frame))
	}
	a.mem.Zero(frame)
	a.pageTable[victimPage] = PTE{VirtualPage: a.numPages + 1}
	a.tlb.Invalidate(frame)
}

// Translate resolves a virtual address to a physical one, demand
// loading the containing page if needed.
func (a *AddressSpace) Translate(self *kernel.Thread, vaddr uint32) (uint32, error) {
	page := int(vaddr) / a.pageSize
	if page < 0 || page >= a.numPages {
		return 0, ErrTooManyPages
	}
	if a.pageTable[page].VirtualPage != page {
		if err := a.LoadPage(self, page); err != nil {
			return 0, err
		}
	}
	a.coreMap.Touch(self, a.pageTable[page].PhysicalPage)
	offset := vaddr % uint32(a.pageSize)
	return uint32(a.pageTable[page].PhysicalPage)*uint32(a.pageSize) + offset, nil
}

// Destroy releases every frame the address space owns and its swap
// file, if any.
func (a *AddressSpace) Destroy(self *kernel.Thread) error {
	a.coreMap.ReleasePages(self, a)
	if a.swap != nil {
		return a.swap.Close(self)
	}
	return nil
}

// SaveState copies the TLB's use/dirty bits back into the page table,
// so they survive RestoreState clearing the TLB.
func (a *AddressSpace) SaveState() {
	a.tlb.FlushInto(a.pageTable)
}

// RestoreState invalidates every slot of this address space's TLB, so
// it faults its mappings back in after a switch. Each AddressSpace owns
// its own TLB; there is no single TLB shared by all address spaces.
func (a *AddressSpace) RestoreState() {
	a.tlb.InvalidateAll()
}
