package vm

import (
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/log"
	"github.com/Weheineman/nachOS/pkg/machine"
)

// InstallHandlers registers the page-fault and read-only-write
// handlers on the (single, process-wide) emulator, driving whichever
// thread the scheduler reports as current through the TLB miss path.
// Called once at kernel boot — the single-processor machine model
// means only one thread is ever running against emu at a time.
func InstallHandlers(sched *kernel.Scheduler, emu machine.Emulator, coreMap *CoreMap) {
	emu.RegisterHandler(machine.PageFaultException, func() {
		self := sched.CurrentThread()
		space := self.AddressSpace().(*AddressSpace)
		addr := emu.FaultAddr()
		page := int(addr) / space.pageSize

		if err := space.LoadPage(self, page); err != nil {
			log.Warningf("vm: page fault on thread %s, page %d: %v", self.Name, page, err)
			sched.Finish(self, -1)
			return
		}
		coreMap.tick(self)

		entry := space.pageTable[page]
		old := space.tlb.Install(TLBEntry{
			Valid:        true,
			VirtualPage:  page,
			PhysicalPage: entry.PhysicalPage,
			ReadOnly:     entry.ReadOnly,
		})
		if old.Valid && old.VirtualPage < len(space.pageTable) {
			space.pageTable[old.VirtualPage].Use = old.Use
			space.pageTable[old.VirtualPage].Dirty = old.Dirty
		}
	})

	emu.RegisterHandler(machine.ReadOnlyException, func() {
		self := sched.CurrentThread()
		log.Warningf("vm: write to read-only page by thread %s", self.Name)
		sched.Finish(self, -1)
	})
}
