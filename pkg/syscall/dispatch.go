// Package syscall implements the trap dispatch layer: decode the id and
// arguments an executing user program left in the emulator's registers,
// run the matching kernel operation, and write the result back before
// resuming at the instruction after the trap.
package syscall

import (
	"github.com/Weheineman/nachOS/pkg/config"
	"github.com/Weheineman/nachOS/pkg/fs"
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/log"
	"github.com/Weheineman/nachOS/pkg/machine"
	"github.com/Weheineman/nachOS/pkg/vm"
)

// Syscall ids, matching the trap numbers a user program's stub library
// loads into register 2 before syscall.
const (
	SysHalt   = 1
	SysExit   = 2
	SysExec   = 3
	SysJoin   = 4
	SysCreate = 5
	SysOpen   = 6
	SysRead   = 7
	SysWrite  = 8
	SysClose  = 9
)

// Reserved file ids routed to the console bridge instead of a thread's
// fs.FileTable; must match pkg/fs's own reserved ids.
const (
	consoleStdin  = 0
	consoleStdout = 1
)

// Console is the minimal surface Read/Write need to reach the
// filesystem's console-backed file descriptors (pkg/console.Bridge
// implements it); kept as a local interface so this package need not
// import pkg/console.
type Console interface {
	GetChar(self *kernel.Thread) byte
	PutChar(self *kernel.Thread, c byte)
}

// ExecLoader parses path into a loadable executable. NOFF container
// parsing lives outside this module; the embedder supplies this.
type ExecLoader func(self *kernel.Thread, path string) (machine.Executable, error)

// Dispatcher wires every kernel subsystem a syscall can touch: the
// scheduler, the filesystem facade, the console, the per-Exec address
// spaces' shared physical memory and core map, and the process table
// Exec/Join use to name a child.
type Dispatcher struct {
	sched     *kernel.Scheduler
	fsys      *fs.FileSystem
	console   Console
	processes *ProcessTable
	cfg       config.Config
	mem       *vm.PhysicalMemory
	coreMap   *vm.CoreMap
	loadExec  ExecLoader
	haltFn    func()
}

// NewDispatcher constructs a Dispatcher. haltFn is called by Halt
// (conventionally the boot CLI's shutdown routine).
func NewDispatcher(sched *kernel.Scheduler, fsys *fs.FileSystem, console Console, cfg config.Config, mem *vm.PhysicalMemory, coreMap *vm.CoreMap, loadExec ExecLoader, haltFn func()) *Dispatcher {
	return &Dispatcher{
		sched:     sched,
		fsys:      fsys,
		console:   console,
		processes: NewProcessTable(sched),
		cfg:       cfg,
		mem:       mem,
		coreMap:   coreMap,
		loadExec:  loadExec,
		haltFn:    haltFn,
	}
}

// Handle decodes the trap the emulator is sitting on and runs it to
// completion: id in register 2, args in registers 4-6, result written
// back to register 2, PC/NextPC advanced past the trap.
func (d *Dispatcher) Handle(self *kernel.Thread, emu machine.Emulator) {
	id := int(emu.Reg(2))
	a0 := uint32(emu.Reg(4))
	a1 := uint32(emu.Reg(5))
	a2 := uint32(emu.Reg(6))

	var result uint64
	switch id {
	case SysHalt:
		d.sysHalt(self)
		return // never reached; sysHalt stops the machine
	case SysExit:
		d.sysExit(self, int(int32(a0)))
		return // never reached; Exit finishes the calling thread
	case SysExec:
		result = uint64(uint32(d.sysExec(self, emu, a0)))
	case SysJoin:
		result = uint64(uint32(d.sysJoin(self, int(int32(a0)))))
	case SysCreate:
		result = uint64(uint32(d.sysCreate(self, emu, a0, int(int32(a1)))))
	case SysOpen:
		result = uint64(uint32(d.sysOpen(self, emu, a0)))
	case SysRead:
		result = uint64(uint32(d.sysRead(self, emu, a0, int(int32(a1)), int(int32(a2)))))
	case SysWrite:
		result = uint64(uint32(d.sysWrite(self, emu, a0, int(int32(a1)), int(int32(a2)))))
	case SysClose:
		result = uint64(uint32(d.sysClose(self, int(int32(a0)))))
	default:
		log.Warningf("syscall: unknown id %d from thread %s", id, self.Name)
		result = ^uint64(0)
	}

	emu.SetReg(2, result)
	emu.SetPC(emu.NextPC())
	emu.SetNextPC(emu.NextPC() + 4)
}

func (d *Dispatcher) sysHalt(self *kernel.Thread) {
	log.Infof("syscall: Halt from thread %s", self.Name)
	d.haltFn()
}

func (d *Dispatcher) sysExit(self *kernel.Thread, status int) {
	log.Debugf("syscall: Exit(%d) from thread %s", status, self.Name)
	if space := self.AddressSpace(); space != nil {
		if a, ok := space.(*vm.AddressSpace); ok {
			if err := a.Destroy(self); err != nil {
				log.Warningf("syscall: Exit: destroying address space: %v", err)
			}
		}
	}
	d.sched.Finish(self, status)
}

// sysExec loads path's executable into a fresh address space and forks
// a joinable thread to run it, returning the spaceId Join needs (0 on
// failure). The forked closure captures child by reference, since
// child isn't assigned until Fork returns but only runs after.
func (d *Dispatcher) sysExec(self *kernel.Thread, emu machine.Emulator, pathAddr uint32) int {
	path, err := readCString(emu, pathAddr, d.cfg.NameMax)
	if err != nil {
		log.Warningf("syscall: Exec: %v", err)
		return 0
	}
	exe, err := d.loadExec(self, path)
	if err != nil {
		log.Warningf("syscall: Exec(%q): %v", path, err)
		return 0
	}

	var child *kernel.Thread
	child = d.sched.Fork(path, self.OriginalPriority(), true, func(any) {
		space, err := vm.NewAddressSpace(child, child.SpaceID(), exe, d.cfg.PageSize, d.cfg.UserStackPages, d.cfg.TLBSize, d.cfg.Memory, d.mem, d.coreMap, d.fsys)
		if err != nil {
			log.Warningf("syscall: Exec(%q): building address space: %v", path, err)
			d.sched.Finish(child, -1)
			return
		}
		child.SetAddressSpace(space)
		child.SetFileTable(fs.NewFileTable())
	}, nil)

	return d.processes.Register(self, child)
}

func (d *Dispatcher) sysJoin(self *kernel.Thread, id int) int {
	target, ok := d.processes.Lookup(self, id)
	if !ok {
		log.Warningf("syscall: Join(%d): no such process", id)
		return -1
	}
	return d.sched.Join(self, target)
}

func (d *Dispatcher) sysCreate(self *kernel.Thread, emu machine.Emulator, nameAddr uint32, size int) int {
	name, err := readCString(emu, nameAddr, d.cfg.NameMax)
	if err != nil {
		log.Warningf("syscall: Create: %v", err)
		return -1
	}
	if err := d.fsys.Create(self, name, size, false); err != nil {
		log.Warningf("syscall: Create(%q): %v", name, err)
		return -1
	}
	return 0
}

func (d *Dispatcher) sysOpen(self *kernel.Thread, emu machine.Emulator, nameAddr uint32) int {
	name, err := readCString(emu, nameAddr, d.cfg.NameMax)
	if err != nil {
		log.Warningf("syscall: Open: %v", err)
		return -1
	}
	switch name {
	case "/dev/stdin":
		return consoleStdin
	case "/dev/stdout":
		return consoleStdout
	}

	handle, err := d.fsys.Open(self, name)
	if err != nil {
		log.Warningf("syscall: Open(%q): %v", name, err)
		return -1
	}
	table := self.FileTable().(*fs.FileTable)
	return table.Install(handle)
}

func (d *Dispatcher) sysRead(self *kernel.Thread, emu machine.Emulator, bufAddr uint32, size, id int) int {
	if id == consoleStdin {
		buf := make([]byte, size)
		for i := range buf {
			buf[i] = d.console.GetChar(self)
		}
		if err := writeUserBuf(emu, bufAddr, buf); err != nil {
			log.Warningf("syscall: Read: %v", err)
			return -1
		}
		return size
	}
	if id == consoleStdout {
		log.Warningf("syscall: Read: fd %d is write-only", id)
		return -1
	}

	table := self.FileTable().(*fs.FileTable)
	handle, ok := table.Get(id)
	if !ok {
		log.Warningf("syscall: Read: bad file id %d", id)
		return -1
	}
	buf := make([]byte, size)
	n := handle.Read(self, buf)
	if err := writeUserBuf(emu, bufAddr, buf[:n]); err != nil {
		log.Warningf("syscall: Read: %v", err)
		return -1
	}
	return n
}

func (d *Dispatcher) sysWrite(self *kernel.Thread, emu machine.Emulator, bufAddr uint32, size, id int) int {
	buf, err := readUserBuf(emu, bufAddr, size)
	if err != nil {
		log.Warningf("syscall: Write: %v", err)
		return -1
	}

	if id == consoleStdout {
		for _, c := range buf {
			d.console.PutChar(self, c)
		}
		return size
	}
	if id == consoleStdin {
		log.Warningf("syscall: Write: fd %d is read-only", id)
		return -1
	}

	table := self.FileTable().(*fs.FileTable)
	handle, ok := table.Get(id)
	if !ok {
		log.Warningf("syscall: Write: bad file id %d", id)
		return -1
	}
	return handle.Write(self, buf)
}

func (d *Dispatcher) sysClose(self *kernel.Thread, id int) int {
	if id == consoleStdin || id == consoleStdout {
		return 0
	}
	table := self.FileTable().(*fs.FileTable)
	if !table.Remove(self, id) {
		log.Warningf("syscall: Close: bad file id %d", id)
		return -1
	}
	return 0
}
