// Package machine defines the external interfaces the kernel core
// consumes from the simulated MIPS machine: the emulator surface
// (registers, memory, trap dispatch), the disk surface (sector I/O), and
// the executable format (NOFF header and segment descriptors). Concrete
// implementations of the emulator and executable parser live outside
// this module; the kernel only ever programs against the interfaces
// below.
package machine

import "github.com/Weheineman/nachOS/pkg/kernel"

// ExceptionKind identifies why Run returned control to the kernel.
type ExceptionKind int

const (
	NoException ExceptionKind = iota
	SyscallException
	PageFaultException
	ReadOnlyException
	BusErrorException
	AddressErrorException
	OverflowException
	IllegalInstructionException
)

func (k ExceptionKind) String() string {
	switch k {
	case NoException:
		return "NoException"
	case SyscallException:
		return "SyscallException"
	case PageFaultException:
		return "PageFaultException"
	case ReadOnlyException:
		return "ReadOnlyException"
	case BusErrorException:
		return "BusErrorException"
	case AddressErrorException:
		return "AddressErrorException"
	case OverflowException:
		return "OverflowException"
	case IllegalInstructionException:
		return "IllegalInstructionException"
	default:
		return "UnknownException"
	}
}

// Emulator is the MIPS instruction emulator surface consumed by the
// syscall dispatcher and the TLB handler.
type Emulator interface {
	PC() uint32
	SetPC(addr uint32)
	NextPC() uint32
	SetNextPC(addr uint32)

	Reg(i int) uint64
	SetReg(i int, v uint64)

	// ReadMem/WriteMem are byte-granular and may fail on a TLB miss; the
	// caller retries once after servicing the fault.
	ReadMem(addr uint32, size int) (value uint64, ok bool)
	WriteMem(addr uint32, size int, value uint64) (ok bool)

	// Run resumes user execution until the next trap and reports why it
	// stopped.
	Run() ExceptionKind

	// RegisterHandler installs the handler invoked by Run for a given
	// exception kind.
	RegisterHandler(kind ExceptionKind, handler func())

	// FaultAddr returns the virtual address that caused the most recent
	// PageFaultException or ReadOnlyException, for the TLB handler.
	FaultAddr() uint32
}

// Disk is the raw sector-addressed disk surface consumed by pkg/fs and
// pkg/vm's swap file. Both operations are blocking from the caller's
// perspective and rendezvous with the (simulated) device interrupt via a
// semaphore; see pkg/disk for the reference implementation.
type Disk interface {
	ReadSector(self *kernel.Thread, sector int, buf []byte)
	WriteSector(self *kernel.Thread, sector int, buf []byte)
	SectorSize() int
	NumSectors() int
}

// Segment is one of an executable's {code, initData, uninitData}
// descriptors.
type Segment struct {
	FileOffset  uint32
	VirtualAddr uint32
	Size        uint32
}

// NoffHeader is the executable format's header: a magic number
// (byte-order normalized by the loader that parses it) and three
// segment descriptors.
type NoffHeader struct {
	Magic      uint32
	Code       Segment
	InitData   Segment
	UninitData Segment
}

// Executable is the parsed NOFF container consumed by pkg/vm's loader.
type Executable interface {
	Header() NoffHeader
	ReadAt(buf []byte, off int64) (int, error)
}
