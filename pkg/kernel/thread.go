// Package kernel implements a cooperative thread kernel: thread objects,
// priority ready queues, fork/yield/sleep/finish/join, and the
// priority-donation hook used by pkg/ksync's Lock.
//
// A classic Nachos-style kernel context-switches by splicing raw call
// stacks. Go gives no portable way to do that, so this kernel runs one
// goroutine per Thread, gated by a per-thread resume channel: at most one
// thread's goroutine is ever unblocked, which preserves the original
// contract ("exactly one thread is running at any time") without hand
// assembly.
package kernel

import "github.com/Weheineman/nachOS/pkg/log"

// Status is a thread's execution status.
type Status int

const (
	JustCreated Status = iota
	Ready
	Running
	Blocked
)

func (s Status) String() string {
	switch s {
	case JustCreated:
		return "JustCreated"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Blocked:
		return "Blocked"
	default:
		return "Unknown"
	}
}

// AddressSpace is the minimal surface kernel.Thread needs from a user
// address space (pkg/vm.AddressSpace implements it); kept here instead
// of importing pkg/vm so pkg/vm may freely import pkg/kernel.
type AddressSpace interface {
	// SaveState and RestoreState are invoked by the scheduler around a
	// context switch; pkg/vm uses the hook to flush TLB use/dirty bits
	// back into the page table before the address space's TLB is
	// cleared on its next RestoreState.
	SaveState()
	RestoreState()
}

// FileTable is the minimal surface kernel.Thread needs from a per-thread
// open-file table (pkg/fs implements the concrete table).
type FileTable interface {
	CloseAll(self *Thread)
}

// Thread is a single sequential activity.
type Thread struct {
	Name string

	priority     int
	origPriority int
	status       Status

	joinable   bool
	finished   bool
	exitStatus int
	joiner     *Thread // the thread blocked in Join on us, if any
	joinResult int
	spaceID    int

	space       AddressSpace
	files       FileTable
	userRegs    [NumUserRegs]uint64
	hasUserRegs bool
	workingPath string

	resumeCh chan struct{}
	fn       func(arg any)
	arg      any

	sched *Scheduler
}

// NumUserRegs is a placeholder register-file width; the real contents
// and count are owned by the MIPS emulator and only copied through
// SaveUserState/RestoreUserState at a trap/switch boundary.
const NumUserRegs = 40

// Priority returns the thread's current (possibly donated) priority.
func (t *Thread) Priority() int { return t.priority }

// OriginalPriority returns the priority the thread was constructed or
// last explicitly set with, ignoring any donation.
func (t *Thread) OriginalPriority() int { return t.origPriority }

// Status returns the thread's execution status.
func (t *Thread) Status() Status { return t.status }

// SpaceID returns the identity assigned by the process table at Exec time,
// or 0 for a pure kernel thread.
func (t *Thread) SpaceID() int { return t.spaceID }

// SetSpaceID is called once by the process table that owns spaceId
// allocation (pkg/syscall's Exec implementation).
func (t *Thread) SetSpaceID(id int) { t.spaceID = id }

// SetAddressSpace attaches a user address space to a newly execed thread.
func (t *Thread) SetAddressSpace(s AddressSpace) { t.space = s }

// AddressSpace returns the thread's address space, or nil for a kernel thread.
func (t *Thread) AddressSpace() AddressSpace { return t.space }

// WorkingPath returns the thread's current working directory, as a
// textual path (pkg/fs owns parsing/merging; kernel only stores the
// string so it need not import pkg/fs).
func (t *Thread) WorkingPath() string {
	if t.workingPath == "" {
		return "/"
	}
	return t.workingPath
}

// SetWorkingPath installs a new working directory, normally the result
// of pkg/fs's ChangeDirectory.
func (t *Thread) SetWorkingPath(s string) { t.workingPath = s }

// SetFileTable attaches a per-thread open-file table.
func (t *Thread) SetFileTable(f FileTable) { t.files = f }

// FileTable returns the thread's open-file table, or nil.
func (t *Thread) FileTable() FileTable { return t.files }

// SaveUserState/RestoreUserState copy the user register set across a
// switch; the emulator is the source of truth while the thread runs.
func (t *Thread) SaveUserState(regs [NumUserRegs]uint64) {
	t.userRegs = regs
	t.hasUserRegs = true
}

func (t *Thread) RestoreUserState() ([NumUserRegs]uint64, bool) {
	return t.userRegs, t.hasUserRegs
}

// setPriority is used only by the scheduler and by priority donation; it
// does not by itself move the thread between ready queues (the caller is
// responsible, since only the scheduler knows whether the thread is
// currently on one).
func (t *Thread) setPriority(p int) {
	log.Assert(p >= 0, "kernel: negative priority %d", p)
	t.priority = p
}
