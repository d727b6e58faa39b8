// Package console implements the synchronous console bridge:
// GetChar/PutChar calls that block the caller until the simulated
// device's read-available/write-done interrupt rendezvous completes.
//
// Rather than a no-op loopback, the bridge is backed by a real
// pseudo-terminal from github.com/containerd/console — the same
// library gvisor's runsc uses to attach a container's console — so the
// "interrupt" is a genuine asynchronous PTY read/write completing on a
// background goroutine, not a synchronous call-through.
package console

import (
	"io"

	ctrd "github.com/containerd/console"

	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/ksync"
	"github.com/Weheineman/nachOS/pkg/log"
)

// Bridge is the console device wrapper: a reader mutex and writer
// mutex serialize access; a reader/writer semaphore rendezvous with
// the device's interrupts.
type Bridge struct {
	sched *kernel.Scheduler

	readerLock *ksync.Lock
	writerLock *ksync.Lock

	in  io.Reader
	out io.Writer

	pty    ctrd.Console
	closer func() error
}

// Open backs the bridge with a real PTY pair: writes to PutChar appear
// on the master side, and GetChar reads whatever is typed there. The
// slave path is returned for a caller that wants to attach a terminal
// to it; the bridge itself only ever touches the master.
func Open(sched *kernel.Scheduler) (bridge *Bridge, slavePath string, err error) {
	master, slavePath, err := ctrd.NewPty()
	if err != nil {
		return nil, "", err
	}
	return &Bridge{
		sched:      sched,
		readerLock: ksync.NewLock("console.reader", sched),
		writerLock: ksync.NewLock("console.writer", sched),
		in:         master,
		out:        master,
		pty:        master,
		closer:     master.Close,
	}, slavePath, nil
}

// Loopback backs the bridge with plain in-memory pipes instead of a
// PTY, for tests and for ConsolePTY=false builds (pkg/config).
func Loopback(sched *kernel.Scheduler, in io.Reader, out io.Writer) *Bridge {
	return &Bridge{
		sched:      sched,
		readerLock: ksync.NewLock("console.reader", sched),
		writerLock: ksync.NewLock("console.writer", sched),
		in:         in,
		out:        out,
	}
}

// Close releases the backing PTY, if any.
func (b *Bridge) Close() error {
	if b.closer != nil {
		return b.closer()
	}
	return nil
}

// GetChar blocks until one character is available: acquire the reader
// mutex, rendezvous with the "read available" interrupt via a private
// semaphore, read one byte, release.
func (b *Bridge) GetChar(self *kernel.Thread) byte {
	b.readerLock.Acquire(self)
	defer b.readerLock.Release(self)

	ready := ksync.NewSemaphore("console.readReady", 0, b.sched)
	var c byte
	go func() {
		buf := make([]byte, 1)
		n, err := b.in.Read(buf)
		log.Assert(err == nil && n == 1, "console: read: n=%d err=%v", n, err)
		c = buf[0]
		ready.V()
	}()
	ready.P(self)
	return c
}

// PutChar blocks until the character has been written: acquire the
// writer mutex, issue the write, rendezvous with the "write done"
// interrupt, release.
func (b *Bridge) PutChar(self *kernel.Thread, c byte) {
	b.writerLock.Acquire(self)
	defer b.writerLock.Release(self)

	done := ksync.NewSemaphore("console.writeDone", 0, b.sched)
	go func() {
		_, err := b.out.Write([]byte{c})
		log.Assert(err == nil, "console: write: %v", err)
		done.V()
	}()
	done.P(self)
}
