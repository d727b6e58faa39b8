// Package disk is the reference implementation of machine.Disk: a
// fixed-size-sector disk image backed by a real file, with blocking
// ReadSector/WriteSector calls that rendezvous with a background
// "interrupt" goroutine through a kernel semaphore — the same
// observable contract a real disk simulator is documented to have.
//
// Sector I/O goes through golang.org/x/sys/unix's Pread/Pwrite/Fdatasync
// directly on the file descriptor rather than Go's buffered os.File
// methods, and the backing image is flock'd exclusively so two kernel
// instances never share one disk image.
package disk

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/ksync"
	"github.com/Weheineman/nachOS/pkg/log"
)

// Disk is a sector-addressed disk image.
type Disk struct {
	sectorSize int
	numSectors int

	file *os.File
	sched *kernel.Scheduler

	// ioMu serializes the simulated controller to one request in
	// flight, mirroring real disk hardware; it is host-side plumbing,
	// not one of the kernel's own visible synchronization primitives.
	ioMu sync.Mutex
}

// Open opens or creates a sector image of the given geometry at path.
func Open(path string, sectorSize, numSectors int, sched *kernel.Scheduler) (*Disk, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("disk: open %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("disk: image %s already in use: %w", path, err)
	}
	size := int64(sectorSize) * int64(numSectors)
	if fi, err := f.Stat(); err != nil || fi.Size() < size {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("disk: truncate %s: %w", path, err)
		}
	}
	return &Disk{sectorSize: sectorSize, numSectors: numSectors, file: f, sched: sched}, nil
}

// Close releases the backing file and its lock.
func (d *Disk) Close() error {
	return d.file.Close()
}

func (d *Disk) SectorSize() int { return d.sectorSize }
func (d *Disk) NumSectors() int { return d.numSectors }

// ReadSector blocks the calling thread until sector has been read into buf.
func (d *Disk) ReadSector(self *kernel.Thread, sector int, buf []byte) {
	log.Assert(sector >= 0 && sector < d.numSectors, "disk: sector %d out of range", sector)
	log.Assert(len(buf) == d.sectorSize, "disk: read buffer size %d != sector size %d", len(buf), d.sectorSize)
	d.rendezvous(self, func() {
		off := int64(sector) * int64(d.sectorSize)
		n, err := unix.Pread(int(d.file.Fd()), buf, off)
		log.Assert(err == nil && n == d.sectorSize, "disk: read sector %d: n=%d err=%v", sector, n, err)
	})
}

// WriteSector blocks the calling thread until buf has been written to sector.
func (d *Disk) WriteSector(self *kernel.Thread, sector int, buf []byte) {
	log.Assert(sector >= 0 && sector < d.numSectors, "disk: sector %d out of range", sector)
	log.Assert(len(buf) == d.sectorSize, "disk: write buffer size %d != sector size %d", len(buf), d.sectorSize)
	d.rendezvous(self, func() {
		off := int64(sector) * int64(d.sectorSize)
		n, err := unix.Pwrite(int(d.file.Fd()), buf, off)
		log.Assert(err == nil && n == d.sectorSize, "disk: write sector %d: n=%d err=%v", sector, n, err)
		_ = unix.Fdatasync(int(d.file.Fd()))
	})
}

// rendezvous runs op on a background goroutine (standing in for the
// device completing asynchronously) and blocks self on a private
// semaphore until it signals completion.
func (d *Disk) rendezvous(self *kernel.Thread, op func()) {
	done := ksync.NewSemaphore("disk.completion", 0, d.sched)
	go func() {
		d.ioMu.Lock()
		op()
		d.ioMu.Unlock()
		done.V()
	}()
	done.P(self)
}
