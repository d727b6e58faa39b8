package fs

import (
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/ksync"
	"github.com/Weheineman/nachOS/pkg/machine"
)

// FreeMapSector and RootDirectorySector are the well-known sectors the
// root directory and free map live at; Format reserves them and they
// are never reassigned.
const (
	FreeMapSector       = 0
	RootDirectorySector = 1
)

// FreeMap is the free-sector bitmap plus the global mutex guarding it.
// Acquire/Release bracket every sector allocation in the filesystem:
// file headers, data blocks, and directory headers.
type FreeMap struct {
	mu  *ksync.Lock
	disk machine.Disk

	numSectors int
	numDirect  int

	header *FileHeader
	bitmap *BitMap
}

func newFreeMap(sched *kernel.Scheduler, disk machine.Disk, numSectors, numDirect int) *FreeMap {
	return &FreeMap{
		mu:         ksync.NewLock("freemap", sched),
		disk:       disk,
		numSectors: numSectors,
		numDirect:  numDirect,
	}
}

// Acquire loads the on-disk bitmap under the global mutex. The bitmap is
// only valid between Acquire and the matching Release.
func (f *FreeMap) Acquire(self *kernel.Thread) {
	f.mu.Acquire(self)
	f.header = readHeader(self, f.disk, FreeMapSector)
	f.bitmap = DecodeBitMap(readData(self, f.disk, f.header), f.numSectors)
}

// Release flushes the bitmap back to disk and releases the mutex.
func (f *FreeMap) Release(self *kernel.Thread) {
	data := f.bitmap.Encode()
	f.header.ByteLength = len(data)
	writeHeader(self, f.disk, FreeMapSector, f.header, f.numDirect)
	writeData(self, f.disk, f.header, data)
	f.bitmap = nil
	f.header = nil
	f.mu.Release(self)
}

// Bitmap exposes the loaded bitmap so FileHeader.Allocate/Deallocate
// can draw on it; valid only between Acquire and Release.
func (f *FreeMap) Bitmap() *BitMap { return f.bitmap }
