package fs

import (
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/machine"
	"github.com/Weheineman/nachOS/pkg/rwlock"
)

// OpenFile is a single open handle on a file: a header sector, the lock
// shared by every handle open on the same name, and a private seek
// position for the sequential Read/Write calls.
type OpenFile struct {
	disk      machine.Disk
	freeMap   *FreeMap
	registry  *OpenFileRegistry
	numDirect int
	name      string
	headerSector int
	lock      *rwlock.RWLock
	seek      int
}

// Read advances the handle's seek position by the number of bytes
// actually read (fewer than len(buf) iff end-of-file).
func (f *OpenFile) Read(self *kernel.Thread, buf []byte) int {
	f.lock.AcquireRead(self)
	defer f.lock.ReleaseRead(self)
	n := f.readAt(self, buf, f.seek)
	f.seek += n
	return n
}

// Write advances the handle's seek position by the number of bytes
// written, growing the file if the write extends past its current end:
// len(buf), or 0 if the file could not grow to hold it.
func (f *OpenFile) Write(self *kernel.Thread, buf []byte) int {
	f.lock.AcquireWrite(self)
	defer f.lock.ReleaseWrite(self)
	n := f.writeAt(self, buf, f.seek)
	f.seek += n
	return n
}

// ReadAt is Read at a caller-given offset, independent of seek position.
func (f *OpenFile) ReadAt(self *kernel.Thread, buf []byte, off int) int {
	f.lock.AcquireRead(self)
	defer f.lock.ReleaseRead(self)
	return f.readAt(self, buf, off)
}

// WriteAt is Write at a caller-given offset, independent of seek
// position. Callers must not already hold the free-map mutex.
func (f *OpenFile) WriteAt(self *kernel.Thread, buf []byte, off int) int {
	f.lock.AcquireWrite(self)
	defer f.lock.ReleaseWrite(self)
	return f.writeAt(self, buf, off)
}

// Length returns the file's current byte length.
func (f *OpenFile) Length(self *kernel.Thread) int {
	return readHeader(self, f.disk, f.headerSector).ByteLength
}

// Seek repositions the handle's sequential cursor.
func (f *OpenFile) Seek(pos int) { f.seek = pos }

// Close releases this handle; once the last handle on name closes, a
// pending Remove's on-disk delete runs.
func (f *OpenFile) Close(self *kernel.Thread) {
	f.registry.CloseOpenFile(self, f.name)
}

func (f *OpenFile) readAt(self *kernel.Thread, buf []byte, off int) int {
	h := readHeader(self, f.disk, f.headerSector)
	data := readData(self, f.disk, h)
	if off >= len(data) {
		return 0
	}
	return copy(buf, data[off:])
}

func (f *OpenFile) writeAt(self *kernel.Thread, buf []byte, off int) int {
	h := readHeader(self, f.disk, f.headerSector)
	data := readData(self, f.disk, h)

	end := off + len(buf)
	if end > len(data) {
		grown := make([]byte, end)
		copy(grown, data)
		data = grown
	}
	copy(data[off:end], buf)

	f.freeMap.Acquire(self)
	err := h.Allocate(f.freeMap.Bitmap(), len(data), f.disk.SectorSize(), f.numDirect)
	f.freeMap.Release(self)
	if err != nil {
		return 0
	}
	h.ByteLength = len(data)

	writeHeader(self, f.disk, f.headerSector, h, f.numDirect)
	writeData(self, f.disk, h, data)
	return len(buf)
}
