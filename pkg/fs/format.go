package fs

import (
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/machine"
)

// Format writes a fresh filesystem image: the free-map header at
// FreeMapSector, the root directory header at RootDirectorySector, and
// both sectors (plus whatever data sectors each needs) marked used in
// the bitmap. Recovered from the Nachos/Biscuit mkfs family; any
// scenario running against a cold disk image needs this first.
func Format(self *kernel.Thread, disk machine.Disk, numSectors, numDirect, nameMax int) error {
	bits := NewBitMap(numSectors)
	bits.Mark(FreeMapSector)
	bits.Mark(RootDirectorySector)

	sectorSize := disk.SectorSize()

	freeMapHeader := &FileHeader{}
	bitmapBytes := bits.Encode()
	if err := freeMapHeader.Allocate(bits, len(bitmapBytes), sectorSize, numDirect); err != nil {
		return err
	}

	root := NewDirectory(RootDirectorySector)
	rootHeader := &FileHeader{}
	rootBytes := root.Encode(nameMax)
	if err := rootHeader.Allocate(bits, len(rootBytes), sectorSize, numDirect); err != nil {
		return err
	}

	// bits now reflects every sector Format itself consumed; encode it
	// one last time so the bitmap written to disk matches reality.
	bitmapBytes = bits.Encode()
	freeMapHeader.ByteLength = len(bitmapBytes)
	writeHeader(self, disk, FreeMapSector, freeMapHeader, numDirect)
	writeData(self, disk, freeMapHeader, bitmapBytes)

	rootHeader.ByteLength = len(rootBytes)
	writeHeader(self, disk, RootDirectorySector, rootHeader, numDirect)
	writeData(self, disk, rootHeader, rootBytes)

	return nil
}
