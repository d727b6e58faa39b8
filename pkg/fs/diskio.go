package fs

import (
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/machine"
)

// readHeader loads the FileHeader stored at sector.
func readHeader(self *kernel.Thread, disk machine.Disk, sector int) *FileHeader {
	buf := make([]byte, disk.SectorSize())
	disk.ReadSector(self, sector, buf)
	return DecodeFileHeader(buf)
}

// writeHeader serializes h back to sector.
func writeHeader(self *kernel.Thread, disk machine.Disk, sector int, h *FileHeader, numDirect int) {
	disk.WriteSector(self, sector, h.Encode(disk.SectorSize(), numDirect))
}

// readData reads h's data sectors and trims the result to ByteLength.
func readData(self *kernel.Thread, disk machine.Disk, h *FileHeader) []byte {
	sectorSize := disk.SectorSize()
	buf := make([]byte, len(h.Sectors)*sectorSize)
	for i, s := range h.Sectors {
		disk.ReadSector(self, s, buf[i*sectorSize:(i+1)*sectorSize])
	}
	if len(buf) > h.ByteLength {
		buf = buf[:h.ByteLength]
	}
	return buf
}

// writeData writes data across h's data sectors, zero-padding the tail
// of the final sector.
func writeData(self *kernel.Thread, disk machine.Disk, h *FileHeader, data []byte) {
	sectorSize := disk.SectorSize()
	for i, s := range h.Sectors {
		start := i * sectorSize
		chunk := make([]byte, sectorSize)
		if start < len(data) {
			copy(chunk, data[start:min(start+sectorSize, len(data))])
		}
		disk.WriteSector(self, s, chunk)
	}
}

// readDirectory loads and decodes the directory projected at sector,
// returning its header too (callers mutating it need the header to
// grow the on-disk image on write-back).
func readDirectory(self *kernel.Thread, disk machine.Disk, sector int, nameMax int) (*Directory, *FileHeader) {
	h := readHeader(self, disk, sector)
	data := readData(self, disk, h)
	return DecodeDirectory(sector, data, nameMax), h
}

// writeDirectory encodes d, grows h if the new encoding needs more
// sectors (drawing from freeMap, which must not already be held by the
// caller), and flushes both header and data.
func writeDirectory(self *kernel.Thread, disk machine.Disk, freeMap *FreeMap, sector int, h *FileHeader, d *Directory, nameMax, numDirect int) error {
	data := d.Encode(nameMax)

	freeMap.Acquire(self)
	err := h.Allocate(freeMap.Bitmap(), len(data), disk.SectorSize(), numDirect)
	freeMap.Release(self)
	if err != nil {
		return err
	}
	h.ByteLength = len(data) // directories shrink too; Allocate only ever grows

	writeHeader(self, disk, sector, h, numDirect)
	writeData(self, disk, h, data)
	return nil
}
