package fs

import "encoding/binary"

// FileHeader is the fixed-layout on-disk record: a byte length plus an
// ordered list of data-sector numbers, direct-mapped only (no indirect
// blocks), the same simplification the Nachos family this design
// descends from makes.
type FileHeader struct {
	ByteLength int
	Sectors    []int
}

// headerSize returns the encoded size of a header with up to numDirect
// sectors; callers ensure this fits within one disk sector.
func headerSize(numDirect int) int { return 8 + 4*numDirect }

// Encode serializes h into a sectorSize-byte buffer.
func (h *FileHeader) Encode(sectorSize, numDirect int) []byte {
	buf := make([]byte, sectorSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.ByteLength))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(h.Sectors)))
	for i, s := range h.Sectors {
		binary.LittleEndian.PutUint32(buf[8+4*i:12+4*i], uint32(s))
	}
	return buf
}

// DecodeFileHeader parses a header previously written by Encode.
func DecodeFileHeader(buf []byte) *FileHeader {
	h := &FileHeader{}
	h.ByteLength = int(binary.LittleEndian.Uint32(buf[0:4]))
	count := int(binary.LittleEndian.Uint32(buf[4:8]))
	h.Sectors = make([]int, count)
	for i := 0; i < count; i++ {
		h.Sectors[i] = int(binary.LittleEndian.Uint32(buf[8+4*i : 12+4*i]))
	}
	return h
}

// numSectorsFor returns the number of sectorSize-byte sectors needed to
// hold byteLength bytes.
func numSectorsFor(byteLength, sectorSize int) int {
	return (byteLength + sectorSize - 1) / sectorSize
}

// Allocate grows h to hold byteLength bytes total, drawing new sectors
// from freeMap (which the caller must already hold). It never shrinks:
// callers wanting to truncate build a fresh header instead.
func (h *FileHeader) Allocate(freeMap *BitMap, byteLength, sectorSize, numDirect int) error {
	need := numSectorsFor(byteLength, sectorSize)
	if need > numDirect {
		return ErrFileTooLarge
	}
	for len(h.Sectors) < need {
		s := freeMap.Find()
		if s < 0 {
			return ErrNoFreeSector
		}
		h.Sectors = append(h.Sectors, s)
	}
	if byteLength > h.ByteLength {
		h.ByteLength = byteLength
	}
	return nil
}

// Deallocate frees every sector h occupies.
func (h *FileHeader) Deallocate(freeMap *BitMap) {
	for _, s := range h.Sectors {
		freeMap.Clear(s)
	}
}
