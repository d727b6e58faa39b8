package fs

import "encoding/binary"

// DirEntry is one entry of a directory: a name, the sector of the
// child's header, and whether that child is itself a directory.
type DirEntry struct {
	Name        string
	Sector      int
	IsDirectory bool
}

// entrySize is the fixed on-disk width of one entry: sector (u32) +
// isDirectory (1 byte) + name (nameMax bytes, zero-padded).
func entrySize(nameMax int) int { return 4 + 1 + nameMax }

// Directory is the in-memory projection of an on-disk directory record:
// a sequence of entries with unique names.
type Directory struct {
	Sector  int
	entries []DirEntry
}

// NewDirectory returns an empty in-memory directory projected at sector.
func NewDirectory(sector int) *Directory {
	return &Directory{Sector: sector}
}

// Entries returns the directory's entries in on-disk order; callers must
// not mutate the returned slice's contents in place.
func (d *Directory) Entries() []DirEntry { return d.entries }

// Find returns the sector of name's entry, or -1 if not present.
func (d *Directory) Find(name string) (int, bool) {
	for _, e := range d.entries {
		if e.Name == name {
			return e.Sector, e.IsDirectory
		}
	}
	return -1, false
}

// Add inserts a new entry; fails if name is already present (names must
// be unique within the same directory).
func (d *Directory) Add(name string, sector int, isDirectory bool) error {
	if _, _, ok := d.findEntry(name); ok {
		return ErrAlreadyExists
	}
	d.entries = append(d.entries, DirEntry{Name: name, Sector: sector, IsDirectory: isDirectory})
	return nil
}

// Remove deletes name's entry; fails if absent.
func (d *Directory) Remove(name string) error {
	_, i, ok := d.findEntry(name)
	if !ok {
		return ErrNotFound
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	return nil
}

// IsEmpty reports whether the directory has no entries; a non-empty
// directory cannot be removed.
func (d *Directory) IsEmpty() bool { return len(d.entries) == 0 }

func (d *Directory) findEntry(name string) (DirEntry, int, bool) {
	for i, e := range d.entries {
		if e.Name == name {
			return e, i, true
		}
	}
	return DirEntry{}, -1, false
}

// Encode serializes the directory to its on-disk form: [size:u32][entry]*size.
func (d *Directory) Encode(nameMax int) []byte {
	sz := entrySize(nameMax)
	buf := make([]byte, 4+sz*len(d.entries))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(d.entries)))
	off := 4
	for _, e := range d.entries {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(e.Sector))
		if e.IsDirectory {
			buf[off+4] = 1
		}
		copy(buf[off+5:off+sz], e.Name)
		off += sz
	}
	return buf
}

// DecodeDirectory reconstructs a Directory previously produced by Encode.
func DecodeDirectory(sector int, buf []byte, nameMax int) *Directory {
	d := NewDirectory(sector)
	if len(buf) < 4 {
		return d
	}
	count := int(binary.LittleEndian.Uint32(buf[0:4]))
	sz := entrySize(nameMax)
	off := 4
	for i := 0; i < count && off+sz <= len(buf); i++ {
		s := int(binary.LittleEndian.Uint32(buf[off : off+4]))
		isDir := buf[off+4] != 0
		nameBytes := buf[off+5 : off+sz]
		n := 0
		for n < len(nameBytes) && nameBytes[n] != 0 {
			n++
		}
		d.entries = append(d.entries, DirEntry{Name: string(nameBytes[:n]), Sector: s, IsDirectory: isDir})
		off += sz
	}
	return d
}

// byteSize returns the encoded size of the directory's current contents.
func (d *Directory) byteSize(nameMax int) int {
	return 4 + entrySize(nameMax)*len(d.entries)
}
