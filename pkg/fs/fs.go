// Package fs implements a hierarchical filesystem: a hand-over-hand
// locked directory tree over a direct-mapped-header, bitmap-allocated
// disk, with a registry deferring on-disk deletion of files that are
// still open.
package fs

import (
	"github.com/Weheineman/nachOS/pkg/kernel"
	"github.com/Weheineman/nachOS/pkg/machine"
)

// FileSystem is the facade: Create, Open, Remove, and ChangeDirectory,
// plus the List helper for the bottom level of a traversal.
type FileSystem struct {
	disk      machine.Disk
	freeMap   *FreeMap
	dirLocks  *DirLockManager
	registry  *OpenFileRegistry
	numDirect int
	nameMax   int
}

// New constructs a facade over an already-Format'd disk image.
func New(sched *kernel.Scheduler, disk machine.Disk, numSectors, numDirect, nameMax int) *FileSystem {
	fsys := &FileSystem{
		disk:      disk,
		dirLocks:  NewDirLockManager(sched),
		numDirect: numDirect,
		nameMax:   nameMax,
	}
	fsys.freeMap = newFreeMap(sched, disk, numSectors, numDirect)
	fsys.registry = NewOpenFileRegistry(sched, fsys.deleteByPath)
	return fsys
}

// Create allocates a header (and, for a directory, an empty body) at a
// free sector and links it into the parent directory named by path's
// all-but-last component.
func (f *FileSystem) Create(self *kernel.Thread, path string, size int, isDirectory bool) error {
	fp := f.resolvePath(self, path)
	if err := fp.Validate(f.nameMax); err != nil {
		return err
	}
	if fp.IsEmpty() {
		return ErrRootImmutable
	}

	parentSector, leafName, err := f.walkToParentWrite(self, fp)
	if err != nil {
		return err
	}
	defer f.dirLocks.ReleaseWrite(self, parentSector)

	dir, dirHeader := readDirectory(self, f.disk, parentSector, f.nameMax)
	if s, _ := dir.Find(leafName); s >= 0 {
		return ErrAlreadyExists
	}

	f.freeMap.Acquire(self)
	headerSector := f.freeMap.Bitmap().Find()
	if headerSector < 0 {
		f.freeMap.Release(self)
		return ErrNoFreeSector
	}

	header := &FileHeader{}
	var body []byte
	byteLen := size
	if isDirectory {
		body = NewDirectory(headerSector).Encode(f.nameMax)
		byteLen = len(body)
	}
	if err := header.Allocate(f.freeMap.Bitmap(), byteLen, f.disk.SectorSize(), f.numDirect); err != nil {
		f.freeMap.Bitmap().Clear(headerSector)
		f.freeMap.Release(self)
		return err
	}
	f.freeMap.Release(self)

	writeHeader(self, f.disk, headerSector, header, f.numDirect)
	if isDirectory {
		writeData(self, f.disk, header, body)
	}

	if err := dir.Add(leafName, headerSector, isDirectory); err != nil {
		f.freeMap.Acquire(self)
		header.Deallocate(f.freeMap.Bitmap())
		f.freeMap.Bitmap().Clear(headerSector)
		f.freeMap.Release(self)
		return err
	}
	return writeDirectory(self, f.disk, f.freeMap, parentSector, dirHeader, dir, f.nameMax, f.numDirect)
}

// Open resolves path to a header sector and registers a new handle on it.
func (f *FileSystem) Open(self *kernel.Thread, path string) (*OpenFile, error) {
	fp := f.resolvePath(self, path)
	sector, isDir, err := f.lookup(self, fp)
	if err != nil {
		return nil, err
	}
	if isDir {
		return nil, ErrIsDirectory
	}

	key := fp.String()
	lock, ok := f.registry.AddOpenFile(self, key)
	if !ok {
		return nil, ErrPendingRemoval
	}
	return &OpenFile{
		disk:         f.disk,
		freeMap:      f.freeMap,
		registry:     f.registry,
		numDirect:    f.numDirect,
		name:         key,
		headerSector: sector,
		lock:         lock,
	}, nil
}

// Remove unlinks path. A directory must be empty. If the name is
// currently open, the actual on-disk delete (including removing the
// directory entry) is deferred to the last Close; the name therefore
// stays visible until then.
func (f *FileSystem) Remove(self *kernel.Thread, path string) error {
	fp := f.resolvePath(self, path)
	if fp.IsEmpty() {
		return ErrRootImmutable
	}
	key := fp.String()

	parentSector, leafName, err := f.walkToParentWrite(self, fp)
	if err != nil {
		return err
	}
	dir, _ := readDirectory(self, f.disk, parentSector, f.nameMax)
	targetSector, isDir := dir.Find(leafName)
	if targetSector < 0 {
		f.dirLocks.ReleaseWrite(self, parentSector)
		return ErrNotFound
	}
	if isDir {
		f.dirLocks.AcquireRead(self, targetSector)
		targetDir, _ := readDirectory(self, f.disk, targetSector, f.nameMax)
		empty := targetDir.IsEmpty()
		f.dirLocks.ReleaseRead(self, targetSector)
		if !empty {
			f.dirLocks.ReleaseWrite(self, parentSector)
			return ErrNotEmpty
		}
	}
	f.dirLocks.ReleaseWrite(self, parentSector)

	f.registry.Lock(self)
	pending := f.registry.SetUpRemoval(key)
	f.registry.Unlock(self)
	if pending {
		return nil
	}
	return f.deleteByPath(self, key)
}

// ChangeDirectory installs path (merged with the caller's current
// working path) as the caller's new working path, after checking it
// resolves to an existing directory.
func (f *FileSystem) ChangeDirectory(self *kernel.Thread, path string) error {
	fp := f.resolvePath(self, path)
	_, isDir, err := f.lookup(self, fp)
	if err != nil {
		return err
	}
	if !isDir {
		return ErrNotDirectory
	}
	self.SetWorkingPath(fp.String())
	return nil
}

// List returns the entries of the directory path resolves to.
func (f *FileSystem) List(self *kernel.Thread, path string) ([]DirEntry, error) {
	fp := f.resolvePath(self, path)
	sector, isDir, err := f.lookup(self, fp)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, ErrNotDirectory
	}
	f.dirLocks.AcquireRead(self, sector)
	dir, _ := readDirectory(self, f.disk, sector, f.nameMax)
	f.dirLocks.ReleaseRead(self, sector)
	return dir.Entries(), nil
}

func (f *FileSystem) resolvePath(self *kernel.Thread, path string) FilePath {
	fp := ParsePath(self.WorkingPath())
	fp.Merge(path)
	return fp
}

// lookup is the read-only hand-over-hand traversal: descend from root,
// releasing each parent's read lock only after the child's is held,
// returning the resolved sector and whether it is a directory.
func (f *FileSystem) lookup(self *kernel.Thread, fp FilePath) (int, bool, error) {
	p := fp.Clone()
	sector := RootDirectorySector
	f.dirLocks.AcquireRead(self, sector)
	for !p.IsBottomLevel() {
		name := p.SplitBottomLevel()
		dir, _ := readDirectory(self, f.disk, sector, f.nameMax)
		childSector, isDir := dir.Find(name)
		if childSector < 0 || !isDir {
			f.dirLocks.ReleaseRead(self, sector)
			return -1, false, ErrNotFound
		}
		f.dirLocks.AcquireRead(self, childSector)
		f.dirLocks.ReleaseRead(self, sector)
		sector = childSector
	}
	if p.IsEmpty() {
		f.dirLocks.ReleaseRead(self, sector)
		return sector, true, nil
	}
	name := p.SplitBottomLevel()
	dir, _ := readDirectory(self, f.disk, sector, f.nameMax)
	childSector, isDir := dir.Find(name)
	f.dirLocks.ReleaseRead(self, sector)
	if childSector < 0 {
		return -1, false, ErrNotFound
	}
	return childSector, isDir, nil
}

// walkToParentWrite is lookup, but stops one level short and promotes
// the final hop's read lock to a write lock before returning, since
// Create/Remove both need to mutate the parent's directory body.
func (f *FileSystem) walkToParentWrite(self *kernel.Thread, fp FilePath) (int, string, error) {
	if fp.IsEmpty() {
		return -1, "", ErrRootImmutable
	}
	p := fp.Clone()
	sector := RootDirectorySector
	f.dirLocks.AcquireRead(self, sector)
	for !p.IsBottomLevel() {
		name := p.SplitBottomLevel()
		dir, _ := readDirectory(self, f.disk, sector, f.nameMax)
		childSector, isDir := dir.Find(name)
		if childSector < 0 || !isDir {
			f.dirLocks.ReleaseRead(self, sector)
			return -1, "", ErrNotFound
		}
		f.dirLocks.AcquireRead(self, childSector)
		f.dirLocks.ReleaseRead(self, sector)
		sector = childSector
	}
	f.dirLocks.ReleaseRead(self, sector)
	f.dirLocks.AcquireWrite(self, sector)
	return sector, p.SplitBottomLevel(), nil
}

// deleteByPath re-resolves key (an already-normalized path string) and
// performs the on-disk delete: deallocate data blocks, clear the header
// sector, remove the directory entry, flush. Used both for an immediate
// Remove and, later, for a deferred one.
func (f *FileSystem) deleteByPath(self *kernel.Thread, key string) error {
	fp := ParsePath(key)
	parentSector, leafName, err := f.walkToParentWrite(self, fp)
	if err != nil {
		return err
	}
	defer f.dirLocks.ReleaseWrite(self, parentSector)

	dir, dirHeader := readDirectory(self, f.disk, parentSector, f.nameMax)
	targetSector, _ := dir.Find(leafName)
	if targetSector < 0 {
		return ErrNotFound
	}

	targetHeader := readHeader(self, f.disk, targetSector)
	f.freeMap.Acquire(self)
	targetHeader.Deallocate(f.freeMap.Bitmap())
	f.freeMap.Bitmap().Clear(targetSector)
	f.freeMap.Release(self)

	if err := dir.Remove(leafName); err != nil {
		return err
	}
	return writeDirectory(self, f.disk, f.freeMap, parentSector, dirHeader, dir, f.nameMax, f.numDirect)
}
