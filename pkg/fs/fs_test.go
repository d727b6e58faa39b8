package fs

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Weheineman/nachOS/pkg/kernel"
)

// memDisk is a test-only machine.Disk backed by an in-memory byte slab;
// the real disk (pkg/disk) rendezvous with a simulated device interrupt,
// which would make these tests non-deterministic for no benefit here.
type memDisk struct {
	mu         sync.Mutex
	sectorSize int
	sectors    [][]byte
}

func newMemDisk(numSectors, sectorSize int) *memDisk {
	d := &memDisk{sectorSize: sectorSize, sectors: make([][]byte, numSectors)}
	for i := range d.sectors {
		d.sectors[i] = make([]byte, sectorSize)
	}
	return d
}

func (d *memDisk) ReadSector(self *kernel.Thread, sector int, buf []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(buf, d.sectors[sector])
}

func (d *memDisk) WriteSector(self *kernel.Thread, sector int, buf []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.sectors[sector], buf)
}

func (d *memDisk) SectorSize() int { return d.sectorSize }
func (d *memDisk) NumSectors() int { return len(d.sectors) }

const (
	testNumSectors = 64
	testSectorSize = 64
	testNumDirect  = 4
	testNameMax    = 16
)

// newTestFS formats a fresh disk image and returns a facade over it,
// along with the scheduler's main thread to drive calls with.
func newTestFS(t *testing.T, numPriorities int) (*kernel.Scheduler, *kernel.Thread, *FileSystem) {
	t.Helper()
	sched := kernel.NewScheduler(numPriorities)
	self := sched.MainThread()
	disk := newMemDisk(testNumSectors, testSectorSize)
	if err := Format(self, disk, testNumSectors, testNumDirect, testNameMax); err != nil {
		t.Fatalf("Format() = %v, want nil", err)
	}
	fsys := New(sched, disk, testNumSectors, testNumDirect, testNameMax)
	return sched, self, fsys
}

func TestCreateAtRootIsForbidden(t *testing.T) {
	_, self, fsys := newTestFS(t, 1)
	if err := fsys.Create(self, "/", 0, false); err != ErrRootImmutable {
		t.Errorf("Create(/) = %v, want ErrRootImmutable", err)
	}
}

func TestCreateOpenWriteReadRemove(t *testing.T) {
	_, self, fsys := newTestFS(t, 1)

	if err := fsys.Create(self, "/hello", 0, false); err != nil {
		t.Fatalf("Create(/hello) = %v, want nil", err)
	}
	if err := fsys.Create(self, "/hello", 0, false); err != ErrAlreadyExists {
		t.Errorf("Create(/hello) again = %v, want ErrAlreadyExists", err)
	}

	f, err := fsys.Open(self, "/hello")
	if err != nil {
		t.Fatalf("Open(/hello) = %v, want nil", err)
	}

	want := []byte("nachOS")
	if n := f.Write(self, want); n != len(want) {
		t.Fatalf("Write() = %d, want %d", n, len(want))
	}

	got := make([]byte, len(want))
	if n := f.ReadAt(self, got, 0); n != len(want) || string(got) != string(want) {
		t.Fatalf("ReadAt() = (%d, %q), want (%d, %q)", n, got, len(want), want)
	}
	f.Close(self)

	if err := fsys.Remove(self, "/hello"); err != nil {
		t.Fatalf("Remove(/hello) = %v, want nil", err)
	}
	if _, err := fsys.Open(self, "/hello"); err != ErrNotFound {
		t.Errorf("Open(/hello) after Remove = %v, want ErrNotFound", err)
	}
}

func TestCreateUnderNonDirectoryParentFails(t *testing.T) {
	_, self, fsys := newTestFS(t, 1)
	if err := fsys.Create(self, "/file", 0, false); err != nil {
		t.Fatalf("Create(/file) = %v, want nil", err)
	}
	if err := fsys.Create(self, "/file/sub", 0, false); err != ErrNotFound {
		t.Errorf("Create(/file/sub) = %v, want ErrNotFound (walk stops at a non-directory parent)", err)
	}
}

func TestRemoveOfNonEmptyDirectoryFails(t *testing.T) {
	_, self, fsys := newTestFS(t, 1)
	if err := fsys.Create(self, "/dir", 0, true); err != nil {
		t.Fatalf("Create(/dir) = %v, want nil", err)
	}
	if err := fsys.Create(self, "/dir/child", 0, false); err != nil {
		t.Fatalf("Create(/dir/child) = %v, want nil", err)
	}
	if err := fsys.Remove(self, "/dir"); err != ErrNotEmpty {
		t.Errorf("Remove(/dir) = %v, want ErrNotEmpty", err)
	}
}

// TestRemoveDefersUntilLastClose exercises the deferred-delete rule:
// Remove on a still-open file leaves its name resolvable to the same
// header until the last handle closes, at which point the on-disk
// delete (and the directory entry removal) actually happens.
func TestRemoveDefersUntilLastClose(t *testing.T) {
	_, self, fsys := newTestFS(t, 1)
	if err := fsys.Create(self, "/open", 0, false); err != nil {
		t.Fatalf("Create(/open) = %v, want nil", err)
	}

	f, err := fsys.Open(self, "/open")
	if err != nil {
		t.Fatalf("Open(/open) = %v, want nil", err)
	}

	if err := fsys.Remove(self, "/open"); err != nil {
		t.Fatalf("Remove(/open) while open = %v, want nil (deferred)", err)
	}

	// The directory entry removal is deferred too: a fresh Open attempt
	// while the original handle is still live must still fail, since a
	// pending-removal name is not a valid target for a new Open.
	if _, err := fsys.Open(self, "/open"); err != ErrPendingRemoval {
		t.Errorf("Open(/open) while pending removal = %v, want ErrPendingRemoval", err)
	}

	want := []byte("still there")
	f.Write(self, want)
	got := make([]byte, len(want))
	if n := f.ReadAt(self, got, 0); n != len(want) {
		t.Fatalf("ReadAt() on a pending-removal handle = %d, want %d", n, len(want))
	}

	f.Close(self)

	if _, err := fsys.Open(self, "/open"); err != ErrNotFound {
		t.Errorf("Open(/open) after last Close = %v, want ErrNotFound", err)
	}
}

func TestChangeDirectoryAndRelativePaths(t *testing.T) {
	_, self, fsys := newTestFS(t, 1)
	if err := fsys.Create(self, "/sub", 0, true); err != nil {
		t.Fatalf("Create(/sub) = %v, want nil", err)
	}
	if err := fsys.ChangeDirectory(self, "/sub"); err != nil {
		t.Fatalf("ChangeDirectory(/sub) = %v, want nil", err)
	}
	if err := fsys.Create(self, "leaf", 0, false); err != nil {
		t.Fatalf("Create(leaf) relative to /sub = %v, want nil", err)
	}
	if _, err := fsys.Open(self, "/sub/leaf"); err != nil {
		t.Errorf("Open(/sub/leaf) = %v, want nil", err)
	}

	if err := fsys.ChangeDirectory(self, "/sub/leaf"); err != ErrNotDirectory {
		t.Errorf("ChangeDirectory(/sub/leaf) = %v, want ErrNotDirectory", err)
	}
}

func TestListReturnsDirectoryEntries(t *testing.T) {
	_, self, fsys := newTestFS(t, 1)
	fsys.Create(self, "/a", 0, false)
	fsys.Create(self, "/b", 0, true)

	entries, err := fsys.List(self, "/")
	if err != nil {
		t.Fatalf("List(/) = %v, want nil", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List(/) returned %d entries, want 2", len(entries))
	}
}

// TestConcurrentCreatesInDistinctSubdirectories exercises hand-over-hand
// directory locking: several threads each own a distinct subdirectory
// of root and create files inside it. Since each thread's write lock is
// on a different child sector, none of them ever contend on the same
// rwlock.RWLock node, and all must complete.
func TestConcurrentCreatesInDistinctSubdirectories(t *testing.T) {
	const numWorkers = 4
	const filesPerWorker = 3

	sched, self, fsys := newTestFS(t, numWorkers+1)

	for i := 0; i < numWorkers; i++ {
		if err := fsys.Create(self, fmt.Sprintf("/dir%d", i), 0, true); err != nil {
			t.Fatalf("Create(/dir%d) = %v, want nil", i, err)
		}
	}

	var threads []*kernel.Thread
	for i := 0; i < numWorkers; i++ {
		dir := fmt.Sprintf("/dir%d", i)
		th := sched.Fork(dir, 1, true, func(any) {
			me := sched.CurrentThread()
			for j := 0; j < filesPerWorker; j++ {
				name := fmt.Sprintf("%s/file%d", dir, j)
				if err := fsys.Create(me, name, 0, false); err != nil {
					t.Errorf("Create(%s) = %v, want nil", name, err)
				}
			}
		}, nil)
		threads = append(threads, th)
	}

	for _, th := range threads {
		sched.Join(self, th)
	}

	for i := 0; i < numWorkers; i++ {
		entries, err := fsys.List(self, fmt.Sprintf("/dir%d", i))
		if err != nil {
			t.Fatalf("List(/dir%d) = %v, want nil", i, err)
		}
		if len(entries) != filesPerWorker {
			t.Errorf("List(/dir%d) returned %d entries, want %d", i, len(entries), filesPerWorker)
		}
	}
}
