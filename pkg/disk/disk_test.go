package disk

import (
	"path/filepath"
	"testing"

	"github.com/Weheineman/nachOS/pkg/kernel"
)

func TestOpenTruncatesToGeometryAndRoundTripsSectors(t *testing.T) {
	sched := kernel.NewScheduler(1)
	self := sched.MainThread()

	path := filepath.Join(t.TempDir(), "nachos.disk")
	d, err := Open(path, 128, 16, sched)
	if err != nil {
		t.Fatalf("Open() = %v, want nil", err)
	}
	defer d.Close()

	if d.SectorSize() != 128 || d.NumSectors() != 16 {
		t.Fatalf("geometry = (%d, %d), want (128, 16)", d.SectorSize(), d.NumSectors())
	}

	want := make([]byte, 128)
	for i := range want {
		want[i] = byte(i)
	}
	d.WriteSector(self, 3, want)

	got := make([]byte, 128)
	d.ReadSector(self, 3, got)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ReadSector(3)[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	// An untouched sector reads back as the zero-filled truncated image.
	zero := make([]byte, 128)
	d.ReadSector(self, 5, zero)
	for i, b := range zero {
		if b != 0 {
			t.Fatalf("ReadSector(5)[%d] = %d, want 0 (never written)", i, b)
		}
	}
}

func TestOpenRefusesConcurrentUseOfSameImage(t *testing.T) {
	sched := kernel.NewScheduler(1)
	path := filepath.Join(t.TempDir(), "nachos.disk")

	first, err := Open(path, 64, 4, sched)
	if err != nil {
		t.Fatalf("first Open() = %v, want nil", err)
	}
	defer first.Close()

	if _, err := Open(path, 64, 4, sched); err == nil {
		t.Error("second Open() of the same image = nil, want a lock-contention error")
	}
}
