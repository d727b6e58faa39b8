package vm

import "testing"

func TestTLBInstallAndLookup(t *testing.T) {
	tlb := NewTLB(2)
	tlb.Install(TLBEntry{Valid: true, VirtualPage: 3, PhysicalPage: 7})

	e, ok := tlb.Lookup(3)
	if !ok || e.PhysicalPage != 7 {
		t.Fatalf("Lookup(3) = (%+v, %v), want physical page 7", e, ok)
	}
	if _, ok := tlb.Lookup(4); ok {
		t.Error("Lookup(4) = true, want false (never installed)")
	}
}

func TestTLBInstallFillsInvalidSlotsFirst(t *testing.T) {
	tlb := NewTLB(2)
	tlb.Install(TLBEntry{Valid: true, VirtualPage: 0, PhysicalPage: 10})
	tlb.Install(TLBEntry{Valid: true, VirtualPage: 1, PhysicalPage: 11})

	if _, ok := tlb.Lookup(0); !ok {
		t.Error("Lookup(0) = false after filling both slots, want true")
	}
	if _, ok := tlb.Lookup(1); !ok {
		t.Error("Lookup(1) = false after filling both slots, want true")
	}
}

func TestTLBInstallEvictsRoundRobinWhenFull(t *testing.T) {
	tlb := NewTLB(2)
	tlb.Install(TLBEntry{Valid: true, VirtualPage: 0, PhysicalPage: 10})
	tlb.Install(TLBEntry{Valid: true, VirtualPage: 1, PhysicalPage: 11})

	evicted := tlb.Install(TLBEntry{Valid: true, VirtualPage: 2, PhysicalPage: 12})
	if evicted.VirtualPage != 0 {
		t.Errorf("first eviction returned slot for virtual page %d, want 0", evicted.VirtualPage)
	}
	if _, ok := tlb.Lookup(0); ok {
		t.Error("Lookup(0) = true after its slot was evicted, want false")
	}

	evicted = tlb.Install(TLBEntry{Valid: true, VirtualPage: 3, PhysicalPage: 13})
	if evicted.VirtualPage != 1 {
		t.Errorf("second eviction returned slot for virtual page %d, want 1 (round robin)", evicted.VirtualPage)
	}
}

func TestTLBInvalidateClearsByPhysicalPage(t *testing.T) {
	tlb := NewTLB(2)
	tlb.Install(TLBEntry{Valid: true, VirtualPage: 0, PhysicalPage: 5})
	tlb.Install(TLBEntry{Valid: true, VirtualPage: 1, PhysicalPage: 6})

	tlb.Invalidate(5)

	if _, ok := tlb.Lookup(0); ok {
		t.Error("Lookup(0) = true after Invalidate(5), want false")
	}
	if _, ok := tlb.Lookup(1); !ok {
		t.Error("Lookup(1) = false after Invalidate(5), want true (different physical page)")
	}
}

func TestTLBInvalidateAllClearsEverySlot(t *testing.T) {
	tlb := NewTLB(2)
	tlb.Install(TLBEntry{Valid: true, VirtualPage: 0, PhysicalPage: 5})
	tlb.Install(TLBEntry{Valid: true, VirtualPage: 1, PhysicalPage: 6})

	tlb.InvalidateAll()

	if _, ok := tlb.Lookup(0); ok {
		t.Error("Lookup(0) = true after InvalidateAll, want false")
	}
	if _, ok := tlb.Lookup(1); ok {
		t.Error("Lookup(1) = true after InvalidateAll, want false")
	}
}

func TestTLBFlushIntoCopiesUseAndDirtyBits(t *testing.T) {
	tlb := NewTLB(2)
	tlb.Install(TLBEntry{Valid: true, VirtualPage: 0, PhysicalPage: 5, Use: true, Dirty: true})
	tlb.Install(TLBEntry{Valid: true, VirtualPage: 1, PhysicalPage: 6})

	table := make([]PTE, 2)
	tlb.FlushInto(table)

	if !table[0].Use || !table[0].Dirty {
		t.Errorf("table[0] = %+v, want Use and Dirty both set", table[0])
	}
	if table[1].Use || table[1].Dirty {
		t.Errorf("table[1] = %+v, want neither bit set", table[1])
	}
}
