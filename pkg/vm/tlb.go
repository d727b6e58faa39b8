package vm

// TLBEntry mirrors one hardware translation slot: a small translation
// cache entry between a virtual and a physical page.
type TLBEntry struct {
	Valid        bool
	VirtualPage  int
	PhysicalPage int
	Use          bool
	Dirty        bool
	ReadOnly     bool
}

// TLB is the fully-associative translation cache: slots are filled
// round-robin, preferring any invalid slot first.
type TLB struct {
	entries []TLBEntry
	next    int
}

// NewTLB allocates a TLB of size slots.
func NewTLB(size int) *TLB {
	return &TLB{entries: make([]TLBEntry, size)}
}

// Lookup returns the slot mapping virtualPage, if any.
func (t *TLB) Lookup(virtualPage int) (TLBEntry, bool) {
	for _, e := range t.entries {
		if e.Valid && e.VirtualPage == virtualPage {
			return e, true
		}
	}
	return TLBEntry{}, false
}

// Install writes e into an invalid slot if one exists, else the next
// slot in round-robin order, and returns the slot's previous content
// (the caller's cue to flush it back to the page table if it was valid).
func (t *TLB) Install(e TLBEntry) TLBEntry {
	for i := range t.entries {
		if !t.entries[i].Valid {
			old := t.entries[i]
			t.entries[i] = e
			return old
		}
	}
	i := t.next
	t.next = (t.next + 1) % len(t.entries)
	old := t.entries[i]
	t.entries[i] = e
	return old
}

// Invalidate clears any slot mapping physicalPage, so a stale entry
// never outlives the frame it pointed at after an eviction.
func (t *TLB) Invalidate(physicalPage int) {
	for i := range t.entries {
		if t.entries[i].Valid && t.entries[i].PhysicalPage == physicalPage {
			t.entries[i] = TLBEntry{}
		}
	}
}

// InvalidateAll clears every slot; called on RestoreState when the
// owning address space is about to run again.
func (t *TLB) InvalidateAll() {
	for i := range t.entries {
		t.entries[i] = TLBEntry{}
	}
}

// FlushInto copies every valid slot's use/dirty bits back into table,
// keyed by virtual page. Called on context save so the bits survive
// the TLB being invalidated by the next RestoreState.
func (t *TLB) FlushInto(table []PTE) {
	for _, e := range t.entries {
		if e.Valid && e.VirtualPage < len(table) {
			table[e.VirtualPage].Use = e.Use
			table[e.VirtualPage].Dirty = e.Dirty
		}
	}
}
