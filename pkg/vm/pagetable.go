package vm

// PTE is one page-table entry. For entry at index i, VirtualPage holds
// one of three things: i itself (loaded, PhysicalPage valid), numPages
// (never loaded), or numPages+1 (in swap), an encoding that folds the
// page's load state into the index instead of a separate state field.
type PTE struct {
	VirtualPage  int
	PhysicalPage int
	Valid        bool
	Use          bool
	Dirty        bool
	ReadOnly     bool
}
