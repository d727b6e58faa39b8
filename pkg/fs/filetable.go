package fs

import "github.com/Weheineman/nachOS/pkg/kernel"

// consoleStdin and consoleStdout are the reserved file ids the syscall
// dispatcher routes to the console bridge instead of this table.
const (
	consoleStdin  = 0
	consoleStdout = 1
	firstFileID   = 2
)

// FileTable is the per-thread open-file table kernel.Thread holds
// behind its kernel.FileTable interface; it implements CloseAll so
// Scheduler.Finish can reclaim every handle a dying thread left open.
type FileTable struct {
	files map[int]*OpenFile
	next  int
}

// NewFileTable returns an empty table; ids start at firstFileID, past
// the reserved console descriptors.
func NewFileTable() *FileTable {
	return &FileTable{files: make(map[int]*OpenFile), next: firstFileID}
}

// Install assigns a fresh id to f and returns it.
func (t *FileTable) Install(f *OpenFile) int {
	id := t.next
	t.next++
	t.files[id] = f
	return id
}

// Get returns the handle installed at id, if any.
func (t *FileTable) Get(id int) (*OpenFile, bool) {
	f, ok := t.files[id]
	return f, ok
}

// Remove closes and forgets the handle at id, reporting whether one existed.
func (t *FileTable) Remove(self *kernel.Thread, id int) bool {
	f, ok := t.files[id]
	if !ok {
		return false
	}
	delete(t.files, id)
	f.Close(self)
	return true
}

// CloseAll closes every handle still open in the table; called by
// Scheduler.Finish so an exiting or crashed program never leaks
// open-file-registry references.
func (t *FileTable) CloseAll(self *kernel.Thread) {
	for id, f := range t.files {
		delete(t.files, id)
		f.Close(self)
	}
}
