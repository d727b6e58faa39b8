package vm

import (
	"fmt"

	"github.com/Weheineman/nachOS/pkg/fs"
	"github.com/Weheineman/nachOS/pkg/kernel"
)

// swapPath names the per-process swap file SWAP.<spaceId>.
func swapPath(spaceID int) string { return fmt.Sprintf("/SWAP.%d", spaceID) }

// SwapFile is the per-process backing store for evicted pages: created
// through the same facade user files go through, and removed when the
// owning address space is torn down.
type SwapFile struct {
	fsys     *fs.FileSystem
	path     string
	handle   *fs.OpenFile
	pageSize int
}

// NewSwapFile creates and opens SWAP.<spaceID> in fsys.
func NewSwapFile(self *kernel.Thread, fsys *fs.FileSystem, spaceID, pageSize int) (*SwapFile, error) {
	path := swapPath(spaceID)
	if err := fsys.Create(self, path, 0, false); err != nil {
		return nil, err
	}
	handle, err := fsys.Open(self, path)
	if err != nil {
		return nil, err
	}
	return &SwapFile{fsys: fsys, path: path, handle: handle, pageSize: pageSize}, nil
}

// WritePage stores data at virtualPage's offset (virtualPage * page size).
func (s *SwapFile) WritePage(self *kernel.Thread, virtualPage int, data []byte) {
	s.handle.WriteAt(self, data, virtualPage*s.pageSize)
}

// ReadPage loads virtualPage's bytes into buf.
func (s *SwapFile) ReadPage(self *kernel.Thread, virtualPage int, buf []byte) {
	s.handle.ReadAt(self, buf, virtualPage*s.pageSize)
}

// Close releases the handle and removes the swap file from disk.
func (s *SwapFile) Close(self *kernel.Thread) error {
	s.handle.Close(self)
	return s.fsys.Remove(self, s.path)
}
