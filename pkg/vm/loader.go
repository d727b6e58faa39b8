package vm

import "github.com/Weheineman/nachOS/pkg/machine"

// pageRange returns the half-open virtual byte range [start, end) page
// covers.
func pageRange(page, pageSize int) (uint32, uint32) {
	start := uint32(page * pageSize)
	return start, start + uint32(pageSize)
}

// copySegmentIntoFrame copies the portion of seg overlapping the page
// range [pageStart, pageEnd) into frame at the matching offset: the
// intersection of each page's virtual range with each segment. A
// no-op if the page and segment do not overlap.
func copySegmentIntoFrame(exe machine.Executable, seg machine.Segment, pageStart, pageEnd uint32, frame []byte) error {
	segStart := seg.VirtualAddr
	segEnd := seg.VirtualAddr + seg.Size
	lo := max(pageStart, segStart)
	hi := min(pageEnd, segEnd)
	if lo >= hi {
		return nil
	}
	fileOff := int64(seg.FileOffset) + int64(lo-segStart)
	frameOff := lo - pageStart
	_, err := exe.ReadAt(frame[frameOff:frameOff+(hi-lo)], fileOff)
	return err
}
