// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

// DefaultSegmentSize is the fixed size of every Segment rented from the
// pool, 64 KiB. The segmented pool uses a single size class;
// SegmentStream composes multiple segments instead of growing a
// buffer's own size.
const DefaultSegmentSize = 64 * 1024

// BackingKind identifies where a Segment's (and its owning BufferGroup's)
// memory came from.
type BackingKind uint8

const (
	// BackingHeap segments live in a Go-managed byte slice large enough
	// to be placed outside the per-P tiny/small allocator paths.
	BackingHeap BackingKind = iota
	// BackingNative segments live in pinned, non-GC-managed memory
	// (mmap on unix, VirtualAlloc on windows; see native_*.go).
	BackingNative
)

// String implements fmt.Stringer.
func (k BackingKind) String() string {
	switch k {
	case BackingHeap:
		return "heap"
	case BackingNative:
		return "native"
	default:
		return "unknown"
	}
}

// Segment is a fixed-size block of bytes rented from a BufferGroup. Its
// identity is the pair (GroupID, Slot); its bytes are a slice directly
// into the owning group's contiguous region. A Segment is never shared
// between two live streams at once: the pool hands a given slot to at
// most one rental until it is returned.
type Segment struct {
	groupID uint64
	slot    uint32
	backing BackingKind
	data    []byte
	offset  int64
	zeroed  bool
}

// Bytes returns the segment's backing slice. Its length is always
// DefaultSegmentSize.
func (s *Segment) Bytes() []byte { return s.data }

// GroupID returns the id of the BufferGroup this segment was rented from.
func (s *Segment) GroupID() uint64 { return s.groupID }

// Slot returns the segment's slot index within its owning group.
func (s *Segment) Slot() uint32 { return s.slot }

// Backing reports whether this segment's memory is heap- or
// native-backed.
func (s *Segment) Backing() BackingKind { return s.backing }

// Offset returns the stream-local logical offset at which this segment
// begins. It is set by SegmentStream when the segment is appended to the
// stream's segment list and is meaningless before that.
func (s *Segment) Offset() int64 { return s.offset }

// Zeroed reports whether the segment's bytes are currently known to be
// all-zero. It is a best-effort hint, not a guarantee: OutOfBand zeroing
// completes asynchronously, so a freshly-rented segment may report false
// even though a background zero is in flight, and a segment a caller has
// written to directly (bypassing SegmentStream) is not tracked.
func (s *Segment) Zeroed() bool { return s.zeroed }

// zero clears the segment's bytes in place and marks it zeroed.
func (s *Segment) zero() {
	clear(s.data)
	s.zeroed = true
}
