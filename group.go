// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"math/bits"
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// GroupSize is the number of segments per BufferGroup. It is fixed at 64
// so the free-slot bitmap fits in a single atomic.Uint64 word.
const GroupSize = 64

var groupIDSeq atomic.Uint64

// group is one contiguous region of GroupSize*DefaultSegmentSize bytes,
// sliced into GroupSize segments. A set bit in bitmap means the
// corresponding slot is currently rented. Two live rentals never claim
// the same slot: every claim goes through a single compare-and-swap
// against the whole word.
type group struct {
	id      uint64
	backing BackingKind
	region  []byte
	native  *nativeRegion // nil for BackingHeap

	bitmap atomic.Uint64
	rented atomic.Int32

	// inflight/draining coordinate native-group release: draining is set
	// before the final rented==0 check, and tryRentRun bumps inflight
	// before consulting draining, so Drain can wait out any rental that
	// is already mid-flight before it frees the region.
	inflight atomic.Int32
	draining atomic.Bool
}

func newHeapGroup() *group {
	return &group{
		id:      groupIDSeq.Add(1),
		backing: BackingHeap,
		region:  CacheLineAlignedMem(GroupSize * DefaultSegmentSize),
	}
}

func newNativeGroup() (g *group, err error) {
	nr, err := allocNative(GroupSize * DefaultSegmentSize)
	if err != nil {
		return nil, err
	}
	return &group{
		id:      groupIDSeq.Add(1),
		backing: BackingNative,
		region:  nr.bytes,
		native:  nr,
	}, nil
}

// maskOf returns a mask with the low count bits set.
func maskOf(count int) uint64 {
	if count >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(count)) - 1
}

// findFreeRun returns the lowest slot at which count consecutive clear
// bits occur in bitmap, word-at-a-time: each failed candidate window
// skips straight past its highest rented bit via bits.Len64 instead of
// advancing one bit at a time.
func findFreeRun(bitmap uint64, count int) (start int, ok bool) {
	if count <= 0 || count > GroupSize {
		return 0, false
	}
	mask := maskOf(count)
	for pos := 0; pos+count <= GroupSize; {
		window := (bitmap >> uint(pos)) & mask
		if window == 0 {
			return pos, true
		}
		pos += bits.Len64(window)
	}
	return 0, false
}

// tryRentRun finds the first contiguous run of count clear bits and
// claims them with a single CAS, retrying on contention. It returns
// false if the group currently has no such run, or is draining.
func (g *group) tryRentRun(count int) ([]*Segment, bool) {
	g.inflight.Add(1)
	defer g.inflight.Add(-1)

	if g.draining.Load() {
		return nil, false
	}

	var sw spin.Wait
	for {
		cur := g.bitmap.Load()
		start, ok := findFreeRun(cur, count)
		if !ok {
			return nil, false
		}
		claim := maskOf(count) << uint(start)
		if !g.bitmap.CompareAndSwap(cur, cur|claim) {
			sw.Once()
			continue
		}
		g.rented.Add(int32(count))
		segs := make([]*Segment, count)
		for i := range segs {
			slot := start + i
			lo := slot * DefaultSegmentSize
			hi := lo + DefaultSegmentSize
			segs[i] = &Segment{
				groupID: g.id,
				slot:    uint32(slot),
				backing: g.backing,
				data:    g.region[lo:hi:hi],
			}
		}
		return segs, true
	}
}

// returnRun clears the bits for first..first+count and applies the zero
// policy. segs must be the exact segments being returned, in slot order,
// so OnRelease/OutOfBand zeroing touches the right bytes.
func (g *group) returnRun(first, count int, policy ZeroBufferBehavior, segs []*Segment, pool *BufferPool) {
	mask := maskOf(count) << uint(first)
	switch policy {
	case ZeroOnRelease:
		for _, s := range segs {
			s.zero()
		}
		ClearBits64(&g.bitmap, mask)
	case ZeroOutOfBand:
		ClearBits64(&g.bitmap, mask)
		for _, s := range segs {
			pool.zw.enqueue(s)
		}
	default: // ZeroNone
		ClearBits64(&g.bitmap, mask)
	}
	g.rented.Add(-int32(count))
}

// tryFreeIfEmpty releases a native group's backing region if it is
// currently empty. It is a best-effort operation: a rental that raced
// past the draining check just before it was set will be waited out via
// inflight, but Drain makes no stronger guarantee than "caller hint,
// best effort".
func (g *group) tryFreeIfEmpty() bool {
	if g.backing != BackingNative || g.native == nil {
		return false
	}
	if !g.draining.CompareAndSwap(false, true) {
		return false
	}
	for g.inflight.Load() != 0 {
		spinOnce()
	}
	if g.rented.Load() != 0 {
		g.draining.Store(false)
		return false
	}
	g.native.free()
	return true
}

func spinOnce() {
	var sw spin.Wait
	sw.Once()
}
