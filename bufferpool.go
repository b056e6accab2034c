// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BufferPool allocates and recycles fixed-size Segments in groups of
// GroupSize, optionally backed by pinned native memory. A pool is safe
// for concurrent use by any number of goroutines; rent and release
// never take a lock except when a new group must be allocated.
type BufferPool struct {
	settings Settings
	log      *zap.Logger

	heapGroups   groupGenerationArray
	nativeGroups groupGenerationArray
	growMu       sync.Mutex

	nativeEnabled  atomic.Bool
	nativeSealed   atomic.Bool
	rentedSegments atomic.Int64

	zw *zeroWorker
}

// NewBufferPool creates a BufferPool with the given Settings. Passing
// the zero Settings value is equivalent to NewSettings().
func NewBufferPool(settings Settings) *BufferPool {
	if settings == (Settings{}) {
		settings = NewSettings()
	}
	p := &BufferPool{
		settings: settings,
		log:      zap.NewNop(),
	}
	p.zw = newZeroWorker(p.log)
	return p
}

var (
	defaultPoolOnce sync.Once
	defaultPoolVal  *BufferPool
)

// DefaultPool returns the process-wide default BufferPool, constructed
// on first use from the current global default Settings.
func DefaultPool() *BufferPool {
	defaultPoolOnce.Do(func() {
		defaultPoolVal = NewBufferPool(currentGlobalDefaults())
	})
	return defaultPoolVal
}

// SetLogger replaces the pool's zap logger, used for pool growth,
// zero-queue-overflow, and failed initial-capacity pre-rent events.
// Drain logs nothing. The default is a no-op logger.
func (p *BufferPool) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	p.log = log
	p.zw.log = log
}

// EnableNativeBuffers turns on native (pinned, non-GC) backing for
// groups allocated after this call. It is a one-shot latch, sealed by
// the first call or by the first SegmentStream created on this pool:
// once sealed, it returns nil if native buffers are already enabled and
// ErrInvalidOperation otherwise. Enabling native buffers never
// retroactively migrates already-allocated heap groups.
func (p *BufferPool) EnableNativeBuffers() error {
	if p.nativeSealed.Load() {
		if p.nativeEnabled.Load() {
			return nil
		}
		return errors.Wrap(ErrInvalidOperation, "native buffers already sealed off")
	}
	p.nativeEnabled.Store(true)
	p.nativeSealed.Store(true)
	return nil
}

func (p *BufferPool) nativeBuffersEnabled() bool {
	return p.nativeEnabled.Load()
}

// rent claims count contiguous segments from one group, preferring
// native groups when preferNative is true and native buffers are
// enabled on this pool. It scans existing groups first and only grows
// the generation array when none has room.
func (p *BufferPool) rent(count int, preferNative bool) ([]*Segment, error) {
	if count <= 0 || count > GroupSize {
		return nil, errors.Wrapf(ErrInvalidArgument, "segment run length %d out of range", count)
	}

	useNative := preferNative && p.nativeBuffersEnabled()
	gens := &p.heapGroups
	if useNative {
		gens = &p.nativeGroups
	}

	for _, g := range gens.snapshot() {
		if segs, ok := g.tryRentRun(count); ok {
			p.rentedSegments.Add(int64(count))
			return segs, nil
		}
	}

	segs, err := p.growAndRent(gens, useNative, count)
	if err != nil {
		return nil, err
	}
	p.rentedSegments.Add(int64(count))
	return segs, nil
}

// growAndRent claims count segments under growMu, re-scanning existing
// groups first (a concurrent grower may have already added room while
// this goroutine waited for the lock) before allocating a fresh group.
func (p *BufferPool) growAndRent(gens *groupGenerationArray, native bool, count int) ([]*Segment, error) {
	p.growMu.Lock()
	defer p.growMu.Unlock()

	for _, g := range gens.snapshot() {
		if segs, ok := g.tryRentRun(count); ok {
			return segs, nil
		}
	}

	var g *group
	var err error
	if native {
		g, err = newNativeGroup()
	} else {
		g = newHeapGroup()
	}
	if err != nil {
		return nil, fmt.Errorf("allocate new group: %w: %w", ErrOutOfCapacity, err)
	}
	gens.append(g)
	p.log.Debug("grew buffer pool",
		zap.Uint64("group_id", g.id),
		zap.Stringer("backing", g.backing),
		zap.Int("group_size", GroupSize))

	segs, ok := g.tryRentRun(count)
	if !ok {
		return nil, errors.Wrap(ErrOutOfCapacity, "freshly allocated group could not satisfy the rental")
	}
	return segs, nil
}

// release returns segs to their owning groups, applying the pool's zero
// policy. segs may span any number of groups; release splits them into
// per-group contiguous runs (a SegmentStream's segment list is append-
// ordered within a group but may cross group boundaries once it has
// grown past GroupSize segments).
func (p *BufferPool) release(segs []*Segment, policy ZeroBufferBehavior) error {
	i := 0
	for i < len(segs) {
		groupID := segs[i].GroupID()
		first := int(segs[i].Slot())
		j := i + 1
		for j < len(segs) && segs[j].GroupID() == groupID && int(segs[j].Slot()) == first+(j-i) {
			j++
		}
		g := p.findGroup(groupID)
		if g == nil {
			return errors.Wrap(ErrInvalidArgument, "unknown group id")
		}
		run := segs[i:j]
		g.returnRun(first, len(run), policy, run, p)
		p.rentedSegments.Add(-int64(len(run)))
		i = j
	}
	return nil
}

func (p *BufferPool) findGroup(id uint64) *group {
	for _, g := range p.heapGroups.snapshot() {
		if g.id == id {
			return g
		}
	}
	for _, g := range p.nativeGroups.snapshot() {
		if g.id == id {
			return g
		}
	}
	return nil
}

// Drain attempts to free any currently-empty native groups' backing
// memory back to the OS. It is a caller hint, best-effort: a group that
// is empty now but being concurrently rented from is simply skipped
// rather than raced against. Heap groups are never freed, since Go's
// garbage collector already reclaims them once unreachable; Drain only
// ever has an effect when native buffers are in use.
func (p *BufferPool) Drain() {
	for _, g := range p.nativeGroups.snapshot() {
		g.tryFreeIfEmpty()
	}
}

// RentedSegments reports the number of segments currently rented out
// across every group in the pool, for diagnostics and tests.
func (p *BufferPool) RentedSegments() int64 {
	return p.rentedSegments.Load()
}
