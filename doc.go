// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package segbuf provides a segmented buffer pool and a dynamic,
// seekable byte stream built on top of it.
//
// The pool hands out fixed-size 64 KiB segments from 64-segment groups,
// each group's free-slot bitmap packed into a single atomic.Uint64 so
// rent and return are lock-free compare-and-swap loops rather than
// mutex-guarded sections. SegmentStream composes rented segments into
// an io.Reader/io.Writer/io.Seeker that grows and shrinks as bytes are
// written, read, or truncated, without ever copying a segment's
// contents to resize.
//
// # Groups and generations
//
// Segments are allocated in groups of GroupSize (64). A BufferPool keeps
// an append-only groupGenerationArray per backing kind: new groups are
// published with a single atomic.Pointer store, so a concurrent rent
// scan never blocks behind a grower and never observes a partially
// constructed slice.
//
// # Backing kinds
//
// A group's memory is either heap-backed (BackingHeap, a Go byte slice
// aligned to the cache line) or native-backed (BackingNative, mmap on
// unix / VirtualAlloc on windows, pinned outside the garbage collector).
// Native buffers are disabled by default; EnableNativeBuffers turns them
// on for a pool and is a one-shot latch, like the global default
// Settings.
//
//	pool := segbuf.NewBufferPool(segbuf.NewSettings())
//	stream := segbuf.NewSegmentStream(pool)
//	defer stream.Close()
//	n, err := stream.Write(payload)
//
// # Zero policy
//
// ZeroBufferBehavior controls when a released segment's bytes are
// cleared: never (ZeroNone), synchronously on release (ZeroOnRelease),
// or handed to a background worker (ZeroOutOfBand). Regardless of
// policy, SegmentStream never lets a caller read bytes it has not
// itself written or explicitly zeroed: a seek past the current length
// followed by a write leaves a gap that always reads back as zero
// bytes, because the gap is zeroed at grow time, not at release time.
//
// # Atomic helpers
//
// atomicops.go exposes the lock-free bit-manipulation primitives the
// pool's bitmap protocol is built from (Xor32/64, SetBits32/64,
// ClearBits32/64, and predicated ConditionXor/Or/And variants) as a
// general-purpose API, not just internal plumbing.
//
// # Vectored I/O
//
// CopyTo and CopyToContext batch a stream's unread segments into a
// single net.Buffers vectored write instead of one Write call per
// segment.
//
// # Thread safety
//
// BufferPool and its groups are safe for concurrent use from any number
// of goroutines. A single SegmentStream is not: callers sharing one
// across goroutines must serialize access themselves, matching the
// convention of Go's own bytes.Buffer.
//
// # Dependencies
//
// segbuf depends on:
//   - code.hybscloud.com/spin: spin-wait backoff for bitmap CAS retry loops
//   - github.com/pkg/errors: wrapped sentinel errors with stack traces
//   - go.uber.org/zap: structured logging for pool growth and zero-queue overflow events
//   - golang.org/x/sync/errgroup: coordinating concurrent stream workloads in tests
//   - golang.org/x/sys: native memory backing (mmap/VirtualAlloc) and Linux
//     available-memory detection
package segbuf
