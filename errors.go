// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import "errors"

// Sentinel errors returned by the pool and by SegmentStream. Check with
// errors.Is; callers that need the underlying allocation failure (e.g. a
// host out-of-memory condition) can unwrap ErrOutOfCapacity.
var (
	// ErrInvalidArgument is returned for negative offsets/counts,
	// out-of-range seeks, or a requested capacity below the current length.
	ErrInvalidArgument = errors.New("segbuf: invalid argument")

	// ErrObjectDisposed is returned for any operation on a stream after
	// Close, other than idempotent re-Close.
	ErrObjectDisposed = errors.New("segbuf: stream is closed")

	// ErrInvalidOperation is returned when changing a sealed global
	// setting after any stream has been created, or enabling native
	// buffers on a pool whose latch is already sealed.
	ErrInvalidOperation = errors.New("segbuf: invalid operation")

	// ErrOutOfCapacity is returned when the pool cannot satisfy a
	// rental, or a stream cannot grow to the size a write requires.
	ErrOutOfCapacity = errors.New("segbuf: out of capacity")

	// ErrNotSupported is returned for operations reserved for a
	// fixed-mode stream wrapping a caller-supplied array, which this
	// package does not implement.
	ErrNotSupported = errors.New("segbuf: not supported")
)
