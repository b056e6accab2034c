// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import "sync/atomic"

// Package-level atomic helpers over 32- and 64-bit words. BufferGroup's
// free-slot bitmap is the main consumer: ClearBits64 backs
// BufferGroup.returnRun, and the conditional helpers are available to
// callers that need a predicated bit update without hand-rolling the
// compare-and-swap retry loop themselves.
//
// All helpers are lock-free and make no syscalls; progress is guaranteed
// as long as some goroutine keeps retrying. sync/atomic already provides
// sequentially consistent semantics on every platform Go supports, which
// is what the bitmap protocol requires.

// Xor32 unconditionally XORs v into the word at loc and returns the value
// observed immediately before the update and the value written.
func Xor32(loc *atomic.Uint32, v uint32) (old, new uint32) {
	for {
		old = loc.Load()
		new = old ^ v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// Xor64 is the 64-bit counterpart of Xor32.
func Xor64(loc *atomic.Uint64, v uint64) (old, new uint64) {
	for {
		old = loc.Load()
		new = old ^ v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// SetBits32 sets every bit in mask on the word at loc. Setting bits is
// idempotent, so this is a direct hardware-assisted Or rather than a CAS
// retry loop.
func SetBits32(loc *atomic.Uint32, mask uint32) (old, new uint32) {
	old = loc.Or(mask)
	return old, old | mask
}

// SetBits64 is the 64-bit counterpart of SetBits32.
func SetBits64(loc *atomic.Uint64, mask uint64) (old, new uint64) {
	old = loc.Or(mask)
	return old, old | mask
}

// ClearBits32 clears every bit in mask on the word at loc.
func ClearBits32(loc *atomic.Uint32, mask uint32) (old, new uint32) {
	old = loc.And(^mask)
	return old, old &^ mask
}

// ClearBits64 is the 64-bit counterpart of ClearBits32.
func ClearBits64(loc *atomic.Uint64, mask uint64) (old, new uint64) {
	old = loc.And(^mask)
	return old, old &^ mask
}

// ConditionXor32 XORs v into the word at loc only if pred(old) is true at
// the moment of the successful compare-and-swap. If the predicate is
// false, loc is left unchanged and both returned values equal the
// observed value.
func ConditionXor32(loc *atomic.Uint32, pred func(uint32) bool, v uint32) (old, new uint32) {
	for {
		old = loc.Load()
		if !pred(old) {
			return old, old
		}
		new = old ^ v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// ConditionXor64 is the 64-bit counterpart of ConditionXor32.
func ConditionXor64(loc *atomic.Uint64, pred func(uint64) bool, v uint64) (old, new uint64) {
	for {
		old = loc.Load()
		if !pred(old) {
			return old, old
		}
		new = old ^ v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// ConditionOr32 ORs v into the word at loc only if pred(old) is true.
func ConditionOr32(loc *atomic.Uint32, pred func(uint32) bool, v uint32) (old, new uint32) {
	for {
		old = loc.Load()
		if !pred(old) {
			return old, old
		}
		new = old | v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// ConditionOr64 is the 64-bit counterpart of ConditionOr32.
func ConditionOr64(loc *atomic.Uint64, pred func(uint64) bool, v uint64) (old, new uint64) {
	for {
		old = loc.Load()
		if !pred(old) {
			return old, old
		}
		new = old | v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// ConditionAnd32 ANDs v into the word at loc only if pred(old) is true.
//
// This computes old & v, not old ^ v. Keep it that way: a draft of this
// helper reused the Xor body and never swapped the operator, which would
// silently break any caller relying on AND-masking semantics. See
// atomicops_test.go for the regression coverage.
func ConditionAnd32(loc *atomic.Uint32, pred func(uint32) bool, v uint32) (old, new uint32) {
	for {
		old = loc.Load()
		if !pred(old) {
			return old, old
		}
		new = old & v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// ConditionAnd64 is the 64-bit counterpart of ConditionAnd32.
func ConditionAnd64(loc *atomic.Uint64, pred func(uint64) bool, v uint64) (old, new uint64) {
	for {
		old = loc.Load()
		if !pred(old) {
			return old, old
		}
		new = old & v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// ConditionXorArg32 is ConditionXor32 with a predicate that takes an
// explicit captured argument, so call sites that need to compare against
// a value don't allocate a closure per call.
func ConditionXorArg32[A any](loc *atomic.Uint32, pred func(uint32, A) bool, v uint32, arg A) (old, new uint32) {
	for {
		old = loc.Load()
		if !pred(old, arg) {
			return old, old
		}
		new = old ^ v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// ConditionXorArg64 is the 64-bit counterpart of ConditionXorArg32.
func ConditionXorArg64[A any](loc *atomic.Uint64, pred func(uint64, A) bool, v uint64, arg A) (old, new uint64) {
	for {
		old = loc.Load()
		if !pred(old, arg) {
			return old, old
		}
		new = old ^ v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// ConditionOrArg32 is ConditionOr32 with a captured-argument predicate.
func ConditionOrArg32[A any](loc *atomic.Uint32, pred func(uint32, A) bool, v uint32, arg A) (old, new uint32) {
	for {
		old = loc.Load()
		if !pred(old, arg) {
			return old, old
		}
		new = old | v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// ConditionOrArg64 is the 64-bit counterpart of ConditionOrArg32.
func ConditionOrArg64[A any](loc *atomic.Uint64, pred func(uint64, A) bool, v uint64, arg A) (old, new uint64) {
	for {
		old = loc.Load()
		if !pred(old, arg) {
			return old, old
		}
		new = old | v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// ConditionAndArg32 is ConditionAnd32 with a captured-argument predicate.
func ConditionAndArg32[A any](loc *atomic.Uint32, pred func(uint32, A) bool, v uint32, arg A) (old, new uint32) {
	for {
		old = loc.Load()
		if !pred(old, arg) {
			return old, old
		}
		new = old & v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}

// ConditionAndArg64 is the 64-bit counterpart of ConditionAndArg32.
func ConditionAndArg64[A any](loc *atomic.Uint64, pred func(uint64, A) bool, v uint64, arg A) (old, new uint64) {
	for {
		old = loc.Load()
		if !pred(old, arg) {
			return old, old
		}
		new = old & v
		if loc.CompareAndSwap(old, new) {
			return old, new
		}
	}
}
