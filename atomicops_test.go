// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf_test

import (
	"sync/atomic"
	"testing"

	"code.streamforge.dev/segbuf"
)

func TestXor64(t *testing.T) {
	var v atomic.Uint64
	v.Store(0b1010)
	old, new := segbuf.Xor64(&v, 0b0110)
	if old != 0b1010 {
		t.Fatalf("old = %b, want %b", old, 0b1010)
	}
	if new != 0b1100 {
		t.Fatalf("new = %b, want %b", new, 0b1100)
	}
	if v.Load() != 0b1100 {
		t.Fatalf("stored = %b, want %b", v.Load(), 0b1100)
	}
}

func TestSetBitsClearBits64(t *testing.T) {
	var v atomic.Uint64
	segbuf.SetBits64(&v, 0b0110)
	if v.Load() != 0b0110 {
		t.Fatalf("after SetBits64 = %b, want %b", v.Load(), 0b0110)
	}
	segbuf.ClearBits64(&v, 0b0010)
	if v.Load() != 0b0100 {
		t.Fatalf("after ClearBits64 = %b, want %b", v.Load(), 0b0100)
	}
}

func TestConditionOr64SkipsWhenPredicateFalse(t *testing.T) {
	var v atomic.Uint64
	v.Store(1)
	old, new := segbuf.ConditionOr64(&v, func(u uint64) bool { return u == 2 }, 0b1000)
	if old != 1 || new != 1 {
		t.Fatalf("got old=%d new=%d, want both 1 (predicate false, no-op)", old, new)
	}
	if v.Load() != 1 {
		t.Fatalf("value changed despite false predicate: %d", v.Load())
	}
}

// TestConditionAnd64ComputesAND is a regression test: an earlier draft of
// ConditionAnd64 copy-pasted ConditionXor64's body and never swapped the
// operator, so it computed old^v instead of old&v. This pins the correct
// AND semantics.
func TestConditionAnd64ComputesAND(t *testing.T) {
	var v atomic.Uint64
	v.Store(0b1110)
	old, new := segbuf.ConditionAnd64(&v, func(uint64) bool { return true }, 0b1011)
	if old != 0b1110 {
		t.Fatalf("old = %b, want %b", old, 0b1110)
	}
	want := uint64(0b1110) & uint64(0b1011)
	if new != want {
		t.Fatalf("new = %b, want %b (AND, not XOR)", new, want)
	}
	if xorResult := uint64(0b1110) ^ uint64(0b1011); new == xorResult {
		t.Fatalf("new == XOR result %b; ConditionAnd64 must not compute XOR", xorResult)
	}
}

// TestConditionOr64SetOnceThenNoOp is scenario 6 from the end-to-end
// test list: condition_or(loc, pred = v==0, value = 7) on a zero word
// sets it to 7 and reports (0, 7); calling it again on the now-nonzero
// word is a no-op reporting (7, 7).
func TestConditionOr64SetOnceThenNoOp(t *testing.T) {
	var v atomic.Uint64
	pred := func(u uint64) bool { return u == 0 }

	old, new := segbuf.ConditionOr64(&v, pred, 7)
	if old != 0 || new != 7 {
		t.Fatalf("first call: got old=%d new=%d, want old=0 new=7", old, new)
	}
	if v.Load() != 7 {
		t.Fatalf("loc = %d, want 7", v.Load())
	}

	old, new = segbuf.ConditionOr64(&v, pred, 7)
	if old != 7 || new != 7 {
		t.Fatalf("second call: got old=%d new=%d, want both 7 (no-op)", old, new)
	}
}

func TestConditionAndArg32UsesCapturedArg(t *testing.T) {
	var v atomic.Uint32
	v.Store(0xFF)
	old, new := segbuf.ConditionAndArg32(&v, func(u uint32, threshold uint32) bool { return u >= threshold }, 0x0F, uint32(0x10))
	if old != 0xFF {
		t.Fatalf("old = %x, want %x", old, 0xFF)
	}
	if new != 0x0F {
		t.Fatalf("new = %x, want %x", new, 0x0F)
	}
}
