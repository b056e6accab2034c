// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"sync"
	"testing"
)

func TestFindFreeRun(t *testing.T) {
	cases := []struct {
		name    string
		bitmap  uint64
		count   int
		wantPos int
		wantOK  bool
	}{
		{"empty bitmap first bit", 0, 1, 0, true},
		{"empty bitmap run of 4", 0, 4, 0, true},
		{"low bit rented", 0b1, 1, 1, true},
		{"low byte rented run of 8", 0xFF, 8, 8, true},
		{"full bitmap", ^uint64(0), 1, 0, false},
		{"run too big", 0, 65, 0, false},
		{"gap too small skipped", 0b0000_0101, 2, 3, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos, ok := findFreeRun(tc.bitmap, tc.count)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && pos != tc.wantPos {
				t.Fatalf("pos = %d, want %d", pos, tc.wantPos)
			}
		})
	}
}

func TestGroupTryRentRunClaimsDistinctSlots(t *testing.T) {
	g := newHeapGroup()
	segsA, ok := g.tryRentRun(3)
	if !ok {
		t.Fatal("first rental failed")
	}
	segsB, ok := g.tryRentRun(GroupSize - 3)
	if !ok {
		t.Fatal("second rental failed")
	}
	seen := map[uint32]bool{}
	for _, s := range append(segsA, segsB...) {
		if seen[s.Slot()] {
			t.Fatalf("slot %d claimed twice", s.Slot())
		}
		seen[s.Slot()] = true
	}
	if len(seen) != GroupSize {
		t.Fatalf("claimed %d distinct slots, want %d", len(seen), GroupSize)
	}
	if _, ok := g.tryRentRun(1); ok {
		t.Fatal("group should be full")
	}
}

func TestGroupReturnRunZeroOnRelease(t *testing.T) {
	g := newHeapGroup()
	segs, ok := g.tryRentRun(2)
	if !ok {
		t.Fatal("rental failed")
	}
	for _, s := range segs {
		for i := range s.data {
			s.data[i] = 0xAB
		}
	}
	g.returnRun(int(segs[0].Slot()), 2, ZeroOnRelease, segs, nil)
	for _, s := range segs {
		for i, b := range s.data {
			if b != 0 {
				t.Fatalf("segment not zeroed at byte %d: %x", i, b)
			}
		}
		if !s.Zeroed() {
			t.Fatal("segment not marked zeroed")
		}
	}
	if g.rented.Load() != 0 {
		t.Fatalf("rented = %d, want 0", g.rented.Load())
	}
}

func TestGroupConcurrentRentNeverOverlaps(t *testing.T) {
	g := newHeapGroup()
	const workers = 16
	var wg sync.WaitGroup
	results := make(chan *Segment, GroupSize)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				segs, ok := g.tryRentRun(1)
				if !ok {
					return
				}
				results <- segs[0]
			}
		}()
	}
	wg.Wait()
	close(results)
	seen := map[uint32]bool{}
	count := 0
	for s := range results {
		if seen[s.Slot()] {
			t.Fatalf("slot %d rented twice across goroutines", s.Slot())
		}
		seen[s.Slot()] = true
		count++
	}
	if count != GroupSize {
		t.Fatalf("rented %d segments total, want %d", count, GroupSize)
	}
}

func TestGroupTryFreeIfEmptyRefusesWhileRented(t *testing.T) {
	g, err := newNativeGroup()
	if err != nil {
		t.Fatalf("newNativeGroup: %v", err)
	}
	segs, ok := g.tryRentRun(1)
	if !ok {
		t.Fatal("rental failed")
	}
	if g.tryFreeIfEmpty() {
		t.Fatal("tryFreeIfEmpty succeeded on a non-empty group")
	}
	g.returnRun(int(segs[0].Slot()), 1, ZeroNone, segs, nil)
	if !g.tryFreeIfEmpty() {
		t.Fatal("tryFreeIfEmpty failed on an empty group")
	}
}
