// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf_test

import (
	"testing"

	"code.streamforge.dev/segbuf"
)

func TestNewSettingsDefaults(t *testing.T) {
	s := segbuf.NewSettings()
	if s.ZeroPolicy != segbuf.ZeroOutOfBand {
		t.Fatalf("default ZeroPolicy = %v, want ZeroOutOfBand", s.ZeroPolicy)
	}
	if s.MaximumCapacity != 0 {
		t.Fatalf("default MaximumCapacity = %d, want 0 (unbounded)", s.MaximumCapacity)
	}
}

func TestSettingsWithMethodsReturnCopies(t *testing.T) {
	base := segbuf.NewSettings()
	modified := base.WithZeroPolicy(segbuf.ZeroNone).WithMaximumCapacity(4096)
	if base.ZeroPolicy == modified.ZeroPolicy {
		t.Fatal("base Settings mutated by WithZeroPolicy")
	}
	if modified.ZeroPolicy != segbuf.ZeroNone {
		t.Fatalf("modified.ZeroPolicy = %v, want ZeroNone", modified.ZeroPolicy)
	}
	if modified.MaximumCapacity != 4096 {
		t.Fatalf("modified.MaximumCapacity = %d, want 4096", modified.MaximumCapacity)
	}
}

func TestSetGlobalDefaultSettingsRejectsInitialCapacityAboveMaximum(t *testing.T) {
	s := segbuf.NewSettings().WithMaximumCapacity(1024).WithInitialCapacity(2048)
	err := segbuf.SetGlobalDefaultSettings(s)
	if err == nil {
		t.Fatal("expected an error when InitialCapacity exceeds MaximumCapacity")
	}
}

func TestZeroBufferBehaviorString(t *testing.T) {
	cases := map[segbuf.ZeroBufferBehavior]string{
		segbuf.ZeroNone:      "none",
		segbuf.ZeroOnRelease: "on-release",
		segbuf.ZeroOutOfBand: "out-of-band",
	}
	for z, want := range cases {
		if got := z.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", z, got, want)
		}
	}
}

func TestNewSegmentStreamWithInitialCapacity(t *testing.T) {
	pool := segbuf.NewBufferPool(segbuf.NewSettings())
	stream := segbuf.NewSegmentStream(pool, segbuf.WithSettings(
		segbuf.NewSettings().WithInitialCapacity(segbuf.DefaultSegmentSize*2),
	))
	defer stream.Close()

	if got := stream.Capacity(); got != segbuf.DefaultSegmentSize*2 {
		t.Fatalf("Capacity = %d, want %d", got, segbuf.DefaultSegmentSize*2)
	}
	if stream.Len() != 0 {
		t.Fatalf("Len = %d, want 0 (pre-renting capacity must not affect logical length)", stream.Len())
	}
}

func TestStreamRespectsMaximumCapacity(t *testing.T) {
	pool := segbuf.NewBufferPool(segbuf.NewSettings())
	stream := segbuf.NewSegmentStream(pool, segbuf.WithSettings(
		segbuf.NewSettings().WithMaximumCapacity(segbuf.DefaultSegmentSize),
	))
	defer stream.Close()

	if _, err := stream.Write(make([]byte, segbuf.DefaultSegmentSize)); err != nil {
		t.Fatalf("Write within capacity: %v", err)
	}
	_, err := stream.Write([]byte{1})
	if err == nil {
		t.Fatal("expected write past maximum capacity to fail")
	}
}
