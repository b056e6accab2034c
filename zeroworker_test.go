// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestZeroWorkerClearsEnqueuedSegment(t *testing.T) {
	w := newZeroWorker(zap.NewNop())
	defer w.stop()

	seg := &Segment{data: make([]byte, DefaultSegmentSize)}
	for i := range seg.data {
		seg.data[i] = 0xCD
	}
	w.enqueue(seg)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if seg.Zeroed() {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !seg.Zeroed() {
		t.Fatal("segment was not zeroed by the background worker in time")
	}
	for i, b := range seg.data {
		if b != 0 {
			t.Fatalf("byte %d = %x, want 0", i, b)
		}
	}
}

func TestZeroWorkerFallsBackInlineWhenQueueFull(t *testing.T) {
	w := &zeroWorker{
		requests: make(chan *Segment), // unbuffered: any send blocks, so enqueue always hits the default branch
		log:      zap.NewNop(),
		done:     make(chan struct{}),
	}
	seg := &Segment{data: []byte{1, 2, 3}}
	w.enqueue(seg)
	if !seg.Zeroed() {
		t.Fatal("expected inline zero when the worker's queue cannot accept the send")
	}
}
